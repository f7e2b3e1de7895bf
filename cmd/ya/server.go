package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rtemka/ya/pkg/web"
	"github.com/rtemka/ya/users/domain"
	usersapi "github.com/rtemka/ya/users/pkg/api"
	"github.com/rtemka/ya/users/pkg/session"
	usersqlite "github.com/rtemka/ya/users/pkg/sqlite"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// настройки базы данных
const (
	maxConns        = 50
	maxConnIdleTime = 4 * time.Minute
)

// настройки подключения к БД
const (
	retries       = 5
	retryInterval = time.Second
)

var ErrRetryExceeded = errors.New("connect DB: number of retries exceeded")

// connect повторяет open до успеха, но не более retries раз.
// После последней неудачной попытки не ждет.
func connect[T any](open func() (T, error), retries int, interval time.Duration, logger *zap.Logger) (T, error) {
	var zero T
	var lastErr error
	for i := 0; i < retries; i++ {
		if i > 0 {
			time.Sleep(interval)
		}
		db, err := open()
		if err == nil {
			return db, nil
		}
		lastErr = err
		logger.Warn("connect DB", zap.Int("attempt", i+1), zap.Error(err))
	}
	return zero, fmt.Errorf("%w: %v", ErrRetryExceeded, lastErr)
}

type pool interface {
	SetConnMaxIdleTime(time.Duration)
	SetMaxOpenConns(int)
	SetMaxIdleConns(int)
}

func tune(p pool) {
	p.SetConnMaxIdleTime(maxConnIdleTime)
	p.SetMaxOpenConns(maxConns)
	p.SetMaxIdleConns(maxConns)
}

// mountUsers подключает хранилище пользователей, создает
// пользователей из файла и регистрирует маршруты входа.
// Возвращает хранилище, которое нужно закрыть.
func mountUsers(ctx context.Context, base *web.Base, cfg config, logger *zap.Logger) (domain.Repository, error) {
	db, err := connect(func() (*usersqlite.SQLite, error) { return usersqlite.New(cfg.DBURL) }, retries, retryInterval, logger)
	if err != nil {
		return nil, err
	}
	tune(db.DB)

	users := domain.NewService(db)
	if cfg.UsersFile != "" {
		n, err := seedFile(ctx, cfg.UsersFile, users.Seed)
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		logger.Info("users seeded", zap.String("file", cfg.UsersFile), zap.Int("count", n))
	}

	sessions := session.New(cfg.SessionSecret, cfg.SessionTTL)
	base.Router.Use(sessions.Middleware)
	usersapi.Mount(base, users, sessions)
	return db, nil
}

// seedFile открывает файл path и передает его seed.
func seedFile(ctx context.Context, path string, seed func(context.Context, io.Reader) (int, error)) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	n, err := seed(ctx, f)
	if err != nil {
		return n, fmt.Errorf("seed %s: %w", path, err)
	}
	return n, nil
}

// shutdownTimeout - время на завершение текущих запросов при остановке.
const shutdownTimeout = 10 * time.Second

// serve запускает сервер с обработчиком h и ждет его остановки:
// по сигналу прерывания, отмене ctx или ошибке самого сервера.
// Ошибка запуска сервера, например занятый порт, возвращается.
func serve(ctx context.Context, addr string, h http.Handler, logger *zap.Logger) error {
	// создание контекста для регулирования
	// закрытие всех подсистем
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	srv, errc := startRestServer(addr, h, logger)

	// логика закрытия сервера
	cancelation(ctx, cancel, logger)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	sctx, stop := context.WithTimeout(context.Background(), shutdownTimeout)
	defer stop()
	if err := srv.Shutdown(sctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-errc
}

// cancellation отслеживает сигналы прерывания и,
// если они получены, "мягко" отменяет контекст приложения.
func cancelation(ctx context.Context, cancel context.CancelFunc, logger *zap.Logger) {
	// ловим сигналов прерывания, типа CTRL-C
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGHUP, syscall.SIGTERM, syscall.SIGQUIT)
	go func() {
		defer signal.Stop(stop)
		select {
		case sig := <-stop: // получили сигнал
			logger.Sugar().Warnf("got signal %q", sig)
			cancel() // закрываем контекст приложения
		case <-ctx.Done():
		}
	}()
}

// startRestServer запускает сервер REST API.
// В канал попадает ошибка сервера или nil после штатной остановки.
func startRestServer(addr string, h http.Handler, logger *zap.Logger) (*http.Server, <-chan error) {
	// конфигурируем сервер
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		IdleTimeout:       3 * time.Minute,
		ReadHeaderTimeout: time.Minute,
	}

	errc := make(chan error, 1)
	go func() {
		err := srv.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
			logger.Warn("server is shut down")
		} else {
			logger.Error("REST server failed", zap.Error(err))
		}
		errc <- err
	}()
	logger.Info("REST server started", zap.String("address", srv.Addr))
	return srv, errc
}

var encoderCfg = zapcore.EncoderConfig{
	MessageKey: "msg",
	NameKey:    "name",

	LevelKey:    "level",
	EncodeLevel: zapcore.CapitalLevelEncoder,

	CallerKey:    "caller",
	EncodeCaller: zapcore.ShortCallerEncoder,

	TimeKey:    "time",
	EncodeTime: zapcore.RFC3339TimeEncoder,
}

func zapLogger(w io.Writer) *zap.Logger {
	zl := zap.New(
		zapcore.NewCore(
			zapcore.NewJSONEncoder(encoderCfg),
			zapcore.Lock(zapcore.AddSync(w)),
			zapcore.DebugLevel,
		),
		zap.AddCaller(),
	)
	return zl
}

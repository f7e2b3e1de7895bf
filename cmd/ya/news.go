package main

import (
	"os"

	"github.com/rtemka/ya/news/domain"
	"github.com/rtemka/ya/news/pkg/api"
	"github.com/rtemka/ya/news/pkg/postgres"
	"github.com/rtemka/ya/news/pkg/sqlite"
	"github.com/rtemka/ya/pkg/web"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var newsCmd = &cobra.Command{
	Use:   "news",
	Short: "Запустить сервис новостей",
	Long: `Запуск REST API сервиса новостей и комментариев.

Настройки читаются из переменных окружения с префиксом NEWS_
(ADDR, DB_URL, PG_URL, SESSION_SECRET, SESSION_TTL, USERS_FILE,
NEWS_FILE, NEWS_COUNT_ON_HOME_PAGE). Если задан PG_URL, новости
и комментарии хранятся в PostgreSQL.`,
	RunE: runNews,
}

func init() {
	newsCmd.Flags().String("addr", "", "адрес сервера, заменяет NEWS_ADDR")
}

// connectNewsDB подключает PostgreSQL, если задан PG_URL, иначе SQLite.
func connectNewsDB(cfg newsConfig, logger *zap.Logger) (domain.Repository, error) {
	if cfg.PGURL != "" {
		db, err := connect(func() (*postgres.Postgres, error) { return postgres.New(cfg.PGURL) }, retries, retryInterval, logger)
		if err != nil {
			return nil, err
		}
		return db, nil
	}
	db, err := connect(func() (*sqlite.SQLite, error) { return sqlite.New(cfg.Service.DBURL) }, retries, retryInterval, logger)
	if err != nil {
		return nil, err
	}
	tune(db.DB)
	return db, nil
}

func runNews(cmd *cobra.Command, _ []string) error {
	cfg, err := loadNewsConfig(nil)
	if err != nil {
		return err
	}
	if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
		cfg.Service.Addr = addr
	}

	zl := zapLogger(os.Stdout)
	defer func() {
		_ = zl.Sync()
	}()

	db, err := connectNewsDB(cfg, zl)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := cmd.Context()
	news := domain.NewService(db)
	news.HomeLimit = cfg.HomeLimit
	if cfg.NewsFile != "" {
		n, err := seedFile(ctx, cfg.NewsFile, news.Seed)
		if err != nil {
			return err
		}
		zl.Info("news seeded", zap.String("file", cfg.NewsFile), zap.Int("count", n))
	}

	base := web.NewBase(zl)
	udb, err := mountUsers(ctx, base, cfg.Service, zl)
	if err != nil {
		return err
	}
	defer udb.Close()

	api.Mount(base, news)
	return serve(cmd.Context(), cfg.Service.Addr, base, zl)
}

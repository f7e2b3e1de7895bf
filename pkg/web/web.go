// пакет web содержит общую для сервисов обвязку REST API:
// цепочку middleware, запись JSON-ответов, перенаправления
// и разбор данных формы.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

var (
	ErrInternal = errors.New("internal server error")
	ErrBadInput = errors.New("invalid input")
)

// Timeout - предельное время обращения к хранилищу в рамках одного запроса.
const Timeout = 5 * time.Second

type ctxKey int

const (
	requestID ctxKey = iota
)

type wideResponseWriter struct {
	http.ResponseWriter
	length, status int
	internalErr    error
}

func (w *wideResponseWriter) WriteHeader(status int) {
	w.ResponseWriter.WriteHeader(status)
	w.status = status
}

func (w *wideResponseWriter) Write(b []byte) (int, error) {
	n, err := w.ResponseWriter.Write(b)
	w.length += n
	if w.status == 0 {
		w.status = http.StatusOK
	}
	return n, err
}

// Base - общая часть REST API сервисов.
// Встраивается в API конкретного сервиса.
type Base struct {
	Router *mux.Router
	Logger *zap.Logger
}

// NewBase возвращает [*Base] с новым маршрутизатором
// и подключенной цепочкой middleware.
func NewBase(logger *zap.Logger) *Base {
	b := &Base{
		Router: mux.NewRouter(),
		Logger: logger,
	}
	b.Router.Use(
		b.requestIDMiddleware,
		b.wideEventLogMiddleware,
		b.closerMiddleware,
		b.headersMiddleware,
		b.secHeadersMiddleware,
	)
	return b
}

// ServeHTTP - таким образом, мы можем использовать
// сам [*Base] в качестве мультиплексора на сервере.
func (b *Base) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.Router.ServeHTTP(w, r)
}

// RequestID возвращает id запроса из контекста.
func RequestID(ctx context.Context) string {
	rid, _ := ctx.Value(requestID).(string)
	return rid
}

// closerMiddleware считывает и закрывает тело запроса
// для повторного использования TCP-соединения.
func (b *Base) closerMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r)
		_, _ = io.Copy(io.Discard, r.Body)
		_ = r.Body.Close()
	})
}

// requestIDMiddleware извлекает id запроса из параметров запроса.
// В случае если id запроса отсутствует, id генерируется.
// Далее id добавляется в контекст запроса и в заголовок ответа.
func (b *Base) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rid := r.URL.Query().Get("request-id")
		if rid == "" {
			rid = uuid.NewString()
		}
		w.Header().Set("X-Request-Id", rid)
		ctxWithID := context.WithValue(r.Context(), requestID, rid)
		next.ServeHTTP(w, r.WithContext(ctxWithID))
	})
}

// wideEventLogMiddleware собирает и регистрирует информацию о полученном запросе.
func (b *Base) wideEventLogMiddleware(next http.Handler) http.Handler {

	return http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {

			wideWriter := &wideResponseWriter{ResponseWriter: w}

			next.ServeHTTP(wideWriter, r)

			addr, _, _ := net.SplitHostPort(r.RemoteAddr)
			b.Logger.Info("request received",
				zap.String("request_id", RequestID(r.Context())),
				zap.Int("status_code", wideWriter.status),
				zap.Int("response_length", wideWriter.length),
				zap.Int64("content_length", r.ContentLength),
				zap.String("method", r.Method),
				zap.String("proto", r.Proto),
				zap.String("remote_addr", addr),
				zap.String("uri", r.RequestURI),
				zap.String("user_agent", r.UserAgent()),
				zap.Error(wideWriter.internalErr),
			)
		},
	)
}

// headersMiddleware задает обычные заголовки для всех ответов.
func (b *Base) headersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json;charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// secHeadersMiddleware устанавливает строгие заголовки безопасности для всех ответов.
func (b *Base) secHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("X-XSS-Protection", "0")
		w.Header().Set("Cache-Control", "no-store")
		w.Header().Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'; sandbox")
		w.Header().Set("Server", "")
		next.ServeHTTP(w, r)
	})
}

func (b *Base) WriteJSONError(w http.ResponseWriter, err error, code int) {
	if wrw, ok := w.(*wideResponseWriter); ok {
		wrw.internalErr = err
	}
	w.WriteHeader(code)
	if code == http.StatusInternalServerError {
		err = ErrInternal
	}
	msg := map[string]string{"error": err.Error()}
	_ = json.NewEncoder(w).Encode(&msg)
}

func (b *Base) WriteJSON(w http.ResponseWriter, data any, code int) {
	w.WriteHeader(code)
	if data == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(data)
}

// NotFound отвечает 404. Причина сохраняется только в журнале.
func (b *Base) NotFound(w http.ResponseWriter, err error) {
	if wrw, ok := w.(*wideResponseWriter); ok {
		wrw.internalErr = err
	}
	b.WriteJSON(w, map[string]string{"error": "not found"}, http.StatusNotFound)
}

// Redirect перенаправляет запрос на location с кодом 302.
func (b *Base) Redirect(w http.ResponseWriter, r *http.Request, location string) {
	http.Redirect(w, r, location, http.StatusFound)
}

// URL возвращает путь именованного маршрута name.
// pairs - пары "имя переменной", "значение".
// Неизвестное имя маршрута - ошибка программиста, поэтому паника.
func URL(router *mux.Router, name string, pairs ...string) string {
	route := router.Get(name)
	if route == nil {
		panic(fmt.Sprintf("web: unknown route %q", name))
	}
	u, err := route.URLPath(pairs...)
	if err != nil {
		panic(fmt.Sprintf("web: build route %q: %v", name, err))
	}
	return u.Path
}

// Values возвращает данные формы из тела запроса.
// Поддерживаются application/x-www-form-urlencoded
// и JSON-объект со строковыми значениями.
func Values(r *http.Request) (url.Values, error) {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		var m map[string]string
		err := json.NewDecoder(r.Body).Decode(&m)
		if errors.Is(err, io.EOF) {
			return url.Values{}, nil
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadInput, err)
		}
		v := make(url.Values, len(m))
		for k, s := range m {
			v.Set(k, s)
		}
		return v, nil
	}
	if err := r.ParseForm(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadInput, err)
	}
	if r.PostForm == nil {
		return url.Values{}, nil
	}
	return r.PostForm, nil
}

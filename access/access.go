// пакет access реализует политику доступа к маршрутам и сущностям:
// анонимный пользователь перенаправляется на страницу входа,
// чужая сущность выглядит как несуществующая (404),
// автор сущности получает доступ.
package access

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gorilla/mux"
)

var (
	// ErrUnauthenticated - операция требует входа в систему.
	ErrUnauthenticated = errors.New("authentication required")
	// ErrForbidden - пользователь не является автором сущности.
	// Наружу отдается как "не найдено".
	ErrForbidden = errors.New("requester is not the author")
)

// Identity - пользователь, от имени которого выполняется запрос.
// Нулевой ID означает анонимного пользователя.
type Identity struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

// Anonymous - анонимный пользователь.
var Anonymous = Identity{}

// Authenticated сообщает, выполнен ли вход.
func (id Identity) Authenticated() bool {
	return id.ID != 0
}

// Owns сообщает, является ли пользователь автором сущности ownerID.
func (id Identity) Owns(ownerID int64) bool {
	return id.Authenticated() && id.ID == ownerID
}

type ctxKey int

const identityKey ctxKey = iota

// WithIdentity возвращает контекст с пользователем id.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// FromContext возвращает пользователя из контекста.
// Если пользователя нет, возвращается [Anonymous].
func FromContext(ctx context.Context) Identity {
	id, _ := ctx.Value(identityKey).(Identity)
	return id
}

// RequireAuth возвращает [ErrUnauthenticated] для анонимного пользователя.
func RequireAuth(id Identity) error {
	if !id.Authenticated() {
		return ErrUnauthenticated
	}
	return nil
}

// Authorize проверяет право id изменять или просматривать
// сущность автора ownerID.
func Authorize(id Identity, ownerID int64) error {
	if err := RequireAuth(id); err != nil {
		return err
	}
	if !id.Owns(ownerID) {
		return ErrForbidden
	}
	return nil
}

// Outcome - результат применения политики к запросу.
type Outcome int

const (
	Proceed Outcome = iota
	RedirectToLogin
	NotFound
)

var outcomeNames = [...]string{"proceed", "redirect_to_login", "not_found"}

func (o Outcome) String() string {
	if o < 0 || int(o) >= len(outcomeNames) {
		return "outcome(" + strconv.Itoa(int(o)) + ")"
	}
	return outcomeNames[o]
}

// Decide переводит ошибку политики в результат запроса.
// Ошибки, не относящиеся к политике, дают [Proceed]:
// их обрабатывает вызывающая сторона.
func Decide(err error) Outcome {
	switch {
	case errors.Is(err, ErrUnauthenticated):
		return RedirectToLogin
	case errors.Is(err, ErrForbidden):
		return NotFound
	default:
		return Proceed
	}
}

// LoginURL возвращает адрес страницы входа login с параметром next,
// указывающим на исходный адрес запроса r.
// Символы '/' в next не экранируются: /auth/login/?next=/edit/slug/
func LoginURL(login string, r *http.Request) string {
	next := (&url.URL{Path: r.URL.Path}).EscapedPath()
	if r.URL.RawQuery != "" {
		next += url.QueryEscape("?" + r.URL.RawQuery)
	}
	return login + "?next=" + next
}

// RequireLogin возвращает middleware, перенаправляющее анонимного
// пользователя на страницу входа. loginPath вызывается на каждый запрос,
// чтобы маршрут входа можно было зарегистрировать позже.
func RequireLogin(loginPath func() string) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !FromContext(r.Context()).Authenticated() {
				http.Redirect(w, r, LoginURL(loginPath(), r), http.StatusFound)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// SafeNext проверяет, что next - локальный путь, на который
// можно перенаправить после входа. Иначе возвращается fallback.
func SafeNext(next, fallback string) string {
	if next == "" || next[0] != '/' {
		return fallback
	}
	if len(next) > 1 && (next[1] == '/' || next[1] == '\\') {
		return fallback
	}
	if u, err := url.Parse(next); err != nil || u.IsAbs() || u.Host != "" {
		return fallback
	}
	return next
}

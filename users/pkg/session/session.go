// пакет session выдает и проверяет подписанные токены сессии
// и переносит пользователя из токена в контекст запроса.
package session

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rtemka/ya/access"
	"github.com/rtemka/ya/users/domain"
)

// CookieName - имя cookie с токеном сессии.
const CookieName = "session"

var ErrInvalidToken = errors.New("invalid session token")

// Claims - содержимое токена сессии.
type Claims struct {
	UserID   int64  `json:"uid"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// Manager выдает и проверяет токены сессии.
type Manager struct {
	secret []byte
	ttl    time.Duration
	// Now - источник текущего времени, подменяется в тестах.
	Now func() time.Time
	// Secure выставляет флаг Secure у cookie.
	Secure bool
}

// New возвращает [*Manager] с ключом подписи secret
// и временем жизни токена ttl.
func New(secret string, ttl time.Duration) *Manager {
	return &Manager{secret: []byte(secret), ttl: ttl, Now: time.Now}
}

// Issue выдает токен сессии для пользователя u.
func (m *Manager) Issue(u domain.User) (string, error) {
	now := m.Now().UTC()
	claims := Claims{
		UserID:   u.ID,
		Username: u.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.Username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tok.SignedString(m.secret)
}

// Parse проверяет токен и возвращает пользователя из него.
func (m *Manager) Parse(token string) (access.Identity, error) {
	claims := &Claims{}
	tok, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.Now),
	)
	if err != nil || !tok.Valid || claims.UserID == 0 {
		return access.Anonymous, ErrInvalidToken
	}
	return access.Identity{ID: claims.UserID, Username: claims.Username}, nil
}

// Middleware извлекает токен из cookie или заголовка
// Authorization: Bearer и кладет пользователя в контекст запроса.
// Запрос без токена или с недействительным токеном
// обрабатывается как анонимный.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := access.Anonymous
		if token := tokenFrom(r); token != "" {
			if v, err := m.Parse(token); err == nil {
				id = v
			}
		}
		next.ServeHTTP(w, r.WithContext(access.WithIdentity(r.Context(), id)))
	})
}

func tokenFrom(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	if c, err := r.Cookie(CookieName); err == nil {
		return c.Value
	}
	return ""
}

// SetCookie записывает токен сессии в cookie ответа.
func (m *Manager) SetCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(m.ttl.Seconds()),
		HttpOnly: true,
		Secure:   m.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearCookie удаляет cookie сессии.
func (m *Manager) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

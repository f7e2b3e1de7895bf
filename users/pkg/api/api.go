// пакет api предоставляет маршруты входа, выхода и регистрации,
// общие для всех сервисов.
package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/rtemka/ya/access"
	"github.com/rtemka/ya/pkg/form"
	"github.com/rtemka/ya/pkg/web"
	"github.com/rtemka/ya/users/domain"
	"github.com/rtemka/ya/users/pkg/session"
)

// имя маршрута.
const (
	LoginRoute  = "users:login"
	LogoutRoute = "users:logout"
	SignupRoute = "users:signup"
)

// InvalidLoginMessage - ошибка формы входа при неверных данных.
const InvalidLoginMessage = "Пожалуйста, введите правильные имя пользователя и пароль."

// API маршрутов пользователей.
type API struct {
	*web.Base
	users    *domain.Service
	sessions *session.Manager
}

// Mount регистрирует маршруты пользователей в маршрутизаторе base.
func Mount(base *web.Base, users *domain.Service, sessions *session.Manager) *API {
	api := &API{Base: base, users: users, sessions: sessions}
	api.endpoints()
	return api
}

// LoginPath возвращает путь страницы входа.
func (api *API) LoginPath() string {
	return web.URL(api.Router, LoginRoute)
}

func (api *API) endpoints() {
	r := api.Router
	r.HandleFunc("/auth/login/", api.handleLoginForm()).Methods(http.MethodGet).Name(LoginRoute)
	r.HandleFunc("/auth/login/", api.handleLogin()).Methods(http.MethodPost)
	r.HandleFunc("/auth/logout/", api.handleLogout()).Methods(http.MethodGet, http.MethodPost).Name(LogoutRoute)
	r.HandleFunc("/auth/signup/", api.handleSignupForm()).Methods(http.MethodGet).Name(SignupRoute)
	r.HandleFunc("/auth/signup/", api.handleSignup()).Methods(http.MethodPost)
}

func loginForm(username string) *form.Form {
	return form.New("login", map[string]string{"username": username, "password": ""})
}

func (api *API) handleLoginForm() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		api.WriteJSON(w, map[string]any{
			"form": loginForm(""),
			"next": r.URL.Query().Get("next"),
		}, http.StatusOK)
	}
}

func (api *API) handleLogin() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v, err := web.Values(r)
		if err != nil {
			api.WriteJSONError(w, err, http.StatusBadRequest)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), web.Timeout)
		defer cancel()

		u, err := api.users.Authenticate(ctx, v.Get("username"), v.Get("password"))
		if errors.Is(err, domain.ErrInvalidCredentials) {
			f := loginForm(v.Get("username"))
			f.AddError(&form.Error{Field: "__all__", Message: InvalidLoginMessage, Err: err})
			api.WriteJSON(w, map[string]any{"form": f}, http.StatusOK)
			return
		}
		if err != nil {
			api.WriteJSONError(w, err, http.StatusInternalServerError)
			return
		}

		token, err := api.sessions.Issue(u)
		if err != nil {
			api.WriteJSONError(w, err, http.StatusInternalServerError)
			return
		}
		api.sessions.SetCookie(w, token)

		next := v.Get("next")
		if next == "" {
			next = r.URL.Query().Get("next")
		}
		api.Redirect(w, r, access.SafeNext(next, "/"))
	}
}

func (api *API) handleLogout() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		api.sessions.ClearCookie(w)
		api.WriteJSON(w, map[string]string{"response": "logged out"}, http.StatusOK)
	}
}

func signupForm(username string) *form.Form {
	return form.New("signup", map[string]string{"username": username, "password": ""})
}

func (api *API) handleSignupForm() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		api.WriteJSON(w, map[string]any{"form": signupForm("")}, http.StatusOK)
	}
}

func (api *API) handleSignup() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v, err := web.Values(r)
		if err != nil {
			api.WriteJSONError(w, err, http.StatusBadRequest)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), web.Timeout)
		defer cancel()

		_, err = api.users.SignUp(ctx, v.Get("username"), v.Get("password"))
		if form.Has(err) {
			f := signupForm(v.Get("username"))
			f.AddError(err)
			api.WriteJSON(w, map[string]any{"form": f}, http.StatusOK)
			return
		}
		if err != nil {
			api.WriteJSONError(w, err, http.StatusInternalServerError)
			return
		}

		api.Redirect(w, r, api.LoginPath())
	}
}

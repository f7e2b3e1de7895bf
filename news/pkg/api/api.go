// пакет api предоставляет REST API новостей и комментариев.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/rtemka/ya/access"
	"github.com/rtemka/ya/news/domain"
	"github.com/rtemka/ya/pkg/form"
	"github.com/rtemka/ya/pkg/web"
	usersapi "github.com/rtemka/ya/users/pkg/api"
)

// имя маршрута.
const (
	HomeRoute   = "news:home"
	DetailRoute = "news:detail"
	EditRoute   = "news:edit"
	DeleteRoute = "news:delete"
	CheckRoute  = "news:check"
)

// API новостей.
type API struct {
	*web.Base
	news  *domain.Service
	login mux.MiddlewareFunc
}

// Mount регистрирует маршруты новостей в маршрутизаторе base.
// Маршрут входа users:login должен быть зарегистрирован
// в том же маршрутизаторе.
func Mount(base *web.Base, news *domain.Service) *API {
	api := &API{Base: base, news: news}
	api.login = access.RequireLogin(api.loginPath)
	api.endpoints()
	return api
}

func (api *API) loginPath() string {
	return web.URL(api.Router, usersapi.LoginRoute)
}

func (api *API) endpoints() {
	r := api.Router
	r.HandleFunc("/", api.handleHome()).Methods(http.MethodGet).Name(HomeRoute)
	r.HandleFunc("/news/{id:[0-9]+}/", api.handleDetail()).Methods(http.MethodGet).Name(DetailRoute)
	r.Handle("/news/{id:[0-9]+}/", api.login(api.handleSubmit())).Methods(http.MethodPost)
	r.Handle("/edit_comment/{id:[0-9]+}/", api.login(api.handleEditForm())).Methods(http.MethodGet).Name(EditRoute)
	r.Handle("/edit_comment/{id:[0-9]+}/", api.login(api.handleEdit())).Methods(http.MethodPost)
	r.Handle("/delete_comment/{id:[0-9]+}/", api.login(api.handleDeleteForm())).Methods(http.MethodGet).Name(DeleteRoute)
	r.Handle("/delete_comment/{id:[0-9]+}/", api.login(api.handleDelete())).Methods(http.MethodPost, http.MethodDelete)
	r.HandleFunc("/api/comments/check", api.handleCommentCheck()).Methods(http.MethodPost, http.MethodOptions).Name(CheckRoute)
}

// fail переводит ошибку сервиса в ответ.
func (api *API) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch access.Decide(err) {
	case access.RedirectToLogin:
		api.Redirect(w, r, access.LoginURL(api.loginPath(), r))
		return
	case access.NotFound:
		api.NotFound(w, err)
		return
	}
	if errors.Is(err, domain.ErrNotFound) {
		api.NotFound(w, err)
		return
	}
	api.WriteJSONError(w, err, http.StatusInternalServerError)
}

// id возвращает числовой параметр маршрута.
func id(r *http.Request) (int64, error) {
	v, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		return 0, domain.ErrNotFound
	}
	return v, nil
}

// commentsURL возвращает адрес блока комментариев новости.
func (api *API) commentsURL(newsID int64) string {
	return web.URL(api.Router, DetailRoute, "id", strconv.FormatInt(newsID, 10)) + "#comments"
}

func commentForm(text string) *form.Form {
	return form.New("comment", map[string]string{"text": text})
}

func (api *API) handleHome() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), web.Timeout)
		defer cancel()

		news, err := api.news.Home(ctx)
		if err != nil {
			api.fail(w, r, err)
			return
		}
		api.WriteJSON(w, map[string]any{"object_list": news}, http.StatusOK)
	}
}

// detail отдает новость с комментариями. Форма комментария
// добавляется только для вошедшего пользователя.
func (api *API) detail(w http.ResponseWriter, r *http.Request, f *form.Form) {
	newsID, err := id(r)
	if err != nil {
		api.fail(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), web.Timeout)
	defer cancel()

	n, comments, err := api.news.Detail(ctx, newsID)
	if err != nil {
		api.fail(w, r, err)
		return
	}
	resp := map[string]any{"news": n, "comments": comments}
	if access.FromContext(r.Context()).Authenticated() {
		if f == nil {
			f = commentForm("")
		}
		resp["form"] = f
	}
	api.WriteJSON(w, resp, http.StatusOK)
}

func (api *API) handleDetail() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		api.detail(w, r, nil)
	}
}

func (api *API) handleSubmit() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		newsID, err := id(r)
		if err != nil {
			api.fail(w, r, err)
			return
		}
		v, err := web.Values(r)
		if err != nil {
			api.WriteJSONError(w, err, http.StatusBadRequest)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), web.Timeout)
		defer cancel()

		_, err = api.news.Submit(ctx, newsID, v.Get("text"), access.FromContext(r.Context()))
		if form.Has(err) {
			f := commentForm(v.Get("text"))
			f.AddError(err)
			api.detail(w, r, f)
			return
		}
		if err != nil {
			api.fail(w, r, err)
			return
		}
		api.Redirect(w, r, api.commentsURL(newsID))
	}
}

// comment отдает комментарий автора и, если указано, форму его редактирования.
func (api *API) comment(w http.ResponseWriter, r *http.Request, withForm bool) {
	commentID, err := id(r)
	if err != nil {
		api.fail(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), web.Timeout)
	defer cancel()

	c, err := api.news.Comment(ctx, commentID, access.FromContext(r.Context()))
	if err != nil {
		api.fail(w, r, err)
		return
	}
	resp := map[string]any{"comment": c}
	if withForm {
		resp["form"] = commentForm(c.Text)
	}
	api.WriteJSON(w, resp, http.StatusOK)
}

func (api *API) handleEditForm() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		api.comment(w, r, true)
	}
}

func (api *API) handleDeleteForm() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		api.comment(w, r, false)
	}
}

func (api *API) handleEdit() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		commentID, err := id(r)
		if err != nil {
			api.fail(w, r, err)
			return
		}
		v, err := web.Values(r)
		if err != nil {
			api.WriteJSONError(w, err, http.StatusBadRequest)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), web.Timeout)
		defer cancel()

		c, err := api.news.Edit(ctx, commentID, v.Get("text"), access.FromContext(r.Context()))
		if form.Has(err) {
			f := commentForm(v.Get("text"))
			f.AddError(err)
			api.WriteJSON(w, map[string]any{"form": f}, http.StatusOK)
			return
		}
		if err != nil {
			api.fail(w, r, err)
			return
		}
		api.Redirect(w, r, api.commentsURL(c.NewsID))
	}
}

func (api *API) handleDelete() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		commentID, err := id(r)
		if err != nil {
			api.fail(w, r, err)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), web.Timeout)
		defer cancel()

		c, err := api.news.Delete(ctx, commentID, access.FromContext(r.Context()))
		if err != nil {
			api.fail(w, r, err)
			return
		}
		api.Redirect(w, r, api.commentsURL(c.NewsID))
	}
}

// handleCommentCheck проверяет входящий комментарий на
// содержание запрещенных слов.
func (api *API) handleCommentCheck() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		var c domain.Comment
		err := json.NewDecoder(r.Body).Decode(&c)
		if err != nil {
			api.WriteJSONError(w, err, http.StatusBadRequest)
			return
		}

		_, err = domain.Moderate(c.Text)
		switch {
		case err == nil:
			api.WriteJSON(w, map[string]string{"response": "allowed"}, http.StatusOK)
		case errors.Is(err, domain.ErrBannedWord):
			api.WriteJSON(w, map[string]string{"response": "banned"}, http.StatusBadRequest)
		default:
			api.WriteJSON(w, map[string]string{"response": "empty"}, http.StatusBadRequest)
		}
	}
}

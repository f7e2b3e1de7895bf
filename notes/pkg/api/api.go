// пакет api предоставляет REST API сервиса заметок.
package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rtemka/ya/access"
	"github.com/rtemka/ya/notes/domain"
	"github.com/rtemka/ya/pkg/form"
	"github.com/rtemka/ya/pkg/web"
	usersapi "github.com/rtemka/ya/users/pkg/api"
)

// имя маршрута.
const (
	HomeRoute    = "notes:home"
	ListRoute    = "notes:list"
	AddRoute     = "notes:add"
	SuccessRoute = "notes:success"
	DetailRoute  = "notes:detail"
	EditRoute    = "notes:edit"
	DeleteRoute  = "notes:delete"
)

// API сервиса заметок.
type API struct {
	*web.Base
	notes *domain.Service
	login mux.MiddlewareFunc
}

// Mount регистрирует маршруты заметок в маршрутизаторе base.
// Маршрут входа users:login должен быть зарегистрирован
// в том же маршрутизаторе.
func Mount(base *web.Base, notes *domain.Service) *API {
	api := &API{Base: base, notes: notes}
	api.login = access.RequireLogin(func() string {
		return web.URL(api.Router, usersapi.LoginRoute)
	})
	api.endpoints()
	return api
}

func (api *API) endpoints() {
	r := api.Router
	r.HandleFunc("/", api.handleHome()).Methods(http.MethodGet).Name(HomeRoute)
	r.Handle("/notes/", api.login(api.handleList())).Methods(http.MethodGet).Name(ListRoute)
	r.Handle("/add/", api.login(api.handleAddForm())).Methods(http.MethodGet).Name(AddRoute)
	r.Handle("/add/", api.login(api.handleAdd())).Methods(http.MethodPost)
	r.Handle("/done/", api.login(api.handleSuccess())).Methods(http.MethodGet).Name(SuccessRoute)
	r.Handle("/note/{slug}/", api.login(api.handleDetail())).Methods(http.MethodGet).Name(DetailRoute)
	r.Handle("/edit/{slug}/", api.login(api.handleEditForm())).Methods(http.MethodGet).Name(EditRoute)
	r.Handle("/edit/{slug}/", api.login(api.handleEdit())).Methods(http.MethodPost)
	r.Handle("/delete/{slug}/", api.login(api.handleDetail())).Methods(http.MethodGet).Name(DeleteRoute)
	r.Handle("/delete/{slug}/", api.login(api.handleDelete())).Methods(http.MethodPost, http.MethodDelete)
}

// fail переводит ошибку сервиса в ответ.
func (api *API) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch access.Decide(err) {
	case access.RedirectToLogin:
		api.Redirect(w, r, access.LoginURL(web.URL(api.Router, usersapi.LoginRoute), r))
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

func noteForm(in domain.Input) *form.Form {
	return form.New("note", map[string]string{
		"title": in.Title,
		"text":  in.Text,
		"slug":  in.Slug,
	})
}

func input(r *http.Request) (domain.Input, error) {
	v, err := web.Values(r)
	if err != nil {
		return domain.Input{}, err
	}
	return domain.Input{Title: v.Get("title"), Text: v.Get("text"), Slug: v.Get("slug")}, nil
}

func (api *API) handleHome() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		api.WriteJSON(w, map[string]any{
			"user": access.FromContext(r.Context()),
		}, http.StatusOK)
	}
}

func (api *API) handleList() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), web.Timeout)
		defer cancel()

		notes, err := api.notes.ListFor(ctx, access.FromContext(r.Context()))
		if err != nil {
			api.fail(w, r, err)
			return
		}
		api.WriteJSON(w, map[string]any{"object_list": notes}, http.StatusOK)
	}
}

func (api *API) handleAddForm() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		api.WriteJSON(w, map[string]any{"form": noteForm(domain.Input{})}, http.StatusOK)
	}
}

func (api *API) handleAdd() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		in, err := input(r)
		if err != nil {
			api.WriteJSONError(w, err, http.StatusBadRequest)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), web.Timeout)
		defer cancel()

		_, err = api.notes.Create(ctx, in, access.FromContext(r.Context()))
		if form.Has(err) {
			f := noteForm(in)
			f.AddError(err)
			api.WriteJSON(w, map[string]any{"form": f}, http.StatusOK)
			return
		}
		if err != nil {
			api.fail(w, r, err)
			return
		}
		api.Redirect(w, r, web.URL(api.Router, SuccessRoute))
	}
}

func (api *API) handleSuccess() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		api.WriteJSON(w, map[string]string{"response": "done"}, http.StatusOK)
	}
}

// handleDetail отдает заметку автора. Используется также
// как страница подтверждения удаления.
func (api *API) handleDetail() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), web.Timeout)
		defer cancel()

		n, err := api.notes.Get(ctx, mux.Vars(r)["slug"], access.FromContext(r.Context()))
		if err != nil {
			api.fail(w, r, err)
			return
		}
		api.WriteJSON(w, map[string]any{"note": n}, http.StatusOK)
	}
}

func (api *API) handleEditForm() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), web.Timeout)
		defer cancel()

		n, err := api.notes.Get(ctx, mux.Vars(r)["slug"], access.FromContext(r.Context()))
		if err != nil {
			api.fail(w, r, err)
			return
		}
		f := noteForm(domain.Input{Title: n.Title, Text: n.Text, Slug: n.Slug})
		api.WriteJSON(w, map[string]any{"form": f, "note": n}, http.StatusOK)
	}
}

func (api *API) handleEdit() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		in, err := input(r)
		if err != nil {
			api.WriteJSONError(w, err, http.StatusBadRequest)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), web.Timeout)
		defer cancel()

		_, err = api.notes.Edit(ctx, mux.Vars(r)["slug"], in, access.FromContext(r.Context()))
		if form.Has(err) {
			f := noteForm(in)
			f.AddError(err)
			api.WriteJSON(w, map[string]any{"form": f}, http.StatusOK)
			return
		}
		if err != nil {
			api.fail(w, r, err)
			return
		}
		api.Redirect(w, r, web.URL(api.Router, SuccessRoute))
	}
}

func (api *API) handleDelete() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), web.Timeout)
		defer cancel()

		err := api.notes.Delete(ctx, mux.Vars(r)["slug"], access.FromContext(r.Context()))
		if err != nil {
			api.fail(w, r, err)
			return
		}
		api.Redirect(w, r, web.URL(api.Router, SuccessRoute))
	}
}

package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/rtemka/ya/news/domain"
	"github.com/rtemka/ya/news/pkg/memdb"
	"github.com/rtemka/ya/pkg/web"
	users "github.com/rtemka/ya/users/domain"
	usersapi "github.com/rtemka/ya/users/pkg/api"
	usersdb "github.com/rtemka/ya/users/pkg/memdb"
	"github.com/rtemka/ya/users/pkg/session"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var now = time.Date(2023, 8, 1, 12, 0, 0, 0, time.UTC)

type testEnv struct {
	api      *API
	news     *domain.Service
	sessions *session.Manager
	author   users.User
	reader   users.User
	item     domain.News
	comment  domain.Comment
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	usvc := users.NewService(usersdb.New())
	usvc.Cost = bcrypt.MinCost
	author, err := usvc.SignUp(ctx, "Автор", "secret")
	require.NoError(t, err)
	reader, err := usvc.SignUp(ctx, "Читатель", "secret")
	require.NoError(t, err)

	sessions := session.New("secret", time.Hour)
	base := web.NewBase(zap.NewNop())
	base.Router.Use(sessions.Middleware)
	usersapi.Mount(base, usvc, sessions)

	news := domain.NewService(memdb.New())
	news.Now = func() time.Time { return now }
	require.NoError(t, news.AddNews(ctx, domain.News{Title: "Заголовок", Text: "Текст заметки"}))
	home, err := news.Home(ctx)
	require.NoError(t, err)
	require.Len(t, home, 1)

	c, err := news.Submit(ctx, home[0].ID, "Текст комментария", author.Identity())
	require.NoError(t, err)

	return &testEnv{
		api:      Mount(base, news),
		news:     news,
		sessions: sessions,
		author:   author,
		reader:   reader,
		item:     home[0],
		comment:  c,
	}
}

// do выполняет запрос от имени user. Нулевой user - анонимный.
func (e *testEnv) do(t *testing.T, method, target string, data url.Values, user users.User) *httptest.ResponseRecorder {
	t.Helper()
	var r *http.Request
	if data != nil {
		r = httptest.NewRequest(method, target, strings.NewReader(data.Encode()))
		r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		r = httptest.NewRequest(method, target, nil)
	}
	if user.ID != 0 {
		token, err := e.sessions.Issue(user)
		require.NoError(t, err)
		r.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.api.ServeHTTP(rec, r)
	return rec
}

func (e *testEnv) url(name string, id int64) string {
	if id == 0 {
		return web.URL(e.api.Router, name)
	}
	return web.URL(e.api.Router, name, "id", strconv.FormatInt(id, 10))
}

func (e *testEnv) count(t *testing.T) int {
	t.Helper()
	c, err := e.news.CountComments(context.Background())
	require.NoError(t, err)
	return c
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(rec.Body).Decode(v))
}

func TestAPI_pagesForAnonymous(t *testing.T) {
	e := newTestEnv(t)
	targets := map[string]string{
		HomeRoute:            e.url(HomeRoute, 0),
		usersapi.LoginRoute:  e.url(usersapi.LoginRoute, 0),
		usersapi.LogoutRoute: e.url(usersapi.LogoutRoute, 0),
		usersapi.SignupRoute: e.url(usersapi.SignupRoute, 0),
		DetailRoute:          e.url(DetailRoute, e.item.ID),
	}
	for name, target := range targets {
		t.Run(name, func(t *testing.T) {
			rec := e.do(t, http.MethodGet, target, nil, users.User{})
			require.Equal(t, http.StatusOK, rec.Code)
		})
	}
}

func TestAPI_pagesForDifferentUsers(t *testing.T) {
	e := newTestEnv(t)
	tests := []struct {
		name   string
		user   users.User
		status int
	}{
		{name: "author", user: e.author, status: http.StatusOK},
		{name: "reader", user: e.reader, status: http.StatusNotFound},
	}
	for _, tt := range tests {
		for _, route := range []string{DeleteRoute, EditRoute} {
			t.Run(tt.name+"/"+route, func(t *testing.T) {
				rec := e.do(t, http.MethodGet, e.url(route, e.comment.ID), nil, tt.user)
				require.Equal(t, tt.status, rec.Code)
			})
		}
	}
}

func TestAPI_redirects(t *testing.T) {
	e := newTestEnv(t)
	login := e.url(usersapi.LoginRoute, 0)
	for _, route := range []string{DeleteRoute, EditRoute} {
		t.Run(route, func(t *testing.T) {
			target := e.url(route, 1)
			rec := e.do(t, http.MethodGet, target, nil, users.User{})
			require.Equal(t, http.StatusFound, rec.Code)
			require.Equal(t, login+"?next="+target, rec.Header().Get("Location"))
		})
	}
}

func TestAPI_homePage(t *testing.T) {
	e := newTestEnv(t)
	var all []domain.News
	for i := 0; i < domain.NewsOnHomePage+1; i++ {
		all = append(all, domain.News{
			Title: fmt.Sprintf("Новость %d", i),
			Text:  "Просто текст.",
			Date:  now.AddDate(0, 0, -i-1),
		})
	}
	require.NoError(t, e.news.AddNews(context.Background(), all...))

	rec := e.do(t, http.MethodGet, e.url(HomeRoute, 0), nil, users.User{})
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		ObjectList []domain.News `json:"object_list"`
	}
	decode(t, rec, &body)
	require.Len(t, body.ObjectList, domain.NewsOnHomePage)
	for i := 1; i < len(body.ObjectList); i++ {
		require.False(t, body.ObjectList[i].Date.After(body.ObjectList[i-1].Date),
			"news %d is newer than news %d", i, i-1)
	}
}

func TestAPI_detailForm(t *testing.T) {
	e := newTestEnv(t)

	t.Run("author", func(t *testing.T) {
		rec := e.do(t, http.MethodGet, e.url(DetailRoute, e.item.ID), nil, e.author)
		require.Equal(t, http.StatusOK, rec.Code)
		var body map[string]json.RawMessage
		decode(t, rec, &body)
		require.Contains(t, body, "form")
		require.Contains(t, body, "news")
	})

	t.Run("anonymous", func(t *testing.T) {
		rec := e.do(t, http.MethodGet, e.url(DetailRoute, e.item.ID), nil, users.User{})
		require.Equal(t, http.StatusOK, rec.Code)
		var body map[string]json.RawMessage
		decode(t, rec, &body)
		require.NotContains(t, body, "form")
		require.Contains(t, body, "news")
	})

	t.Run("missing", func(t *testing.T) {
		rec := e.do(t, http.MethodGet, e.url(DetailRoute, e.item.ID+100), nil, users.User{})
		require.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestAPI_commentsOrder(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	for i := 2; i > 0; i-- {
		e.news.Now = func() time.Time { return now.AddDate(0, 0, i) }
		_, err := e.news.Submit(ctx, e.item.ID, fmt.Sprintf("Текст комментария %d", i), e.author.Identity())
		require.NoError(t, err)
	}

	rec := e.do(t, http.MethodGet, e.url(DetailRoute, e.item.ID), nil, users.User{})
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Comments []domain.Comment `json:"comments"`
	}
	decode(t, rec, &body)
	require.Len(t, body.Comments, 3)
	for i := 1; i < len(body.Comments); i++ {
		require.True(t, body.Comments[i-1].Created.Before(body.Comments[i].Created),
			"comment %d is not older than comment %d", i-1, i)
	}
}

func TestAPI_createComment(t *testing.T) {
	t.Run("user_can_create", func(t *testing.T) {
		e := newTestEnv(t)
		before := e.count(t)
		target := e.url(DetailRoute, e.item.ID)
		rec := e.do(t, http.MethodPost, target, url.Values{"text": {"text"}}, e.reader)
		require.Equal(t, http.StatusFound, rec.Code)
		require.Equal(t, target+"#comments", rec.Header().Get("Location"))
		require.Equal(t, before+1, e.count(t))

		comments, err := e.news.ListFor(context.Background(), e.item.ID)
		require.NoError(t, err)
		last := comments[len(comments)-1]
		require.Equal(t, "text", last.Text)
		require.Equal(t, e.reader.ID, last.Author.ID)
		require.Equal(t, e.item.ID, last.NewsID)
	})

	t.Run("anonymous_cant_create", func(t *testing.T) {
		e := newTestEnv(t)
		before := e.count(t)
		target := e.url(DetailRoute, e.item.ID)
		rec := e.do(t, http.MethodPost, target, url.Values{"text": {"text"}}, users.User{})
		require.Equal(t, http.StatusFound, rec.Code)
		require.Equal(t, e.url(usersapi.LoginRoute, 0)+"?next="+target, rec.Header().Get("Location"))
		require.Equal(t, before, e.count(t))
	})

	t.Run("bad_words", func(t *testing.T) {
		e := newTestEnv(t)
		before := e.count(t)
		rec := e.do(t, http.MethodPost, e.url(DetailRoute, e.item.ID),
			url.Values{"text": {domain.BadWords[0] + " текст"}}, e.author)
		require.Equal(t, http.StatusOK, rec.Code)

		var body struct {
			Form struct {
				Errors map[string][]string `json:"errors"`
			} `json:"form"`
		}
		decode(t, rec, &body)
		require.Equal(t, []string{domain.Warning}, body.Form.Errors["text"])
		require.Equal(t, before, e.count(t))
	})
}

func TestAPI_editDeleteComment(t *testing.T) {
	data := url.Values{"text": {"updated text"}}

	t.Run("author_can_delete", func(t *testing.T) {
		e := newTestEnv(t)
		before := e.count(t)
		rec := e.do(t, http.MethodDelete, e.url(DeleteRoute, e.comment.ID), nil, e.author)
		require.Equal(t, http.StatusFound, rec.Code)
		require.Equal(t, e.url(DetailRoute, e.item.ID)+"#comments", rec.Header().Get("Location"))
		require.Equal(t, before-1, e.count(t))
	})

	t.Run("author_can_edit", func(t *testing.T) {
		e := newTestEnv(t)
		before := e.count(t)
		rec := e.do(t, http.MethodPost, e.url(EditRoute, e.comment.ID), data, e.author)
		require.Equal(t, http.StatusFound, rec.Code)
		require.Equal(t, e.url(DetailRoute, e.item.ID)+"#comments", rec.Header().Get("Location"))

		c, err := e.news.Comment(context.Background(), e.comment.ID, e.author.Identity())
		require.NoError(t, err)
		require.Equal(t, "updated text", c.Text)
		require.Equal(t, before, e.count(t))
	})

	t.Run("reader_cant_delete", func(t *testing.T) {
		e := newTestEnv(t)
		before := e.count(t)
		rec := e.do(t, http.MethodDelete, e.url(DeleteRoute, e.comment.ID), nil, e.reader)
		require.Equal(t, http.StatusNotFound, rec.Code)
		require.Equal(t, before, e.count(t))
	})

	t.Run("reader_cant_edit", func(t *testing.T) {
		e := newTestEnv(t)
		rec := e.do(t, http.MethodPost, e.url(EditRoute, e.comment.ID), data, e.reader)
		require.Equal(t, http.StatusNotFound, rec.Code)

		c, err := e.news.Comment(context.Background(), e.comment.ID, e.author.Identity())
		require.NoError(t, err)
		require.Equal(t, e.comment, c)
	})

	t.Run("edit_bad_words", func(t *testing.T) {
		e := newTestEnv(t)
		rec := e.do(t, http.MethodPost, e.url(EditRoute, e.comment.ID),
			url.Values{"text": {"ты " + domain.BadWords[1]}}, e.author)
		require.Equal(t, http.StatusOK, rec.Code)
		require.Contains(t, rec.Body.String(), domain.Warning)

		c, err := e.news.Comment(context.Background(), e.comment.ID, e.author.Identity())
		require.NoError(t, err)
		require.Equal(t, e.comment.Text, c.Text)
	})
}

func TestAPI_commentCheck(t *testing.T) {
	e := newTestEnv(t)
	tests := []struct {
		name   string
		body   string
		status int
		want   string
	}{
		{name: "allowed", body: `{"text":"good comment","news_id":1}`, status: http.StatusOK, want: "allowed"},
		{name: "banned", body: `{"text":"ты ` + domain.BadWords[0] + `"}`, status: http.StatusBadRequest, want: "banned"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, e.url(CheckRoute, 0), strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			e.api.ServeHTTP(rec, r)
			require.Equal(t, tt.status, rec.Code)

			var body map[string]string
			decode(t, rec, &body)
			require.Equal(t, tt.want, body["response"])
		})
	}

	t.Run("bad_input", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, e.url(CheckRoute, 0), strings.NewReader("{"))
		rec := httptest.NewRecorder()
		e.api.ServeHTTP(rec, r)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestAPI_commentCheckMatchesSubmit(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		allowed bool
	}{
		{name: "plain", text: "хороший комментарий", allowed: true},
		{name: "split_by_markup", text: "ред<i></i>иска", allowed: true},
		{name: "comparison", text: "если a<b и c>d", allowed: true},
		{name: "bad_word", text: "ты " + domain.BadWords[0], allowed: false},
		{name: "bad_word_in_markup", text: "<b>" + domain.BadWords[1] + "</b>", allowed: false},
		{name: "blank", text: "   ", allowed: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEnv(t)

			body, err := json.Marshal(map[string]string{"text": tt.text})
			require.NoError(t, err)
			r := httptest.NewRequest(http.MethodPost, e.url(CheckRoute, 0), strings.NewReader(string(body)))
			rec := httptest.NewRecorder()
			e.api.ServeHTTP(rec, r)
			require.Equal(t, tt.allowed, rec.Code == http.StatusOK, "check: %s", rec.Body.String())

			before := e.count(t)
			rec = e.do(t, http.MethodPost, e.url(DetailRoute, e.item.ID), url.Values{"text": {tt.text}}, e.author)
			require.Equal(t, tt.allowed, rec.Code == http.StatusFound, "submit: %d %s", rec.Code, rec.Body.String())
			if tt.allowed {
				require.Equal(t, before+1, e.count(t))
				comments, err := e.news.ListFor(context.Background(), e.item.ID)
				require.NoError(t, err)
				require.Equal(t, tt.text, comments[len(comments)-1].Text)
			} else {
				require.Equal(t, before, e.count(t))
			}
		})
	}
}

package domain

import (
	"context"
	"fmt"
	"strings"
	"time"

	strip "github.com/grokify/html-strip-tags-go"
	"github.com/rtemka/ya/access"
	"github.com/rtemka/ya/pkg/form"
)

// Service - новости и модерация комментариев к ним.
type Service struct {
	repo Repository
	// Now - источник текущего времени, подменяется в тестах.
	Now func() time.Time
	// HomeLimit - количество новостей на главной странице.
	HomeLimit int
}

// NewService возвращает [*Service].
func NewService(repo Repository) *Service {
	return &Service{repo: repo, Now: time.Now, HomeLimit: NewsOnHomePage}
}

// Moderate обрезает пробелы по краям текста комментария
// и проверяет его через [Check]. Возвращает текст для сохранения.
// Тот же путь использует и отдельная проверка комментария по HTTP.
func Moderate(text string) (string, error) {
	text = strings.TrimSpace(text)
	return text, Check(text)
}

// Check проверяет текст комментария.
// Возвращает ошибку поля text, если текст пуст или содержит
// запрещенное слово.
func Check(text string) error {
	if text == "" {
		return form.Required("text")
	}
	if Banned(text) {
		return &form.Error{Field: "text", Message: Warning, Err: ErrBannedWord}
	}
	return nil
}

// cleanNews очищает новость из внешнего источника от HTML-разметки.
func cleanNews(n News) News {
	n.Title = strings.TrimSpace(strip.StripTags(n.Title))
	n.Text = strings.TrimSpace(strip.StripTags(n.Text))
	return n
}

// Submit добавляет комментарий author к новости newsID.
// Комментарий с запрещенным словом не сохраняется.
func (s *Service) Submit(ctx context.Context, newsID int64, text string, author access.Identity) (Comment, error) {
	if err := access.RequireAuth(author); err != nil {
		return Comment{}, err
	}
	if _, err := s.repo.News(ctx, newsID); err != nil {
		return Comment{}, err
	}
	text, err := Moderate(text)
	if err != nil {
		return Comment{}, err
	}

	c := Comment{
		NewsID:  newsID,
		Text:    text,
		Created: s.Now().UTC(),
		Author:  Author{ID: author.ID, Name: author.Username},
	}
	c.ID, err = s.repo.CreateComment(ctx, &c)
	if err != nil {
		return Comment{}, fmt.Errorf("create comment: %w", err)
	}
	return c, nil
}

// Comment возвращает комментарий id, если requester его автор.
func (s *Service) Comment(ctx context.Context, id int64, requester access.Identity) (Comment, error) {
	if err := access.RequireAuth(requester); err != nil {
		return Comment{}, err
	}
	c, err := s.repo.Comment(ctx, id)
	if err != nil {
		return Comment{}, err
	}
	if err := access.Authorize(requester, c.Author.ID); err != nil {
		return Comment{}, err
	}
	return c, nil
}

// Edit изменяет текст комментария id.
// При любой ошибке комментарий не меняется.
func (s *Service) Edit(ctx context.Context, id int64, text string, requester access.Identity) (Comment, error) {
	c, err := s.Comment(ctx, id, requester)
	if err != nil {
		return Comment{}, err
	}
	if text, err = Moderate(text); err != nil {
		return Comment{}, err
	}
	if err := s.repo.UpdateComment(ctx, c.ID, text); err != nil {
		return Comment{}, fmt.Errorf("update comment: %w", err)
	}
	c.Text = text
	return c, nil
}

// Delete удаляет комментарий id и возвращает его.
func (s *Service) Delete(ctx context.Context, id int64, requester access.Identity) (Comment, error) {
	c, err := s.Comment(ctx, id, requester)
	if err != nil {
		return Comment{}, err
	}
	if err := s.repo.DeleteComment(ctx, c.ID); err != nil {
		return Comment{}, err
	}
	return c, nil
}

// ListFor возвращает комментарии к новости в хронологическом порядке.
func (s *Service) ListFor(ctx context.Context, newsID int64) ([]Comment, error) {
	comments, err := s.repo.Comments(ctx, newsID)
	if err != nil {
		return nil, err
	}
	if comments == nil {
		comments = []Comment{}
	}
	return comments, nil
}

// Home возвращает новости главной страницы, от свежих к старым.
func (s *Service) Home(ctx context.Context) ([]News, error) {
	news, err := s.repo.LatestNews(ctx, s.HomeLimit)
	if err != nil {
		return nil, err
	}
	if news == nil {
		news = []News{}
	}
	return news, nil
}

// Detail возвращает новость и комментарии к ней.
func (s *Service) Detail(ctx context.Context, newsID int64) (News, []Comment, error) {
	n, err := s.repo.News(ctx, newsID)
	if err != nil {
		return News{}, nil, err
	}
	comments, err := s.ListFor(ctx, newsID)
	if err != nil {
		return News{}, nil, err
	}
	return n, comments, nil
}

// AddNews добавляет новости. Пустая дата заменяется текущим днем.
func (s *Service) AddNews(ctx context.Context, news ...News) error {
	today := s.Now().UTC().Truncate(24 * time.Hour)
	for i := range news {
		news[i] = cleanNews(news[i])
		if news[i].Title == "" {
			return form.Required("title")
		}
		if err := form.MaxLength("title", news[i].Title, maxTitleLen); err != nil {
			return err
		}
		if news[i].Date.IsZero() {
			news[i].Date = today
		}
		news[i].Date = news[i].Date.UTC()
	}
	return s.repo.AddNews(ctx, news)
}

// CountComments возвращает общее количество комментариев.
func (s *Service) CountComments(ctx context.Context) (int, error) {
	return s.repo.CountComments(ctx)
}

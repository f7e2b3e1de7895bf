package domain

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rtemka/ya/access"
	"github.com/rtemka/ya/pkg/form"
)

// InvalidSlugMessage - сообщение формы о недопустимых символах в slug.
const InvalidSlugMessage = "Значение должно состоять только из латинских букв, цифр, знаков подчеркивания или дефиса."

// Service - операции с заметками с учетом авторства.
type Service struct {
	repo Repository
}

// NewService возвращает [*Service].
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// clean обрезает пробелы по краям полей формы и проверяет их.
// Текст сохраняется как есть, экранирование - забота вывода.
// Пустой slug заменяется производным от заголовка.
func clean(in Input) (Input, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Text = strings.TrimSpace(in.Text)
	in.Slug = strings.TrimSpace(in.Slug)

	var errs []*form.Error
	if in.Title == "" {
		errs = append(errs, form.Required("title"))
	}
	errs = append(errs, form.MaxLength("title", in.Title, maxTitleLen))
	if in.Text == "" {
		errs = append(errs, form.Required("text"))
	}

	if in.Slug != "" {
		errs = append(errs, form.MaxLength("slug", in.Slug, maxSlugLen))
		if !ValidSlug(in.Slug) {
			errs = append(errs, &form.Error{Field: "slug", Message: InvalidSlugMessage, Err: form.ErrInvalid})
		}
	} else if in.Title != "" {
		in.Slug = Slugify(in.Title)
		if in.Slug == "" {
			errs = append(errs, &form.Error{Field: "slug", Message: InvalidSlugMessage, Err: form.ErrInvalid})
		}
	}
	return in, form.Join(errs...)
}

func duplicateSlug(slug string) *form.Error {
	return &form.Error{Field: "slug", Message: slug + DuplicateSlugWarning, Err: ErrDuplicateSlug}
}

// checkSlug проверяет, что slug не занят другой заметкой.
func (s *Service) checkSlug(ctx context.Context, slug string, excludeID int64) error {
	exists, err := s.repo.SlugExists(ctx, slug, excludeID)
	if err != nil {
		return fmt.Errorf("check slug: %w", err)
	}
	if exists {
		return duplicateSlug(slug)
	}
	return nil
}

// Create создает заметку от имени author.
// Занятый slug отклоняется без сохранения.
func (s *Service) Create(ctx context.Context, in Input, author access.Identity) (Note, error) {
	if err := access.RequireAuth(author); err != nil {
		return Note{}, err
	}
	in, err := clean(in)
	if err != nil {
		return Note{}, err
	}
	if err := s.checkSlug(ctx, in.Slug, 0); err != nil {
		return Note{}, err
	}

	n := Note{
		Title:  in.Title,
		Text:   in.Text,
		Slug:   in.Slug,
		Author: Author{ID: author.ID, Name: author.Username},
	}
	n.ID, err = s.repo.Create(ctx, &n)
	if errors.Is(err, ErrDuplicateSlug) {
		return Note{}, duplicateSlug(n.Slug)
	}
	if err != nil {
		return Note{}, fmt.Errorf("create note: %w", err)
	}
	return n, nil
}

// Get возвращает заметку slug, если requester ее автор.
func (s *Service) Get(ctx context.Context, slug string, requester access.Identity) (Note, error) {
	if err := access.RequireAuth(requester); err != nil {
		return Note{}, err
	}
	n, err := s.repo.BySlug(ctx, slug)
	if err != nil {
		return Note{}, err
	}
	if err := access.Authorize(requester, n.Author.ID); err != nil {
		return Note{}, err
	}
	return n, nil
}

// Edit изменяет заметку slug. При любой ошибке заметка не меняется.
func (s *Service) Edit(ctx context.Context, slug string, in Input, requester access.Identity) (Note, error) {
	n, err := s.Get(ctx, slug, requester)
	if err != nil {
		return Note{}, err
	}
	in, err = clean(in)
	if err != nil {
		return Note{}, err
	}
	if err := s.checkSlug(ctx, in.Slug, n.ID); err != nil {
		return Note{}, err
	}

	n.Title, n.Text, n.Slug = in.Title, in.Text, in.Slug
	err = s.repo.Update(ctx, n)
	if errors.Is(err, ErrDuplicateSlug) {
		return Note{}, duplicateSlug(n.Slug)
	}
	if err != nil {
		return Note{}, fmt.Errorf("update note: %w", err)
	}
	return n, nil
}

// Delete удаляет заметку slug, если requester ее автор.
func (s *Service) Delete(ctx context.Context, slug string, requester access.Identity) error {
	n, err := s.Get(ctx, slug, requester)
	if err != nil {
		return err
	}
	return s.repo.Delete(ctx, n.ID)
}

// ListFor возвращает заметки пользователя id.
// Для анонимного пользователя список пуст.
func (s *Service) ListFor(ctx context.Context, id access.Identity) ([]Note, error) {
	if !id.Authenticated() {
		return []Note{}, nil
	}
	notes, err := s.repo.ByAuthor(ctx, id.ID)
	if err != nil {
		return nil, err
	}
	if notes == nil {
		notes = []Note{}
	}
	return notes, nil
}

// Count возвращает общее количество заметок.
func (s *Service) Count(ctx context.Context) (int, error) {
	return s.repo.Count(ctx)
}

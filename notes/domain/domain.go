package domain

import (
	"context"
	"errors"
)

var (
	ErrNotFound      = errors.New("note not found")
	ErrDuplicateSlug = errors.New("slug already exists")
)

// DuplicateSlugWarning - окончание сообщения формы о занятом slug.
// Полное сообщение: slug + DuplicateSlugWarning.
const DuplicateSlugWarning = " - такой slug уже существует, придумайте уникальное значение!"

const (
	maxTitleLen = 100
	maxSlugLen  = 100
)

// Note - модель данных заметки.
type Note struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
	Text  string `json:"text"`
	Slug  string `json:"slug"`
	Author
}

// Author - автор заметки.
type Author struct {
	ID   int64  `json:"author_id"`
	Name string `json:"author"`
}

// Input - данные формы заметки.
// Пустой Slug при создании означает, что он будет получен из Title.
type Input struct {
	Title string
	Text  string
	Slug  string
}

// Repository - контракт на работу с хранилищем заметок.
type Repository interface {
	Create(context.Context, *Note) (int64, error)                               // создать заметку, ErrDuplicateSlug при повторе slug
	BySlug(ctx context.Context, slug string) (Note, error)                      // найти заметку, ErrNotFound если нет
	SlugExists(ctx context.Context, slug string, excludeID int64) (bool, error) // занят ли slug другой заметкой
	Update(context.Context, Note) error                                         // обновить заголовок, текст и slug
	Delete(ctx context.Context, id int64) error                                 // удалить заметку, ErrNotFound если нет
	ByAuthor(ctx context.Context, authorID int64) ([]Note, error)               // заметки автора по возрастанию id
	Count(context.Context) (int, error)                                         // общее количество заметок
	Close() error                                                               // закрыть соединение с БД.
}

package domain

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound = errors.New("not found")
)

// NewsOnHomePage - количество новостей на главной странице по умолчанию.
const NewsOnHomePage = 10

const maxTitleLen = 250

// News - модель данных новости.
type News struct {
	ID    int64     `json:"id"`
	Title string    `json:"title"`
	Text  string    `json:"text"`
	Date  time.Time `json:"date"`
}

// Comment - модель данных комментария к новости.
type Comment struct {
	ID      int64     `json:"id"`
	NewsID  int64     `json:"news_id"`
	Text    string    `json:"text"`
	Created time.Time `json:"created"`
	Author
}

// Author - автор комментария к новости.
type Author struct {
	ID   int64  `json:"author_id"`
	Name string `json:"author"`
}

// Repository - контракт на работу с хранилищем новостей и комментариев.
type Repository interface {
	AddNews(context.Context, []News) error                          // добавить новости списком
	LatestNews(ctx context.Context, limit int) ([]News, error)      // последние новости, от свежих к старым
	News(ctx context.Context, id int64) (News, error)               // новость по id, ErrNotFound если нет
	CreateComment(context.Context, *Comment) (int64, error)         // создать комментарий к новости
	Comment(ctx context.Context, id int64) (Comment, error)         // комментарий по id, ErrNotFound если нет
	Comments(ctx context.Context, newsID int64) ([]Comment, error)  // комментарии к новости по возрастанию created
	UpdateComment(ctx context.Context, id int64, text string) error // изменить текст комментария
	DeleteComment(ctx context.Context, id int64) error              // удалить комментарий
	CountComments(context.Context) (int, error)                     // общее количество комментариев
	Close() error                                                   // закрыть соединение с БД.
}

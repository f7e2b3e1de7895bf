package postgres

import (
	"context"
	_ "embed"
	"errors"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/rtemka/ya/news/domain"
)

//go:embed schema.sql
var schema string

// Postgres выполняет CRUD операции с новостями и комментариями в БД
type Postgres struct {
	db *pgxpool.Pool
}

// New выполняет подключение, создает таблицы
// и возвращает объект для взаимодействия с БД
func New(connString string) (*Postgres, error) {
	pool, err := pgxpool.Connect(context.Background(), connString)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(context.Background()); err != nil {
		pool.Close()
		return nil, err
	}
	if _, err := pool.Exec(context.Background(), schema); err != nil {
		pool.Close()
		return nil, err
	}
	return &Postgres{db: pool}, nil
}

// Close выполняет закрытие подключения к БД
func (p *Postgres) Close() error {
	p.db.Close()
	return nil
}

// AddNews вносит в БД слайс новостей,
// используя [*pgx.Batch]
func (p *Postgres) AddNews(ctx context.Context, news []domain.News) error {
	return p.db.BeginFunc(ctx, func(tx pgx.Tx) error {

		b := new(pgx.Batch) // создаем объект pgx.Batch

		stmt := `INSERT INTO news(title, text, date) VALUES ($1, $2, $3) RETURNING id;`

		// добавляем все запросы в очередь
		for i := range news {
			b.Queue(stmt, news[i].Title, news[i].Text, news[i].Date)
		}

		br := tx.SendBatch(ctx, b)
		for i := range news {
			if err := br.QueryRow().Scan(&news[i].ID); err != nil {
				_ = br.Close()
				return err
			}
		}
		return br.Close() // закрываем операцию
	})
}

// LatestNews возвращает limit последних новостей.
func (p *Postgres) LatestNews(ctx context.Context, limit int) ([]domain.News, error) {
	stmt := `
		SELECT id, title, text, date
		FROM news
		ORDER BY date DESC, id DESC
		LIMIT $1;`

	rows, err := p.db.Query(ctx, stmt, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var news []domain.News
	for rows.Next() {
		var n domain.News
		if err := rows.Scan(&n.ID, &n.Title, &n.Text, &n.Date); err != nil {
			return nil, err
		}
		n.Date = n.Date.UTC()
		news = append(news, n)
	}
	return news, rows.Err()
}

// News находит по id и возвращает новость
func (p *Postgres) News(ctx context.Context, id int64) (domain.News, error) {
	stmt := `SELECT id, title, text, date FROM news WHERE id = $1;`

	var n domain.News
	err := p.db.QueryRow(ctx, stmt, id).Scan(&n.ID, &n.Title, &n.Text, &n.Date)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.News{}, domain.ErrNotFound
	}
	n.Date = n.Date.UTC()
	return n, err
}

// CreateComment создает комментарий к новости и, при необходимости, его автора.
func (p *Postgres) CreateComment(ctx context.Context, c *domain.Comment) (int64, error) {
	var id int64
	err := p.db.BeginFunc(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO authors(id, name) VALUES ($1, $2)
			ON CONFLICT (id) DO UPDATE SET name = excluded.name;`,
			c.Author.ID, c.Author.Name)
		if err != nil {
			return err
		}
		return tx.QueryRow(ctx, `
			INSERT INTO comments(news_id, author_id, text, created)
			VALUES ($1, $2, $3, $4)
			RETURNING id;`,
			c.NewsID, c.Author.ID, c.Text, c.Created).Scan(&id)
	})
	return id, err
}

const selectComment = `
	SELECT c.id, c.news_id, c.text, c.created, a.id, a.name
	FROM comments AS c JOIN authors AS a ON c.author_id = a.id`

func scanComment(row pgx.Row) (domain.Comment, error) {
	var c domain.Comment
	err := row.Scan(&c.ID, &c.NewsID, &c.Text, &c.Created, &c.Author.ID, &c.Author.Name)
	c.Created = c.Created.UTC()
	return c, err
}

// Comment находит комментарий по id.
func (p *Postgres) Comment(ctx context.Context, id int64) (domain.Comment, error) {
	c, err := scanComment(p.db.QueryRow(ctx, selectComment+` WHERE c.id = $1;`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Comment{}, domain.ErrNotFound
	}
	return c, err
}

// Comments получает все комментарии к новости в хронологическом порядке.
func (p *Postgres) Comments(ctx context.Context, newsID int64) ([]domain.Comment, error) {
	rows, err := p.db.Query(ctx, selectComment+` WHERE c.news_id = $1 ORDER BY c.created, c.id;`, newsID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var comments []domain.Comment
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

// UpdateComment изменяет текст комментария.
func (p *Postgres) UpdateComment(ctx context.Context, id int64, text string) error {
	return p.exec(ctx, `UPDATE comments SET text = $1 WHERE id = $2;`, text, id)
}

// DeleteComment удаляет комментарий.
func (p *Postgres) DeleteComment(ctx context.Context, id int64) error {
	return p.exec(ctx, `DELETE FROM comments WHERE id = $1;`, id)
}

// CountComments возвращает количество комментариев.
func (p *Postgres) CountComments(ctx context.Context) (int, error) {
	var c int
	err := p.db.QueryRow(ctx, `SELECT COUNT(id) FROM comments;`).Scan(&c)
	return c, err
}

// exec вспомогательная функция, выполняет
// запрос в транзакции. Если запрос не затронул
// ни одной строки, возвращается domain.ErrNotFound.
func (p *Postgres) exec(ctx context.Context, sql string, args ...any) error {
	return p.db.BeginFunc(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, sql, args...)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return domain.ErrNotFound
		}
		return nil
	})
}

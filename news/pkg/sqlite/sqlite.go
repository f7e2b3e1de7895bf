package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rtemka/ya/news/domain"
)

//go:embed schema.sql
var schema string

// SQLite выполняет операции CRUD с новостями и комментариями в БД.
type SQLite struct {
	// это поле экпортируемое, чтобы пользователь
	// мог установить параметры подлючения
	// SetConnMaxIdleTime, SetMaxOpenConns, SetMaxIdleConns...
	DB *sql.DB
}

// New производит подключение к [*SQLite] БД и создает таблицы.
func New(connstr string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", connstr)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := db.ExecContext(context.Background(), schema); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLite{DB: db}, nil
}

// Close closes db connection.
func (l *SQLite) Close() error {
	return l.DB.Close()
}

// AddNews добавляет новости списком в одной транзакции.
func (l *SQLite) AddNews(ctx context.Context, news []domain.News) error {
	tx, err := l.DB.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO news(title, text, date) VALUES($1, $2, $3);`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i := range news {
		res, err := stmt.ExecContext(ctx, news[i].Title, news[i].Text, news[i].Date.Unix())
		if err != nil {
			return err
		}
		if news[i].ID, err = res.LastInsertId(); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// LatestNews возвращает limit последних новостей.
func (l *SQLite) LatestNews(ctx context.Context, limit int) ([]domain.News, error) {
	rows, err := l.DB.QueryContext(ctx, `
		SELECT id, title, text, date FROM news
		ORDER BY date DESC, id DESC
		LIMIT $1;`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var news []domain.News
	for rows.Next() {
		var n domain.News
		var date int64
		if err := rows.Scan(&n.ID, &n.Title, &n.Text, &date); err != nil {
			return nil, err
		}
		n.Date = time.Unix(date, 0).UTC()
		news = append(news, n)
	}
	return news, rows.Err()
}

// News находит новость по id.
func (l *SQLite) News(ctx context.Context, id int64) (domain.News, error) {
	var n domain.News
	var date int64
	err := l.DB.QueryRowContext(ctx, `SELECT id, title, text, date FROM news WHERE id = $1;`, id).
		Scan(&n.ID, &n.Title, &n.Text, &date)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.News{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.News{}, err
	}
	n.Date = time.Unix(date, 0).UTC()
	return n, nil
}

// CreateComment создает комментарий к новости и, при необходимости, его автора.
func (l *SQLite) CreateComment(ctx context.Context, c *domain.Comment) (int64, error) {
	tx, err := l.DB.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return 0, err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := upsertAuthor(ctx, tx, c.Author); err != nil {
		return 0, err
	}

	stmt := `INSERT INTO comments(news_id, author_id, text, created) VALUES($1, $2, $3, $4);`
	res, err := tx.ExecContext(ctx, stmt, c.NewsID, c.Author.ID, c.Text, c.Created.UnixNano())
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return id, tx.Commit()
}

// upsertAuthor сохраняет автора с id из таблицы пользователей.
func upsertAuthor(ctx context.Context, tx *sql.Tx, a domain.Author) error {
	stmt := `INSERT INTO authors(id, name) VALUES($1, $2)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name;`
	_, err := tx.ExecContext(ctx, stmt, a.ID, a.Name)
	return err
}

const selectComment = `
	SELECT c.id, c.news_id, c.text, c.created, a.id, a.name
	FROM comments AS c JOIN authors AS a ON c.author_id = a.id`

type scanner interface {
	Scan(dest ...any) error
}

func scanComment(row scanner) (domain.Comment, error) {
	var c domain.Comment
	var created int64
	err := row.Scan(&c.ID, &c.NewsID, &c.Text, &created, &c.Author.ID, &c.Author.Name)
	c.Created = time.Unix(0, created).UTC()
	return c, err
}

// Comment находит комментарий по id.
func (l *SQLite) Comment(ctx context.Context, id int64) (domain.Comment, error) {
	c, err := scanComment(l.DB.QueryRowContext(ctx, selectComment+` WHERE c.id = $1;`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Comment{}, domain.ErrNotFound
	}
	return c, err
}

// Comments получает все комментарии к новости в хронологическом порядке.
func (l *SQLite) Comments(ctx context.Context, newsID int64) ([]domain.Comment, error) {
	rows, err := l.DB.QueryContext(ctx, selectComment+` WHERE c.news_id = $1 ORDER BY c.created, c.id;`, newsID)
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
func (l *SQLite) UpdateComment(ctx context.Context, id int64, text string) error {
	res, err := l.DB.ExecContext(ctx, `UPDATE comments SET text = $1 WHERE id = $2;`, text, id)
	if err != nil {
		return err
	}
	return mustAffect(res)
}

// DeleteComment удаляет комментарий.
func (l *SQLite) DeleteComment(ctx context.Context, id int64) error {
	res, err := l.DB.ExecContext(ctx, `DELETE FROM comments WHERE id = $1;`, id)
	if err != nil {
		return err
	}
	return mustAffect(res)
}

func mustAffect(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// CountComments возвращает количество комментариев.
func (l *SQLite) CountComments(ctx context.Context) (int, error) {
	var c int
	err := l.DB.QueryRowContext(ctx, `SELECT COUNT(id) FROM comments;`).Scan(&c)
	return c, err
}

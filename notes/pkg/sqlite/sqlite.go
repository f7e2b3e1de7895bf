package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"

	"github.com/mattn/go-sqlite3"
	"github.com/rtemka/ya/notes/domain"
)

//go:embed schema.sql
var schema string

// SQLite выполняет операции CRUD с заметками в БД.
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

func isUnique(err error) bool {
	var serr sqlite3.Error
	return errors.As(err, &serr) && serr.ExtendedCode == sqlite3.ErrConstraintUnique
}

// Create создает заметку и, при необходимости, ее автора.
func (l *SQLite) Create(ctx context.Context, n *domain.Note) (int64, error) {
	tx, err := l.DB.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return 0, err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := upsertAuthor(ctx, tx, n.Author); err != nil {
		return 0, err
	}

	stmt := `INSERT INTO notes(author_id, title, text, slug) VALUES($1, $2, $3, $4);`
	res, err := tx.ExecContext(ctx, stmt, n.Author.ID, n.Title, n.Text, n.Slug)
	if isUnique(err) {
		return 0, domain.ErrDuplicateSlug
	}
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

const selectNote = `
	SELECT n.id, n.title, n.text, n.slug, a.id, a.name
	FROM notes AS n JOIN authors AS a ON n.author_id = a.id`

type scanner interface {
	Scan(dest ...any) error
}

func scanNote(row scanner) (domain.Note, error) {
	var n domain.Note
	err := row.Scan(&n.ID, &n.Title, &n.Text, &n.Slug, &n.Author.ID, &n.Author.Name)
	return n, err
}

// BySlug находит заметку по slug.
func (l *SQLite) BySlug(ctx context.Context, slug string) (domain.Note, error) {
	n, err := scanNote(l.DB.QueryRowContext(ctx, selectNote+` WHERE n.slug = $1;`, slug))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Note{}, domain.ErrNotFound
	}
	return n, err
}

// SlugExists сообщает, занят ли slug заметкой с id, отличным от excludeID.
func (l *SQLite) SlugExists(ctx context.Context, slug string, excludeID int64) (bool, error) {
	stmt := `SELECT EXISTS(SELECT 1 FROM notes WHERE slug = $1 AND id <> $2);`
	var exists bool
	err := l.DB.QueryRowContext(ctx, stmt, slug, excludeID).Scan(&exists)
	return exists, err
}

// Update обновляет заголовок, текст и slug заметки.
func (l *SQLite) Update(ctx context.Context, n domain.Note) error {
	stmt := `UPDATE notes SET title = $1, text = $2, slug = $3 WHERE id = $4;`
	res, err := l.DB.ExecContext(ctx, stmt, n.Title, n.Text, n.Slug, n.ID)
	if isUnique(err) {
		return domain.ErrDuplicateSlug
	}
	if err != nil {
		return err
	}
	return mustAffect(res)
}

// Delete удаляет заметку.
func (l *SQLite) Delete(ctx context.Context, id int64) error {
	res, err := l.DB.ExecContext(ctx, `DELETE FROM notes WHERE id = $1;`, id)
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

// ByAuthor получает все заметки автора.
func (l *SQLite) ByAuthor(ctx context.Context, authorID int64) ([]domain.Note, error) {
	rows, err := l.DB.QueryContext(ctx, selectNote+` WHERE n.author_id = $1 ORDER BY n.id;`, authorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notes []domain.Note
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, err
		}
		notes = append(notes, n)
	}
	return notes, rows.Err()
}

// Count возвращает количество заметок.
func (l *SQLite) Count(ctx context.Context) (int, error) {
	var c int
	err := l.DB.QueryRowContext(ctx, `SELECT COUNT(id) FROM notes;`).Scan(&c)
	return c, err
}

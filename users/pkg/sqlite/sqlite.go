package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/rtemka/ya/users/domain"
)

//go:embed schema.sql
var schema string

// SQLite выполняет операции с пользователями в БД.
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
	l := &SQLite{DB: db}
	if _, err := db.ExecContext(context.Background(), schema); err != nil {
		_ = db.Close()
		return nil, err
	}
	return l, nil
}

// Close closes db connection.
func (l *SQLite) Close() error {
	return l.DB.Close()
}

// Create создает пользователя.
func (l *SQLite) Create(ctx context.Context, u *domain.User) (int64, error) {
	stmt := `INSERT INTO users(username, password_hash, created_at) VALUES($1, $2, $3);`
	res, err := l.DB.ExecContext(ctx, stmt, u.Username, u.PasswordHash, u.CreatedAt.Unix())
	if err != nil {
		var serr sqlite3.Error
		if errors.As(err, &serr) && serr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return 0, domain.ErrUsernameTaken
		}
		return 0, err
	}
	return res.LastInsertId()
}

// ByUsername находит пользователя по имени.
func (l *SQLite) ByUsername(ctx context.Context, name string) (domain.User, error) {
	stmt := `SELECT id, username, password_hash, created_at FROM users WHERE username = $1;`
	return scanUser(l.DB.QueryRowContext(ctx, stmt, name))
}

// ByID находит пользователя по id.
func (l *SQLite) ByID(ctx context.Context, id int64) (domain.User, error) {
	stmt := `SELECT id, username, password_hash, created_at FROM users WHERE id = $1;`
	return scanUser(l.DB.QueryRowContext(ctx, stmt, id))
}

func scanUser(row *sql.Row) (domain.User, error) {
	var u domain.User
	var created int64
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.User{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.User{}, err
	}
	u.CreatedAt = time.Unix(created, 0).UTC()
	return u, nil
}

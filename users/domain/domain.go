package domain

import (
	"context"
	"errors"
	"time"

	"github.com/rtemka/ya/access"
)

var (
	ErrNotFound           = errors.New("user not found")
	ErrUsernameTaken      = errors.New("username is already taken")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// максимальная длина имени пользователя.
const maxUsernameLen = 150

// User - модель данных пользователя.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Identity возвращает пользователя в виде [access.Identity].
func (u User) Identity() access.Identity {
	return access.Identity{ID: u.ID, Username: u.Username}
}

// Repository - контракт на работу с хранилищем пользователей.
type Repository interface {
	Create(context.Context, *User) (int64, error)              // создать пользователя, ErrUsernameTaken при повторе имени
	ByUsername(ctx context.Context, name string) (User, error) // найти по имени, ErrNotFound если нет
	ByID(ctx context.Context, id int64) (User, error)          // найти по id, ErrNotFound если нет
	Close() error                                              // закрыть соединение с БД.
}

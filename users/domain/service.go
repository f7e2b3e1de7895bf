package domain

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rtemka/ya/pkg/form"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
)

// UsernameTakenMessage - сообщение формы регистрации для занятого имени.
const UsernameTakenMessage = "Пользователь с таким именем уже существует."

// Service - регистрация и аутентификация пользователей.
type Service struct {
	repo Repository
	// Now - источник текущего времени, подменяется в тестах.
	Now func() time.Time
	// Cost - стоимость bcrypt.
	Cost int
}

// NewService возвращает [*Service].
func NewService(repo Repository) *Service {
	return &Service{repo: repo, Now: time.Now, Cost: bcrypt.DefaultCost}
}

// SignUp регистрирует нового пользователя.
func (s *Service) SignUp(ctx context.Context, username, password string) (User, error) {
	username = strings.TrimSpace(username)
	var errs []*form.Error
	if username == "" {
		errs = append(errs, form.Required("username"))
	}
	errs = append(errs, form.MaxLength("username", username, maxUsernameLen))
	if password == "" {
		errs = append(errs, form.Required("password"))
	}
	if err := form.Join(errs...); err != nil {
		return User{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.Cost)
	if err != nil {
		return User{}, fmt.Errorf("hash password: %w", err)
	}
	u := User{
		Username:     username,
		PasswordHash: string(hash),
		CreatedAt:    s.Now().UTC(),
	}
	u.ID, err = s.repo.Create(ctx, &u)
	if errors.Is(err, ErrUsernameTaken) {
		return User{}, &form.Error{Field: "username", Message: UsernameTakenMessage, Err: ErrUsernameTaken}
	}
	if err != nil {
		return User{}, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

// Authenticate проверяет имя и пароль пользователя.
// При любой ошибке проверки возвращается ErrInvalidCredentials.
func (s *Service) Authenticate(ctx context.Context, username, password string) (User, error) {
	u, err := s.repo.ByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, ErrNotFound) {
		return User{}, ErrInvalidCredentials
	}
	if err != nil {
		return User{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return User{}, ErrInvalidCredentials
	}
	return u, nil
}

// User возвращает пользователя по id.
func (s *Service) User(ctx context.Context, id int64) (User, error) {
	return s.repo.ByID(ctx, id)
}

type usersFile struct {
	Users []struct {
		Username string `yaml:"username"`
		Password string `yaml:"password"`
	} `yaml:"users"`
}

// Seed создает пользователей из YAML-документа вида
//
//	users:
//	  - username: alice
//	    password: secret
//
// Уже существующие пользователи и записи без имени или пароля пропускаются.
// Возвращает количество созданных пользователей.
func (s *Service) Seed(ctx context.Context, r io.Reader) (int, error) {
	var uf usersFile
	if err := yaml.NewDecoder(r).Decode(&uf); err != nil && !errors.Is(err, io.EOF) {
		return 0, fmt.Errorf("decode users: %w", err)
	}
	var n int
	for _, u := range uf.Users {
		if u.Username == "" || u.Password == "" {
			continue
		}
		_, err := s.SignUp(ctx, u.Username, u.Password)
		if errors.Is(err, ErrUsernameTaken) {
			continue
		}
		if err != nil {
			return n, fmt.Errorf("seed user %q: %w", u.Username, err)
		}
		n++
	}
	return n, nil
}

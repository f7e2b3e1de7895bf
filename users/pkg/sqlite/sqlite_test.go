package sqlite

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/rtemka/ya/users/domain"
)

var tdb *SQLite

func TestMain(m *testing.M) {
	var err error
	tdb, err = New("file:users_test.db?cache=shared&mode=memory")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	code := m.Run()
	_ = tdb.Close()
	os.Exit(code)
}

func TestSQLite(t *testing.T) {
	ctx := context.Background()
	want := domain.User{
		Username:     "Автор",
		PasswordHash: "hash",
		CreatedAt:    time.Unix(1659947255, 0).UTC(),
	}

	id, err := tdb.Create(ctx, &want)
	if err != nil {
		t.Fatalf("Create() = err %v", err)
	}
	want.ID = id

	_, err = tdb.Create(ctx, &domain.User{Username: "Автор", PasswordHash: "x"})
	if !errors.Is(err, domain.ErrUsernameTaken) {
		t.Errorf("Create() = err %v, want %v", err, domain.ErrUsernameTaken)
	}

	got, err := tdb.ByUsername(ctx, "Автор")
	if err != nil {
		t.Fatalf("ByUsername() = err %v", err)
	}
	if got != want {
		t.Errorf("ByUsername() = %v, want %v", got, want)
	}

	got, err = tdb.ByID(ctx, id)
	if err != nil {
		t.Fatalf("ByID() = err %v", err)
	}
	if got != want {
		t.Errorf("ByID() = %v, want %v", got, want)
	}

	_, err = tdb.ByID(ctx, id+100)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("ByID() = err %v, want %v", err, domain.ErrNotFound)
	}
}

package main

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"
)

func TestLoadConfig(t *testing.T) {
	tests := []struct {
		name    string
		prefix  string
		env     map[string]string
		want    config
		wantErr bool
	}{
		{
			name:   "notes_defaults",
			prefix: notesPrefix,
			env:    map[string]string{"NOTES_SESSION_SECRET": "s"},
			want: config{
				Addr:          ":8000",
				DBURL:         "file:notes.db?_busy_timeout=5000",
				SessionSecret: "s",
				SessionTTL:    24 * time.Hour,
			},
		},
		{
			name:   "notes_overrides",
			prefix: notesPrefix,
			env: map[string]string{
				"NOTES_ADDR":           ":9000",
				"NOTES_DB_URL":         "file::memory:",
				"NOTES_SESSION_SECRET": "s",
				"NOTES_SESSION_TTL":    "1h",
				"NOTES_USERS_FILE":     "users.yaml",
				"NEWS_ADDR":            ":1",
			},
			want: config{
				Addr:          ":9000",
				DBURL:         "file::memory:",
				SessionSecret: "s",
				SessionTTL:    time.Hour,
				UsersFile:     "users.yaml",
			},
		},
		{
			name:    "no_secret",
			prefix:  notesPrefix,
			env:     map[string]string{"SESSION_SECRET": "wrong prefix"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := loadConfig(tt.prefix, tt.env)
			if (err != nil) != tt.wantErr {
				t.Fatalf("loadConfig() = err %v, want err %t", err, tt.wantErr)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("loadConfig() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLoadNewsConfig(t *testing.T) {
	got, err := loadNewsConfig(map[string]string{
		"NEWS_SESSION_SECRET":     "s",
		"NEWS_PG_URL":             "postgres://localhost/news",
		"NEWS_COUNT_ON_HOME_PAGE": "5",
		"NEWS_FILE":               "news.yaml",
	})
	if err != nil {
		t.Fatalf("loadNewsConfig() = err %v", err)
	}
	want := newsConfig{
		Service: config{
			Addr:          ":8001",
			DBURL:         "file:news.db?_busy_timeout=5000",
			SessionSecret: "s",
			SessionTTL:    24 * time.Hour,
		},
		PGURL:     "postgres://localhost/news",
		NewsFile:  "news.yaml",
		HomeLimit: 5,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("loadNewsConfig() mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadDBURL(t *testing.T) {
	got, err := loadDBURL(newsPrefix, map[string]string{})
	if err != nil {
		t.Fatalf("loadDBURL() = err %v", err)
	}
	if want := "file:news.db?_busy_timeout=5000"; got != want {
		t.Errorf("loadDBURL() = %q, want %q", got, want)
	}
}

func TestConnect(t *testing.T) {
	var calls int
	open := func() (int, error) {
		calls++
		if calls < 3 {
			return 0, errors.New("not ready")
		}
		return 42, nil
	}

	got, err := connect(open, 5, 0, zap.NewNop())
	if err != nil || got != 42 || calls != 3 {
		t.Errorf("connect() = %d, %v after %d calls, want %d after %d", got, err, calls, 42, 3)
	}

	calls = -10
	if _, err := connect(open, 2, 0, zap.NewNop()); !errors.Is(err, ErrRetryExceeded) {
		t.Errorf("connect() = err %v, want %v", err, ErrRetryExceeded)
	}
}

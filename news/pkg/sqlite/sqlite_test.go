package sqlite

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/rtemka/ya/news/domain"
)

var tdb *SQLite

func TestMain(m *testing.M) {
	var err error
	tdb, err = New("file:news_test.db?cache=shared&mode=memory")
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
	day := time.Date(2023, 8, 1, 0, 0, 0, 0, time.UTC)

	news := []domain.News{
		{Title: "Старая", Text: "a", Date: day.Add(-48 * time.Hour)},
		{Title: "Свежая", Text: "b", Date: day},
		{Title: "Вчерашняя", Text: "c", Date: day.Add(-24 * time.Hour)},
	}
	if err := tdb.AddNews(ctx, news); err != nil {
		t.Fatalf("AddNews() = err %v", err)
	}
	for i := range news {
		if news[i].ID == 0 {
			t.Fatalf("AddNews() did not set id for %q", news[i].Title)
		}
	}

	latest, err := tdb.LatestNews(ctx, 2)
	if err != nil {
		t.Fatalf("LatestNews() = err %v", err)
	}
	if diff := cmp.Diff([]domain.News{news[1], news[2]}, latest); diff != "" {
		t.Errorf("LatestNews() mismatch (-want +got):\n%s", diff)
	}

	got, err := tdb.News(ctx, news[0].ID)
	if err != nil {
		t.Fatalf("News() = err %v", err)
	}
	if diff := cmp.Diff(news[0], got); diff != "" {
		t.Errorf("News() mismatch (-want +got):\n%s", diff)
	}
	if _, err := tdb.News(ctx, 1000); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("News() = err %v, want %v", err, domain.ErrNotFound)
	}

	author := domain.Author{ID: 1, Name: "Автор"}
	now := time.Date(2023, 8, 1, 12, 0, 0, 5, time.UTC)
	later := domain.Comment{NewsID: news[1].ID, Text: "второй", Created: now.Add(24 * time.Hour), Author: author}
	first := domain.Comment{NewsID: news[1].ID, Text: "первый", Created: now, Author: author}
	for _, c := range []*domain.Comment{&later, &first} {
		id, err := tdb.CreateComment(ctx, c)
		if err != nil {
			t.Fatalf("CreateComment() = err %v", err)
		}
		c.ID = id
	}

	comments, err := tdb.Comments(ctx, news[1].ID)
	if err != nil {
		t.Fatalf("Comments() = err %v", err)
	}
	if diff := cmp.Diff([]domain.Comment{first, later}, comments); diff != "" {
		t.Errorf("Comments() mismatch (-want +got):\n%s", diff)
	}

	if err := tdb.UpdateComment(ctx, first.ID, "изменен"); err != nil {
		t.Fatalf("UpdateComment() = err %v", err)
	}
	first.Text = "изменен"
	c, err := tdb.Comment(ctx, first.ID)
	if err != nil {
		t.Fatalf("Comment() = err %v", err)
	}
	if diff := cmp.Diff(first, c); diff != "" {
		t.Errorf("Comment() mismatch (-want +got):\n%s", diff)
	}

	if err := tdb.DeleteComment(ctx, later.ID); err != nil {
		t.Fatalf("DeleteComment() = err %v", err)
	}
	if err := tdb.DeleteComment(ctx, later.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("DeleteComment() = err %v, want %v", err, domain.ErrNotFound)
	}
	if _, err := tdb.Comment(ctx, later.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Comment() = err %v, want %v", err, domain.ErrNotFound)
	}

	n, err := tdb.CountComments(ctx)
	if err != nil || n != 1 {
		t.Errorf("CountComments() = %d, %v, want %d", n, err, 1)
	}
}

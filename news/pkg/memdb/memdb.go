// пакет memdb - хранилище новостей и комментариев в памяти,
// для тестов и демо-режима.
package memdb

import (
	"context"
	"sort"
	"sync"

	"github.com/rtemka/ya/news/domain"
)

type MemDB struct {
	mu            sync.RWMutex
	lastNewsID    int64
	lastCommentID int64
	news          map[int64]domain.News
	comments      map[int64]domain.Comment
}

func New() *MemDB {
	return &MemDB{
		news:     make(map[int64]domain.News),
		comments: make(map[int64]domain.Comment),
	}
}

func (m *MemDB) AddNews(_ context.Context, news []domain.News) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range news {
		m.lastNewsID++
		news[i].ID = m.lastNewsID
		m.news[news[i].ID] = news[i]
	}
	return nil
}

func (m *MemDB) LatestNews(_ context.Context, limit int) ([]domain.News, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	news := make([]domain.News, 0, len(m.news))
	for _, n := range m.news {
		news = append(news, n)
	}
	sort.Slice(news, func(i, j int) bool {
		if news[i].Date.Equal(news[j].Date) {
			return news[i].ID > news[j].ID
		}
		return news[i].Date.After(news[j].Date)
	})
	if limit > 0 && len(news) > limit {
		news = news[:limit]
	}
	return news, nil
}

func (m *MemDB) News(_ context.Context, id int64) (domain.News, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n, ok := m.news[id]
	if !ok {
		return domain.News{}, domain.ErrNotFound
	}
	return n, nil
}

func (m *MemDB) CreateComment(_ context.Context, c *domain.Comment) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.news[c.NewsID]; !ok {
		return 0, domain.ErrNotFound
	}
	m.lastCommentID++
	c.ID = m.lastCommentID
	m.comments[c.ID] = *c
	return c.ID, nil
}

func (m *MemDB) Comment(_ context.Context, id int64) (domain.Comment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.comments[id]
	if !ok {
		return domain.Comment{}, domain.ErrNotFound
	}
	return c, nil
}

func (m *MemDB) Comments(_ context.Context, newsID int64) ([]domain.Comment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var comments []domain.Comment
	for _, c := range m.comments {
		if c.NewsID == newsID {
			comments = append(comments, c)
		}
	}
	sort.Slice(comments, func(i, j int) bool {
		if comments[i].Created.Equal(comments[j].Created) {
			return comments[i].ID < comments[j].ID
		}
		return comments[i].Created.Before(comments[j].Created)
	})
	return comments, nil
}

func (m *MemDB) UpdateComment(_ context.Context, id int64, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.comments[id]
	if !ok {
		return domain.ErrNotFound
	}
	c.Text = text
	m.comments[id] = c
	return nil
}

func (m *MemDB) DeleteComment(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.comments[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.comments, id)
	return nil
}

func (m *MemDB) CountComments(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.comments), nil
}

func (m *MemDB) Close() error { return nil }

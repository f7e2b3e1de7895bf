// пакет memdb - хранилище заметок в памяти, для тестов и демо-режима.
package memdb

import (
	"context"
	"sort"
	"sync"

	"github.com/rtemka/ya/notes/domain"
)

type MemDB struct {
	mu     sync.RWMutex
	lastID int64
	notes  map[int64]domain.Note
}

func New() *MemDB {
	return &MemDB{notes: make(map[int64]domain.Note)}
}

func (m *MemDB) slugTaken(slug string, excludeID int64) bool {
	for id, n := range m.notes {
		if n.Slug == slug && id != excludeID {
			return true
		}
	}
	return false
}

func (m *MemDB) Create(_ context.Context, n *domain.Note) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.slugTaken(n.Slug, 0) {
		return 0, domain.ErrDuplicateSlug
	}
	m.lastID++
	n.ID = m.lastID
	m.notes[n.ID] = *n
	return n.ID, nil
}

func (m *MemDB) BySlug(_ context.Context, slug string) (domain.Note, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, n := range m.notes {
		if n.Slug == slug {
			return n, nil
		}
	}
	return domain.Note{}, domain.ErrNotFound
}

func (m *MemDB) SlugExists(_ context.Context, slug string, excludeID int64) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.slugTaken(slug, excludeID), nil
}

func (m *MemDB) Update(_ context.Context, n domain.Note) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	old, ok := m.notes[n.ID]
	if !ok {
		return domain.ErrNotFound
	}
	if m.slugTaken(n.Slug, n.ID) {
		return domain.ErrDuplicateSlug
	}
	n.Author = old.Author
	m.notes[n.ID] = n
	return nil
}

func (m *MemDB) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.notes[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.notes, id)
	return nil
}

func (m *MemDB) ByAuthor(_ context.Context, authorID int64) ([]domain.Note, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var notes []domain.Note
	for _, n := range m.notes {
		if n.Author.ID == authorID {
			notes = append(notes, n)
		}
	}
	sort.Slice(notes, func(i, j int) bool { return notes[i].ID < notes[j].ID })
	return notes, nil
}

func (m *MemDB) Count(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.notes), nil
}

func (m *MemDB) Close() error { return nil }

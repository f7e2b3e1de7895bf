// пакет memdb - хранилище пользователей в памяти, для тестов и демо-режима.
package memdb

import (
	"context"
	"sync"

	"github.com/rtemka/ya/users/domain"
)

type MemDB struct {
	mu     sync.RWMutex
	lastID int64
	users  map[int64]domain.User
}

func New() *MemDB {
	return &MemDB{users: make(map[int64]domain.User)}
}

func (m *MemDB) Create(_ context.Context, u *domain.User) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, v := range m.users {
		if v.Username == u.Username {
			return 0, domain.ErrUsernameTaken
		}
	}
	m.lastID++
	u.ID = m.lastID
	m.users[u.ID] = *u
	return u.ID, nil
}

func (m *MemDB) ByUsername(_ context.Context, name string) (domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, v := range m.users {
		if v.Username == name {
			return v, nil
		}
	}
	return domain.User{}, domain.ErrNotFound
}

func (m *MemDB) ByID(_ context.Context, id int64) (domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return domain.User{}, domain.ErrNotFound
	}
	return u, nil
}

func (m *MemDB) Close() error { return nil }

package storage

import (
	"context"
	"sync"
	"time"
)

type MemoryStorage struct {
	users map[int64]*UserRecord
	mutex sync.RWMutex
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		users: make(map[int64]*UserRecord),
	}
}

func (m *MemoryStorage) GetUser(_ context.Context, userId int64) (*UserRecord, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	if user, ok := m.users[userId]; ok {
		// copy, callers must not reach into the map
		cc := *user
		return &cc, nil
	}
	return nil, nil
}

func (m *MemoryStorage) UpsertUser(_ context.Context, user *UserRecord) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	now := time.Now()
	cc := *user
	if existing, ok := m.users[user.UserId]; ok {
		cc.CreatedAt = existing.CreatedAt
	} else if cc.CreatedAt.IsZero() {
		cc.CreatedAt = now
	}
	cc.LastActiveAt = now
	m.users[user.UserId] = &cc

	user.CreatedAt = cc.CreatedAt
	user.LastActiveAt = cc.LastActiveAt
	return nil
}

func (m *MemoryStorage) IncrementRequests(_ context.Context, userId int64) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	user, ok := m.users[userId]
	if !ok {
		return ErrUserNotFound
	}
	user.DailyRequests++
	user.TotalRequests++
	user.LastActiveAt = time.Now()
	return nil
}

func (m *MemoryStorage) ResetDaily(_ context.Context) (int64, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	var n int64
	for _, user := range m.users {
		user.DailyRequests = 0
		n++
	}
	return n, nil
}

func (m *MemoryStorage) Close() error {
	return nil
}

package settings

import (
	"context"
	"sync"

	"github.com/transit-complaints/backend/internal/models"
)

type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]models.Setting
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: map[string]models.Setting{}}
}

func (m *MemoryStore) Get(ctx context.Context, key string) (models.Setting, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.data[key]
	return s, ok, nil
}

func (m *MemoryStore) Upsert(ctx context.Context, s models.Setting) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[s.Key] = s
	return nil
}

func (m *MemoryStore) InsertIfAbsent(ctx context.Context, s models.Setting) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data[s.Key]; ok {
		return false, nil
	}
	m.data[s.Key] = s
	return true, nil
}

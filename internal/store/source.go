package store

import (
	"context"
	"errors"
	"sync"

	"github.com/mind-engage/gradecalc/internal/engine"
)

// Source is the external data-access collaborator: one bulk fetch returning
// everything the engine needs for a class session.
type Source interface {
	LoadClassData(ctx context.Context, classID string) (engine.ClassData, error)
}

// MemoryStore keeps class data in memory for tests and offline seeding.
type MemoryStore struct {
	mu      sync.RWMutex
	classes map[string]engine.ClassData
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{classes: map[string]engine.ClassData{}}
}

func (m *MemoryStore) PutClassData(classID string, data engine.ClassData) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.classes[classID] = data
}

func (m *MemoryStore) LoadClassData(_ context.Context, classID string) (engine.ClassData, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.classes[classID]
	if !ok {
		return engine.ClassData{}, errors.New("class not found")
	}
	return data, nil
}

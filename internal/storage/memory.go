package storage

import (
	"context"
	"sync"

	"bilancio/internal/ledger"
)

// MemoryRepository keeps the last snapshot in process memory.
type MemoryRepository struct {
	mu    sync.RWMutex
	saved *ledger.Ledger
	saves int
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

func (m *MemoryRepository) Load(_ context.Context) (ledger.Ledger, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.saved == nil {
		return ledger.Ledger{}, ErrNoSnapshot
	}
	return m.saved.Clone(), nil
}

func (m *MemoryRepository) Save(_ context.Context, l ledger.Ledger) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := l.Clone()
	m.saved = &c
	m.saves++
	return nil
}

// Saves returns how many snapshots have been written.
func (m *MemoryRepository) Saves() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.saves
}

func (m *MemoryRepository) Close() error { return nil }

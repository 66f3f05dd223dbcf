package ledger

import (
	"context"
	"sync"
)

// MemoryStore keeps the ledger in process memory. It backs tests, the
// "memory" backend, and the scheduler's degraded mode.
type MemoryStore struct {
	mu    sync.RWMutex
	state State
	saves int
}

func NewMemoryStore(initial State) *MemoryStore {
	return &MemoryStore{state: initial.Clone()}
}

func (m *MemoryStore) Load(ctx context.Context) (State, error) {
	if err := ctx.Err(); err != nil {
		return State{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.Clone(), nil
}

func (m *MemoryStore) Save(ctx context.Context, s State) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = s.Clone()
	m.saves++
	return nil
}

func (m *MemoryStore) Update(ctx context.Context, fn func(*State) error) (State, error) {
	if err := ctx.Err(); err != nil {
		return State{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	st := m.state.Clone()
	if err := fn(&st); err != nil {
		return State{}, err
	}
	m.state = st.Clone()
	m.saves++
	return st, nil
}

// Saves returns how many successful writes the store has seen.
func (m *MemoryStore) Saves() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.saves
}

package detector

import (
	"context"
	"sync"

	"SentimentWatch/internal/model"
)

// State is the last known observation for one instrument.
type State struct {
	Signal        model.Signal `json:"signal"`
	BuyPercentage float64      `json:"buy_percentage"`
}

// Store is the instrument-keyed last-known-state map owned by a Detector.
// The Detector is its only writer.
type Store interface {
	Get(ctx context.Context, instrument string) (State, bool, error)
	Put(ctx context.Context, instrument string, st State) error
}

// MemoryStore keeps state in process memory.
type MemoryStore struct {
	mu     sync.RWMutex
	states map[string]State
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{states: make(map[string]State)}
}

func (m *MemoryStore) Get(_ context.Context, instrument string) (State, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	st, ok := m.states[instrument]
	return st, ok, nil
}

func (m *MemoryStore) Put(_ context.Context, instrument string, st State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[instrument] = st
	return nil
}

// Snapshot returns a copy of all states.
func (m *MemoryStore) Snapshot() map[string]State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]State, len(m.states))
	for k, v := range m.states {
		out[k] = v
	}
	return out
}

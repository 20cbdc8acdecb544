package progress

import (
	"context"
	"errors"
	"sync"
)

var (
	ErrNotFound = errors.New("progress not found")
	ErrFrozen   = errors.New("record already submitted")
)

// Store persists progress records keyed by (student, worksheet).
// Writes are whole-state and last-write-wins.
type Store interface {
	Get(ctx context.Context, studentID, worksheetID string) (State, error)
	Put(ctx context.Context, st State) error
}

type memoryStore struct {
	mu     sync.RWMutex
	states map[string]State
}

func NewMemoryStore() *memoryStore {
	return &memoryStore{states: map[string]State{}}
}

func key(studentID, worksheetID string) string { return studentID + "/" + worksheetID }

func (m *memoryStore) Get(_ context.Context, studentID, worksheetID string) (State, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	st, ok := m.states[key(studentID, worksheetID)]
	if !ok {
		return State{}, ErrNotFound
	}
	return st, nil
}

func (m *memoryStore) Put(_ context.Context, st State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[key(st.StudentID, st.WorksheetID)] = st
	return nil
}

package worksheet

import (
	"context"
	"errors"
	"sort"
	"sync"
)

var (
	ErrNotFound = errors.New("not found")
)

// Store persists worksheet definitions and assignments. Implementations:
// SQLStore (sqlite/postgres) and the in-memory store used by tests.
type Store interface {
	PutWorksheet(ctx context.Context, w Worksheet) error
	GetWorksheet(ctx context.Context, id string) (Worksheet, error)
	ListWorksheets(ctx context.Context) ([]Worksheet, error)

	// CreateAssignment is idempotent per (class, worksheet): assigning twice
	// returns the existing record with created=false.
	CreateAssignment(ctx context.Context, a Assignment) (Assignment, bool, error)
	ListAssignmentsByClass(ctx context.Context, classID string) ([]Assignment, error)
	ListAssignmentsForStudent(ctx context.Context, studentID string) ([]Assignment, error)
}

type memoryStore struct {
	mu          sync.RWMutex
	worksheets  map[string]Worksheet
	assignments map[string]Assignment
	rosters     map[string][]string // classID -> studentIDs, seeded by tests
}

// NewMemoryStore is for tests and offline demos.
func NewMemoryStore() *memoryStore {
	return &memoryStore{
		worksheets:  map[string]Worksheet{},
		assignments: map[string]Assignment{},
		rosters:     map[string][]string{},
	}
}

func (m *memoryStore) PutWorksheet(_ context.Context, w Worksheet) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.worksheets[w.ID] = w
	return nil
}

func (m *memoryStore) GetWorksheet(_ context.Context, id string) (Worksheet, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	w, ok := m.worksheets[id]
	if !ok {
		return Worksheet{}, ErrNotFound
	}
	return w, nil
}

func (m *memoryStore) ListWorksheets(_ context.Context) ([]Worksheet, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Worksheet, 0, len(m.worksheets))
	for _, w := range m.worksheets {
		out = append(out, w)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memoryStore) CreateAssignment(_ context.Context, a Assignment) (Assignment, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ex := range m.assignments {
		if ex.ClassID == a.ClassID && ex.WorksheetID == a.WorksheetID {
			return ex, false, nil
		}
	}
	m.assignments[a.ID] = a
	return a, true, nil
}

func (m *memoryStore) ListAssignmentsByClass(_ context.Context, classID string) ([]Assignment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Assignment
	for _, a := range m.assignments {
		if a.ClassID == classID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memoryStore) ListAssignmentsForStudent(_ context.Context, studentID string) ([]Assignment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	classes := map[string]bool{}
	for classID, students := range m.rosters {
		for _, s := range students {
			if s == studentID {
				classes[classID] = true
			}
		}
	}
	var out []Assignment
	for _, a := range m.assignments {
		if classes[a.ClassID] {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Enroll seeds a roster entry; test helper only.
func (m *memoryStore) Enroll(classID, studentID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rosters[classID] = append(m.rosters[classID], studentID)
}

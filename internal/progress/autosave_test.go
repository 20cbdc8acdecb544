package progress

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type flakyStore struct {
	mu       sync.Mutex
	puts     []State
	failWith error
}

func (f *flakyStore) Get(_ context.Context, studentID, worksheetID string) (State, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.puts) - 1; i >= 0; i-- {
		if f.puts[i].StudentID == studentID && f.puts[i].WorksheetID == worksheetID {
			return f.puts[i], nil
		}
	}
	return State{}, ErrNotFound
}

func (f *flakyStore) Put(_ context.Context, st State) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return f.failWith
	}
	f.puts = append(f.puts, st)
	return nil
}

func (f *flakyStore) setFail(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failWith = err
}

func (f *flakyStore) putCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.puts)
}

func stateAt(idx int) State {
	return State{StudentID: "stu-1", WorksheetID: "ws-cpu", CurrentSectionIndex: idx, OverallStatus: StatusInProgress}
}

func TestSaverCoalescesRapidEdits(t *testing.T) {
	store := &flakyStore{}
	s := NewSaver(store, time.Hour, nil) // timer never fires during the test
	defer s.Close()

	s.Enqueue(stateAt(1))
	s.Enqueue(stateAt(2))
	s.Enqueue(stateAt(3))

	if st, _ := s.Status(); st != SavePending {
		t.Fatalf("status = %s, want %s", st, SavePending)
	}
	if err := s.Flush(context.Background()); err != nil {
		t.Fatal(err)
	}
	if n := store.putCount(); n != 1 {
		t.Fatalf("writes = %d, want 1", n)
	}
	if got := store.puts[0].CurrentSectionIndex; got != 3 {
		t.Fatalf("saved index = %d, want the newest (3)", got)
	}
	if st, _ := s.Status(); st != SaveIdle {
		t.Fatalf("status after flush = %s, want %s", st, SaveIdle)
	}
}

func TestSaverWritesOnTimer(t *testing.T) {
	store := &flakyStore{}
	s := NewSaver(store, 20*time.Millisecond, nil)
	defer s.Close()

	s.Enqueue(stateAt(1))
	deadline := time.Now().Add(2 * time.Second)
	for store.putCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("timer never fired")
		}
		time.Sleep(5 * time.Millisecond)
	}
	if st, _ := s.Status(); st != SaveIdle {
		t.Fatalf("status after timed write = %s, want %s", st, SaveIdle)
	}
}

func TestSaverSurfacesFailureAndRetries(t *testing.T) {
	store := &flakyStore{}
	boom := errors.New("disk full")
	store.setFail(boom)
	s := NewSaver(store, time.Hour, nil)
	defer s.Close()

	s.Enqueue(stateAt(1))
	if err := s.Flush(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("flush err = %v, want %v", err, boom)
	}
	st, err := s.Status()
	if st != SaveError || !errors.Is(err, boom) {
		t.Fatalf("status = %s/%v, want %s/%v", st, err, SaveError, boom)
	}

	// the state is kept; the next flush retries it
	store.setFail(nil)
	if err := s.Flush(context.Background()); err != nil {
		t.Fatalf("retry flush: %v", err)
	}
	if n := store.putCount(); n != 1 {
		t.Fatalf("writes after retry = %d, want 1", n)
	}
	if st, _ := s.Status(); st != SaveIdle {
		t.Fatalf("status after retry = %s, want %s", st, SaveIdle)
	}
}

func TestSaverCloseDropsPendingWrite(t *testing.T) {
	store := &flakyStore{}
	s := NewSaver(store, 10*time.Millisecond, nil)
	s.Enqueue(stateAt(1))
	s.Close()

	time.Sleep(50 * time.Millisecond)
	if n := store.putCount(); n != 0 {
		t.Fatalf("writes after close = %d, want 0", n)
	}
	s.Enqueue(stateAt(2)) // ignored once closed
	if err := s.Flush(context.Background()); err != nil {
		t.Fatal(err)
	}
}

func TestLegacyRecordFreeze(t *testing.T) {
	rec := LegacyRecord{Status: "in_progress"}
	if rec.Frozen() {
		t.Fatalf("in_progress must not be frozen")
	}
	for _, st := range []string{"submitted", "graded"} {
		rec.Status = st
		if !rec.Frozen() {
			t.Fatalf("%s must be frozen", st)
		}
	}
}

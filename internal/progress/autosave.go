package progress

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

type SaveState string

const (
	SaveIdle    SaveState = "idle"
	SavePending SaveState = "pending"
	SaveError   SaveState = "error"
)

// Saver debounces whole-state writes on a trailing edge: rapid edits within
// one window coalesce into a single write of the newest state. A failed
// write is logged, the state is kept, and the next window retries with
// whatever is newest then (last-write-wins, no queue).
type Saver struct {
	store    Store
	log      *zap.Logger
	interval time.Duration

	mu      sync.Mutex
	latest  *State
	timer   *time.Timer
	state   SaveState
	lastErr error
	closed  bool
}

func NewSaver(store Store, interval time.Duration, log *zap.Logger) *Saver {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Saver{store: store, log: log, interval: interval, state: SaveIdle}
}

// Enqueue records st as the newest state and arms the write timer if idle.
func (s *Saver) Enqueue(st State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.latest = &st
	s.state = SavePending
	if s.timer == nil {
		s.timer = time.AfterFunc(s.interval, s.fire)
	}
}

func (s *Saver) fire() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.timer = nil
	s.writeLocked(ctx)
}

// Flush writes any pending state immediately and disarms the timer. Called
// on player close and server shutdown.
func (s *Saver) Flush(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.writeLocked(ctx)
	return s.lastErr
}

// Close cancels any pending write without performing it.
func (s *Saver) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.latest = nil
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

// Latest returns the newest enqueued state when a write is still pending,
// so readers see their own unflushed edits.
func (s *Saver) Latest() (State, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.latest == nil {
		return State{}, false
	}
	return *s.latest, true
}

// Status reports the write-in-flight state so a client can show a
// "not saved" indicator instead of silently dropping failures.
func (s *Saver) Status() (SaveState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state, s.lastErr
}

func (s *Saver) writeLocked(ctx context.Context) {
	if s.latest == nil {
		return
	}
	st := *s.latest
	if err := s.store.Put(ctx, st); err != nil {
		s.state = SaveError
		s.lastErr = err
		s.log.Warn("progress autosave failed",
			zap.String("student_id", st.StudentID),
			zap.String("worksheet_id", st.WorksheetID),
			zap.Error(err))
		return
	}
	s.latest = nil
	s.state = SaveIdle
	s.lastErr = nil
}

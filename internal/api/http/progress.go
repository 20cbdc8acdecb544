package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/cs-hub/cshub/internal/audit"
	"github.com/cs-hub/cshub/internal/progress"
	"github.com/cs-hub/cshub/internal/worksheet"
)

// ProgressAPI serves the worksheet player. Mutations run through the state
// machine and are persisted through a per-(student, worksheet) debounced
// saver; every response carries the save state so the client can show a
// "not saved" indicator.
type ProgressAPI struct {
	ws       worksheet.Store
	store    progress.Store
	legacy   *progress.LegacySQLStore
	machine  *progress.Machine
	events   *audit.EventRepo
	log      *zap.Logger
	interval time.Duration

	mu     sync.Mutex
	savers map[string]*progress.Saver
}

func NewProgressAPI(ws worksheet.Store, store progress.Store, legacy *progress.LegacySQLStore, events *audit.EventRepo, log *zap.Logger, interval time.Duration) *ProgressAPI {
	if log == nil {
		log = zap.NewNop()
	}
	return &ProgressAPI{
		ws:       ws,
		store:    store,
		legacy:   legacy,
		machine:  progress.NewMachine(),
		events:   events,
		log:      log,
		interval: interval,
		savers:   map[string]*progress.Saver{},
	}
}

// Shutdown flushes every pending write.
func (p *ProgressAPI) Shutdown(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, s := range p.savers {
		if err := s.Flush(ctx); err != nil {
			p.log.Warn("flush on shutdown failed", zap.Error(err))
		}
	}
}

func (p *ProgressAPI) saverFor(studentID, worksheetID string) *progress.Saver {
	p.mu.Lock()
	defer p.mu.Unlock()
	key := studentID + "/" + worksheetID
	s, ok := p.savers[key]
	if !ok {
		s = progress.NewSaver(p.store, p.interval, p.log)
		p.savers[key] = s
	}
	return s
}

type progressEnvelope struct {
	State     progress.State     `json:"state"`
	SaveState progress.SaveState `json:"saveState"`
	SaveError string             `json:"saveError,omitempty"`
}

func (p *ProgressAPI) envelope(studentID string, st progress.State) progressEnvelope {
	save, err := p.saverFor(studentID, st.WorksheetID).Status()
	env := progressEnvelope{State: st, SaveState: save}
	if err != nil {
		env.SaveError = err.Error()
	}
	return env
}

// current returns the student's working state: the newest unflushed edit if
// one is pending, else the stored record, else a fresh initialization.
func (p *ProgressAPI) current(ctx context.Context, ws worksheet.Worksheet, studentID string) (progress.State, error) {
	if st, ok := p.saverFor(studentID, ws.ID).Latest(); ok {
		return p.machine.Initialize(ws, &st, studentID), nil
	}
	st, err := p.store.Get(ctx, studentID, ws.ID)
	if errors.Is(err, progress.ErrNotFound) {
		return p.machine.Initialize(ws, nil, studentID), nil
	}
	if err != nil {
		return progress.State{}, err
	}
	return p.machine.Initialize(ws, &st, studentID), nil
}

func (p *ProgressAPI) loadWorksheet(w http.ResponseWriter, r *http.Request) (worksheet.Worksheet, bool) {
	ws, err := p.ws.GetWorksheet(r.Context(), chi.URLParam(r, "worksheetID"))
	if errors.Is(err, worksheet.ErrNotFound) {
		http.Error(w, "worksheet not found", http.StatusNotFound)
		return worksheet.Worksheet{}, false
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return worksheet.Worksheet{}, false
	}
	return ws, true
}

// GET /worksheets/{worksheetID}/progress[?student_id=...]
// Teachers may read any student's record; students only their own.
func (p *ProgressAPI) Get(w http.ResponseWriter, r *http.Request) {
	sub, role, ok := caller(w, r)
	if !ok {
		return
	}
	studentID := sub
	if q := r.URL.Query().Get("student_id"); q != "" && q != sub {
		if role != "teacher" && role != "admin" {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		studentID = q
	}
	ws, ok := p.loadWorksheet(w, r)
	if !ok {
		return
	}
	st, err := p.current(r.Context(), ws, studentID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	_ = json.NewEncoder(w).Encode(p.envelope(studentID, st))
}

// apply runs one state-machine operation for the calling student and
// enqueues the result.
func (p *ProgressAPI) apply(w http.ResponseWriter, r *http.Request, op func(ws worksheet.Worksheet, st progress.State) (progress.State, error)) {
	sub, _, ok := caller(w, r)
	if !ok {
		return
	}
	ws, ok := p.loadWorksheet(w, r)
	if !ok {
		return
	}
	st, err := p.current(r.Context(), ws, sub)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	next, err := op(ws, st)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, progress.ErrReadRequired) {
			status = http.StatusConflict
		}
		http.Error(w, err.Error(), status)
		return
	}
	p.saverFor(sub, ws.ID).Enqueue(next)
	_ = json.NewEncoder(w).Encode(p.envelope(sub, next))
}

// POST /worksheets/{worksheetID}/progress/answer
func (p *ProgressAPI) Answer(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SectionID string               `json:"sectionId"`
		ItemID    string               `json:"itemId"`
		Value     progress.AnswerValue `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	p.apply(w, r, func(ws worksheet.Worksheet, st progress.State) (progress.State, error) {
		return p.machine.ApplyAnswerChange(ws, st, req.SectionID, req.ItemID, req.Value)
	})
}

// POST /worksheets/{worksheetID}/progress/read
func (p *ProgressAPI) Read(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SectionID string `json:"sectionId"`
		Done      bool   `json:"done"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	p.apply(w, r, func(ws worksheet.Worksheet, st progress.State) (progress.State, error) {
		return p.machine.ToggleSectionRead(ws, st, req.SectionID, req.Done)
	})
}

// POST /worksheets/{worksheetID}/progress/reset  scope: item|section|all
func (p *ProgressAPI) Reset(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Scope     string `json:"scope"`
		SectionID string `json:"sectionId"`
		ItemID    string `json:"itemId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	p.apply(w, r, func(ws worksheet.Worksheet, st progress.State) (progress.State, error) {
		switch req.Scope {
		case "item":
			return p.machine.ResetItem(ws, st, req.SectionID, req.ItemID)
		case "section":
			return p.machine.ResetSection(ws, st, req.SectionID)
		case "all":
			return p.machine.ResetAll(ws, st), nil
		default:
			return progress.State{}, errors.New("scope must be item, section or all")
		}
	})
}

// POST /worksheets/{worksheetID}/progress/advance  { "direction": 1 | -1 }
func (p *ProgressAPI) Advance(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Direction int `json:"direction"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	p.apply(w, r, func(ws worksheet.Worksheet, st progress.State) (progress.State, error) {
		return p.machine.Advance(ws, st, req.Direction)
	})
}

// GET /worksheets/{worksheetID}/progress/summary
func (p *ProgressAPI) Summary(w http.ResponseWriter, r *http.Request) {
	sub, role, ok := caller(w, r)
	if !ok {
		return
	}
	studentID := sub
	if q := r.URL.Query().Get("student_id"); q != "" && q != sub {
		if role != "teacher" && role != "admin" {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		studentID = q
	}
	ws, ok := p.loadWorksheet(w, r)
	if !ok {
		return
	}
	st, err := p.current(r.Context(), ws, studentID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	_ = json.NewEncoder(w).Encode(progress.Summarize(ws, st))
}

// POST /worksheets/{worksheetID}/progress/flush
// Client calls this on player close so nothing is lost to the debounce.
func (p *ProgressAPI) Flush(w http.ResponseWriter, r *http.Request) {
	sub, _, ok := caller(w, r)
	if !ok {
		return
	}
	worksheetID := chi.URLParam(r, "worksheetID")
	if err := p.saverFor(sub, worksheetID).Flush(r.Context()); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// POST /worksheets/{worksheetID}/legacy  { "responses": {taskId: text} }
// First-generation flat worksheets save whole response maps and freeze on
// submit.
func (p *ProgressAPI) LegacySave(w http.ResponseWriter, r *http.Request) {
	sub, _, ok := caller(w, r)
	if !ok {
		return
	}
	var req struct {
		Responses map[string]string `json:"responses"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Responses) == 0 {
		http.Error(w, "responses required", http.StatusBadRequest)
		return
	}
	rec, err := p.legacy.SaveResponses(r.Context(), sub, chi.URLParam(r, "worksheetID"), req.Responses)
	if errors.Is(err, progress.ErrFrozen) {
		http.Error(w, "already submitted", http.StatusConflict)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	_ = json.NewEncoder(w).Encode(rec)
}

// POST /worksheets/{worksheetID}/legacy/submit
func (p *ProgressAPI) LegacySubmit(w http.ResponseWriter, r *http.Request) {
	sub, _, ok := caller(w, r)
	if !ok {
		return
	}
	worksheetID := chi.URLParam(r, "worksheetID")
	rec, err := p.legacy.Submit(r.Context(), sub, worksheetID)
	if errors.Is(err, progress.ErrNotFound) {
		http.Error(w, "no progress to submit", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	_ = p.events.Append(r.Context(), audit.EventProgressSubmitted, worksheetID, map[string]string{
		"studentId": sub,
	})
	_ = json.NewEncoder(w).Encode(rec)
}

package progress

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"
)

// LegacyRecord is the first-generation flat progress document: one response
// per task, no section structure. Once submitted (or graded) the record is
// frozen and rendered read-only.
type LegacyRecord struct {
	StudentID   string            `json:"studentId"`
	WorksheetID string            `json:"worksheetId"`
	Responses   map[string]string `json:"responses"`
	Status      string            `json:"status"` // in_progress|submitted|graded
	UpdatedAt   int64             `json:"updatedAt"`
}

func (r LegacyRecord) Frozen() bool {
	return r.Status == "submitted" || r.Status == "graded"
}

type LegacySQLStore struct {
	db *sql.DB
}

func NewLegacySQLStore(db *sql.DB) *LegacySQLStore { return &LegacySQLStore{db: db} }

func (s *LegacySQLStore) Get(ctx context.Context, studentID, worksheetID string) (LegacyRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT responses_json, status, updated_at FROM legacy_progress WHERE student_id=$1 AND worksheet_id=$2`,
		studentID, worksheetID)
	rec := LegacyRecord{StudentID: studentID, WorksheetID: worksheetID}
	var rj string
	if err := row.Scan(&rj, &rec.Status, &rec.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return LegacyRecord{}, ErrNotFound
		}
		return LegacyRecord{}, err
	}
	if err := json.Unmarshal([]byte(rj), &rec.Responses); err != nil {
		rec.Responses = map[string]string{}
	}
	return rec, nil
}

// SaveResponses merges responses into the record, refusing once frozen.
func (s *LegacySQLStore) SaveResponses(ctx context.Context, studentID, worksheetID string, responses map[string]string) (LegacyRecord, error) {
	rec, err := s.Get(ctx, studentID, worksheetID)
	if errors.Is(err, ErrNotFound) {
		rec = LegacyRecord{StudentID: studentID, WorksheetID: worksheetID, Responses: map[string]string{}, Status: "in_progress"}
	} else if err != nil {
		return LegacyRecord{}, err
	}
	if rec.Frozen() {
		return LegacyRecord{}, ErrFrozen
	}
	for k, v := range responses {
		rec.Responses[k] = v
	}
	return rec, s.put(ctx, rec)
}

// Submit freezes the record. Submitting twice is a no-op.
func (s *LegacySQLStore) Submit(ctx context.Context, studentID, worksheetID string) (LegacyRecord, error) {
	rec, err := s.Get(ctx, studentID, worksheetID)
	if err != nil {
		return LegacyRecord{}, err
	}
	if rec.Frozen() {
		return rec, nil
	}
	rec.Status = "submitted"
	return rec, s.put(ctx, rec)
}

func (s *LegacySQLStore) put(ctx context.Context, rec LegacyRecord) error {
	rj, err := json.Marshal(rec.Responses)
	if err != nil {
		return err
	}
	rec.UpdatedAt = time.Now().Unix()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO legacy_progress (student_id, worksheet_id, responses_json, status, updated_at)
		 VALUES ($1,$2,$3,$4,$5)
		 ON CONFLICT (student_id, worksheet_id) DO UPDATE SET responses_json=EXCLUDED.responses_json, status=EXCLUDED.status, updated_at=EXCLUDED.updated_at`,
		rec.StudentID, rec.WorksheetID, string(rj), rec.Status, rec.UpdatedAt)
	return err
}

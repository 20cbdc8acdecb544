package progress

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"
)

type SQLStore struct {
	db     *sql.DB
	driver string // "sqlite" or "postgres"
}

func NewSQLStore(db *sql.DB, driver string) *SQLStore {
	return &SQLStore{db: db, driver: driver}
}

func (s *SQLStore) Get(ctx context.Context, studentID, worksheetID string) (State, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT state_json FROM worksheet_progress WHERE student_id=$1 AND worksheet_id=$2`,
		studentID, worksheetID)
	var sj string
	if err := row.Scan(&sj); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return State{}, ErrNotFound
		}
		return State{}, err
	}
	var st State
	if err := json.Unmarshal([]byte(sj), &st); err != nil {
		return State{}, err
	}
	return st, nil
}

func (s *SQLStore) Put(ctx context.Context, st State) error {
	sj, err := json.Marshal(st)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO worksheet_progress (student_id, worksheet_id, state_json, updated_at)
		 VALUES ($1,$2,$3,$4)
		 ON CONFLICT (student_id, worksheet_id) DO UPDATE SET state_json=EXCLUDED.state_json, updated_at=EXCLUDED.updated_at`,
		st.StudentID, st.WorksheetID, string(sj), time.Now().Unix())
	return err
}

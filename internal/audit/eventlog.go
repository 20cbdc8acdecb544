// Package audit appends roster and progress milestones to an append-only
// event log, so admin tooling can answer "who provisioned whom, when".
package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"
)

const (
	EventStudentProvisioned = "student.provisioned"
	EventStudentRemoved     = "student.removed"
	EventPasswordReset      = "password.reset"
	EventWorksheetAssigned  = "worksheet.assigned"
	EventProgressSubmitted  = "progress.submitted"
)

type Event struct {
	Offset    int64  `json:"offset"`
	SiteID    string `json:"siteId"`
	Type      string `json:"type"`
	Key       string `json:"key"` // entity id the event is about
	DataJSON  string `json:"data"`
	CreatedAt int64  `json:"createdAt"`
}

type EventRepo struct {
	db     *sql.DB
	siteID string
}

func NewEventRepo(db *sql.DB, siteID string) *EventRepo {
	return &EventRepo{db: db, siteID: siteID}
}

func (r *EventRepo) Append(ctx context.Context, typ, key string, data any) error {
	dj, err := json.Marshal(data)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO event_log (site_id, typ, key, data, created_at)
		 VALUES ($1,$2,$3,$4,$5)`,
		r.siteID, typ, key, string(dj), time.Now().Unix())
	return err
}

// List returns events after the given offset, oldest first.
func (r *EventRepo) List(ctx context.Context, since int64, limit int) ([]Event, error) {
	if limit <= 0 || limit > 500 {
		limit = 500
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT "offset", site_id, typ, key, data, created_at FROM event_log
		 WHERE "offset" > $1 ORDER BY "offset" ASC LIMIT $2`,
		since, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.Offset, &e.SiteID, &e.Type, &e.Key, &e.DataJSON, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

package worksheet

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

func (s *SQLStore) PutWorksheet(ctx context.Context, w Worksheet) error {
	sj, err := json.Marshal(w.Sections)
	if err != nil {
		return err
	}
	kj, err := json.Marshal(w.Keywords)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO worksheets (id,title,course,unit,sections_json,keywords_json,created_by,created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		ON CONFLICT (id) DO UPDATE SET title=EXCLUDED.title, course=EXCLUDED.course, unit=EXCLUDED.unit,
		  sections_json=EXCLUDED.sections_json, keywords_json=EXCLUDED.keywords_json`,
		w.ID, w.Title, w.Course, w.Unit, string(sj), string(kj), w.CreatedBy, time.Now().Unix())
	return err
}

func (s *SQLStore) GetWorksheet(ctx context.Context, id string) (Worksheet, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id,title,course,unit,sections_json,keywords_json FROM worksheets WHERE id=$1`, id)
	var w Worksheet
	var sj, kj string
	if err := row.Scan(&w.ID, &w.Title, &w.Course, &w.Unit, &sj, &kj); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Worksheet{}, ErrNotFound
		}
		return Worksheet{}, err
	}
	if err := json.Unmarshal([]byte(sj), &w.Sections); err != nil {
		return Worksheet{}, err
	}
	if kj != "" && kj != "null" {
		if err := json.Unmarshal([]byte(kj), &w.Keywords); err != nil {
			return Worksheet{}, err
		}
	}
	return w, nil
}

func (s *SQLStore) ListWorksheets(ctx context.Context) ([]Worksheet, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id,title,course,unit FROM worksheets ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Worksheet{}
	for rows.Next() {
		var w Worksheet
		if err := rows.Scan(&w.ID, &w.Title, &w.Course, &w.Unit); err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

func (s *SQLStore) CreateAssignment(ctx context.Context, a Assignment) (Assignment, bool, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id,class_id,worksheet_id,worksheet_title,class_name,teacher_id,assigned_at
		   FROM assignments WHERE class_id=$1 AND worksheet_id=$2`, a.ClassID, a.WorksheetID)
	var ex Assignment
	err := row.Scan(&ex.ID, &ex.ClassID, &ex.WorksheetID, &ex.WorksheetTitle, &ex.ClassName, &ex.TeacherID, &ex.AssignedAt)
	if err == nil {
		return ex, false, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return Assignment{}, false, err
	}
	a.AssignedAt = time.Now().Unix()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO assignments (id,class_id,worksheet_id,worksheet_title,class_name,teacher_id,assigned_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		a.ID, a.ClassID, a.WorksheetID, a.WorksheetTitle, a.ClassName, a.TeacherID, a.AssignedAt)
	if err != nil {
		return Assignment{}, false, err
	}
	return a, true, nil
}

func (s *SQLStore) ListAssignmentsByClass(ctx context.Context, classID string) ([]Assignment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id,class_id,worksheet_id,worksheet_title,class_name,teacher_id,assigned_at
		   FROM assignments WHERE class_id=$1 ORDER BY assigned_at DESC`, classID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAssignments(rows)
}

func (s *SQLStore) ListAssignmentsForStudent(ctx context.Context, studentID string) ([]Assignment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT a.id,a.class_id,a.worksheet_id,a.worksheet_title,a.class_name,a.teacher_id,a.assigned_at
		   FROM assignments a
		   JOIN class_students cs ON cs.class_id=a.class_id
		  WHERE cs.student_id=$1 ORDER BY a.assigned_at DESC`, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAssignments(rows)
}

func scanAssignments(rows *sql.Rows) ([]Assignment, error) {
	out := []Assignment{}
	for rows.Next() {
		var a Assignment
		if err := rows.Scan(&a.ID, &a.ClassID, &a.WorksheetID, &a.WorksheetTitle, &a.ClassName, &a.TeacherID, &a.AssignedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

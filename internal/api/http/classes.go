package http

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/cs-hub/cshub/internal/audit"
)

type classRow struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	TeacherID  string   `json:"teacherId"`
	StudentIDs []string `json:"studentIds"`
	CreatedAt  int64    `json:"createdAt"`
}

func CreateClassHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sub, _, ok := caller(w, r)
		if !ok {
			return
		}
		var req struct {
			Name string `json:"name"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
			http.Error(w, "name required", http.StatusBadRequest)
			return
		}
		c := classRow{ID: uuid.NewString(), Name: req.Name, TeacherID: sub, StudentIDs: []string{}, CreatedAt: time.Now().Unix()}
		_, err := db.ExecContext(r.Context(),
			`INSERT INTO classes (id, name, teacher_id, created_at) VALUES ($1,$2,$3,$4)`,
			c.ID, c.Name, c.TeacherID, c.CreatedAt)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(c)
	}
}

// ListClassesHandler returns the caller's classes; admins see all.
func ListClassesHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sub, role, ok := caller(w, r)
		if !ok {
			return
		}
		var (
			rows *sql.Rows
			err  error
		)
		if role == "admin" {
			rows, err = db.QueryContext(r.Context(), `SELECT id, name, teacher_id, created_at FROM classes ORDER BY name`)
		} else {
			rows, err = db.QueryContext(r.Context(), `SELECT id, name, teacher_id, created_at FROM classes WHERE teacher_id=$1 ORDER BY name`, sub)
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		defer rows.Close()
		out := []classRow{}
		for rows.Next() {
			var c classRow
			if err := rows.Scan(&c.ID, &c.Name, &c.TeacherID, &c.CreatedAt); err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
			out = append(out, c)
		}
		_ = json.NewEncoder(w).Encode(out)
	}
}

// GetClassHandler returns one class with its roster.
func GetClassHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sub, role, ok := caller(w, r)
		if !ok {
			return
		}
		classID := chi.URLParam(r, "classID")
		var c classRow
		err := db.QueryRowContext(r.Context(),
			`SELECT id, name, teacher_id, created_at FROM classes WHERE id=$1`, classID).
			Scan(&c.ID, &c.Name, &c.TeacherID, &c.CreatedAt)
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "class not found", http.StatusNotFound)
			return
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if role != "admin" && c.TeacherID != sub && !isClassStudent(db, sub, classID) {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		rows, err := db.QueryContext(r.Context(),
			`SELECT student_id FROM class_students WHERE class_id=$1 ORDER BY added_at`, classID)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		defer rows.Close()
		c.StudentIDs = []string{}
		for rows.Next() {
			var id string
			if err := rows.Scan(&id); err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
			c.StudentIDs = append(c.StudentIDs, id)
		}
		_ = json.NewEncoder(w).Encode(c)
	}
}

// RemoveStudentHandler detaches a student from the roster. Provisioned
// accounts exist only for their class, so when the student is on no other
// roster the profile row is removed too.
func RemoveStudentHandler(db *sql.DB, events *audit.EventRepo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sub, role, ok := caller(w, r)
		if !ok {
			return
		}
		classID := chi.URLParam(r, "classID")
		studentID := chi.URLParam(r, "studentID")
		if role != "admin" && !isClassTeacher(db, sub, classID) {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		tx, err := db.BeginTx(r.Context(), nil)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		defer tx.Rollback()

		res, err := tx.ExecContext(r.Context(),
			`DELETE FROM class_students WHERE class_id=$1 AND student_id=$2`, classID, studentID)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if n, _ := res.RowsAffected(); n == 0 {
			http.Error(w, "student not in class", http.StatusNotFound)
			return
		}
		var remaining int
		if err := tx.QueryRowContext(r.Context(),
			`SELECT COUNT(*) FROM class_students WHERE student_id=$1`, studentID).Scan(&remaining); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if remaining == 0 {
			if _, err := tx.ExecContext(r.Context(),
				`DELETE FROM users WHERE id=$1 AND role='student'`, studentID); err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
		}
		if err := tx.Commit(); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		_ = events.Append(r.Context(), audit.EventStudentRemoved, studentID, map[string]string{
			"classId": classID, "by": sub,
		})
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"message": "Student removed from class.",
		})
	}
}

package http

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/cs-hub/cshub/internal/audit"
	"github.com/cs-hub/cshub/internal/worksheet"
)

// CreateAssignmentHandler links a worksheet to a class. Assigning the same
// pair twice returns the existing record instead of an error.
//
// POST /assignments  { "classId": "...", "worksheetId": "..." }
func CreateAssignmentHandler(db *sql.DB, store worksheet.Store, events *audit.EventRepo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sub, role, ok := caller(w, r)
		if !ok {
			return
		}
		var req struct {
			ClassID     string `json:"classId"`
			WorksheetID string `json:"worksheetId"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ClassID == "" || req.WorksheetID == "" {
			http.Error(w, "classId and worksheetId required", http.StatusBadRequest)
			return
		}

		var className, teacherID string
		err := db.QueryRowContext(r.Context(),
			`SELECT name, teacher_id FROM classes WHERE id=$1`, req.ClassID).Scan(&className, &teacherID)
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "class not found", http.StatusNotFound)
			return
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if role != "admin" && teacherID != sub {
			http.Error(w, "not the owning teacher", http.StatusForbidden)
			return
		}

		ws, err := store.GetWorksheet(r.Context(), req.WorksheetID)
		if errors.Is(err, worksheet.ErrNotFound) {
			http.Error(w, "worksheet not found", http.StatusNotFound)
			return
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		a, created, err := store.CreateAssignment(r.Context(), worksheet.Assignment{
			ID:             uuid.NewString(),
			ClassID:        req.ClassID,
			WorksheetID:    req.WorksheetID,
			WorksheetTitle: ws.Title,
			ClassName:      className,
			TeacherID:      teacherID,
		})
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		msg := "Worksheet already assigned to this class."
		if created {
			msg = "Worksheet assigned."
			_ = events.Append(r.Context(), audit.EventWorksheetAssigned, a.ID, map[string]string{
				"classId": a.ClassID, "worksheetId": a.WorksheetID, "by": sub,
			})
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success":      true,
			"message":      msg,
			"assignmentId": a.ID,
		})
	}
}

// ListClassAssignmentsHandler returns a class's assignments to its teacher
// or enrolled students.
func ListClassAssignmentsHandler(db *sql.DB, store worksheet.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sub, role, ok := caller(w, r)
		if !ok {
			return
		}
		classID := chi.URLParam(r, "classID")
		if role != "admin" && !isClassTeacher(db, sub, classID) && !isClassStudent(db, sub, classID) {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		list, err := store.ListAssignmentsByClass(r.Context(), classID)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(list)
	}
}

// ListMyAssignmentsHandler returns the assignments across every class the
// calling student is enrolled in.
func ListMyAssignmentsHandler(store worksheet.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sub, _, ok := caller(w, r)
		if !ok {
			return
		}
		list, err := store.ListAssignmentsForStudent(r.Context(), sub)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(list)
	}
}

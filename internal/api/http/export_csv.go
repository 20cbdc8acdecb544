package http

import (
	"database/sql"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// ExportCredentialsCSVHandler turns freshly provisioned credentials into a
// CSV download. Plaintext passwords are never stored, so the client posts
// back the batch it just received from provisioning.
//
// POST /classes/{classID}/credentials.csv  { "students": [{username, password, email}] }
func ExportCredentialsCSVHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sub, role, ok := caller(w, r)
		if !ok {
			return
		}
		classID := chi.URLParam(r, "classID")
		if role != "admin" && !isClassTeacher(db, sub, classID) {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		var req struct {
			Students []struct {
				Username string `json:"username"`
				Password string `json:"password"`
				Email    string `json:"email"`
			} `json:"students"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Students) == 0 {
			http.Error(w, "students required", http.StatusBadRequest)
			return
		}

		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "student_credentials.csv"))
		cw := csv.NewWriter(w)
		_ = cw.Write([]string{"Username", "Password", "System Email (Optional)"})
		for _, s := range req.Students {
			_ = cw.Write([]string{s.Username, s.Password, s.Email})
		}
		cw.Flush()
	}
}

// ExportRosterCSVHandler downloads the current roster (no passwords).
//
// GET /classes/{classID}/roster.csv
func ExportRosterCSVHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sub, role, ok := caller(w, r)
		if !ok {
			return
		}
		classID := chi.URLParam(r, "classID")
		if role != "admin" && !isClassTeacher(db, sub, classID) {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		rows, err := db.QueryContext(r.Context(),
			`SELECT u.username, u.system_email, cs.added_at
			   FROM class_students cs JOIN users u ON u.id=cs.student_id
			  WHERE cs.class_id=$1 ORDER BY u.username`, classID)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		defer rows.Close()

		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "class_roster.csv"))
		cw := csv.NewWriter(w)
		_ = cw.Write([]string{"Username", "System Email", "Added At"})
		for rows.Next() {
			var username, email string
			var addedAt int64
			if err := rows.Scan(&username, &email, &addedAt); err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
			_ = cw.Write([]string{username, email, fmt.Sprintf("%d", addedAt)})
		}
		cw.Flush()
	}
}

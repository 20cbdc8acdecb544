package http

import (
	"database/sql"
	"net/http"

	"github.com/cs-hub/cshub/internal/rbac"
)

func isClassTeacher(db *sql.DB, userID, classID string) bool {
	var ok bool
	_ = db.QueryRow(`SELECT EXISTS(SELECT 1 FROM classes WHERE id=$1 AND teacher_id=$2)`, classID, userID).Scan(&ok)
	return ok
}

func isClassStudent(db *sql.DB, userID, classID string) bool {
	var ok bool
	_ = db.QueryRow(`SELECT EXISTS(SELECT 1 FROM class_students WHERE class_id=$1 AND student_id=$2)`, classID, userID).Scan(&ok)
	return ok
}

// caller returns the subject and effective role, writing a 401 when the
// request carries no identity.
func caller(w http.ResponseWriter, r *http.Request) (sub, role string, ok bool) {
	sub = rbac.SubjectFromContext(r.Context())
	role = rbac.RoleFromContext(r.Context())
	if sub == "" {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return "", "", false
	}
	return sub, role, true
}

package http

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/cs-hub/cshub/internal/audit"
	"github.com/cs-hub/cshub/internal/credentials"
)

type provisionStudent struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type createdStudent struct {
	UID      string `json:"uid"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"` // plaintext, returned exactly once
}

// ProvisionConfig carries the knobs the bulk endpoint needs.
type ProvisionConfig struct {
	MaxBatchSize  int
	StudentDomain string
	BcryptCost    int
}

// ProvisionStudentsHandler bulk-creates student accounts on a class roster.
// All input checks run before any account is created; after that each
// student is independent and a single failure only shrinks the "N of M"
// count.
//
// POST /classes/{classID}/students:bulk  { "students": [{username, password}, ...] }
func ProvisionStudentsHandler(db *sql.DB, events *audit.EventRepo, log *zap.Logger, cfg ProvisionConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sub, role, ok := caller(w, r)
		if !ok {
			return
		}
		classID := chi.URLParam(r, "classID")

		var req struct {
			Students []provisionStudent `json:"students"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if len(req.Students) == 0 {
			http.Error(w, "students required", http.StatusBadRequest)
			return
		}
		if len(req.Students) > cfg.MaxBatchSize {
			http.Error(w, fmt.Sprintf("at most %d students per call", cfg.MaxBatchSize), http.StatusBadRequest)
			return
		}
		for _, s := range req.Students {
			if strings.TrimSpace(s.Username) == "" || s.Password == "" {
				http.Error(w, "every student needs a username and password", http.StatusBadRequest)
				return
			}
		}

		var className, teacherID string
		err := db.QueryRowContext(r.Context(),
			`SELECT name, teacher_id FROM classes WHERE id=$1`, classID).Scan(&className, &teacherID)
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

		created := make([]createdStudent, 0, len(req.Students))
		for _, s := range req.Students {
			cs, err := createOne(r, db, s, classID, className, cfg)
			if err != nil {
				log.Warn("provision student failed",
					zap.String("class_id", classID),
					zap.String("username", s.Username),
					zap.Error(err))
				continue
			}
			created = append(created, cs)
			_ = events.Append(r.Context(), audit.EventStudentProvisioned, cs.UID, map[string]string{
				"classId": classID, "username": cs.Username, "by": sub,
			})
		}

		if len(created) == 0 {
			http.Error(w, "failed to create any student accounts", http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success":         true,
			"message":         fmt.Sprintf("Successfully created %d of %d student accounts.", len(created), len(req.Students)),
			"createdStudents": created,
		})
	}
}

func createOne(r *http.Request, db *sql.DB, s provisionStudent, classID, className string, cfg ProvisionConfig) (createdStudent, error) {
	ctx := r.Context()
	hash, err := bcrypt.GenerateFromPassword([]byte(s.Password), cfg.BcryptCost)
	if err != nil {
		return createdStudent{}, err
	}
	uid := uuid.NewString()
	email := credentials.SyntheticEmail(s.Username, className, cfg.StudentDomain)
	now := time.Now().Unix()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return createdStudent{}, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO users (id, username, password_hash, role, system_email, password_needs_reset, created_at)
		 VALUES ($1,$2,$3,'student',$4,$5,$6)`,
		uid, s.Username, string(hash), email, true, now); err != nil {
		return createdStudent{}, err
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO class_students (class_id, student_id, added_at) VALUES ($1,$2,$3)`,
		classID, uid, now); err != nil {
		return createdStudent{}, err
	}
	if err := tx.Commit(); err != nil {
		return createdStudent{}, err
	}
	return createdStudent{UID: uid, Username: s.Username, Email: email, Password: s.Password}, nil
}

// ResetStudentPasswordHandler issues a fresh generated password for one
// student and flags the account for a forced reset on next login. The
// plaintext is returned once.
//
// POST /classes/{classID}/students/{studentID}/reset-password
func ResetStudentPasswordHandler(db *sql.DB, events *audit.EventRepo, cfg ProvisionConfig) http.HandlerFunc {
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
		if !isClassStudent(db, studentID, classID) {
			http.Error(w, "student not in class", http.StatusNotFound)
			return
		}

		password := credentials.GeneratePassword(credentials.DefaultPasswordLength)
		hash, err := bcrypt.GenerateFromPassword([]byte(password), cfg.BcryptCost)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if _, err := db.ExecContext(r.Context(),
			`UPDATE users SET password_hash=$1, password_needs_reset=$2 WHERE id=$3`,
			string(hash), true, studentID); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		_ = events.Append(r.Context(), audit.EventPasswordReset, studentID, map[string]string{
			"classId": classID, "by": sub,
		})
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success":     true,
			"message":     "Password reset. Share the new password with the student; it cannot be retrieved again.",
			"newPassword": password,
		})
	}
}

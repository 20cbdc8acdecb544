package http

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/cs-hub/cshub/internal/audit"
	"github.com/cs-hub/cshub/internal/db"
	"github.com/cs-hub/cshub/internal/rbac"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	dsn := "file:" + filepath.Join(t.TempDir(), "test.db")
	d, err := db.Open(context.Background(), db.DriverSQLite, dsn)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = d.Close() })
	return d
}

func seedTeacherAndClass(t *testing.T, d *sql.DB, teacherID, classID string) {
	t.Helper()
	now := time.Now().Unix()
	if _, err := d.Exec(
		`INSERT INTO users (id, username, password_hash, role, created_at) VALUES ($1,$2,'x','teacher',$3)`,
		teacherID, "teacher-"+teacherID, now); err != nil {
		t.Fatal(err)
	}
	if _, err := d.Exec(
		`INSERT INTO classes (id, name, teacher_id, created_at) VALUES ($1,'10X Computing',$2,$3)`,
		classID, teacherID, now); err != nil {
		t.Fatal(err)
	}
}

func provisionRequest(t *testing.T, classID, sub, role string, body any) *http.Request {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest("POST", "/classes/"+classID+"/students:bulk", bytes.NewReader(raw))
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("classID", classID)
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
	ctx = rbac.WithSubject(ctx, sub)
	ctx = rbac.WithRole(ctx, role)
	return req.WithContext(ctx)
}

func testProvisionHandler(d *sql.DB) http.HandlerFunc {
	return ProvisionStudentsHandler(d, audit.NewEventRepo(d, "test"), zap.NewNop(), ProvisionConfig{
		MaxBatchSize:  50,
		StudentDomain: "cshub.student",
		BcryptCost:    4, // keep the test fast
	})
}

func countRows(t *testing.T, d *sql.DB, query string, args ...any) int {
	t.Helper()
	var n int
	if err := d.QueryRow(query, args...).Scan(&n); err != nil {
		t.Fatal(err)
	}
	return n
}

func studentBatch(n int) map[string]any {
	students := make([]map[string]string, n)
	for i := range students {
		students[i] = map[string]string{
			"username": fmt.Sprintf("brave-otter%02d", i+10),
			"password": fmt.Sprintf("Aa1!%06d", i),
		}
	}
	return map[string]any{"students": students}
}

func TestProvisionRejectsOversizeBatchBeforeSideEffects(t *testing.T) {
	d := newTestDB(t)
	seedTeacherAndClass(t, d, "t1", "c1")

	rec := httptest.NewRecorder()
	testProvisionHandler(d)(rec, provisionRequest(t, "c1", "t1", "teacher", studentBatch(51)))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if n := countRows(t, d, `SELECT COUNT(*) FROM users WHERE role='student'`); n != 0 {
		t.Fatalf("students created = %d, want 0", n)
	}
	if n := countRows(t, d, `SELECT COUNT(*) FROM class_students`); n != 0 {
		t.Fatalf("roster rows = %d, want 0", n)
	}
}

func TestProvisionCreatesAllAndGrowsRoster(t *testing.T) {
	d := newTestDB(t)
	seedTeacherAndClass(t, d, "t1", "c1")

	rec := httptest.NewRecorder()
	testProvisionHandler(d)(rec, provisionRequest(t, "c1", "t1", "teacher", studentBatch(3)))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Success         bool             `json:"success"`
		Message         string           `json:"message"`
		CreatedStudents []createdStudent `json:"createdStudents"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if !resp.Success || len(resp.CreatedStudents) != 3 {
		t.Fatalf("resp = %+v, want 3 created", resp)
	}
	if resp.Message != "Successfully created 3 of 3 student accounts." {
		t.Fatalf("message = %q", resp.Message)
	}
	for _, cs := range resp.CreatedStudents {
		if cs.UID == "" || cs.Password == "" || cs.Email == "" {
			t.Fatalf("created student missing fields: %+v", cs)
		}
	}
	if n := countRows(t, d, `SELECT COUNT(*) FROM class_students WHERE class_id='c1'`); n != 3 {
		t.Fatalf("roster rows = %d, want 3", n)
	}
	if n := countRows(t, d, `SELECT COUNT(*) FROM users WHERE role='student' AND password_needs_reset=1`); n != 3 {
		t.Fatalf("students flagged for reset = %d, want 3", n)
	}
	if n := countRows(t, d, `SELECT COUNT(*) FROM event_log WHERE typ=$1`, audit.EventStudentProvisioned); n != 3 {
		t.Fatalf("audit events = %d, want 3", n)
	}
}

func TestProvisionNonOwnerForbidden(t *testing.T) {
	d := newTestDB(t)
	seedTeacherAndClass(t, d, "t1", "c1")
	seedTeacherAndClass(t, d, "t2", "c2")

	rec := httptest.NewRecorder()
	testProvisionHandler(d)(rec, provisionRequest(t, "c1", "t2", "teacher", studentBatch(1)))

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
	if n := countRows(t, d, `SELECT COUNT(*) FROM users WHERE role='student'`); n != 0 {
		t.Fatalf("students created = %d, want 0", n)
	}
}

func TestProvisionUnknownClass(t *testing.T) {
	d := newTestDB(t)
	seedTeacherAndClass(t, d, "t1", "c1")

	rec := httptest.NewRecorder()
	testProvisionHandler(d)(rec, provisionRequest(t, "nope", "t1", "teacher", studentBatch(1)))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestProvisionPartialFailureDegrades(t *testing.T) {
	d := newTestDB(t)
	seedTeacherAndClass(t, d, "t1", "c1")

	// duplicate username inside the batch: the second insert hits the
	// unique constraint, the rest proceed
	body := map[string]any{"students": []map[string]string{
		{"username": "calm-fox42", "password": "Aa1!aaaaaa"},
		{"username": "calm-fox42", "password": "Bb2!bbbbbb"},
		{"username": "agile-wren17", "password": "Cc3!cccccc"},
	}}
	rec := httptest.NewRecorder()
	testProvisionHandler(d)(rec, provisionRequest(t, "c1", "t1", "teacher", body))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Success         bool             `json:"success"`
		Message         string           `json:"message"`
		CreatedStudents []createdStudent `json:"createdStudents"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if !resp.Success || len(resp.CreatedStudents) != 2 {
		t.Fatalf("resp = %+v, want 2 created", resp)
	}
	if resp.Message != "Successfully created 2 of 3 student accounts." {
		t.Fatalf("message = %q", resp.Message)
	}
	if n := countRows(t, d, `SELECT COUNT(*) FROM class_students WHERE class_id='c1'`); n != 2 {
		t.Fatalf("roster rows = %d, want 2", n)
	}
}

func TestProvisionAllFailuresIsError(t *testing.T) {
	d := newTestDB(t)
	seedTeacherAndClass(t, d, "t1", "c1")

	body := map[string]any{"students": []map[string]string{
		{"username": "calm-fox42", "password": "Aa1!aaaaaa"},
	}}
	rec := httptest.NewRecorder()
	testProvisionHandler(d)(rec, provisionRequest(t, "c1", "t1", "teacher", body))
	if rec.Code != http.StatusOK {
		t.Fatalf("first batch: status = %d", rec.Code)
	}

	// same username again: zero succeed -> aggregate error
	rec = httptest.NewRecorder()
	testProvisionHandler(d)(rec, provisionRequest(t, "c1", "t1", "teacher", body))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
}

func removeRequest(t *testing.T, classID, studentID, sub, role string) *http.Request {
	t.Helper()
	req := httptest.NewRequest("DELETE", "/classes/"+classID+"/students/"+studentID, nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("classID", classID)
	rctx.URLParams.Add("studentID", studentID)
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
	ctx = rbac.WithSubject(ctx, sub)
	ctx = rbac.WithRole(ctx, role)
	return req.WithContext(ctx)
}

func TestRemoveStudentDeletesOrphanProfile(t *testing.T) {
	d := newTestDB(t)
	seedTeacherAndClass(t, d, "t1", "c1")

	rec := httptest.NewRecorder()
	testProvisionHandler(d)(rec, provisionRequest(t, "c1", "t1", "teacher", studentBatch(1)))
	if rec.Code != http.StatusOK {
		t.Fatalf("provision: status = %d", rec.Code)
	}
	var created struct {
		CreatedStudents []createdStudent `json:"createdStudents"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatal(err)
	}
	uid := created.CreatedStudents[0].UID

	events := audit.NewEventRepo(d, "test")
	rec = httptest.NewRecorder()
	RemoveStudentHandler(d, events)(rec, removeRequest(t, "c1", uid, "t1", "teacher"))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if !resp.Success || resp.Message == "" {
		t.Fatalf("resp = %+v, want success envelope", resp)
	}
	if n := countRows(t, d, `SELECT COUNT(*) FROM class_students WHERE student_id=$1`, uid); n != 0 {
		t.Fatalf("roster rows = %d, want 0", n)
	}
	// on no other roster, the provisioned profile goes too
	if n := countRows(t, d, `SELECT COUNT(*) FROM users WHERE id=$1`, uid); n != 0 {
		t.Fatalf("user rows = %d, want 0", n)
	}

	rec = httptest.NewRecorder()
	RemoveStudentHandler(d, events)(rec, removeRequest(t, "c1", uid, "t1", "teacher"))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("second removal: status = %d, want 404", rec.Code)
	}
}

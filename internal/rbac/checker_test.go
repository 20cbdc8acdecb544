package rbac

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestDefaultPolicy(t *testing.T) {
	c := NewChecker(nil)
	cases := []struct {
		role string
		perm Permission
		want bool
	}{
		{"student", PermProgressSaveOwn, true},
		{"student", PermStudentsProvision, false},
		{"student", PermProgressViewAll, false},
		{"teacher", PermStudentsProvision, true},
		{"teacher", PermProgressSaveOwn, false},
		{"admin", PermStudentsProvision, true},
		{"admin", PermExportCSV, true},
		{"", PermWorksheetView, false},
		{"ghost", PermWorksheetView, false},
	}
	for _, tc := range cases {
		if got := c.Has(tc.role, tc.perm); got != tc.want {
			t.Errorf("Has(%q, %q) = %v, want %v", tc.role, tc.perm, got, tc.want)
		}
	}
}

func TestPrefixGrant(t *testing.T) {
	c := NewChecker(map[string][]Permission{
		"auditor": {"progress:*"},
	})
	if !c.Has("auditor", PermProgressViewAll) {
		t.Fatalf("progress:* should cover progress:view-all")
	}
	if c.Has("auditor", PermWorksheetView) {
		t.Fatalf("progress:* must not cover worksheet:view")
	}
}

func middlewareStatus(t *testing.T, mw func(http.Handler) http.Handler, role string) int {
	t.Helper()
	h := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	req := httptest.NewRequest("GET", "/", nil)
	if role != "" {
		req = req.WithContext(WithRole(req.Context(), role))
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec.Code
}

func TestRequireGate(t *testing.T) {
	mw := Require(PermStudentsProvision)
	if got := middlewareStatus(t, mw, "teacher"); got != http.StatusOK {
		t.Fatalf("teacher: %d, want 200", got)
	}
	if got := middlewareStatus(t, mw, "student"); got != http.StatusForbidden {
		t.Fatalf("student: %d, want 403", got)
	}
	if got := middlewareStatus(t, mw, ""); got != http.StatusForbidden {
		t.Fatalf("no role in context: %d, want 403", got)
	}
}

func TestRequireAnyGate(t *testing.T) {
	mw := RequireAny(PermClassView, PermAssignmentView)
	for _, role := range []string{"teacher", "student", "admin"} {
		if got := middlewareStatus(t, mw, role); got != http.StatusOK {
			t.Fatalf("%s: %d, want 200", role, got)
		}
	}
	if got := middlewareStatus(t, mw, "ghost"); got != http.StatusForbidden {
		t.Fatalf("unknown role: %d, want 403", got)
	}
}

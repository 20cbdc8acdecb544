package guard

import "testing"

func TestDecisionTable(t *testing.T) {
	anon := Snapshot{State: StateUnauthenticated}
	student := Snapshot{State: StateAuthenticated, Role: "student"}
	freshStudent := Snapshot{State: StateAuthenticated, Role: "student", PasswordNeedsReset: true}
	teacher := Snapshot{State: StateAuthenticated, Role: "teacher"}
	noRole := Snapshot{State: StateAuthenticated} // profile fetch failed

	cases := []struct {
		name string
		snap Snapshot
		path string
		want Decision
	}{
		{"anon on protected page", anon, PathDashboard, Decision{ActionRedirect, PathLogin}},
		{"anon on deep link", anon, "/worksheets/ws-1", Decision{ActionRedirect, PathLogin}},
		{"anon on login", anon, PathLogin, Decision{Action: ActionRender}},
		{"anon on signup", anon, PathSignup, Decision{Action: ActionRender}},
		{"anon on force-reset", anon, PathForceReset, Decision{Action: ActionRender}},

		{"fresh student anywhere", freshStudent, PathDashboard, Decision{ActionRedirect, PathForceReset}},
		{"fresh student on login", freshStudent, PathLogin, Decision{ActionRedirect, PathForceReset}},
		{"fresh student on force-reset", freshStudent, PathForceReset, Decision{Action: ActionRender}},

		{"student on login", student, PathLogin, Decision{ActionRedirect, PathDashboard}},
		{"student on signup", student, PathSignup, Decision{ActionRedirect, PathDashboard}},
		{"student on root", student, PathRoot, Decision{ActionRedirect, PathDashboard}},
		{"student on worksheet", student, "/worksheets/ws-1", Decision{Action: ActionRender}},

		{"teacher on root", teacher, PathRoot, Decision{ActionRedirect, PathDashboard}},
		{"teacher on classes", teacher, "/classes", Decision{Action: ActionRender}},

		{"roleless session on login", noRole, PathLogin, Decision{ActionRedirect, PathDashboard}},
		{"roleless session on dashboard", noRole, PathDashboard, Decision{Action: ActionRender}},

		{"error state on protected page", Snapshot{State: StateError}, PathDashboard, Decision{ActionRedirect, PathLogin}},
		{"initializing waits", Snapshot{State: StateInitializing}, PathDashboard, Decision{Action: ActionWait}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Decide(tc.snap, tc.path); got != tc.want {
				t.Fatalf("Decide(%+v, %q) = %+v, want %+v", tc.snap, tc.path, got, tc.want)
			}
		})
	}
}

// Following a redirect and re-evaluating must always land on render.
func TestDecisionsConverge(t *testing.T) {
	snaps := []Snapshot{
		{State: StateUnauthenticated},
		{State: StateAuthenticated, Role: "student"},
		{State: StateAuthenticated, Role: "student", PasswordNeedsReset: true},
		{State: StateAuthenticated, Role: "teacher"},
		{State: StateError},
	}
	paths := []string{PathRoot, PathLogin, PathSignup, PathForceReset, PathDashboard, "/classes", "/worksheets/ws-1"}
	for _, snap := range snaps {
		for _, path := range paths {
			d := Decide(snap, path)
			for hops := 0; d.Action == ActionRedirect; hops++ {
				if hops > 2 {
					t.Fatalf("redirect loop for %+v starting at %q", snap, path)
				}
				if d.Target == path {
					t.Fatalf("redirect to current path %q for %+v", path, snap)
				}
				path = d.Target
				d = Decide(snap, path)
			}
		}
	}
}

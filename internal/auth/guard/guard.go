// Package guard decides where a client should be routed for a given
// session snapshot and path. The client calls GET /session/route on every
// navigation and follows the decision.
package guard

// SessionState mirrors the client-side auth bridge lifecycle.
type SessionState string

const (
	StateInitializing    SessionState = "initializing"
	StateAuthenticated   SessionState = "authenticated"
	StateUnauthenticated SessionState = "unauthenticated"
	StateError           SessionState = "error"
)

// Snapshot is the session view the guard decides against. Role may be
// empty when the profile fetch failed; such sessions still count as
// authenticated.
type Snapshot struct {
	State              SessionState `json:"state"`
	Role               string       `json:"role,omitempty"`
	PasswordNeedsReset bool         `json:"passwordNeedsReset,omitempty"`
}

type Action string

const (
	ActionWait     Action = "wait" // bridge still resolving
	ActionRender   Action = "render"
	ActionRedirect Action = "redirect"
)

type Decision struct {
	Action Action `json:"action"`
	Target string `json:"target,omitempty"`
}

const (
	PathRoot       = "/"
	PathLogin      = "/login"
	PathSignup     = "/signup"
	PathForceReset = "/force-reset"
	PathDashboard  = "/dashboard"
)

func publicPath(path string) bool {
	return path == PathLogin || path == PathSignup || path == PathForceReset
}

// Decide applies the redirect policy. It never redirects to the current
// path, so re-evaluating a decision always yields render and cannot loop.
func Decide(snap Snapshot, path string) Decision {
	if snap.State == StateInitializing {
		return Decision{Action: ActionWait}
	}

	authed := snap.State == StateAuthenticated

	if !authed && !publicPath(path) {
		return redirect(path, PathLogin)
	}
	if authed && snap.Role == "student" && snap.PasswordNeedsReset && path != PathForceReset {
		return redirect(path, PathForceReset)
	}
	if authed && (path == PathLogin || path == PathSignup || path == PathRoot) {
		return redirect(path, PathDashboard)
	}
	return Decision{Action: ActionRender}
}

func redirect(current, target string) Decision {
	if current == target {
		return Decision{Action: ActionRender}
	}
	return Decision{Action: ActionRedirect, Target: target}
}

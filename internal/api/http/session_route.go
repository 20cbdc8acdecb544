package http

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/cs-hub/cshub/internal/auth/guard"
	authmw "github.com/cs-hub/cshub/internal/auth/middleware"
)

// SessionRouteHandler is the server side of the client's route guard: given
// the current path and an optional bearer token, it returns the session
// snapshot and where to go. Mounted outside JWTMiddleware so anonymous
// clients get a decision too.
//
// GET /session/route?path=/dashboard
func SessionRouteHandler(a *authmw.AuthService, db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Query().Get("path")
		if path == "" {
			path = guard.PathRoot
		}

		snap := guard.Snapshot{State: guard.StateUnauthenticated}
		if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
			claims, err := a.Parse(strings.TrimPrefix(h, "Bearer "))
			switch {
			case err != nil || claims == nil:
				snap.State = guard.StateUnauthenticated
			default:
				// Authenticated even when the profile row is gone; the guard
				// treats a missing role as a degraded session, not a logout.
				snap.State = guard.StateAuthenticated
				var role string
				var needsReset bool
				err := db.QueryRowContext(r.Context(),
					`SELECT role, password_needs_reset FROM users WHERE id=$1 OR username=$1`,
					claims.Sub).Scan(&role, &needsReset)
				switch {
				case err == nil:
					snap.Role = role
					snap.PasswordNeedsReset = needsReset
				case errors.Is(err, sql.ErrNoRows):
					snap.Role = ""
				default:
					snap.State = guard.StateError
				}
			}
		}

		_ = json.NewEncoder(w).Encode(map[string]any{
			"session":  snap,
			"decision": guard.Decide(snap, path),
		})
	}
}

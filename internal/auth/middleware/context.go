package auth

import (
	"context"

	"github.com/cs-hub/cshub/internal/rbac"
)

// Thin aliases kept so handlers importing this package do not also need
// rbac just to read the caller identity.

func WithSubject(ctx context.Context, sub string) context.Context {
	return rbac.WithSubject(ctx, sub)
}

func SubjectFromContext(ctx context.Context) string {
	return rbac.SubjectFromContext(ctx)
}

package auth

import (
	"context"
)

// Principal is the verified caller attached to every authenticated request.
type Principal struct {
	UID   string `json:"uid"`
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// Verifier checks a raw bearer credential with the identity provider.
// Rejected or malformed credentials return an error matching
// apperrors.IsAuthorization.
type Verifier interface {
	Verify(ctx context.Context, rawToken string) (*Principal, error)
}

type principalKey struct{}

// ContextWithPrincipal stores p in ctx
func ContextWithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFromContext returns the principal stored by ContextWithPrincipal
func PrincipalFromContext(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(*Principal)
	return p, ok && p != nil
}

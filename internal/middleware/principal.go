package middleware

import (
	"context"
	"net/http"
	"strings"
)

const (
	headerUserID    = "X-User-ID"
	headerUserEmail = "X-User-Email"
	headerUserRoles = "X-User-Roles"
)

// Principal is the authenticated caller a request is scoped to. It is
// populated from trusted headers set by an upstream authentication proxy;
// this service does not itself verify credentials.
type Principal struct {
	ID       string
	TenantID string
	Email    string
	Roles    []string
}

// HasRole reports whether the principal carries the given role.
func (p Principal) HasRole(role string) bool {
	for _, r := range p.Roles {
		if r == role {
			return true
		}
	}
	return false
}

type principalCtxKey struct{}

// PrincipalFromHeaders is HTTP middleware that builds a Principal from the
// trusted X-User-ID / X-User-Email / X-User-Roles headers alongside the
// tenant already resolved by TenantID, and stores it in the context.
// TenantID must run before this middleware in the chain.
func PrincipalFromHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p := Principal{
			ID:       r.Header.Get(headerUserID),
			TenantID: TenantIDFromContext(r.Context()),
			Email:    r.Header.Get(headerUserEmail),
		}
		if raw := r.Header.Get(headerUserRoles); raw != "" {
			for _, role := range strings.Split(raw, ",") {
				if role = strings.TrimSpace(role); role != "" {
					p.Roles = append(p.Roles, role)
				}
			}
		}
		ctx := context.WithValue(r.Context(), principalCtxKey{}, p)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// PrincipalFromContext returns the Principal stored in ctx, or the zero
// value if none was set.
func PrincipalFromContext(ctx context.Context) Principal {
	if p, ok := ctx.Value(principalCtxKey{}).(Principal); ok {
		return p
	}
	return Principal{}
}

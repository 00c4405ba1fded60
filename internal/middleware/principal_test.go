package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/depgraph-io/engine/internal/middleware"
)

func chain(next http.Handler) http.Handler {
	return middleware.TenantID(middleware.PrincipalFromHeaders(next))
}

func TestPrincipalFromHeaders(t *testing.T) {
	var got middleware.Principal
	handler := chain(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		got = middleware.PrincipalFromContext(r.Context())
	}))

	req := httptest.NewRequest("GET", "/", http.NoBody)
	req.Header.Set("X-Tenant-ID", "tenant-abc")
	req.Header.Set("X-User-ID", "user-1")
	req.Header.Set("X-User-Email", "user@example.com")
	req.Header.Set("X-User-Roles", "admin, editor")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if got.TenantID != "tenant-abc" {
		t.Errorf("expected tenant-abc, got %s", got.TenantID)
	}
	if got.ID != "user-1" {
		t.Errorf("expected user-1, got %s", got.ID)
	}
	if !got.HasRole("admin") || !got.HasRole("editor") {
		t.Errorf("expected admin and editor roles, got %v", got.Roles)
	}
	if got.HasRole("owner") {
		t.Error("did not expect owner role")
	}
}

func TestPrincipalFromContextMissing(t *testing.T) {
	req := httptest.NewRequest("GET", "/", http.NoBody)
	got := middleware.PrincipalFromContext(req.Context())
	if got.ID != "" || got.TenantID != "" {
		t.Fatalf("expected zero-value principal, got %+v", got)
	}
}

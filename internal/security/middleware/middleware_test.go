package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aryan0dhankhar/storefront/internal/domain"
	"github.com/aryan0dhankhar/storefront/internal/security"
	"github.com/aryan0dhankhar/storefront/internal/security/audit"
	"github.com/aryan0dhankhar/storefront/internal/security/auth"
	"github.com/aryan0dhankhar/storefront/internal/security/ratelimit"
	"github.com/aryan0dhankhar/storefront/internal/tenant"
)

const testSecret = "test-secret"

func protected(required ...security.Role) http.Handler {
	tm := auth.NewTokenManager(testSecret, "")
	loader := security.NewRoleLoader(nil, time.Minute, nil)
	authz := security.NewAuthorizationService(nil)

	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return Authenticate(tm, loader, nil)(RequireRole(authz, audit.NewLogger(nil), required...)(ok))
}

func bearer(t *testing.T, appRole string) string {
	t.Helper()
	token, err := auth.NewTokenManager(testSecret, "").GenerateToken("user-1", "user@example.com", appRole, time.Hour)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	return "Bearer " + token
}

func TestRequireRole(t *testing.T) {
	tests := []struct {
		name     string
		header   string
		required []security.Role
		want     int
	}{
		{"anonymous", "", []security.Role{security.RoleUser}, http.StatusUnauthorized},
		{"malformed header", "Token abc", []security.Role{security.RoleUser}, http.StatusUnauthorized},
		{"invalid token", "Bearer not-a-jwt", []security.Role{security.RoleUser}, http.StatusUnauthorized},
		{"user below admin", "user", []security.Role{security.RoleAdmin}, http.StatusForbidden},
		{"admin meets admin", "admin", []security.Role{security.RoleAdmin}, http.StatusOK},
		{"super admin meets admin", "super_admin", []security.Role{security.RoleAdmin}, http.StatusOK},
		{"admin below super admin", "admin", []security.Role{security.RoleSuperAdmin}, http.StatusForbidden},
		{"no role assigned", "none", []security.Role{security.RoleUser}, http.StatusForbidden},
		{"unknown role assigned", "owner", []security.Role{security.RoleUser}, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/admin/tenants", nil)
			switch tt.header {
			case "":
			case "Token abc", "Bearer not-a-jwt":
				req.Header.Set("Authorization", tt.header)
			case "none":
				req.Header.Set("Authorization", bearer(t, ""))
			default:
				req.Header.Set("Authorization", bearer(t, tt.header))
			}
			rec := httptest.NewRecorder()
			protected(tt.required...).ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Fatalf("expected %d, got %d", tt.want, rec.Code)
			}
		})
	}
}

func TestAuthenticateAttachesPrincipal(t *testing.T) {
	tm := auth.NewTokenManager(testSecret, "")
	loader := security.NewRoleLoader(nil, time.Minute, nil)

	var got security.Principal
	h := Authenticate(tm, loader, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = GetPrincipalFromContext(r.Context())
		if GetClaimsFromContext(r.Context()) == nil {
			t.Errorf("expected claims in context")
		}
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/access", nil)
	req.Header.Set("Authorization", bearer(t, "admin"))
	h.ServeHTTP(httptest.NewRecorder(), req)

	if !got.Authenticated || got.UserID != "user-1" || got.Role != security.RoleAdmin || !got.RoleLoaded {
		t.Fatalf("unexpected principal %+v", got)
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	limiter := ratelimit.NewLimiter(1, 1)
	defer limiter.Stop()

	h := RateLimitMiddleware(limiter, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	// Without a session the key is empty and never limited.
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i, rec.Code)
		}
	}
}

func TestRateLimitIsPerClientWithinTenant(t *testing.T) {
	limiter := ratelimit.NewLimiter(0.001, 5)
	defer limiter.Stop()

	h := RateLimitMiddleware(limiter, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	diamond := &domain.Tenant{ID: "diamond", Domain: "diamond-covers.netlify.app"}
	send := func(remoteAddr string) int {
		req := httptest.NewRequest(http.MethodGet, "/api/tenant", nil)
		req.RemoteAddr = remoteAddr
		req = req.WithContext(tenant.WithSession(req.Context(), tenant.RestoreSession("s", diamond)))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	for i := 0; i < 5; i++ {
		if code := send("203.0.113.7:40000"); code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i, code)
		}
	}
	if code := send("203.0.113.7:40001"); code != http.StatusTooManyRequests {
		t.Fatalf("expected the busy client to be limited, got %d", code)
	}
	if code := send("198.51.100.20:50000"); code != http.StatusOK {
		t.Fatalf("another shopper of the same tenant was limited: %d", code)
	}
}

func TestSanitizeInputs(t *testing.T) {
	h := SanitizeInputs(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	tests := map[string]int{
		"/api/tenant?tenant=diamond":          http.StatusOK,
		"/api/tenant?tenant=%3Cscript%3E":     http.StatusBadRequest,
		"/api/access?role=admin%22":           http.StatusBadRequest,
		"/api/admin/roles/..%2Fsecrets/cache": http.StatusBadRequest,
	}
	for target, want := range tests {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
		if rec.Code != want {
			t.Errorf("%s: expected %d, got %d", target, want, rec.Code)
		}
	}
}

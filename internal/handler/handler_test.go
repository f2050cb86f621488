package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aryan0dhankhar/storefront/internal/catalog"
	"github.com/aryan0dhankhar/storefront/internal/security"
	"github.com/aryan0dhankhar/storefront/internal/security/audit"
	"github.com/aryan0dhankhar/storefront/internal/security/middleware"
	"github.com/aryan0dhankhar/storefront/internal/tenant"
)

func testRegistry(t *testing.T) *tenant.Registry {
	t.Helper()
	c, err := catalog.Embedded()
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	reg, err := tenant.RegistryFromCatalog(c)
	if err != nil {
		t.Fatalf("build registry: %v", err)
	}
	return reg
}

// requestFor builds a request bound to tenantID's session and carrying p
func requestFor(t *testing.T, method, target, tenantID string, p security.Principal) *http.Request {
	t.Helper()
	tn, ok := testRegistry(t).ByID(tenantID)
	if !ok {
		t.Fatalf("unknown tenant %s", tenantID)
	}
	req := httptest.NewRequest(method, target, nil)
	ctx := tenant.WithSession(req.Context(), tenant.RestoreSession("test-session", tn))
	ctx = context.WithValue(ctx, middleware.PrincipalContextKey{}, p)
	return req.WithContext(ctx)
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return body
}

func TestCurrentTenant(t *testing.T) {
	h := NewTenantHandler(nil)
	rec := httptest.NewRecorder()
	h.Current(rec, requestFor(t, http.MethodGet, "/api/tenant", "diamond", security.Principal{}))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := decode(t, rec)
	tn := body["tenant"].(map[string]any)
	if tn["id"] != "diamond" || tn["tagline"] != "Streetwear for Urban Culture" {
		t.Fatalf("unexpected tenant %v", tn)
	}
}

func TestCurrentTenantWithoutSession(t *testing.T) {
	rec := httptest.NewRecorder()
	NewTenantHandler(nil).Current(rec, httptest.NewRequest(http.MethodGet, "/api/tenant", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}

func TestFeatures(t *testing.T) {
	t.Setenv("FLAG_DIAMOND_LIVE_CHAT", "true")

	rec := httptest.NewRecorder()
	NewTenantHandler(nil).Features(rec, requestFor(t, http.MethodGet, "/api/tenant/features", "diamond", security.Principal{}))

	features := decode(t, rec)["features"].(map[string]any)
	if features["live_chat"] != true || features["loyalty"] != false || features["wishlist"] != true {
		t.Fatalf("unexpected features %v", features)
	}
}

func TestShippingQuote(t *testing.T) {
	tests := []struct {
		name   string
		target string
		tenant string
		status int
		fee    float64
	}{
		{"below threshold", "/api/shipping/quote?subtotal=100", "hoodti", http.StatusOK, 30},
		{"at threshold", "/api/shipping/quote?subtotal=500", "hoodti", http.StatusOK, 0},
		{"express always charged", "/api/shipping/quote?subtotal=900&express=true", "hoodti", http.StatusOK, 60},
		{"zero threshold never free", "/api/shipping/quote?subtotal=10000", "collab", http.StatusOK, 9},
		{"missing subtotal", "/api/shipping/quote", "hoodti", http.StatusBadRequest, 0},
		{"negative subtotal", "/api/shipping/quote?subtotal=-1", "hoodti", http.StatusBadRequest, 0},
		{"bad express", "/api/shipping/quote?subtotal=1&express=soon", "hoodti", http.StatusBadRequest, 0},
	}
	h := NewTenantHandler(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ShippingQuote(rec, requestFor(t, http.MethodGet, tt.target, tt.tenant, security.Principal{}))
			if rec.Code != tt.status {
				t.Fatalf("expected %d, got %d: %s", tt.status, rec.Code, rec.Body.String())
			}
			if tt.status != http.StatusOK {
				return
			}
			if fee := decode(t, rec)["fee"].(float64); fee != tt.fee {
				t.Fatalf("expected fee %v, got %v", tt.fee, fee)
			}
		})
	}
}

func TestPaymentMethods(t *testing.T) {
	rec := httptest.NewRecorder()
	NewTenantHandler(nil).PaymentMethods(rec, requestFor(t, http.MethodGet, "/api/payment-methods", "hoodti", security.Principal{}))

	methods := decode(t, rec)["methods"].([]any)
	if len(methods) != 2 || methods[0] != "cash_on_delivery" || methods[1] != "bank_transfer" {
		t.Fatalf("unexpected methods %v", methods)
	}
}

func TestAccess(t *testing.T) {
	admin := security.Principal{UserID: "u1", Authenticated: true, Role: security.RoleAdmin, RoleLoaded: true}
	h := NewAccessHandler(security.NewAuthorizationService(nil))

	tests := []struct {
		name    string
		target  string
		p       security.Principal
		allowed bool
	}{
		{"admin satisfies user", "/api/access?role=user", admin, true},
		{"admin satisfies admin", "/api/access?role=admin", admin, true},
		{"admin lacks super_admin", "/api/access?role=super_admin", admin, false},
		{"any of", "/api/access?role=super_admin&role=admin", admin, true},
		{"unknown role", "/api/access?role=owner", admin, false},
		{"no roles", "/api/access", admin, false},
		{"anonymous", "/api/access?role=user", security.Principal{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, requestFor(t, http.MethodGet, tt.target, "hoodti", tt.p))
			if got := decode(t, rec)["allowed"]; got != tt.allowed {
				t.Fatalf("expected allowed=%v, got %v", tt.allowed, got)
			}
		})
	}
}

type fakeLister struct {
	users map[string][]string
	err   error
}

func (f fakeLister) ListByRole(_ context.Context, role string) ([]string, error) {
	return f.users[role], f.err
}

func newAdminHandler(t *testing.T, roles RoleLister) *AdminHandler {
	t.Helper()
	return NewAdminHandler(testRegistry(t), roles, security.NewRoleLoader(nil, time.Minute, nil), audit.NewLogger(nil), nil)
}

func TestAdminTenants(t *testing.T) {
	rec := httptest.NewRecorder()
	newAdminHandler(t, nil).Tenants(rec, requestFor(t, http.MethodGet, "/api/admin/tenants", "hoodti", security.Principal{}))

	body := decode(t, rec)
	if body["default"] != "hoodti" || len(body["tenants"].([]any)) != 4 {
		t.Fatalf("unexpected body %v", body)
	}
}

func TestAdminUsersByRole(t *testing.T) {
	lister := fakeLister{users: map[string][]string{"admin": {"u1", "u2"}}}

	t.Run("known role", func(t *testing.T) {
		rec := httptest.NewRecorder()
		newAdminHandler(t, lister).UsersByRole(rec, requestFor(t, http.MethodGet, "/api/admin/users?role=admin", "hoodti", security.Principal{}))
		if users := decode(t, rec)["users"].([]any); len(users) != 2 {
			t.Fatalf("unexpected users %v", users)
		}
	})
	t.Run("empty result", func(t *testing.T) {
		rec := httptest.NewRecorder()
		newAdminHandler(t, lister).UsersByRole(rec, requestFor(t, http.MethodGet, "/api/admin/users?role=super_admin", "hoodti", security.Principal{}))
		if users := decode(t, rec)["users"].([]any); len(users) != 0 {
			t.Fatalf("unexpected users %v", users)
		}
	})
	t.Run("unknown role", func(t *testing.T) {
		rec := httptest.NewRecorder()
		newAdminHandler(t, lister).UsersByRole(rec, requestFor(t, http.MethodGet, "/api/admin/users?role=Admin", "hoodti", security.Principal{}))
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
	t.Run("repository error", func(t *testing.T) {
		rec := httptest.NewRecorder()
		newAdminHandler(t, fakeLister{err: errors.New("down")}).UsersByRole(rec, requestFor(t, http.MethodGet, "/api/admin/users?role=admin", "hoodti", security.Principal{}))
		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("expected 500, got %d", rec.Code)
		}
	})
	t.Run("no database", func(t *testing.T) {
		rec := httptest.NewRecorder()
		newAdminHandler(t, nil).UsersByRole(rec, requestFor(t, http.MethodGet, "/api/admin/users?role=admin", "hoodti", security.Principal{}))
		if rec.Code != http.StatusServiceUnavailable {
			t.Fatalf("expected 503, got %d", rec.Code)
		}
	})
}

func TestAdminForgetRole(t *testing.T) {
	h := newAdminHandler(t, nil)
	mux := http.NewServeMux()
	mux.HandleFunc("DELETE /api/admin/roles/{userID}/cache", h.ForgetRole)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, requestFor(t, http.MethodDelete, "/api/admin/roles/u1/cache", "hoodti", security.Principal{}))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
}

func TestReadiness(t *testing.T) {
	ok := PingFunc(func(context.Context) error { return nil })
	down := PingFunc(func(context.Context) error { return errors.New("connection refused") })

	rec := httptest.NewRecorder()
	NewHealthHandler(map[string]Pinger{"redis": ok}, nil).Ready(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	NewHealthHandler(map[string]Pinger{"redis": ok, "postgres": down}, nil).Ready(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
	checks := decode(t, rec)["checks"].(map[string]any)
	if checks["redis"] != "ok" || checks["postgres"] != "error: connection refused" {
		t.Fatalf("unexpected checks %v", checks)
	}

	rec = httptest.NewRecorder()
	NewHealthHandler(nil, nil).Health(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

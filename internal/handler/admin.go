package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/aryan0dhankhar/storefront/internal/security"
	"github.com/aryan0dhankhar/storefront/internal/security/audit"
	"github.com/aryan0dhankhar/storefront/internal/security/middleware"
	"github.com/aryan0dhankhar/storefront/internal/tenant"
)

// RoleLister lists the users holding a role
type RoleLister interface {
	ListByRole(ctx context.Context, role string) ([]string, error)
}

// AdminHandler serves the back-office endpoints. Role checks happen in
// middleware.RequireRole before these handlers run.
type AdminHandler struct {
	registry *tenant.Registry
	roles    RoleLister
	loader   *security.RoleLoader
	audit    *audit.Logger
	logger   *slog.Logger
}

// NewAdminHandler creates a new admin handler. roles may be nil when no
// database is configured.
func NewAdminHandler(registry *tenant.Registry, roles RoleLister, loader *security.RoleLoader, auditLog *audit.Logger, logger *slog.Logger) *AdminHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AdminHandler{
		registry: registry,
		roles:    roles,
		loader:   loader,
		audit:    auditLog,
		logger:   logger,
	}
}

// Tenants handles GET /api/admin/tenants
func (h *AdminHandler) Tenants(w http.ResponseWriter, r *http.Request) {
	list := h.registry.List()
	writeJSON(w, http.StatusOK, map[string]any{
		"default": h.registry.Default().ID,
		"tenants": list,
	})
}

// UsersByRole handles GET /api/admin/users?role=admin
func (h *AdminHandler) UsersByRole(w http.ResponseWriter, r *http.Request) {
	if h.roles == nil {
		writeError(w, http.StatusServiceUnavailable, "role directory not configured")
		return
	}
	role, ok := security.ParseRole(r.URL.Query().Get("role"))
	if !ok {
		writeError(w, http.StatusBadRequest, "unknown role")
		return
	}

	users, err := h.roles.ListByRole(r.Context(), string(role))
	if err != nil {
		h.logger.Error("failed to list users by role",
			slog.String("role", string(role)),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to list users")
		return
	}
	if users == nil {
		users = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"role":  role,
		"users": users,
	})
}

// ForgetRole handles DELETE /api/admin/roles/{userID}/cache so a role change
// made in the database takes effect before the cache entry expires
func (h *AdminHandler) ForgetRole(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userID")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "missing user id")
		return
	}
	h.loader.Forget(userID)

	p := middleware.GetPrincipalFromContext(r.Context())
	tenantID := ""
	if t, ok := sessionTenant(r); ok {
		tenantID = t.ID
	}
	h.audit.LogAction(r.Context(), tenantID, p.UserID, "forget_role", userID, "ok", "")
	w.WriteHeader(http.StatusNoContent)
}

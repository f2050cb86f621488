package handler

import (
	"net/http"

	"github.com/aryan0dhankhar/storefront/internal/security"
	"github.com/aryan0dhankhar/storefront/internal/security/middleware"
)

// AccessHandler answers role checks for client-side route guards
type AccessHandler struct {
	authz *security.AuthorizationService
}

// NewAccessHandler creates a new access handler
func NewAccessHandler(authz *security.AuthorizationService) *AccessHandler {
	return &AccessHandler{authz: authz}
}

// ServeHTTP handles GET /api/access?role=admin&role=super_admin.
// Role names are passed through untouched so unknown names fail closed.
func (h *AccessHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	p := middleware.GetPrincipalFromContext(r.Context())

	names := r.URL.Query()["role"]
	required := make([]security.Role, 0, len(names))
	for _, n := range names {
		required = append(required, security.Role(n))
	}

	role := ""
	if p.RoleLoaded {
		role = string(p.Role)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"authenticated": p.Authenticated,
		"role":          role,
		"required":      names,
		"allowed":       h.authz.HasAccess(p, required...),
	})
}

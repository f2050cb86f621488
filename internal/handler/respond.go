package handler

import (
	"encoding/json"
	"net/http"

	"github.com/aryan0dhankhar/storefront/internal/domain"
	"github.com/aryan0dhankhar/storefront/internal/tenant"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// sessionTenant returns the tenant bound to the request session. The
// session middleware resolves before any handler runs, so a missing tenant
// means the route was mounted without it.
func sessionTenant(r *http.Request) (*domain.Tenant, bool) {
	s := tenant.FromContext(r.Context())
	if s == nil {
		return nil, false
	}
	return s.Current()
}

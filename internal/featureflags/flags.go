// Package featureflags resolves storefront feature toggles for a tenant.
package featureflags

import (
	"os"
	"strings"

	"github.com/aryan0dhankhar/storefront/internal/domain"
)

// Feature names as exposed by the API
const (
	Wishlist = "wishlist"
	Reviews  = "reviews"
	Loyalty  = "loyalty"
	LiveChat = "live_chat"
)

// Names lists every known feature in display order
func Names() []string {
	return []string{Wishlist, Reviews, Loyalty, LiveChat}
}

// Enabled reports whether feature is on for t. The catalog value can be
// overridden per tenant with FLAG_<TENANT>_<FEATURE>=true/false (case-insensitive).
// Unknown features are always off.
func Enabled(t *domain.Tenant, feature string) bool {
	if t == nil {
		return false
	}
	base, known := catalogValue(t.Features, feature)
	if !known {
		return false
	}
	if v, ok := override(t.ID, feature); ok {
		return v
	}
	return base
}

// Resolve returns the state of every known feature for t
func Resolve(t *domain.Tenant) map[string]bool {
	out := make(map[string]bool, len(Names()))
	for _, name := range Names() {
		out[name] = Enabled(t, name)
	}
	return out
}

func catalogValue(f domain.Features, feature string) (bool, bool) {
	switch feature {
	case Wishlist:
		return f.Wishlist, true
	case Reviews:
		return f.Reviews, true
	case Loyalty:
		return f.Loyalty, true
	case LiveChat:
		return f.LiveChat, true
	default:
		return false, false
	}
}

func override(tenantID, feature string) (bool, bool) {
	key := "FLAG_" + envName(tenantID) + "_" + envName(feature)
	v, ok := os.LookupEnv(key)
	if !ok {
		return false, false
	}
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true, true
	case "0", "false", "no", "off":
		return false, true
	default:
		return false, false
	}
}

func envName(s string) string {
	return strings.ToUpper(strings.NewReplacer("-", "_", ".", "_").Replace(s))
}

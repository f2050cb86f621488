package security

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aryan0dhankhar/storefront/internal/observability/metrics"
)

// ErrAccessDenied is returned by ValidateAccess when a principal lacks the required role
var ErrAccessDenied = errors.New("access denied")

// Role is a permission level assigned by the auth backend
type Role string

const (
	RoleUser       Role = "user"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "super_admin"
)

// roleOrder lists roles from least to most privileged. Adding a role is a
// single entry here; its rank follows from its position.
var roleOrder = []Role{RoleUser, RoleAdmin, RoleSuperAdmin}

// Rank returns the privilege weight of a role, 1 for the lowest.
// Unknown roles rank 0 and never satisfy a requirement.
func Rank(r Role) int {
	for i, known := range roleOrder {
		if known == r {
			return i + 1
		}
	}
	return 0
}

// ParseRole converts a raw backend role string. Matching is case-sensitive.
func ParseRole(s string) (Role, bool) {
	r := Role(s)
	return r, Rank(r) > 0
}

// Roles returns all known roles in ascending privilege order
func Roles() []Role {
	out := make([]Role, len(roleOrder))
	copy(out, roleOrder)
	return out
}

// Principal is what the service knows about the caller of a request
type Principal struct {
	UserID        string
	Email         string
	Authenticated bool
	Role          Role
	RoleLoaded    bool
}

// HasAccess reports whether p satisfies at least one of the required roles.
// Unauthenticated principals, principals without a loaded role and an empty
// requirement list are all denied.
func HasAccess(p Principal, required ...Role) bool {
	if !p.Authenticated || !p.RoleLoaded {
		return false
	}
	held := Rank(p.Role)
	if held == 0 {
		return false
	}
	for _, r := range required {
		need := Rank(r)
		if need > 0 && held >= need {
			return true
		}
	}
	return false
}

// AuthorizationService handles authorization checks
type AuthorizationService struct {
	logger *slog.Logger
}

// NewAuthorizationService creates a new authorization service
func NewAuthorizationService(logger *slog.Logger) *AuthorizationService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthorizationService{
		logger: logger,
	}
}

// HasAccess checks access and records the decision
func (as *AuthorizationService) HasAccess(p Principal, required ...Role) bool {
	ok := HasAccess(p, required...)
	metrics.ObserveAccessDecision(joinRoles(required), ok)
	return ok
}

// ValidateAccess returns ErrAccessDenied when p lacks every required role
func (as *AuthorizationService) ValidateAccess(p Principal, required ...Role) error {
	if !as.HasAccess(p, required...) {
		as.logger.Warn("access denied",
			slog.String("user_id", p.UserID),
			slog.Bool("authenticated", p.Authenticated),
			slog.String("role", string(p.Role)),
			slog.String("required", joinRoles(required)),
		)
		return fmt.Errorf("%w: requires %s", ErrAccessDenied, joinRoles(required))
	}
	return nil
}

func joinRoles(roles []Role) string {
	parts := make([]string, len(roles))
	for i, r := range roles {
		parts[i] = string(r)
	}
	return strings.Join(parts, "|")
}

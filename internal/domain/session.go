package domain

import (
	"context"
	"time"
)

// SessionStore persists which tenant a storefront session resolved to
type SessionStore interface {
	// Get returns the tenant id bound to a session. found is false when the
	// session is unknown or expired.
	Get(ctx context.Context, sessionID string) (tenantID string, found bool, err error)
	Put(ctx context.Context, sessionID, tenantID string, ttl time.Duration) error
}

// RoleRepository reads the role the backend assigned to a user
type RoleRepository interface {
	// GetRole returns the raw role string for a user, or found=false when the
	// user has no role row yet.
	GetRole(ctx context.Context, userID string) (role string, found bool, err error)
}

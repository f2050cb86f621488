package security

import (
	"context"
	"log/slog"
	"time"

	"github.com/aryan0dhankhar/storefront/internal/domain"
	"github.com/aryan0dhankhar/storefront/internal/reliability/circuitbreaker"
	"github.com/aryan0dhankhar/storefront/internal/security/auth"
	"github.com/aryan0dhankhar/storefront/pkg/cache"
)

// RoleLoader turns validated token claims into a Principal. Roles come from
// the role repository when one is configured and from the token's app
// metadata otherwise. Any failure leaves the role unloaded, which denies access.
type RoleLoader struct {
	repo    domain.RoleRepository
	breaker *circuitbreaker.CircuitBreaker
	cache   *cache.Cache[Role]
	ttl     time.Duration
	logger  *slog.Logger
}

// NewRoleLoader creates a loader. repo may be nil.
func NewRoleLoader(repo domain.RoleRepository, ttl time.Duration, logger *slog.Logger) *RoleLoader {
	if logger == nil {
		logger = slog.Default()
	}
	breaker := circuitbreaker.NewCircuitBreaker(5, 2, 30*time.Second)
	breaker.SetStateChangeCallback(func(from, to circuitbreaker.State) {
		logger.Warn("role repository circuit changed",
			slog.String("from", from.String()),
			slog.String("to", to.String()),
		)
	})
	return &RoleLoader{
		repo:    repo,
		breaker: breaker,
		cache:   cache.New[Role](),
		ttl:     ttl,
		logger:  logger,
	}
}

// Principal builds the caller identity. A nil claims value is an anonymous caller.
func (l *RoleLoader) Principal(ctx context.Context, claims *auth.Claims) Principal {
	if claims == nil || !claims.Authenticated() {
		return Principal{}
	}
	p := Principal{
		UserID:        claims.UserID(),
		Email:         claims.Email,
		Authenticated: true,
	}
	if role, ok := l.load(ctx, claims); ok {
		p.Role = role
		p.RoleLoaded = true
	}
	return p
}

func (l *RoleLoader) load(ctx context.Context, claims *auth.Claims) (Role, bool) {
	if l.repo == nil {
		return ParseRole(claims.AppMetadata.Role)
	}

	userID := claims.UserID()
	if role, ok := l.cache.Get(userID); ok {
		return role, true
	}

	var raw string
	var found bool
	err := l.breaker.Execute(func() error {
		var err error
		raw, found, err = l.repo.GetRole(ctx, userID)
		return err
	})
	if err != nil {
		l.logger.Warn("role lookup failed",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
		return "", false
	}
	if !found {
		return "", false
	}

	role, ok := ParseRole(raw)
	if !ok {
		l.logger.Warn("unknown role from backend",
			slog.String("user_id", userID),
			slog.String("role", raw),
		)
		return "", false
	}
	l.cache.Set(userID, role, l.ttl)
	return role, true
}

// Forget drops a cached role, e.g. after an admin changed it
func (l *RoleLoader) Forget(userID string) {
	l.cache.Delete(userID)
}

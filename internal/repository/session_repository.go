package repository

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aryan0dhankhar/storefront/internal/infrastructure/redis"
	"github.com/aryan0dhankhar/storefront/pkg/cache"
)

const sessionKeyPrefix = "tenant_session:"

// SessionRepository implements domain.SessionStore using Redis
type SessionRepository struct {
	redis  *redis.Client
	logger *slog.Logger
}

// NewSessionRepository creates a Redis-backed session repository
func NewSessionRepository(redisClient *redis.Client, logger *slog.Logger) *SessionRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionRepository{redis: redisClient, logger: logger}
}

// Get returns the tenant id bound to a session
func (r *SessionRepository) Get(ctx context.Context, sessionID string) (string, bool, error) {
	tenantID, found, err := r.redis.Get(ctx, sessionKeyPrefix+sessionID)
	if err != nil {
		return "", false, fmt.Errorf("failed to get session: %w", err)
	}
	return tenantID, found, nil
}

// Put binds a session to a tenant until ttl elapses
func (r *SessionRepository) Put(ctx context.Context, sessionID, tenantID string, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = time.Second
	}
	if err := r.redis.Set(ctx, sessionKeyPrefix+sessionID, tenantID, ttl); err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}
	r.logger.Debug("session stored",
		slog.String("session_id", sessionID),
		slog.String("tenant_id", tenantID),
	)
	return nil
}

// MemorySessionRepository implements domain.SessionStore in process memory.
// It is used when no Redis URL is configured.
type MemorySessionRepository struct {
	cache *cache.Cache[string]
}

// NewMemorySessionRepository creates an in-memory session repository
func NewMemorySessionRepository() *MemorySessionRepository {
	return &MemorySessionRepository{cache: cache.New[string]()}
}

// Get returns the tenant id bound to a session
func (r *MemorySessionRepository) Get(_ context.Context, sessionID string) (string, bool, error) {
	tenantID, ok := r.cache.Get(sessionKeyPrefix + sessionID)
	return tenantID, ok, nil
}

// Put binds a session to a tenant until ttl elapses
func (r *MemorySessionRepository) Put(_ context.Context, sessionID, tenantID string, ttl time.Duration) error {
	r.cache.Set(sessionKeyPrefix+sessionID, tenantID, ttl)
	return nil
}

// Purge drops expired sessions
func (r *MemorySessionRepository) Purge() int {
	return r.cache.Purge()
}

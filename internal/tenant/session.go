package tenant

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/aryan0dhankhar/storefront/internal/domain"
)

// Session holds the tenant resolved for one storefront session.
// Resolution runs at most once and there is no way to change the
// tenant afterwards, a different tenant needs a new session.
type Session struct {
	id       string
	resolver *Resolver
	rc       ResolutionContext

	once    sync.Once
	done    chan struct{}
	loading atomic.Bool
	tenant  *domain.Tenant
	source  Source
}

// NewSession prepares a session that resolves rc on Start
func NewSession(id string, resolver *Resolver, rc ResolutionContext) *Session {
	s := &Session{
		id:       id,
		resolver: resolver,
		rc:       rc,
		done:     make(chan struct{}),
	}
	s.loading.Store(true)
	return s
}

// RestoreSession rebuilds an already-resolved session, e.g. from a session store
func RestoreSession(id string, t *domain.Tenant) *Session {
	s := &Session{id: id, done: make(chan struct{}), tenant: t, source: Source("restored")}
	s.once.Do(func() { close(s.done) })
	return s
}

// ID returns the session identifier
func (s *Session) ID() string {
	return s.id
}

// Start runs the resolver. Calling it again is a no-op.
func (s *Session) Start() {
	s.once.Do(func() {
		s.tenant, s.source = s.resolver.Resolve(s.rc)
		s.loading.Store(false)
		close(s.done)
	})
}

// Loading reports whether resolution has not finished yet
func (s *Session) Loading() bool {
	return s.loading.Load()
}

// Tenant waits for resolution and returns the session tenant
func (s *Session) Tenant(ctx context.Context) (*domain.Tenant, error) {
	select {
	case <-s.done:
		return s.tenant, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Current returns the tenant without blocking; ok is false while loading
func (s *Session) Current() (*domain.Tenant, bool) {
	select {
	case <-s.done:
		return s.tenant, true
	default:
		return nil, false
	}
}

// Source returns how the session tenant was decided
func (s *Session) Source() Source {
	<-s.done
	return s.source
}

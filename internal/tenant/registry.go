// Package tenant resolves which storefront a request belongs to and keeps
// that decision stable for the lifetime of a session.
package tenant

import (
	"fmt"

	"github.com/aryan0dhankhar/storefront/internal/catalog"
	"github.com/aryan0dhankhar/storefront/internal/domain"
)

// Registry is the read-only set of tenants known to the process.
// It is safe for concurrent use because nothing mutates it after construction.
type Registry struct {
	tenants  []domain.Tenant
	byID     map[string]*domain.Tenant
	byDomain map[string]*domain.Tenant
	fallback *domain.Tenant
}

// NewRegistry indexes tenants by id and domain. defaultID may be empty, in
// which case the first tenant in registration order is the default.
func NewRegistry(tenants []domain.Tenant, defaultID string) (*Registry, error) {
	if len(tenants) == 0 {
		return nil, fmt.Errorf("%w: registry needs at least one tenant", domain.ErrInvalidTenant)
	}

	r := &Registry{
		tenants:  make([]domain.Tenant, len(tenants)),
		byID:     make(map[string]*domain.Tenant, len(tenants)),
		byDomain: make(map[string]*domain.Tenant, len(tenants)),
	}
	for i := range tenants {
		r.tenants[i] = tenants[i].Clone()
		t := &r.tenants[i]
		if err := t.Validate(); err != nil {
			return nil, err
		}
		if _, dup := r.byID[t.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate id %q", domain.ErrInvalidTenant, t.ID)
		}
		if _, dup := r.byDomain[t.Domain]; dup {
			return nil, fmt.Errorf("%w: duplicate domain %q", domain.ErrInvalidTenant, t.Domain)
		}
		r.byID[t.ID] = t
		r.byDomain[t.Domain] = t
	}

	if defaultID == "" {
		r.fallback = &r.tenants[0]
	} else {
		t, ok := r.byID[defaultID]
		if !ok {
			return nil, fmt.Errorf("%w: default tenant %q not registered", domain.ErrInvalidTenant, defaultID)
		}
		r.fallback = t
	}
	return r, nil
}

// RegistryFromCatalog builds the registry from the shared tenant catalog
func RegistryFromCatalog(c *catalog.Catalog) (*Registry, error) {
	return NewRegistry(c.Tenants, c.DefaultID)
}

// ByID returns a copy of the tenant with exactly this identifier
func (r *Registry) ByID(id string) (*domain.Tenant, bool) {
	return cloned(r.byID[id])
}

// ByDomain returns a copy of the tenant registered for exactly this hostname
func (r *Registry) ByDomain(host string) (*domain.Tenant, bool) {
	return cloned(r.byDomain[host])
}

// Default returns a copy of the fallback tenant used whenever resolution finds nothing
func (r *Registry) Default() *domain.Tenant {
	t, _ := cloned(r.fallback)
	return t
}

func cloned(t *domain.Tenant) (*domain.Tenant, bool) {
	if t == nil {
		return nil, false
	}
	c := t.Clone()
	return &c, true
}

// List returns copies of all tenants in registration order
func (r *Registry) List() []domain.Tenant {
	out := make([]domain.Tenant, len(r.tenants))
	for i := range r.tenants {
		out[i] = r.tenants[i].Clone()
	}
	return out
}

package tenant

import (
	"log/slog"
	"net"
	"net/http"
	"strings"

	"github.com/aryan0dhankhar/storefront/internal/domain"
	"github.com/aryan0dhankhar/storefront/internal/observability/metrics"
)

// OverrideParam is the query parameter that explicitly selects a tenant
const OverrideParam = "tenant"

var devMarkers = []string{"localhost", "127.0.0.1"}

// Source records which signal a resolution was decided by
type Source string

const (
	SourceSubdomain Source = "subdomain"
	SourceDomain    Source = "domain"
	SourceOverride  Source = "override"
	SourceDefault   Source = "default"
)

// ResolutionContext carries the request signals used to pick a tenant
type ResolutionContext struct {
	Hostname string
	Override string
}

// ContextFromRequest reads the hostname and the tenant override parameter
func ContextFromRequest(r *http.Request) ResolutionContext {
	return ResolutionContext{
		Hostname: stripPort(r.Host),
		Override: r.URL.Query().Get(OverrideParam),
	}
}

// Development reports whether the hostname is a local development host
func (rc ResolutionContext) Development() bool {
	for _, marker := range devMarkers {
		if strings.Contains(rc.Hostname, marker) {
			return true
		}
	}
	return false
}

// Subdomain returns the first dot-delimited label of the hostname
func (rc ResolutionContext) Subdomain() string {
	host := stripPort(rc.Hostname)
	if i := strings.IndexByte(host, '.'); i >= 0 {
		return host[:i]
	}
	return host
}

// Resolver maps a ResolutionContext to exactly one tenant
type Resolver struct {
	registry *Registry
	logger   *slog.Logger
}

// NewResolver creates a resolver over a registry
func NewResolver(registry *Registry, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{registry: registry, logger: logger}
}

// Registry exposes the registry the resolver reads from
func (res *Resolver) Registry() *Registry {
	return res.registry
}

// Resolve never fails: a miss at every stage degrades to the default tenant.
// Development hosts prefer the subdomain label, production hosts prefer the
// exact domain; both then honour the explicit override.
func (res *Resolver) Resolve(rc ResolutionContext) (*domain.Tenant, Source) {
	t, source := res.resolve(rc)
	metrics.ObserveTenantResolution(t.ID, string(source))
	res.logger.Debug("tenant resolved",
		slog.String("hostname", rc.Hostname),
		slog.String("override", rc.Override),
		slog.String("tenant_id", t.ID),
		slog.String("source", string(source)),
	)
	return t, source
}

func (res *Resolver) resolve(rc ResolutionContext) (*domain.Tenant, Source) {
	host := stripPort(rc.Hostname)
	if rc.Development() {
		if sub := rc.Subdomain(); sub != "" && !isDevLabel(sub) {
			if t, ok := res.registry.ByID(sub); ok {
				return t, SourceSubdomain
			}
		}
	} else if t, ok := res.registry.ByDomain(host); ok {
		return t, SourceDomain
	}

	if rc.Override != "" {
		if t, ok := res.registry.ByID(rc.Override); ok {
			return t, SourceOverride
		}
	}
	return res.registry.Default(), SourceDefault
}

// isDevLabel excludes the loopback markers themselves as tenant candidates;
// "127" is the first label of 127.0.0.1.
func isDevLabel(label string) bool {
	return label == "localhost" || label == "127"
}

func stripPort(host string) string {
	if h, _, err := net.SplitHostPort(host); err == nil {
		return h
	}
	return host
}

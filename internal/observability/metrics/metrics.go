package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "storefront_http_request_duration_seconds",
		Help:    "Duration of HTTP requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	tenantResolutions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_tenant_resolutions_total",
		Help: "Tenant resolutions by resulting tenant and deciding signal",
	}, []string{"tenant", "source"})

	accessDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_access_decisions_total",
		Help: "Role access checks by required roles and outcome",
	}, []string{"required", "allowed"})

	edgeRewrites = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_edge_responses_total",
		Help: "Edge responses by tenant and outcome (rewritten, passthrough, error)",
	}, []string{"tenant", "outcome"})

	originDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "storefront_edge_origin_duration_seconds",
		Help:    "Duration of origin fetches made by the edge rewriter",
		Buckets: prometheus.DefBuckets,
	})

	sessionsPurged = promauto.NewCounter(prometheus.CounterOpts{
		Name: "storefront_sessions_purged_total",
		Help: "Expired in-memory tenant sessions removed by the sweeper",
	})
)

// ObserveHTTPRequest records an HTTP request metric
func ObserveHTTPRequest(method, path, status string, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	httpRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// ObserveTenantResolution counts which tenant a resolution chose and why
func ObserveTenantResolution(tenantID, source string) {
	tenantResolutions.WithLabelValues(tenantID, source).Inc()
}

// ObserveAccessDecision counts a role access check
func ObserveAccessDecision(required string, allowed bool) {
	accessDecisions.WithLabelValues(required, strconv.FormatBool(allowed)).Inc()
}

// ObserveEdgeResponse counts an edge response by outcome
func ObserveEdgeResponse(tenantID, outcome string) {
	edgeRewrites.WithLabelValues(tenantID, outcome).Inc()
}

// ObserveOriginFetch records how long the origin took to answer
func ObserveOriginFetch(duration time.Duration) {
	originDuration.Observe(duration.Seconds())
}

// ObserveSessionsPurged adds purged sessions to the sweeper counter
func ObserveSessionsPurged(count int) {
	if count > 0 {
		sessionsPurged.Add(float64(count))
	}
}

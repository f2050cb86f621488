package main

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aryan0dhankhar/storefront/internal/domain"
	"github.com/aryan0dhankhar/storefront/internal/handler"
	"github.com/aryan0dhankhar/storefront/internal/observability/metrics"
	"github.com/aryan0dhankhar/storefront/internal/security"
	"github.com/aryan0dhankhar/storefront/internal/security/audit"
	"github.com/aryan0dhankhar/storefront/internal/security/auth"
	"github.com/aryan0dhankhar/storefront/internal/security/middleware"
	"github.com/aryan0dhankhar/storefront/internal/security/ratelimit"
	"github.com/aryan0dhankhar/storefront/internal/tenant"
)

type routerDeps struct {
	resolver    *tenant.Resolver
	sessions    domain.SessionStore
	sessionOpts tenant.SessionOptions
	tokens      *auth.TokenManager
	roles       *security.RoleLoader
	roleLister  handler.RoleLister
	authz       *security.AuthorizationService
	audit       *audit.Logger
	limiter     *ratelimit.Limiter
	checks      map[string]handler.Pinger
	corsOrigins []string
	logger      *slog.Logger
}

func newRouter(d routerDeps) http.Handler {
	if d.logger == nil {
		d.logger = slog.Default()
	}
	requireAdmin := middleware.RequireRole(d.authz, d.audit, security.RoleAdmin)
	requireSuperAdmin := middleware.RequireRole(d.authz, d.audit, security.RoleSuperAdmin)

	tenantHandler := handler.NewTenantHandler(d.logger)
	accessHandler := handler.NewAccessHandler(d.authz)
	adminHandler := handler.NewAdminHandler(d.resolver.Registry(), d.roleLister, d.roles, d.audit, d.logger)
	healthHandler := handler.NewHealthHandler(d.checks, d.logger)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/tenant", tenantHandler.Current)
	mux.HandleFunc("GET /api/tenant/features", tenantHandler.Features)
	mux.HandleFunc("GET /api/shipping/quote", tenantHandler.ShippingQuote)
	mux.HandleFunc("GET /api/payment-methods", tenantHandler.PaymentMethods)
	mux.Handle("GET /api/access", accessHandler)
	mux.Handle("GET /api/admin/tenants", requireAdmin(http.HandlerFunc(adminHandler.Tenants)))
	mux.Handle("DELETE /api/admin/roles/{userID}/cache", requireAdmin(http.HandlerFunc(adminHandler.ForgetRole)))
	mux.Handle("GET /api/admin/users", requireSuperAdmin(http.HandlerFunc(adminHandler.UsersByRole)))
	mux.HandleFunc("GET /healthz", healthHandler.Health)
	mux.HandleFunc("GET /readyz", healthHandler.Ready)
	mux.Handle("GET /metrics", promhttp.Handler())

	// Chain middleware: request ID -> CORS -> sanitize -> session -> rate limit -> auth -> metrics.
	// Metrics wraps the mux directly so it can read the matched pattern.
	var root http.Handler = metrics.HTTPMetricsMiddleware(mux)
	root = middleware.Authenticate(d.tokens, d.roles, d.logger)(root)
	root = middleware.RateLimitMiddleware(d.limiter, d.logger)(root)
	root = tenant.SessionMiddleware(d.resolver, d.sessions, d.sessionOpts, d.logger)(root)
	root = middleware.SanitizeInputs(d.logger)(root)
	root = withCORS(d.corsOrigins, root)
	return withRequestID(root, d.logger)
}

// withRequestID attaches a request ID to the context and response headers for traceability
func withRequestID(next http.Handler, log *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get("X-Request-ID")
		if _, err := uuid.Parse(reqID); err != nil {
			reqID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", reqID)

		ctx := audit.WithRequestID(r.Context(), reqID)
		start := time.Now()

		next.ServeHTTP(w, r.WithContext(ctx))

		log.Info("request completed",
			slog.String("request_id", reqID),
			slog.String("method", r.Method),
			slog.String("host", r.Host),
			slog.String("path", r.URL.Path),
			slog.Duration("duration_ms", time.Since(start)),
		)
	})
}

// withCORS allows the storefront front-ends to call the API with credentials
func withCORS(allowed []string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if originAllowed(allowed, origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
		}
		w.Header().Set("Vary", "Origin")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS, DELETE")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Accept, Authorization, X-Request-ID")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func originAllowed(allowed []string, origin string) bool {
	if origin == "" {
		return false
	}
	for _, a := range allowed {
		if a == "*" || a == origin {
			return true
		}
	}
	return false
}

package middleware

import (
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"

	"github.com/aryan0dhankhar/storefront/internal/security"
	"github.com/aryan0dhankhar/storefront/internal/security/audit"
	"github.com/aryan0dhankhar/storefront/internal/security/auth"
	"github.com/aryan0dhankhar/storefront/internal/security/ratelimit"
	"github.com/aryan0dhankhar/storefront/internal/tenant"
)

type PrincipalContextKey struct{}
type ClaimsContextKey struct{}

// Authenticate attaches the caller's Principal to the request. Requests
// without an Authorization header continue as anonymous; a header that does
// not hold a valid token is rejected.
func Authenticate(tm *auth.TokenManager, loader *security.RoleLoader, log *slog.Logger) func(http.Handler) http.Handler {
	if log == nil {
		log = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				next.ServeHTTP(w, r.WithContext(context.WithValue(ctx, PrincipalContextKey{}, security.Principal{})))
				return
			}

			tokenString, err := auth.ExtractToken(authHeader)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "invalid auth")
				return
			}

			claims, err := tm.ValidateToken(tokenString)
			if err != nil {
				log.Info("rejected access token", slog.String("error", err.Error()))
				writeError(w, http.StatusUnauthorized, "invalid token")
				return
			}

			principal := loader.Principal(ctx, claims)
			ctx = context.WithValue(ctx, ClaimsContextKey{}, claims)
			ctx = context.WithValue(ctx, PrincipalContextKey{}, principal)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole lets a request through when the principal satisfies any of the
// required roles. Anonymous callers get 401, under-privileged ones 403.
func RequireRole(authz *security.AuthorizationService, auditLog *audit.Logger, required ...security.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p := GetPrincipalFromContext(r.Context())
			tenantID := sessionTenantID(r.Context())

			if err := authz.ValidateAccess(p, required...); err != nil {
				auditLog.LogDenied(r.Context(), tenantID, p.UserID, r.URL.Path, err.Error())
				if !p.Authenticated {
					writeError(w, http.StatusUnauthorized, "authentication required")
					return
				}
				writeError(w, http.StatusForbidden, "insufficient role")
				return
			}

			auditLog.LogAdminAccess(r.Context(), tenantID, p.UserID, r.URL.Path)
			next.ServeHTTP(w, r)
		})
	}
}

// RateLimitMiddleware limits requests per client within each resolved tenant,
// so one client cannot spend the budget of a storefront's other shoppers
func RateLimitMiddleware(limiter *ratelimit.Limiter, log *slog.Logger) func(http.Handler) http.Handler {
	if log == nil {
		log = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tenantID := sessionTenantID(r.Context())
			client := clientIP(r)
			if !limiter.Allow(rateLimitKey(tenantID, client)) {
				log.Warn("rate limit exceeded",
					slog.String("tenant_id", tenantID),
					slog.String("client_ip", client),
					slog.String("path", r.URL.Path),
				)
				writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// rateLimitKey is empty, and so unlimited, for requests without a tenant
func rateLimitKey(tenantID, client string) string {
	if tenantID == "" {
		return ""
	}
	return tenantID + "|" + client
}

// clientIP is the peer address of the connection. Forwarding headers are
// ignored since any caller can set them.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func GetPrincipalFromContext(ctx context.Context) security.Principal {
	if p, ok := ctx.Value(PrincipalContextKey{}).(security.Principal); ok {
		return p
	}
	return security.Principal{}
}

func GetClaimsFromContext(ctx context.Context) *auth.Claims {
	if c, ok := ctx.Value(ClaimsContextKey{}).(*auth.Claims); ok {
		return c
	}
	return nil
}

func sessionTenantID(ctx context.Context) string {
	s := tenant.FromContext(ctx)
	if s == nil {
		return ""
	}
	if t, ok := s.Current(); ok {
		return t.ID
	}
	return ""
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

package tenant

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/aryan0dhankhar/storefront/internal/domain"
)

type sessionContextKey struct{}

// SessionOptions configures the session cookie
type SessionOptions struct {
	CookieName string
	TTL        time.Duration
	Secure     bool
}

// WithSession stores a session in the context
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, s)
}

// FromContext returns the session attached by SessionMiddleware, or nil
func FromContext(ctx context.Context) *Session {
	if s, ok := ctx.Value(sessionContextKey{}).(*Session); ok {
		return s
	}
	return nil
}

// SessionMiddleware binds every request to a tenant session. Known sessions
// are restored from the store; anything else starts a new session, resolved
// once and persisted. Store errors only cost the persistence, never the request.
func SessionMiddleware(resolver *Resolver, store domain.SessionStore, opts SessionOptions, log *slog.Logger) func(http.Handler) http.Handler {
	if log == nil {
		log = slog.Default()
	}
	if opts.CookieName == "" {
		opts.CookieName = "sf_session"
	}
	if opts.TTL <= 0 {
		opts.TTL = 24 * time.Hour
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			if s := restore(ctx, r, resolver, store, opts, log); s != nil {
				next.ServeHTTP(w, r.WithContext(WithSession(ctx, s)))
				return
			}

			s := NewSession(uuid.NewString(), resolver, ContextFromRequest(r))
			s.Start()
			t, _ := s.Current()

			if err := store.Put(ctx, s.ID(), t.ID, opts.TTL); err != nil {
				log.Warn("failed to persist tenant session",
					slog.String("session_id", s.ID()),
					slog.String("error", err.Error()),
				)
			}

			http.SetCookie(w, &http.Cookie{
				Name:     opts.CookieName,
				Value:    s.ID(),
				Path:     "/",
				MaxAge:   int(opts.TTL.Seconds()),
				HttpOnly: true,
				Secure:   opts.Secure,
				SameSite: http.SameSiteLaxMode,
			})

			next.ServeHTTP(w, r.WithContext(WithSession(ctx, s)))
		})
	}
}

func restore(ctx context.Context, r *http.Request, resolver *Resolver, store domain.SessionStore, opts SessionOptions, log *slog.Logger) *Session {
	cookie, err := r.Cookie(opts.CookieName)
	if err != nil || cookie.Value == "" {
		return nil
	}

	tenantID, found, err := store.Get(ctx, cookie.Value)
	if err != nil {
		log.Warn("failed to load tenant session",
			slog.String("session_id", cookie.Value),
			slog.String("error", err.Error()),
		)
		return nil
	}
	if !found {
		return nil
	}

	t, ok := resolver.Registry().ByID(tenantID)
	if !ok {
		log.Info("stored session tenant no longer registered",
			slog.String("session_id", cookie.Value),
			slog.String("tenant_id", tenantID),
		)
		return nil
	}
	return RestoreSession(cookie.Value, t)
}

package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/aryan0dhankhar/storefront/internal/catalog"
	"github.com/aryan0dhankhar/storefront/internal/domain"
	"github.com/aryan0dhankhar/storefront/internal/handler"
	"github.com/aryan0dhankhar/storefront/internal/infrastructure/logger"
	"github.com/aryan0dhankhar/storefront/internal/infrastructure/redis"
	"github.com/aryan0dhankhar/storefront/internal/observability/tracing"
	"github.com/aryan0dhankhar/storefront/internal/reliability/retry"
	"github.com/aryan0dhankhar/storefront/internal/repository"
	"github.com/aryan0dhankhar/storefront/internal/security"
	"github.com/aryan0dhankhar/storefront/internal/security/audit"
	"github.com/aryan0dhankhar/storefront/internal/security/auth"
	"github.com/aryan0dhankhar/storefront/internal/security/ratelimit"
	"github.com/aryan0dhankhar/storefront/internal/tenant"
	"github.com/aryan0dhankhar/storefront/internal/worker"
	"github.com/aryan0dhankhar/storefront/pkg/config"
	"github.com/aryan0dhankhar/storefront/pkg/database"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 2. Initialize structured logger
	log := logger.NewLogger(cfg.LogLevel)
	slog.SetDefault(log)
	log.Info("starting storefront tenancy server", slog.String("environment", cfg.Environment))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracing, err := tracing.Init(ctx, log, cfg.OTLPEndpoint, "storefront-api", cfg.Environment)
	if err != nil {
		log.Error("failed to initialize tracing", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 3. Load tenant catalog and build the registry
	cat, err := catalog.Load(cfg.TenantCatalog)
	if err != nil {
		log.Error("failed to load tenant catalog", slog.String("error", err.Error()))
		os.Exit(1)
	}
	registry, err := tenant.RegistryFromCatalog(cat)
	if err != nil {
		log.Error("failed to build tenant registry", slog.String("error", err.Error()))
		os.Exit(1)
	}
	resolver := tenant.NewResolver(registry, log)
	log.Info("tenant registry loaded",
		slog.Int("tenants", len(registry.List())),
		slog.String("default", registry.Default().ID),
	)

	checks := make(map[string]handler.Pinger)

	// 4. Session store: Redis when configured, process memory otherwise
	var sessions domain.SessionStore
	if cfg.RedisURL != "" {
		redisClient, err := retry.Do(ctx, retry.StartupConfig(), log, "redis connect", func(ctx context.Context) (*redis.Client, error) {
			return redis.NewClient(ctx, cfg.RedisURL, log)
		})
		if err != nil {
			log.Error("failed to connect to Redis", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer redisClient.Close()
		sessions = repository.NewSessionRepository(redisClient, log)
		checks["redis"] = redisClient
	} else {
		memory := repository.NewMemorySessionRepository()
		sessions = memory
		go worker.NewSessionSweeper(memory, log, cfg.SweepInterval).Start(ctx)
		log.Warn("REDIS_URL not set, tenant sessions are kept in memory")
	}

	// 5. Role directory: Postgres user_roles when configured, token metadata otherwise
	var roleRepo domain.RoleRepository
	var roleLister handler.RoleLister
	if cfg.DatabaseURL != "" {
		pool, err := retry.Do(ctx, retry.StartupConfig(), log, "postgres connect", func(ctx context.Context) (*database.ConnectionPool, error) {
			return database.NewConnectionPool(ctx, &database.Config{URL: cfg.DatabaseURL}, log)
		})
		if err != nil {
			log.Error("failed to connect to database", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer pool.Close()
		repo := repository.NewPostgresRoleRepository(pool.GetDB(), log)
		roleRepo = repo
		roleLister = repo
		checks["postgres"] = handler.PingFunc(pool.Health)
	} else {
		log.Warn("DATABASE_URL not set, roles are read from token app_metadata")
	}

	// 6. Security components
	tokenManager := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTAudience)
	roleLoader := security.NewRoleLoader(roleRepo, cfg.RoleCacheTTL, log)
	authz := security.NewAuthorizationService(log)
	auditLogger := audit.NewLogger(log)
	rateLimiter := ratelimit.NewLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)

	// 7. Routes and middleware chain
	root := newRouter(routerDeps{
		resolver:    resolver,
		sessions:    sessions,
		sessionOpts: tenant.SessionOptions{CookieName: cfg.SessionCookie, TTL: cfg.SessionTTL, Secure: cfg.SessionSecure},
		tokens:      tokenManager,
		roles:       roleLoader,
		roleLister:  roleLister,
		authz:       authz,
		audit:       auditLogger,
		limiter:     rateLimiter,
		checks:      checks,
		corsOrigins: cfg.CORSAllowedOrigins,
		logger:      log,
	})
	root = otelhttp.NewHandler(root, "storefront-api")

	// 8. Start HTTP server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      root,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log.Info("server starting",
		slog.Int("port", cfg.ServerPort),
		slog.Float64("rate_limit_rps", cfg.RateLimitRPS),
		slog.Int("rate_limit_burst", cfg.RateLimitBurst),
		slog.Duration("session_ttl", cfg.SessionTTL),
	)

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", slog.String("error", err.Error()))
		}
	}()

	<-sigChan
	log.Info("shutdown signal received")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", slog.String("error", err.Error()))
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Error("tracing shutdown error", slog.String("error", err.Error()))
	}

	cancel() // Stop session sweeper
	rateLimiter.Stop()
	log.Info("server stopped")
}

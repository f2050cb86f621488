package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Config holds the tenancy API server configuration
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	ServerPort  int    `env:"SERVER_PORT" envDefault:"8080"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// TenantCatalog is a YAML file replacing the compiled-in catalog
	TenantCatalog string `env:"TENANT_CATALOG"`

	// RedisURL backs the session store; empty keeps sessions in memory
	RedisURL string `env:"REDIS_URL"`
	// DatabaseURL points at the Supabase Postgres holding user_roles; empty
	// falls back to the role carried in the token's app_metadata
	DatabaseURL  string        `env:"DATABASE_URL"`
	RoleCacheTTL time.Duration `env:"ROLE_CACHE_TTL" envDefault:"1m"`

	JWTSecret   string `env:"SUPABASE_JWT_SECRET,required,notEmpty"`
	JWTAudience string `env:"JWT_AUDIENCE" envDefault:"authenticated"`

	SessionCookie string        `env:"SESSION_COOKIE" envDefault:"storefront_session"`
	SessionTTL    time.Duration `env:"SESSION_TTL" envDefault:"24h"`
	SessionSecure bool          `env:"SESSION_SECURE" envDefault:"false"`
	SweepInterval time.Duration `env:"SESSION_SWEEP_INTERVAL" envDefault:"5m"`

	RateLimitRPS   float64 `env:"RATE_LIMIT_RPS" envDefault:"20"`
	RateLimitBurst int     `env:"RATE_LIMIT_BURST" envDefault:"40"`

	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:5173,http://localhost:3000"`

	OTLPEndpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
}

// EdgeConfig holds the meta rewriter proxy configuration
type EdgeConfig struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	Port        int    `env:"EDGE_PORT" envDefault:"8888"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	OriginURL      string        `env:"ORIGIN_URL,required,notEmpty"`
	OriginTimeout  time.Duration `env:"ORIGIN_TIMEOUT" envDefault:"10s"`
	ForwardHeaders bool          `env:"EDGE_FORWARD_HEADERS" envDefault:"false"`
	MaxHTMLBytes   int64         `env:"EDGE_MAX_HTML_BYTES" envDefault:"5242880"`

	TenantCatalog string `env:"TENANT_CATALOG"`
	OTLPEndpoint  string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
}

// Load reads the API server configuration from the environment
func Load() (*Config, error) {
	// Attempt to load .env file for local development.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadEdge reads the edge proxy configuration from the environment
func LoadEdge() (*EdgeConfig, error) {
	_ = godotenv.Load()

	cfg := &EdgeConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return nil, fmt.Errorf("invalid EDGE_PORT: %d", cfg.Port)
	}
	if cfg.MaxHTMLBytes <= 0 {
		return nil, fmt.Errorf("EDGE_MAX_HTML_BYTES must be positive, got %d", cfg.MaxHTMLBytes)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.ServerPort <= 0 || c.ServerPort > 65535 {
		return fmt.Errorf("invalid SERVER_PORT: %d", c.ServerPort)
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive, got %s", c.SessionTTL)
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst <= 0 {
		return fmt.Errorf("rate limit must be positive (rps=%v burst=%d)", c.RateLimitRPS, c.RateLimitBurst)
	}
	return nil
}

// IsProduction reports whether the server runs in production
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SUPABASE_JWT_SECRET", "test-secret")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ServerPort != 8080 || cfg.SessionTTL != 24*time.Hour || cfg.SessionCookie != "storefront_session" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if len(cfg.CORSAllowedOrigins) != 2 {
		t.Fatalf("expected 2 default CORS origins, got %v", cfg.CORSAllowedOrigins)
	}
	if cfg.IsProduction() {
		t.Fatalf("default environment should not be production")
	}
}

func TestLoadRequiresSecret(t *testing.T) {
	t.Setenv("SUPABASE_JWT_SECRET", "")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error without SUPABASE_JWT_SECRET")
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	t.Setenv("SUPABASE_JWT_SECRET", "test-secret")

	t.Run("port", func(t *testing.T) {
		t.Setenv("SERVER_PORT", "70000")
		if _, err := Load(); err == nil {
			t.Fatalf("expected port error")
		}
	})
	t.Run("ttl", func(t *testing.T) {
		t.Setenv("SESSION_TTL", "0s")
		if _, err := Load(); err == nil {
			t.Fatalf("expected ttl error")
		}
	})
	t.Run("unparseable", func(t *testing.T) {
		t.Setenv("RATE_LIMIT_BURST", "many")
		if _, err := Load(); err == nil {
			t.Fatalf("expected parse error")
		}
	})
}

func TestLoadEdge(t *testing.T) {
	t.Setenv("ORIGIN_URL", "https://origin.example.com")
	t.Setenv("EDGE_FORWARD_HEADERS", "true")

	cfg, err := LoadEdge()
	if err != nil {
		t.Fatalf("LoadEdge: %v", err)
	}
	if cfg.Port != 8888 || !cfg.ForwardHeaders || cfg.OriginTimeout != 10*time.Second || cfg.MaxHTMLBytes != 5<<20 {
		t.Fatalf("unexpected edge config: %+v", cfg)
	}
}

func TestLoadEdgeRequiresOrigin(t *testing.T) {
	t.Setenv("ORIGIN_URL", "")
	if _, err := LoadEdge(); err == nil {
		t.Fatalf("expected error without ORIGIN_URL")
	}
}

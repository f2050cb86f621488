package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/aryan0dhankhar/storefront/internal/catalog"
	"github.com/aryan0dhankhar/storefront/internal/edge"
	"github.com/aryan0dhankhar/storefront/internal/infrastructure/logger"
	"github.com/aryan0dhankhar/storefront/internal/observability/metrics"
	"github.com/aryan0dhankhar/storefront/internal/observability/tracing"
	"github.com/aryan0dhankhar/storefront/pkg/config"
)

func main() {
	cfg, err := config.LoadEdge()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewLogger(cfg.LogLevel)
	slog.SetDefault(log)
	log.Info("starting storefront edge", slog.String("environment", cfg.Environment))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracing, err := tracing.Init(ctx, log, cfg.OTLPEndpoint, "storefront-edge", cfg.Environment)
	if err != nil {
		log.Error("failed to initialize tracing", slog.String("error", err.Error()))
		os.Exit(1)
	}

	origin, err := url.Parse(cfg.OriginURL)
	if err != nil || origin.Scheme == "" || origin.Host == "" {
		log.Error("invalid ORIGIN_URL", slog.String("origin", cfg.OriginURL))
		os.Exit(1)
	}

	cat, err := catalog.Load(cfg.TenantCatalog)
	if err != nil {
		log.Error("failed to load tenant catalog", slog.String("error", err.Error()))
		os.Exit(1)
	}
	table := edge.NewTable(cat)

	client := &http.Client{
		Transport: otelhttp.NewTransport(http.DefaultTransport),
		Timeout:   cfg.OriginTimeout,
		// Redirects go back to the crawler untouched.
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	proxy := edge.NewHandler(origin, client, table, edge.HandlerOptions{
		ForwardHeaders: cfg.ForwardHeaders,
		MaxHTMLBytes:   cfg.MaxHTMLBytes,
	}, log)

	mux := http.NewServeMux()
	mux.Handle("GET /_edge/metrics", promhttp.Handler())
	mux.HandleFunc("GET /_edge/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("/", proxy)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      otelhttp.NewHandler(metrics.HTTPMetricsMiddleware(mux), "storefront-edge"),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.OriginTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log.Info("edge starting",
		slog.Int("port", cfg.Port),
		slog.String("origin", origin.String()),
		slog.Bool("forward_headers", cfg.ForwardHeaders),
	)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", slog.String("error", err.Error()))
		}
	}()

	<-sigChan
	log.Info("shutdown signal received")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", slog.String("error", err.Error()))
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Error("tracing shutdown error", slog.String("error", err.Error()))
	}
	log.Info("edge stopped")
}

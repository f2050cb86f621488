package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/aryan0dhankhar/storefront/internal/observability/metrics"
)

// Purger drops expired entries and reports how many were removed
type Purger interface {
	Purge() int
}

// SessionSweeper periodically evicts expired tenant sessions from the
// in-memory store. Redis expires keys on its own and needs no sweeper.
type SessionSweeper struct {
	store    Purger
	logger   *slog.Logger
	interval time.Duration
}

// NewSessionSweeper creates a new session sweeper
func NewSessionSweeper(store Purger, logger *slog.Logger, interval time.Duration) *SessionSweeper {
	if logger == nil {
		logger = slog.Default()
	}
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &SessionSweeper{
		store:    store,
		logger:   logger,
		interval: interval,
	}
}

// Start runs the sweep loop until ctx is cancelled
func (w *SessionSweeper) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info("session sweeper started", slog.Duration("interval", w.interval))

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("session sweeper stopped")
			return
		case <-ticker.C:
			w.Sweep()
		}
	}
}

// Sweep runs a single eviction pass
func (w *SessionSweeper) Sweep() int {
	n := w.store.Purge()
	metrics.ObserveSessionsPurged(n)
	if n > 0 {
		w.logger.Info("expired sessions purged", slog.Int("count", n))
	}
	return n
}

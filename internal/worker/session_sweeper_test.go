package worker

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aryan0dhankhar/storefront/internal/repository"
)

type countingPurger struct {
	calls atomic.Int32
}

func (p *countingPurger) Purge() int {
	p.calls.Add(1)
	return 0
}

func TestSweepEvictsExpiredSessions(t *testing.T) {
	store := repository.NewMemorySessionRepository()
	ctx := context.Background()
	if err := store.Put(ctx, "short", "diamond", time.Millisecond); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := store.Put(ctx, "long", "collab", time.Hour); err != nil {
		t.Fatalf("put: %v", err)
	}
	time.Sleep(5 * time.Millisecond)

	if n := NewSessionSweeper(store, nil, time.Minute).Sweep(); n != 1 {
		t.Fatalf("expected 1 purged session, got %d", n)
	}
	if _, found, _ := store.Get(ctx, "long"); !found {
		t.Fatalf("live session was purged")
	}
}

func TestStartStopsOnCancel(t *testing.T) {
	p := &countingPurger{}
	w := NewSessionSweeper(p, nil, time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for p.calls.Load() < 2 {
		select {
		case <-deadline:
			t.Fatalf("sweeper did not tick")
		case <-time.After(time.Millisecond):
		}
	}
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("sweeper did not stop")
	}
}

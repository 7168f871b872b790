package latency

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestSimulateWaits(t *testing.T) {
	start := time.Now()
	if err := Simulate(context.Background(), 20*time.Millisecond); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 20*time.Millisecond {
		t.Errorf("returned after %v", elapsed)
	}
}

func TestSimulateCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := Simulate(ctx, time.Hour); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if err := Simulate(ctx, 0); !errors.Is(err, context.Canceled) {
		t.Errorf("zero delay should still report cancellation, got %v", err)
	}
}

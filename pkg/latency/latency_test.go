package latency

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestTimerWaits(t *testing.T) {
	start := time.Now()
	if err := NewTimer(20 * time.Millisecond).Wait(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if time.Since(start) < 20*time.Millisecond {
		t.Fatal("expected timer to block for its delay")
	}
}

func TestTimerCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := NewTimer(time.Hour).Wait(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestInstant(t *testing.T) {
	if err := (Instant{}).Wait(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := (Instant{}).Wait(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

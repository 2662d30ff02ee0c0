package ratelimit

import (
	"context"
	"testing"
	"time"
)

// TestGateSpacesRequests ensures consecutive waits honor the interval.
func TestGateSpacesRequests(t *testing.T) {
	t.Parallel()

	g := NewGate(50 * time.Millisecond)
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 3; i++ {
		if err := g.Wait(ctx, "https://api.firecrawl.dev"); err != nil {
			t.Fatalf("Wait() error = %v", err)
		}
	}
	// First request is immediate, the next two wait one interval each.
	if elapsed := time.Since(start); elapsed < 100*time.Millisecond {
		t.Fatalf("expected at least 100ms of spacing, got %v", elapsed)
	}
}

// TestGateZeroInterval confirms an unlimited gate admits immediately.
func TestGateZeroInterval(t *testing.T) {
	t.Parallel()

	g := NewGate(0)
	start := time.Now()
	for i := 0; i < 5; i++ {
		if err := g.Wait(context.Background(), "https://example.com"); err != nil {
			t.Fatalf("Wait() error = %v", err)
		}
	}
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Fatalf("expected immediate admits, took %v", elapsed)
	}
}

// TestGateContextCancelled checks a cancelled context aborts the wait.
func TestGateContextCancelled(t *testing.T) {
	t.Parallel()

	g := NewGate(time.Hour)
	ctx := context.Background()
	if err := g.Wait(ctx, "https://example.com"); err != nil {
		t.Fatalf("first Wait() error = %v", err)
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if err := g.Wait(cancelled, "https://example.com"); err == nil {
		t.Fatal("expected error from cancelled wait")
	}
}

// TestNilGatePassesThrough verifies optional gates can be left nil.
func TestNilGatePassesThrough(t *testing.T) {
	t.Parallel()

	var g *Gate
	if err := g.Wait(context.Background(), "https://example.com"); err != nil {
		t.Fatalf("nil gate Wait() error = %v", err)
	}
}

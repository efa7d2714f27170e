package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestNilLimiterNeverBlocks(t *testing.T) {
	var l *Limiter
	if err := l.Wait(context.Background()); err != nil {
		t.Fatalf("nil limiter returned error: %v", err)
	}
}

func TestZeroRateDisablesCap(t *testing.T) {
	l := New(0)
	start := time.Now()
	for i := 0; i < 100; i++ {
		if err := l.Wait(context.Background()); err != nil {
			t.Fatalf("wait %d failed: %v", i, err)
		}
	}
	if took := time.Since(start); took > 100*time.Millisecond {
		t.Errorf("zero-rate limiter blocked for %v", took)
	}
}

func TestWaitPacesRequests(t *testing.T) {
	// 100 rps with burst 100: the first 100 waits are free, subsequent
	// ones are paced at 10ms apart.
	l := New(100)
	ctx := context.Background()
	for i := 0; i < 100; i++ {
		if err := l.Wait(ctx); err != nil {
			t.Fatal(err)
		}
	}

	start := time.Now()
	for i := 0; i < 5; i++ {
		if err := l.Wait(ctx); err != nil {
			t.Fatal(err)
		}
	}
	if took := time.Since(start); took < 30*time.Millisecond {
		t.Errorf("5 paced waits at 100rps took only %v", took)
	}
}

func TestWaitHonorsCancellation(t *testing.T) {
	l := New(1)
	ctx := context.Background()
	// Drain the burst token.
	if err := l.Wait(ctx); err != nil {
		t.Fatal(err)
	}

	cancelled, cancel := context.WithTimeout(ctx, 10*time.Millisecond)
	defer cancel()
	if err := l.Wait(cancelled); err == nil {
		t.Error("expected error from cancelled wait")
	}
}

func TestSetRate(t *testing.T) {
	l := New(1)
	l.SetRate(1000)
	start := time.Now()
	for i := 0; i < 50; i++ {
		if err := l.Wait(context.Background()); err != nil {
			t.Fatal(err)
		}
	}
	if took := time.Since(start); took > time.Second {
		t.Errorf("raised rate still slow: %v", took)
	}
}

package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestAllowBurst(t *testing.T) {
	base := time.Now()
	l := New(5)
	l.now = func() time.Time { return base }

	for i := 0; i < 5; i++ {
		if !l.Allow() {
			t.Fatalf("Allow() = false on request %d within burst", i+1)
		}
	}
	if l.Allow() {
		t.Error("Allow() = true with the bucket drained")
	}
}

func TestRefill(t *testing.T) {
	base := time.Now()
	now := base
	l := New(10)
	l.now = func() time.Time { return now }

	for i := 0; i < 10; i++ {
		l.Allow()
	}
	if l.Allow() {
		t.Fatal("Allow() = true with the bucket drained")
	}

	// 200ms at 10/s credits two tokens.
	now = base.Add(200 * time.Millisecond)
	if !l.Allow() {
		t.Error("Allow() = false after refill interval")
	}
	if !l.Allow() {
		t.Error("Allow() = false on second refilled token")
	}
	if l.Allow() {
		t.Error("Allow() = true beyond refilled credit")
	}
}

func TestRefillCapsAtBurst(t *testing.T) {
	base := time.Now()
	now := base
	l := New(3)
	l.now = func() time.Time { return now }

	l.Allow()
	now = base.Add(time.Hour)

	for i := 0; i < 3; i++ {
		if !l.Allow() {
			t.Fatalf("Allow() = false on request %d after long idle", i+1)
		}
	}
	if l.Allow() {
		t.Error("Allow() = true past the burst cap")
	}
}

func TestWaitImmediate(t *testing.T) {
	l := New(100)
	if err := l.Wait(context.Background()); err != nil {
		t.Fatalf("Wait failed: %v", err)
	}
}

func TestWaitCancelled(t *testing.T) {
	base := time.Now()
	l := New(0.001)
	l.now = func() time.Time { return base }
	l.tokens = 0

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := l.Wait(ctx)
	if err != context.DeadlineExceeded {
		t.Errorf("Wait error = %v, want context.DeadlineExceeded", err)
	}
}

func TestDisabled(t *testing.T) {
	l := New(0)
	if !l.Allow() {
		t.Error("Allow() = false with limiting disabled")
	}
	if err := l.Wait(context.Background()); err != nil {
		t.Errorf("Wait failed with limiting disabled: %v", err)
	}
}

package ratelimit

import (
	"context"
	"testing"
	"time"
)

// newTestLimiter returns a limiter with a controllable clock.
func newTestLimiter(capacity int, window time.Duration) (*MemoryLimiter, *time.Time) {
	now := time.Now()
	m := NewMemoryLimiter(Config{Capacity: capacity, Window: window})
	m.nowFunc = func() time.Time { return now }
	return m, &now
}

func TestTryAcquireExhaustsBudget(t *testing.T) {
	m, _ := newTestLimiter(3, time.Hour)
	defer m.Close()

	for i := 0; i < 3; i++ {
		if !m.TryAcquire("user-1") {
			t.Fatalf("acquire %d failed with budget remaining", i+1)
		}
	}
	if m.TryAcquire("user-1") {
		t.Error("acquire succeeded past capacity")
	}
}

func TestBudgetIsPerUser(t *testing.T) {
	m, _ := newTestLimiter(1, time.Hour)
	defer m.Close()

	if !m.TryAcquire("user-1") {
		t.Fatal("first user denied")
	}
	if m.TryAcquire("user-1") {
		t.Error("first user got a second token")
	}
	if !m.TryAcquire("user-2") {
		t.Error("second user denied by first user's spend")
	}
}

func TestRefillOverWindow(t *testing.T) {
	m, now := newTestLimiter(4, time.Hour)
	defer m.Close()

	for i := 0; i < 4; i++ {
		m.TryAcquire("user-1")
	}
	if m.TryAcquire("user-1") {
		t.Fatal("budget not exhausted")
	}

	// Half a window restores half the capacity.
	*now = now.Add(30 * time.Minute)
	cap := m.Capacity("user-1")
	if cap.Available != 2 {
		t.Errorf("available after half window = %d, want 2", cap.Available)
	}

	// A full window restores to capacity, never beyond.
	*now = now.Add(2 * time.Hour)
	cap = m.Capacity("user-1")
	if cap.Available != 4 {
		t.Errorf("available after full window = %d, want 4", cap.Available)
	}
}

func TestRelease(t *testing.T) {
	m, _ := newTestLimiter(1, time.Hour)
	defer m.Close()

	m.TryAcquire("user-1")
	if m.TryAcquire("user-1") {
		t.Fatal("budget not exhausted")
	}

	m.Release("user-1")
	if !m.TryAcquire("user-1") {
		t.Error("released token not reusable")
	}
}

func TestAcquireBlocksUntilRelease(t *testing.T) {
	m := NewMemoryLimiter(Config{Capacity: 1, Window: time.Hour})
	defer m.Close()

	if err := m.Acquire(context.Background(), "user-1"); err != nil {
		t.Fatalf("first Acquire failed: %v", err)
	}

	acquired := make(chan error, 1)
	go func() {
		acquired <- m.Acquire(context.Background(), "user-1")
	}()

	select {
	case err := <-acquired:
		t.Fatalf("second Acquire returned early: %v", err)
	case <-time.After(20 * time.Millisecond):
	}

	m.Release("user-1")
	select {
	case err := <-acquired:
		if err != nil {
			t.Errorf("Acquire after release failed: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Acquire did not wake after release")
	}
}

func TestAcquireRespectsContext(t *testing.T) {
	m, _ := newTestLimiter(1, time.Hour)
	defer m.Close()

	m.TryAcquire("user-1")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	err := m.Acquire(ctx, "user-1")
	if err != context.DeadlineExceeded {
		t.Errorf("err = %v, want context.DeadlineExceeded", err)
	}
}

func TestClosedLimiter(t *testing.T) {
	m, _ := newTestLimiter(1, time.Hour)
	m.Close()

	if m.TryAcquire("user-1") {
		t.Error("TryAcquire succeeded on closed limiter")
	}
	if err := m.Acquire(context.Background(), "user-1"); err != ErrClosed {
		t.Errorf("Acquire err = %v, want ErrClosed", err)
	}
	if err := m.Close(); err != ErrClosed {
		t.Errorf("second Close err = %v, want ErrClosed", err)
	}
}

func TestCapacityProvisionsLazily(t *testing.T) {
	m, _ := newTestLimiter(5, time.Hour)
	defer m.Close()

	cap := m.Capacity("fresh-user")
	if cap.Available != 5 || cap.Total != 5 {
		t.Errorf("fresh bucket = %d/%d, want 5/5", cap.Available, cap.Total)
	}
}

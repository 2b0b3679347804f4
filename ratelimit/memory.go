package ratelimit

import (
	"context"
	"sync"
	"time"
)

// bucket implements a token bucket for one user.
type bucket struct {
	capacity   int
	available  int
	window     time.Duration
	lastRefill time.Time
	inFlight   int
	cond       *sync.Cond
}

// refill adds tokens based on elapsed time since last refill.
func (b *bucket) refill(now time.Time) {
	if b.window == 0 || b.capacity == 0 {
		return
	}

	elapsed := now.Sub(b.lastRefill)
	if elapsed <= 0 {
		return
	}

	tokensToAdd := int(float64(b.capacity) * float64(elapsed) / float64(b.window))
	if tokensToAdd > 0 {
		b.available += tokensToAdd
		if b.available > b.capacity {
			b.available = b.capacity
		}
		b.lastRefill = now
	}
}

// MemoryLimiter provides local per-user rate limiting with token buckets.
// Buckets are provisioned lazily on first use. Safe for concurrent use.
type MemoryLimiter struct {
	mu      sync.Mutex
	config  Config
	buckets map[string]*bucket
	closed  bool
	nowFunc func() time.Time // for testing
}

// NewMemoryLimiter creates a new in-memory limiter.
func NewMemoryLimiter(cfg Config) *MemoryLimiter {
	return &MemoryLimiter{
		config:  cfg.withDefaults(),
		buckets: make(map[string]*bucket),
		nowFunc: time.Now,
	}
}

// bucketFor returns the user's bucket, creating a full one on first use.
// Caller holds the mutex.
func (m *MemoryLimiter) bucketFor(userID string) *bucket {
	b, exists := m.buckets[userID]
	if !exists {
		b = &bucket{
			capacity:   m.config.Capacity,
			available:  m.config.Capacity,
			window:     m.config.Window,
			lastRefill: m.nowFunc(),
		}
		m.buckets[userID] = b
	}
	return b
}

// Capacity returns the user's current budget state.
func (m *MemoryLimiter) Capacity(userID string) *Capacity {
	m.mu.Lock()
	defer m.mu.Unlock()

	b := m.bucketFor(userID)
	b.refill(m.nowFunc())

	return &Capacity{
		UserID:    userID,
		Available: b.available,
		Total:     b.capacity,
		Window:    b.window,
		InFlight:  b.inFlight,
	}
}

// Acquire blocks until the user has budget, or the context ends.
func (m *MemoryLimiter) Acquire(ctx context.Context, userID string) error {
	if m.TryAcquire(userID) {
		return nil
	}

	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			m.mu.Lock()
			if b, exists := m.buckets[userID]; exists && b.cond != nil {
				b.cond.Broadcast()
			}
			m.mu.Unlock()
		case <-done:
		}
	}()
	defer close(done)

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}

	b := m.bucketFor(userID)
	if b.cond == nil {
		b.cond = sync.NewCond(&m.mu)
	}

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if m.closed {
			return ErrClosed
		}

		b.refill(m.nowFunc())
		if b.available > 0 {
			b.available--
			b.inFlight++
			return nil
		}

		// Periodic wakeup so refills and context cancellation are observed.
		go func() {
			time.Sleep(50 * time.Millisecond)
			m.mu.Lock()
			if b.cond != nil {
				b.cond.Broadcast()
			}
			m.mu.Unlock()
		}()
		b.cond.Wait()
	}
}

// TryAcquire attempts to take budget without blocking.
func (m *MemoryLimiter) TryAcquire(userID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return false
	}

	b := m.bucketFor(userID)
	b.refill(m.nowFunc())

	if b.available > 0 {
		b.available--
		b.inFlight++
		return true
	}
	return false
}

// Release returns budget for an entry that never reached the model.
func (m *MemoryLimiter) Release(userID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return
	}

	b, exists := m.buckets[userID]
	if !exists {
		return
	}

	if b.inFlight > 0 {
		b.inFlight--
	}
	if b.available < b.capacity {
		b.available++
	}
	if b.cond != nil {
		b.cond.Signal()
	}
}

// Close shuts down the limiter.
func (m *MemoryLimiter) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}
	m.closed = true

	for _, b := range m.buckets {
		if b.cond != nil {
			b.cond.Broadcast()
		}
	}
	return nil
}

// Ensure MemoryLimiter implements Limiter.
var _ Limiter = (*MemoryLimiter)(nil)

// Package ratelimit bounds each user's LLM spend. Every pipeline run costs
// up to two completion calls, so the limiter meters pipeline entries per
// user with a token bucket that refills over a rolling window. A limited
// user still gets a chat reply; only the memory analysis is skipped.
package ratelimit

import (
	"context"
	"errors"
	"time"
)

// Common errors.
var (
	ErrClosed = errors.New("limiter closed")
)

// Defaults for the per-user bucket.
const (
	DefaultCapacity = 30
	DefaultWindow   = time.Hour
)

// Limiter meters pipeline entries per user.
type Limiter interface {
	// Acquire blocks until the user has budget, or the context ends.
	Acquire(ctx context.Context, userID string) error

	// TryAcquire attempts to take budget without blocking.
	TryAcquire(userID string) bool

	// Release returns budget, for callers that metered an entry which
	// never reached the model.
	Release(userID string)

	// Capacity returns the user's current budget state.
	Capacity(userID string) *Capacity

	// Close shuts down the limiter.
	Close() error
}

// Capacity describes a user's budget state.
type Capacity struct {
	UserID    string
	Available int
	Total     int
	Window    time.Duration
	InFlight  int
}

// Config configures a limiter.
type Config struct {
	// Capacity is the number of pipeline entries per window per user.
	// Default 30.
	Capacity int

	// Window is the refill period. Default one hour.
	Window time.Duration
}

func (c Config) withDefaults() Config {
	if c.Capacity <= 0 {
		c.Capacity = DefaultCapacity
	}
	if c.Window <= 0 {
		c.Window = DefaultWindow
	}
	return c
}

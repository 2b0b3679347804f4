// Package bus publishes memory-change events to in-process subscribers.
//
// The chat surface and the metrics layer observe the pipeline through the
// bus instead of being called from it: the pipeline publishes an Event
// after every mutation and moves on. Delivery is best-effort; a slow
// subscriber loses events rather than blocking a store decision.
package bus

import (
	"errors"
	"time"
)

// Common errors.
var (
	ErrClosed         = errors.New("bus closed")
	ErrInvalidSubject = errors.New("invalid subject")
)

// Subjects for memory-change events.
const (
	SubjectStored  = "memory.stored"
	SubjectDeleted = "memory.deleted"
	SubjectPurged  = "memory.purged"
)

// Event is one memory-change notification. Content never rides the bus;
// subscribers that need it must read through the store.
type Event struct {
	Subject  string    `json:"subject"`
	UserID   string    `json:"userId"`
	MemoryID string    `json:"memoryId,omitempty"`
	Topic    string    `json:"topic,omitempty"`
	Count    int       `json:"count,omitempty"` // purge: records deleted
	At       time.Time `json:"at"`
}

// Bus delivers events to subscribers.
type Bus interface {
	// Publish sends an event to all subscribers of its subject.
	Publish(event Event) error

	// Subscribe creates a subscription to a subject.
	Subscribe(subject string) (Subscription, error)

	// Close shuts down the bus.
	Close() error
}

// Subscription is an active subscription.
type Subscription interface {
	// Events returns the channel for incoming events.
	// The channel is closed when the subscription ends.
	Events() <-chan Event

	// Unsubscribe cancels the subscription.
	Unsubscribe() error
}

// Config holds bus configuration.
type Config struct {
	// BufferSize for subscription channels.
	// Default: 256
	BufferSize int
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() Config {
	return Config{
		BufferSize: 256,
	}
}

// ValidateSubject checks if a subject is valid.
func ValidateSubject(subject string) error {
	if subject == "" {
		return ErrInvalidSubject
	}
	return nil
}

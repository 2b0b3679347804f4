package bus

import (
	"sync"
	"sync/atomic"
	"time"
)

// MemoryBus implements Bus with in-memory channels. The whole deployment is
// single-process, so this is the production implementation, not a test
// double.
type MemoryBus struct {
	config Config

	mu     sync.RWMutex
	subs   map[string][]*memorySub
	closed atomic.Bool
}

type memorySub struct {
	subject string
	ch      chan Event
	closed  atomic.Bool
	bus     *MemoryBus
}

// NewMemoryBus creates a new in-memory bus.
func NewMemoryBus(cfg Config) *MemoryBus {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = DefaultConfig().BufferSize
	}
	return &MemoryBus{
		config: cfg,
		subs:   make(map[string][]*memorySub),
	}
}

// Publish sends an event to all subscribers of its subject.
func (b *MemoryBus) Publish(event Event) error {
	if err := ValidateSubject(event.Subject); err != nil {
		return err
	}
	if b.closed.Load() {
		return ErrClosed
	}
	if event.At.IsZero() {
		event.At = time.Now().UTC()
	}

	b.mu.RLock()
	subs := b.subs[event.Subject]
	b.mu.RUnlock()

	for _, sub := range subs {
		if sub.closed.Load() {
			continue
		}
		select {
		case sub.ch <- event:
		default:
			// Buffer full, drop event
		}
	}
	return nil
}

// Subscribe creates a subscription to a subject.
func (b *MemoryBus) Subscribe(subject string) (Subscription, error) {
	if err := ValidateSubject(subject); err != nil {
		return nil, err
	}
	if b.closed.Load() {
		return nil, ErrClosed
	}

	sub := &memorySub{
		subject: subject,
		ch:      make(chan Event, b.config.BufferSize),
		bus:     b,
	}

	b.mu.Lock()
	b.subs[subject] = append(b.subs[subject], sub)
	b.mu.Unlock()

	return sub, nil
}

// Close shuts down the bus and all subscriptions.
func (b *MemoryBus) Close() error {
	if !b.closed.CompareAndSwap(false, true) {
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	for _, subs := range b.subs {
		for _, sub := range subs {
			if sub.closed.CompareAndSwap(false, true) {
				close(sub.ch)
			}
		}
	}
	b.subs = make(map[string][]*memorySub)
	return nil
}

// Events returns the subscription channel.
func (s *memorySub) Events() <-chan Event {
	return s.ch
}

// Unsubscribe cancels the subscription.
func (s *memorySub) Unsubscribe() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}

	s.bus.mu.Lock()
	subs := s.bus.subs[s.subject]
	for i, sub := range subs {
		if sub == s {
			s.bus.subs[s.subject] = append(subs[:i], subs[i+1:]...)
			break
		}
	}
	s.bus.mu.Unlock()

	close(s.ch)
	return nil
}

// Package shutdown drains the service in phases: stop accepting HTTP
// traffic first, then close the components that in-flight requests were
// still using. Handlers in the same phase run concurrently; phases run
// in ascending order.
package shutdown

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"sort"
	"sync"
	"syscall"
	"time"
)

var (
	// ErrAlreadyShutdown indicates shutdown was already initiated.
	ErrAlreadyShutdown = errors.New("shutdown already initiated")

	// ErrTimeout indicates shutdown did not complete within the timeout.
	ErrTimeout = errors.New("shutdown timeout exceeded")

	// ErrHandlerFailed indicates one or more handlers failed.
	ErrHandlerFailed = errors.New("one or more handlers failed")
)

// Well-known phases. The HTTP server drains before anything it depends
// on goes away.
const (
	PhaseDrain = 10 // stop accepting new requests
	PhaseFlush = 20 // rate limiter, event bus
	PhaseClose = 30 // storage backends
)

// Handler is implemented by components that need graceful shutdown.
// The context is cancelled when the overall timeout is reached.
type Handler interface {
	OnShutdown(ctx context.Context) error
}

// Func adapts a function to Handler.
type Func func(ctx context.Context) error

// OnShutdown implements Handler.
func (f Func) OnShutdown(ctx context.Context) error {
	return f(ctx)
}

type registration struct {
	name    string
	handler Handler
	phase   int
}

// Coordinator runs registered handlers when shutdown is triggered by a
// signal or an explicit call.
type Coordinator struct {
	timeout time.Duration

	mu       sync.Mutex
	handlers []registration

	once    sync.Once
	done    chan struct{}
	err     error
	sigChan chan os.Signal

	// OnProgress is called after each handler finishes, for logging.
	OnProgress func(name string, phase int, d time.Duration, err error)
}

// New creates a coordinator. timeout bounds the whole sequence; zero
// means 30 seconds.
func New(timeout time.Duration) *Coordinator {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Coordinator{
		timeout: timeout,
		done:    make(chan struct{}),
		sigChan: make(chan os.Signal, 1),
	}
}

// Register adds a handler at the given phase.
func (c *Coordinator) Register(name string, phase int, handler Handler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers = append(c.handlers, registration{name: name, handler: handler, phase: phase})
}

// RegisterFunc registers a plain function at the given phase.
func (c *Coordinator) RegisterFunc(name string, phase int, fn func(ctx context.Context) error) {
	c.Register(name, phase, Func(fn))
}

// HandleSignals triggers shutdown on SIGTERM or SIGINT.
func (c *Coordinator) HandleSignals() {
	signal.Notify(c.sigChan, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		<-c.sigChan
		_ = c.Shutdown()
	}()
}

// Trigger initiates shutdown as if a signal had arrived.
func (c *Coordinator) Trigger() {
	select {
	case c.sigChan <- syscall.SIGTERM:
	default:
	}
}

// Shutdown runs all handlers, phase by phase, under the configured
// timeout. Safe to call more than once; later calls return
// ErrAlreadyShutdown until the first completes, then its error.
func (c *Coordinator) Shutdown() error {
	started := false
	c.once.Do(func() {
		started = true
		ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
		defer cancel()
		c.err = c.run(ctx)
		close(c.done)
	})
	if started {
		return c.err
	}

	select {
	case <-c.done:
		return c.err
	default:
		return ErrAlreadyShutdown
	}
}

// Done is closed when shutdown has completed.
func (c *Coordinator) Done() <-chan struct{} {
	return c.done
}

// Wait blocks until shutdown completes and returns its error.
func (c *Coordinator) Wait() error {
	<-c.done
	return c.err
}

func (c *Coordinator) run(ctx context.Context) error {
	c.mu.Lock()
	handlers := make([]registration, len(c.handlers))
	copy(handlers, c.handlers)
	c.mu.Unlock()

	sort.SliceStable(handlers, func(i, j int) bool {
		return handlers[i].phase < handlers[j].phase
	})

	var overall error
	for start := 0; start < len(handlers); {
		end := start
		for end < len(handlers) && handlers[end].phase == handlers[start].phase {
			end++
		}

		select {
		case <-ctx.Done():
			return ErrTimeout
		default:
		}

		if err := c.runPhase(ctx, handlers[start:end]); err != nil && overall == nil {
			overall = ErrHandlerFailed
		}
		start = end
	}
	return overall
}

func (c *Coordinator) runPhase(ctx context.Context, group []registration) error {
	errs := make([]error, len(group))
	var wg sync.WaitGroup
	for i, reg := range group {
		wg.Add(1)
		go func(idx int, r registration) {
			defer wg.Done()
			started := time.Now()
			err := r.handler.OnShutdown(ctx)
			errs[idx] = err
			if c.OnProgress != nil {
				c.OnProgress(r.name, r.phase, time.Since(started), err)
			}
		}(i, reg)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// Package shutdown coordinates graceful teardown of engine components.
//
// Components register in dependency order; shutdown runs in reverse, so
// the update stream and audit index close before the event store they
// read from. In-flight orchestration rounds are given until the timeout
// to record their round outcome.
package shutdown

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gianmatteo-arcana/engine-lever-sub006/errors"
	"github.com/gianmatteo-arcana/engine-lever-sub006/logging"
)

// DefaultTimeout bounds a full shutdown.
const DefaultTimeout = 30 * time.Second

// Hook is one component's teardown. The context is cancelled when the
// shutdown timeout is reached.
type Hook func(ctx context.Context) error

// Closer adapts a plain Close method into a Hook.
func Closer(close func() error) Hook {
	return func(context.Context) error { return close() }
}

type hook struct {
	name string
	fn   Hook
}

// Coordinator runs registered hooks in reverse registration order.
type Coordinator struct {
	timeout time.Duration
	logger  *logging.Logger

	mu    sync.Mutex
	hooks []hook
	done  chan struct{}
	once  sync.Once
	err   error
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithTimeout overrides the default shutdown timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Coordinator) { c.timeout = d }
}

// WithLogger sets the coordinator's logger.
func WithLogger(logger *logging.Logger) Option {
	return func(c *Coordinator) { c.logger = logger }
}

// New creates a Coordinator.
func New(opts ...Option) *Coordinator {
	c := &Coordinator{
		timeout: DefaultTimeout,
		logger:  logging.New().WithComponent("shutdown"),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Register adds a named hook. Hooks run in reverse registration order.
func (c *Coordinator) Register(name string, fn Hook) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hooks = append(c.hooks, hook{name: name, fn: fn})
}

// Shutdown runs all hooks. Repeated calls return the first run's result.
// A hook failure does not stop later hooks; the first failure is returned.
func (c *Coordinator) Shutdown(ctx context.Context) error {
	c.once.Do(func() {
		ctx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()
		defer close(c.done)

		c.mu.Lock()
		hooks := make([]hook, len(c.hooks))
		copy(hooks, c.hooks)
		c.mu.Unlock()

		start := time.Now()
		for i := len(hooks) - 1; i >= 0; i-- {
			h := hooks[i]
			if err := h.fn(ctx); err != nil {
				c.logger.Error("component shutdown failed",
					map[string]interface{}{"component": h.name, "error": err.Error()})
				if c.err == nil {
					c.err = errors.Wrap(err, "shutting down "+h.name)
				}
				continue
			}
			c.logger.Debug("component stopped",
				map[string]interface{}{"component": h.name})
		}
		c.logger.Info("shutdown complete",
			map[string]interface{}{"duration": time.Since(start).String()})
	})

	<-c.done
	return c.err
}

// HandleSignals triggers Shutdown on SIGINT or SIGTERM. The returned
// channel closes when shutdown has finished.
func (c *Coordinator) HandleSignals() <-chan struct{} {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	finished := make(chan struct{})
	go func() {
		defer close(finished)
		select {
		case sig := <-sigCh:
			c.logger.Info("signal received",
				map[string]interface{}{"signal": sig.String()})
			c.Shutdown(context.Background())
		case <-c.done:
		}
		signal.Stop(sigCh)
	}()
	return finished
}

// Done closes once shutdown has completed.
func (c *Coordinator) Done() <-chan struct{} {
	return c.done
}

package shutdown

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/psantana5/intcheck/pkg/logging"
)

type step struct {
	name string
	fn   func(context.Context) error
}

// Manager runs registered shutdown steps in reverse order of registration
type Manager struct {
	steps   []step
	mu      sync.Mutex
	timeout time.Duration
	logger  *logging.Logger
	once    sync.Once
}

// New creates a shutdown manager whose steps share one overall timeout
func New(timeout time.Duration, logger *logging.Logger) *Manager {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Manager{
		timeout: timeout,
		logger:  logger.Component("shutdown"),
	}
}

// Register adds a named shutdown step. Steps run LIFO.
func (m *Manager) Register(name string, fn func(context.Context) error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.steps = append(m.steps, step{name: name, fn: fn})
}

// NotifyContext returns a context cancelled on SIGINT or SIGTERM
func NotifyContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

// Shutdown runs every step once, newest first, and returns all step errors.
// Later calls do nothing.
func (m *Manager) Shutdown() error {
	var err error
	m.once.Do(func() {
		err = m.run()
	})
	return err
}

func (m *Manager) run() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
	defer cancel()

	m.logger.Info("initiating graceful shutdown", logging.Fields{"steps": len(m.steps)})

	var errs []error
	for i := len(m.steps) - 1; i >= 0; i-- {
		s := m.steps[i]
		if err := s.fn(ctx); err != nil {
			m.logger.Error("shutdown step failed", logging.Fields{"step": s.name, "error": err.Error()})
			errs = append(errs, fmt.Errorf("%s: %w", s.name, err))
			continue
		}
		m.logger.Debug("shutdown step done", logging.Fields{"step": s.name})
	}

	m.logger.Info("graceful shutdown complete")
	return errors.Join(errs...)
}

// StopHTTPServer creates a shutdown step for an http.Server
func StopHTTPServer(server interface{ Shutdown(context.Context) error }) func(context.Context) error {
	return func(ctx context.Context) error {
		if err := server.Shutdown(ctx); err != nil {
			return fmt.Errorf("failed to stop HTTP server: %w", err)
		}
		return nil
	}
}

// WaitFor creates a shutdown step that waits for wait to return, giving up
// when the shutdown timeout expires.
func WaitFor(wait func()) func(context.Context) error {
	return func(ctx context.Context) error {
		done := make(chan struct{})
		go func() {
			wait()
			close(done)
		}()
		select {
		case <-done:
			return nil
		case <-ctx.Done():
			return fmt.Errorf("timed out waiting: %w", ctx.Err())
		}
	}
}

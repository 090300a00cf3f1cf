package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// ShutdownFunc stops one component. It must respect ctx cancellation:
// the deadline shared by all hooks lives in the context it receives.
type ShutdownFunc func(ctx context.Context) error

type hook struct {
	name string
	fn   ShutdownFunc
}

// Manager owns the teardown order of the process. Components register
// themselves as they start; on shutdown they stop in reverse order, so
// the HTTP server drains before the stores behind it close.
type Manager struct {
	timeout time.Duration
	logger  *zap.Logger

	mu    sync.Mutex
	hooks []hook
}

// New creates a lifecycle manager. The timeout bounds the entire
// shutdown sequence, not each hook individually.
func New(timeout time.Duration, logger *zap.Logger) *Manager {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		timeout: timeout,
		logger:  logger,
	}
}

// Register adds a shutdown hook. Later registrations stop first.
func (m *Manager) Register(name string, fn ShutdownFunc) {
	if fn == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hooks = append(m.hooks, hook{name: name, fn: fn})
}

// Shutdown runs the registered hooks in reverse registration order.
// Hook failures are collected, not fatal: every component gets its
// chance to stop. Once the deadline passes the remaining hooks are
// skipped rather than started against an already-expired context.
func (m *Manager) Shutdown(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if m.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var result error
	for i := len(m.hooks) - 1; i >= 0; i-- {
		h := m.hooks[i]

		if err := ctx.Err(); err != nil {
			m.logger.Warn("shutdown deadline passed, component skipped",
				zap.String("component", h.name))
			result = errors.Join(result, fmt.Errorf("%s skipped: %w", h.name, err))
			continue
		}

		start := time.Now()
		if err := h.fn(ctx); err != nil {
			m.logger.Error("component failed to stop",
				zap.String("component", h.name),
				zap.Duration("elapsed", time.Since(start)),
				zap.Error(err))
			result = errors.Join(result, fmt.Errorf("%s: %w", h.name, err))
			continue
		}
		m.logger.Info("component stopped",
			zap.String("component", h.name),
			zap.Duration("elapsed", time.Since(start)))
	}
	return result
}

// Listen invokes cancel once the process receives SIGTERM or SIGINT.
func (m *Manager) Listen(cancel context.CancelFunc) {
	if cancel == nil {
		return
	}
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)

	go func() {
		defer signal.Stop(sigCh)
		sig := <-sigCh
		m.logger.Info("shutdown signal received", zap.String("signal", sig.String()))
		cancel()
	}()
}

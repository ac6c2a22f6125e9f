// Package core runs the application's components: ordered start with
// rollback, reverse-order stop, and signal-driven shutdown.
package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"
)

// DefaultShutdownTimeout bounds the whole stop sequence.
const DefaultShutdownTimeout = 30 * time.Second

// ErrNoLifecycle is returned by Add for a component that neither starts nor stops.
var ErrNoLifecycle = errors.New("core: component implements neither Starter nor Stopper")

// Option configures an App.
type Option func(*App)

// WithShutdownTimeout overrides DefaultShutdownTimeout.
func WithShutdownTimeout(d time.Duration) Option {
	return func(a *App) {
		if d > 0 {
			a.shutdownTimeout = d
		}
	}
}

// WithSignals overrides the signals that trigger shutdown in Run.
func WithSignals(sigs ...os.Signal) Option {
	return func(a *App) { a.signals = sigs }
}

// App manages the lifecycle of a set of components.
type App struct {
	components      []component
	logger          *slog.Logger
	shutdownTimeout time.Duration
	signals         []os.Signal
}

type component struct {
	name    string
	unit    any
	started bool
}

// NewApp creates an empty App.
func NewApp(logger *slog.Logger, opts ...Option) *App {
	if logger == nil {
		logger = slog.Default()
	}
	a := &App{
		logger:          logger.With("component", "core"),
		shutdownTimeout: DefaultShutdownTimeout,
		signals:         []os.Signal{syscall.SIGINT, syscall.SIGTERM},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Add appends a component. Components start in the order they are added.
func (a *App) Add(name string, unit any) error {
	_, starts := unit.(Starter)
	_, stops := unit.(Stopper)
	if !starts && !stops {
		return fmt.Errorf("%w: %s (%T)", ErrNoLifecycle, name, unit)
	}
	a.components = append(a.components, component{name: name, unit: unit})
	return nil
}

// Names returns the component names in start order.
func (a *App) Names() []string {
	names := make([]string, len(a.components))
	for i, c := range a.components {
		names[i] = c.name
	}
	return names
}

// Validate runs Validate on every component that implements Validator.
func (a *App) Validate() error {
	var errs []error
	for _, c := range a.components {
		if v, ok := c.unit.(Validator); ok {
			if err := v.Validate(); err != nil {
				errs = append(errs, fmt.Errorf("validating %s: %w", c.name, err))
			}
		}
	}
	return errors.Join(errs...)
}

// Start validates, then starts every Starter in order. Stop-only components
// are marked started so they are stopped on shutdown. If any Start fails,
// components started so far are stopped in reverse order.
func (a *App) Start(ctx context.Context) error {
	if err := a.Validate(); err != nil {
		return err
	}

	for i := range a.components {
		c := &a.components[i]
		if s, ok := c.unit.(Starter); ok {
			a.logger.Info("starting component", "name", c.name)
			if err := s.Start(ctx); err != nil {
				a.logger.Error("component start failed", "name", c.name, "error", err)
				_ = a.stopFrom(i - 1)
				return fmt.Errorf("starting %s: %w", c.name, err)
			}
		}
		c.started = true
	}
	a.logger.Info("all components started", "count", len(a.components))
	return nil
}

// Stop stops all started components in reverse order. Errors are logged and
// joined; a failing component does not prevent the others from stopping.
func (a *App) Stop() error {
	return a.stopFrom(len(a.components) - 1)
}

func (a *App) stopFrom(fromIndex int) error {
	ctx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
	defer cancel()

	var errs []error
	for i := fromIndex; i >= 0; i-- {
		c := &a.components[i]
		if !c.started {
			continue
		}
		c.started = false
		s, ok := c.unit.(Stopper)
		if !ok {
			continue
		}
		a.logger.Info("stopping component", "name", c.name)
		if err := s.Stop(ctx); err != nil {
			a.logger.Error("component stop error", "name", c.name, "error", err)
			errs = append(errs, fmt.Errorf("stopping %s: %w", c.name, err))
		}
	}
	return errors.Join(errs...)
}

// Run starts all components and blocks until a shutdown signal is received
// or ctx is canceled, then stops them.
func (a *App) Run(ctx context.Context) error {
	if err := a.Start(ctx); err != nil {
		return err
	}

	sigCtx, stop := signal.NotifyContext(ctx, a.signals...)
	defer stop()

	<-sigCtx.Done()
	if ctx.Err() != nil {
		a.logger.Info("shutdown requested", "reason", context.Cause(ctx))
	} else {
		a.logger.Info("shutdown signal received")
	}

	err := a.Stop()
	a.logger.Info("shutdown complete")
	return err
}

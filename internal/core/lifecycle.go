package core

import "context"

// Validator is implemented by components that can verify their configuration
// is complete and correct. Called for every component before any starts.
// Validate should be read-only, with no side effects.
type Validator interface {
	Validate() error
}

// Starter is implemented by components that need to start background work
// (goroutines, listeners, registrations).
type Starter interface {
	Start(ctx context.Context) error
}

// Stopper is implemented by components that need to clean up resources.
// Called during shutdown in reverse order of Start().
type Stopper interface {
	Stop(ctx context.Context) error
}

// StopFunc adapts a cleanup function to Stopper.
type StopFunc func(ctx context.Context) error

// Stop implements Stopper.
func (f StopFunc) Stop(ctx context.Context) error { return f(ctx) }

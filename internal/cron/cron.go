// Package cron runs periodic background jobs such as the keep-alive ping.
package cron

import "context"

// Job defines a periodic background task.
type Job interface {
	// Name returns a unique identifier for this job (used for logging and dedup).
	Name() string

	// Schedule returns a 5-field cron expression (e.g., "*/5 * * * *") or a
	// descriptor such as "@hourly" or "@every 30s".
	Schedule() string

	// Run executes the job. Implementations should check ctx.Done() for
	// graceful cancellation.
	Run(ctx context.Context) error
}

// Eager is implemented by jobs that also run once as soon as the scheduler
// starts, instead of waiting for the first tick.
type Eager interface {
	RunOnStart() bool
}

// Parse validates a schedule expression with the scheduler's parser.
func Parse(expr string) error {
	_, err := parser.Parse(expr)
	return err
}

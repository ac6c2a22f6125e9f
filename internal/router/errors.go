// Package router classifies inbound events and runs the matching handler:
// join requests are approved and welcomed, departures from the managed
// channel get a farewell, and private messages get the auto-reply.
package router

import (
	"errors"
	"fmt"

	"github.com/flemzord/doorman/internal/platform"
	"github.com/flemzord/doorman/pkg/event"
)

// Sentinel errors for router construction.
var (
	// ErrNoMessenger indicates no platform client was configured.
	ErrNoMessenger = errors.New("router: no messenger configured")

	// ErrNoFormatter indicates no message formatter was configured.
	ErrNoFormatter = errors.New("router: no formatter configured")

	// ErrTemplateField indicates a template uses a field the event that
	// renders it never carries.
	ErrTemplateField = errors.New("router: template uses a field unavailable for its event")
)

// Step names the handler stage that failed.
type Step string

// Handler steps.
const (
	StepApprove Step = "approve"
	StepFormat  Step = "format"
	StepSend    Step = "send"
)

// HandlerError is a non-fatal failure while handling one event. It is
// carried in Result and never aborts the process.
type HandlerError struct {
	Kind   event.Kind
	Step   Step
	UserID int64
	Err    error
}

// Error implements the error interface.
func (e *HandlerError) Error() string {
	return fmt.Sprintf("router: %s %s for user %d: %v", e.Kind, e.Step, e.UserID, e.Err)
}

// Unwrap returns the underlying cause.
func (e *HandlerError) Unwrap() error {
	return e.Err
}

// Unreachable reports whether the failure is a recipient that cannot be
// messaged (blocked the bot or never started it).
func (e *HandlerError) Unreachable() bool {
	return platform.IsUnreachable(e.Err)
}

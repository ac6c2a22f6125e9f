package router

import (
	"errors"

	"github.com/flemzord/doorman/pkg/event"
)

// Outcome summarises how an event was handled.
type Outcome string

// Dispatch outcomes.
const (
	OutcomeHandled Outcome = "handled"
	OutcomeIgnored Outcome = "ignored"
	OutcomeFailed  Outcome = "failed"
)

// Result describes one Dispatch call.
type Result struct {
	// ID identifies the dispatch in logs and traces.
	ID   string
	Kind event.Kind
	// Outcome is Handled when every call succeeded, Ignored when the event
	// required no action, Failed otherwise.
	Outcome Outcome
	// Calls counts outbound platform calls attempted, successful or not.
	Calls int
	// Reason explains an Ignored outcome.
	Reason string
	// Err is a *HandlerError when Outcome is Failed.
	Err error
}

// Unreachable reports whether the dispatch failed only because the
// recipient cannot be messaged.
func (r Result) Unreachable() bool {
	var he *HandlerError
	return errors.As(r.Err, &he) && he.Unreachable()
}

// Package routertest provides test doubles for consumers of the router.
package routertest

import (
	"context"
	"slices"
	"sync"

	"github.com/flemzord/doorman/internal/router"
	"github.com/flemzord/doorman/pkg/event"
)

// MockDispatcher records dispatched events. DispatchFunc, if set, computes
// the result; otherwise every event is reported as handled.
type MockDispatcher struct {
	DispatchFunc func(ctx context.Context, ev event.InboundEvent) router.Result

	mu     sync.Mutex
	events []event.InboundEvent
	ctxs   []context.Context
}

// Dispatch records ev and returns the configured result.
func (m *MockDispatcher) Dispatch(ctx context.Context, ev event.InboundEvent) router.Result {
	m.mu.Lock()
	m.events = append(m.events, ev)
	m.ctxs = append(m.ctxs, ctx)
	fn := m.DispatchFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, ev)
	}
	return router.Result{ID: "test", Kind: ev.Kind(), Outcome: router.OutcomeHandled}
}

// Events returns a copy of the dispatched events.
func (m *MockDispatcher) Events() []event.InboundEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.events)
}

// Contexts returns the contexts the events were dispatched with.
func (m *MockDispatcher) Contexts() []context.Context {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.ctxs)
}

package router

import (
	"context"
	"fmt"

	"github.com/flemzord/doorman/internal/format"
	"github.com/flemzord/doorman/pkg/event"
)

// ignoredError marks an event that needs no action. It never leaves the package.
type ignoredError struct {
	reason string
}

func (e *ignoredError) Error() string { return "ignored: " + e.reason }

func ignore(reason string, args ...any) error {
	return &ignoredError{reason: fmt.Sprintf(reason, args...)}
}

// handleJoinRequest approves the request, then welcomes the requester.
// The welcome is not sent when the approval fails.
func (r *Router) handleJoinRequest(ctx context.Context, e event.JoinRequest) (int, error) {
	if !r.policy.AcceptsJoinRequest(e.Chat) {
		return 0, ignore("join request for chat %d", e.Chat.ID)
	}

	if err := r.messenger.ApproveJoinRequest(ctx, e.Chat.ID, e.Actor.ID); err != nil {
		return 1, r.fail(e, StepApprove, err)
	}

	calls, err := r.send(ctx, e, format.Welcome, format.FieldsFor(e.Actor, e.Chat))
	return 1 + calls, err
}

// handleMemberStatus sends a farewell when the member left or was removed.
func (r *Router) handleMemberStatus(ctx context.Context, e event.MemberStatus) (int, error) {
	if !r.policy.AcceptsMemberStatus(e.Chat) {
		return 0, ignore("member status for chat %d", e.Chat.ID)
	}
	if !e.NewStatus.IsDeparture() {
		return 0, ignore("status %q is not a departure", e.NewStatus)
	}

	return r.send(ctx, e, format.Farewell, format.FieldsFor(e.Actor, e.Chat))
}

// handlePrivateMessage answers every private message with the auto-reply.
// The inbound text is never echoed.
func (r *Router) handlePrivateMessage(ctx context.Context, e event.PrivateMessage) (int, error) {
	return r.send(ctx, e, format.AutoReply, format.FieldsFor(e.Actor, e.Chat))
}

// send renders kind for fields and delivers it to the event's actor. It
// returns the number of calls made, which is 0 when rendering fails.
func (r *Router) send(ctx context.Context, ev event.InboundEvent, kind format.TemplateKind, fields format.Fields) (int, error) {
	msg, err := r.formatter.Format(kind, fields)
	if err != nil {
		return 0, r.fail(ev, StepFormat, err)
	}
	if err := r.messenger.SendMessage(ctx, msg); err != nil {
		return 1, r.fail(ev, StepSend, err)
	}
	return 1, nil
}

func (r *Router) fail(ev event.InboundEvent, step Step, err error) *HandlerError {
	actor, _ := event.Actor(ev)
	return &HandlerError{Kind: ev.Kind(), Step: step, UserID: actor.ID, Err: err}
}

package router

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/flemzord/doorman/internal/format"
	"github.com/flemzord/doorman/internal/metrics"
	"github.com/flemzord/doorman/internal/platform"
	"github.com/flemzord/doorman/internal/telemetry"
	"github.com/flemzord/doorman/pkg/event"
)

// Config holds the configuration for a Router.
type Config struct {
	Messenger      platform.Messenger
	Formatter      *format.Formatter
	Policy         Policy
	Logger         *slog.Logger
	Metrics        *metrics.Metrics
	TracerProvider trace.TracerProvider

	// NewID generates dispatch ids. Nil uses random UUIDs.
	NewID func() string
}

// withDefaults returns a copy of the config with zero values replaced by defaults.
func (c Config) withDefaults() Config {
	c.Policy = c.Policy.withDefaults()
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	if c.NewID == nil {
		c.NewID = uuid.NewString
	}
	return c
}

// Router turns inbound events into platform calls. It holds no mutable
// state and is safe for concurrent use.
type Router struct {
	messenger platform.Messenger
	formatter *format.Formatter
	policy    Policy
	logger    *slog.Logger
	metrics   *metrics.Metrics
	tracer    trace.Tracer
	newID     func() string
}

// New creates a Router. The formatter must know every template the
// handlers render.
func New(cfg Config) (*Router, error) {
	cfg = cfg.withDefaults()

	if cfg.Messenger == nil {
		return nil, ErrNoMessenger
	}
	if cfg.Formatter == nil {
		return nil, ErrNoFormatter
	}
	if err := cfg.Policy.Validate(); err != nil {
		return nil, err
	}
	if err := checkTemplates(cfg.Formatter); err != nil {
		return nil, err
	}

	return &Router{
		messenger: cfg.Messenger,
		formatter: cfg.Formatter,
		policy:    cfg.Policy,
		logger:    cfg.Logger,
		metrics:   cfg.Metrics,
		tracer:    telemetry.Tracer(cfg.TracerProvider),
		newID:     cfg.NewID,
	}, nil
}

// checkTemplates ensures every handler's template exists and that the
// auto-reply does not depend on a chat title, which private chats lack.
func checkTemplates(f *format.Formatter) error {
	for _, kind := range []format.TemplateKind{format.Welcome, format.Farewell, format.AutoReply} {
		fields, err := f.Fields(kind)
		if err != nil {
			return fmt.Errorf("router: %w", err)
		}
		if kind == format.AutoReply && slices.Contains(fields, format.FieldChatTitle) {
			return fmt.Errorf("%w: %s uses {%s}", ErrTemplateField, kind, format.FieldChatTitle)
		}
	}
	return nil
}

// Dispatch handles one inbound event. It never panics on unexpected input
// and never returns an error: failures are reported in the Result and
// logged here, once.
func (r *Router) Dispatch(ctx context.Context, ev event.InboundEvent) Result {
	if ev == nil {
		ev = event.Unknown{Reason: "nil event"}
	}

	res := Result{ID: r.newID(), Kind: ev.Kind()}
	start := time.Now()

	ctx, span := r.tracer.Start(ctx, "router.dispatch", trace.WithAttributes(
		attribute.String("dispatch.id", res.ID),
		attribute.String("event.kind", string(res.Kind)),
		attribute.Int("event.update_id", ev.Update()),
	))
	defer span.End()

	var err error
	switch e := ev.(type) {
	case event.JoinRequest:
		res.Calls, err = r.handleJoinRequest(ctx, e)
	case event.MemberStatus:
		res.Calls, err = r.handleMemberStatus(ctx, e)
	case event.PrivateMessage:
		res.Calls, err = r.handlePrivateMessage(ctx, e)
	case event.Unknown:
		err = ignore("%s", e.Reason)
	default:
		err = ignore("unhandled event type %T", ev)
	}

	var ignored *ignoredError
	switch {
	case err == nil:
		res.Outcome = OutcomeHandled
	case errors.As(err, &ignored):
		res.Outcome = OutcomeIgnored
		res.Reason = ignored.reason
	default:
		res.Outcome = OutcomeFailed
		res.Err = err
	}

	elapsed := time.Since(start)
	span.SetAttributes(
		attribute.String("dispatch.outcome", string(res.Outcome)),
		attribute.Int("dispatch.calls", res.Calls),
	)
	if res.Outcome == OutcomeFailed {
		span.RecordError(res.Err)
		span.SetStatus(codes.Error, res.Err.Error())
	}
	r.metrics.ObserveDispatch(string(res.Kind), string(res.Outcome), elapsed)
	r.logResult(ctx, ev, res, elapsed)

	return res
}

// logResult is the single logging point for dispatch outcomes.
func (r *Router) logResult(ctx context.Context, ev event.InboundEvent, res Result, elapsed time.Duration) {
	attrs := []slog.Attr{
		slog.String("dispatch_id", res.ID),
		slog.String("kind", string(res.Kind)),
		slog.Int("update_id", ev.Update()),
		slog.String("outcome", string(res.Outcome)),
		slog.Int("calls", res.Calls),
		slog.Duration("duration", elapsed),
	}
	if actor, ok := event.Actor(ev); ok {
		attrs = append(attrs,
			slog.Int64("user_id", actor.ID),
			slog.String("user", actor.FullName()),
		)
	}
	if chat, ok := event.TargetChat(ev); ok {
		attrs = append(attrs, slog.Int64("chat_id", chat.ID))
	}

	switch {
	case res.Outcome == OutcomeHandled:
		r.logger.LogAttrs(ctx, slog.LevelInfo, "event handled", attrs...)
	case res.Outcome == OutcomeIgnored:
		attrs = append(attrs, slog.String("reason", res.Reason))
		r.logger.LogAttrs(ctx, slog.LevelDebug, "event ignored", attrs...)
	case res.Unreachable():
		attrs = append(attrs, slog.Any("error", res.Err))
		r.logger.LogAttrs(ctx, slog.LevelWarn, "recipient unreachable", attrs...)
	default:
		attrs = append(attrs, slog.Any("error", res.Err))
		r.logger.LogAttrs(ctx, slog.LevelError, "event handling failed", attrs...)
	}
}

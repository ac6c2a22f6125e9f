package gateway

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/flemzord/doorman/internal/metrics"
	"github.com/flemzord/doorman/internal/security"
	"github.com/flemzord/doorman/pkg/event"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// webhookAck is the body of every webhook response.
const webhookAck = "OK"

// handleWebhook acknowledges every delivery with 200 OK. Rejected or
// undecodable deliveries are logged and counted; the platform would
// otherwise redeliver them indefinitely.
func (g *Gateway) handleWebhook() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := g.tracer.Start(r.Context(), "gateway.webhook", trace.WithSpanKind(trace.SpanKindServer))
		defer span.End()

		defer func() {
			if rec := recover(); rec != nil {
				g.logger.Error("webhook handler panicked",
					"panic", rec,
					"stack", string(debug.Stack()),
				)
				g.metrics.ObserveWebhook(metrics.WebhookPanic)
				span.SetStatus(codes.Error, "panic")
			}
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(webhookAck))
		}()

		ev, result, err := g.receive(w, r)
		span.SetAttributes(attribute.String("webhook.result", result))
		if err != nil {
			g.metrics.ObserveWebhook(result)
			span.RecordError(err)
			level := slog.LevelWarn
			if result == metrics.WebhookDecodeError {
				level = slog.LevelError
			}
			g.logger.Log(ctx, level, "webhook delivery dropped",
				"result", result,
				"error", err,
				"remote_addr", r.RemoteAddr,
				"content_length", r.ContentLength,
			)
			return
		}

		// The platform may drop the connection once it has waited long
		// enough; outbound sends for this update still complete.
		dispatchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), g.config.DispatchTimeout)
		defer cancel()

		res := g.dispatcher.Dispatch(dispatchCtx, ev)
		g.metrics.ObserveWebhook(metrics.WebhookAccepted)
		span.SetAttributes(
			attribute.String("dispatch.id", res.ID),
			attribute.String("dispatch.outcome", string(res.Outcome)),
		)
	}
}

// receive reads, bounds and decodes the request body. It returns the
// metrics label describing the outcome.
func (g *Gateway) receive(w http.ResponseWriter, r *http.Request) (event.InboundEvent, string, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, g.config.MaxBodyBytes))
	if err != nil {
		return nil, metrics.WebhookDecodeError, errors.Join(event.ErrDecode, err)
	}
	if err := security.ValidateJSONDepth(body, 0); err != nil {
		return nil, metrics.WebhookDecodeError, errors.Join(event.ErrDecode, err)
	}

	ev, err := g.receiver.Receive(body, r.Header)
	switch {
	case err == nil:
		return ev, metrics.WebhookAccepted, nil
	case errors.Is(err, event.ErrDecode):
		return nil, metrics.WebhookDecodeError, err
	default:
		// Anything else from the receiver is an authentication failure.
		return nil, metrics.WebhookUnauthorized, err
	}
}

package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/flemzord/doorman/internal/metrics"
	"github.com/flemzord/doorman/internal/platform"
	"github.com/flemzord/doorman/internal/telemetry"
	"github.com/flemzord/doorman/pkg/message"
)

// Compile-time interface guard.
var _ platform.Client = (*Client)(nil)

// Client is a platform.Client backed by the Telegram Bot API.
//
// The underlying library does not take a context, so cancellation is
// honoured between attempts and during rate-limit backoff; a single
// in-flight request is bounded by the HTTP client timeout.
type Client struct {
	bot        *tgbotapi.BotAPI
	http       *http.Client
	logger     *slog.Logger
	metrics    *metrics.Metrics
	tracer     trace.Tracer
	maxRetries int
	retryUnit  time.Duration // length of one retry_after second
}

// Option customizes a Client.
type Option func(*Client)

// WithLogger sets the client logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithMetrics records every call on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithTracerProvider wraps every call in a client span.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *Client) { c.tracer = telemetry.Tracer(tp) }
}

// WithHTTPClient replaces the HTTP client. Its timeout is left untouched.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// NewClient creates a client and verifies the token with getMe.
func NewClient(cfg Config, opts ...Option) (*Client, error) {
	cfg.Defaults()

	c := &Client{
		http:       &http.Client{Timeout: cfg.Timeout},
		logger:     slog.Default(),
		tracer:     telemetry.Tracer(nil),
		maxRetries: cfg.MaxRetries,
		retryUnit:  time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}

	start := time.Now()
	bot, err := tgbotapi.NewBotAPIWithClient(cfg.Token, cfg.endpoint(), c.http)
	if err != nil {
		ce := toCallError("getMe", err)
		c.metrics.ObservePlatformCall("getMe", resultLabel(ce), time.Since(start))
		return nil, fmt.Errorf("telegram: getMe failed (check token): %w", ce)
	}
	c.metrics.ObservePlatformCall("getMe", metrics.ResultOK, time.Since(start))
	c.bot = bot

	c.logger.Info("telegram bot authenticated",
		"id", bot.Self.ID,
		"username", bot.Self.UserName,
	)
	return c, nil
}

// BotUsername returns the bot's @username as reported by getMe.
func (c *Client) BotUsername() string {
	return c.bot.Self.UserName
}

// ApproveJoinRequest implements platform.Messenger.
func (c *Client) ApproveJoinRequest(ctx context.Context, chatID, userID int64) error {
	cfg := tgbotapi.ApproveChatJoinRequestConfig{
		ChatConfig: tgbotapi.ChatConfig{ChatID: chatID},
		UserID:     userID,
	}
	return c.call(ctx, "approveChatJoinRequest", func() (*tgbotapi.APIResponse, error) {
		return c.bot.Request(cfg)
	}, attribute.Int64("telegram.chat_id", chatID), attribute.Int64("telegram.user_id", userID))
}

// SendMessage implements platform.Messenger.
func (c *Client) SendMessage(ctx context.Context, msg message.OutboundMessage) error {
	cfg := toMessageConfig(msg)
	return c.call(ctx, "sendMessage", func() (*tgbotapi.APIResponse, error) {
		return c.bot.Request(cfg)
	}, attribute.Int64("telegram.chat_id", msg.ChatID))
}

// SetWebhook implements platform.WebhookRegistrar.
func (c *Client) SetWebhook(ctx context.Context, cfg platform.WebhookConfig) error {
	params := tgbotapi.Params{"url": cfg.URL}
	params.AddNonEmpty("secret_token", cfg.Secret)
	if len(cfg.AllowedUpdates) > 0 {
		if err := params.AddInterface("allowed_updates", cfg.AllowedUpdates); err != nil {
			return fmt.Errorf("telegram: encode allowed_updates: %w", err)
		}
	}
	return c.call(ctx, "setWebhook", func() (*tgbotapi.APIResponse, error) {
		return c.bot.MakeRequest("setWebhook", params)
	})
}

// DeleteWebhook implements platform.WebhookRegistrar.
func (c *Client) DeleteWebhook(ctx context.Context, dropPending bool) error {
	cfg := tgbotapi.DeleteWebhookConfig{DropPendingUpdates: dropPending}
	return c.call(ctx, "deleteWebhook", func() (*tgbotapi.APIResponse, error) {
		return c.bot.Request(cfg)
	})
}

// webhookInfo mirrors the getWebhookInfo result fields the bot reports.
type webhookInfo struct {
	URL                string `json:"url"`
	PendingUpdateCount int    `json:"pending_update_count"`
	MaxConnections     int    `json:"max_connections"`
	LastErrorDate      int64  `json:"last_error_date"`
	LastErrorMessage   string `json:"last_error_message"`
}

// WebhookInfo implements platform.WebhookRegistrar.
func (c *Client) WebhookInfo(ctx context.Context) (platform.WebhookStatus, error) {
	var info webhookInfo
	err := c.call(ctx, "getWebhookInfo", func() (*tgbotapi.APIResponse, error) {
		resp, err := c.bot.MakeRequest("getWebhookInfo", nil)
		if err != nil {
			return resp, err
		}
		return resp, json.Unmarshal(resp.Result, &info)
	})
	if err != nil {
		return platform.WebhookStatus{}, err
	}
	return platform.WebhookStatus{
		URL:                info.URL,
		PendingUpdateCount: info.PendingUpdateCount,
		MaxConnections:     info.MaxConnections,
		LastErrorDate:      info.LastErrorDate,
		LastErrorMessage:   info.LastErrorMessage,
	}, nil
}

// Close releases idle HTTP connections.
func (c *Client) Close() {
	c.http.CloseIdleConnections()
}

// call runs fn inside a span, records metrics and retries on 429.
func (c *Client) call(ctx context.Context, method string, fn func() (*tgbotapi.APIResponse, error), attrs ...attribute.KeyValue) error {
	ctx, span := c.tracer.Start(ctx, "telegram."+method,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(append(attrs, attribute.String("telegram.method", method))...),
	)
	defer span.End()

	start := time.Now()
	err := c.retry(ctx, method, fn)
	c.metrics.ObservePlatformCall(method, resultLabel(err), time.Since(start))

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

// retry handles 429 rate limiting with retry_after (exponential backoff
// when the platform gives no hint).
func (c *Client) retry(ctx context.Context, method string, fn func() (*tgbotapi.APIResponse, error)) error {
	backoff := c.retryUnit

	for attempt := range c.maxRetries {
		if err := ctx.Err(); err != nil {
			return &platform.CallError{Method: method, Err: err}
		}

		_, err := fn()
		if err == nil {
			return nil
		}

		ce := toCallError(method, err)
		if ce.Code != http.StatusTooManyRequests || attempt == c.maxRetries-1 {
			return ce
		}

		if ce.RetryAfter > 0 {
			backoff = time.Duration(ce.RetryAfter) * c.retryUnit
		}
		c.metrics.ObservePlatformRetry(method)
		c.logger.Warn("telegram rate limited, retrying",
			"method", method,
			"attempt", attempt+1,
			"backoff", backoff,
		)

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return &platform.CallError{Method: method, Err: ctx.Err()}
		case <-timer.C:
		}
		backoff *= 2
	}

	return &platform.CallError{Method: method, Err: errors.New("max retries exceeded")}
}

// toCallError maps library errors to *platform.CallError. Transport errors
// are unwrapped past *url.Error, whose message carries the token-bearing URL.
func toCallError(method string, err error) *platform.CallError {
	var apiErr *tgbotapi.Error
	if errors.As(err, &apiErr) {
		return &platform.CallError{
			Method:      method,
			Code:        apiErr.Code,
			Description: apiErr.Message,
			RetryAfter:  apiErr.RetryAfter,
		}
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return &platform.CallError{Method: method, Err: urlErr.Err}
	}
	return &platform.CallError{Method: method, Err: err}
}

func resultLabel(err error) string {
	var ce *platform.CallError
	switch {
	case err == nil:
		return metrics.ResultOK
	case errors.As(err, &ce) && ce.Unreachable():
		return metrics.ResultUnreachable
	case errors.Is(err, platform.ErrRateLimited):
		return metrics.ResultRateLimited
	default:
		return metrics.ResultError
	}
}

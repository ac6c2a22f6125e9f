// Package gateway serves the bot's HTTP surface: the platform webhook, the
// liveness probe, and the operational endpoints (health, metrics, status).
package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/flemzord/doorman/internal/metrics"
	"github.com/flemzord/doorman/internal/platform"
	"github.com/flemzord/doorman/internal/router"
	"github.com/flemzord/doorman/internal/telemetry"
	"github.com/flemzord/doorman/pkg/event"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/trace"
)

// Receiver authenticates and decodes one webhook delivery.
type Receiver interface {
	Receive(body []byte, headers http.Header) (event.InboundEvent, error)
}

// Dispatcher handles one decoded event.
type Dispatcher interface {
	Dispatch(ctx context.Context, ev event.InboundEvent) router.Result
}

// StatusSource reports the webhook as registered with the platform.
type StatusSource interface {
	WebhookInfo(ctx context.Context) (platform.WebhookStatus, error)
}

// Params are the gateway's dependencies. Receiver and Dispatcher are required.
type Params struct {
	Config     Config
	Receiver   Receiver
	Dispatcher Dispatcher

	// Optional.
	Metrics        *metrics.Metrics
	Gatherer       prometheus.Gatherer
	Status         StatusSource
	TracerProvider trace.TracerProvider
	Logger         *slog.Logger
	Version        string
}

// Gateway is the HTTP server. It implements the core lifecycle.
type Gateway struct {
	config     Config
	receiver   Receiver
	dispatcher Dispatcher
	metrics    *metrics.Metrics
	gatherer   prometheus.Gatherer
	status     StatusSource
	tracer     trace.Tracer
	logger     *slog.Logger
	version    string
	startedAt  time.Time
	handler    http.Handler

	mu     sync.Mutex
	server *http.Server
	addr   net.Addr
}

// New validates params and builds the route table.
func New(p Params) (*Gateway, error) {
	if p.Receiver == nil {
		return nil, errors.New("gateway: receiver is required")
	}
	if p.Dispatcher == nil {
		return nil, errors.New("gateway: dispatcher is required")
	}
	p.Config.Defaults()
	if err := p.Config.Validate(); err != nil {
		return nil, err
	}
	if p.Logger == nil {
		p.Logger = slog.New(slog.DiscardHandler)
	}

	g := &Gateway{
		config:     p.Config,
		receiver:   p.Receiver,
		dispatcher: p.Dispatcher,
		metrics:    p.Metrics,
		gatherer:   p.Gatherer,
		status:     p.Status,
		tracer:     telemetry.Tracer(p.TracerProvider),
		logger:     p.Logger,
		version:    p.Version,
		startedAt:  time.Now(),
	}
	g.handler = g.buildRouter()
	return g, nil
}

// Handler returns the gateway's root handler.
func (g *Gateway) Handler() http.Handler {
	return g.handler
}

// Addr returns the bound listen address, or nil before Start.
func (g *Gateway) Addr() net.Addr {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.addr
}

// Start binds the listener and serves in the background.
func (g *Gateway) Start(ctx context.Context) error {
	server := &http.Server{
		Handler:      g.handler,
		ReadTimeout:  g.config.ReadTimeout,
		WriteTimeout: g.config.WriteTimeout,
		ErrorLog:     slog.NewLogLogger(g.logger.Handler(), slog.LevelWarn),
	}

	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", g.config.Addr())
	if err != nil {
		return fmt.Errorf("gateway: listen failed: %w", err)
	}

	g.mu.Lock()
	g.server = server
	g.addr = ln.Addr()
	g.mu.Unlock()

	go func() {
		g.logger.Info("gateway listening", "addr", ln.Addr().String(), "webhook_path", g.config.WebhookPath)
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			g.logger.Error("gateway serve error", "error", err)
		}
	}()

	return nil
}

// Stop shuts the server down gracefully within the configured timeout.
func (g *Gateway) Stop(ctx context.Context) error {
	g.mu.Lock()
	server := g.server
	g.mu.Unlock()
	if server == nil {
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, g.config.ShutdownTimeout)
	defer cancel()

	g.logger.Info("gateway shutting down")
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("gateway: shutdown: %w", err)
	}
	return nil
}

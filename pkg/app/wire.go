package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/flemzord/doorman/internal/config"
	"github.com/flemzord/doorman/internal/core"
	"github.com/flemzord/doorman/internal/cron"
	"github.com/flemzord/doorman/internal/format"
	"github.com/flemzord/doorman/internal/gateway"
	"github.com/flemzord/doorman/internal/keepalive"
	"github.com/flemzord/doorman/internal/metrics"
	"github.com/flemzord/doorman/internal/router"
	"github.com/flemzord/doorman/internal/security"
	"github.com/flemzord/doorman/internal/telemetry"
	"github.com/flemzord/doorman/modules/channel/telegram"
)

// Options tunes Build.
type Options struct {
	Version   string
	LogOutput io.Writer

	// HTTPClient is used for the keep-alive pinger. Nil builds one from
	// the keep-alive timeout.
	HTTPClient *http.Client
}

// Bot is the wired application.
type Bot struct {
	App       *core.App
	Logger    *slog.Logger
	Registry  *prometheus.Registry
	Client    *telegram.Client
	Router    *router.Router
	Gateway   *gateway.Gateway
	Scheduler *cron.Scheduler
}

// NewLogger builds the process logger. Every record passes through a
// redactor that knows the configured secrets.
func NewLogger(w io.Writer, cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel()}

	var inner slog.Handler
	if cfg.Logging.Format == config.FormatJSON {
		inner = slog.NewJSONHandler(w, opts)
	} else {
		inner = slog.NewTextHandler(w, opts)
	}

	redactor := security.NewRedactor()
	redactor.AddLiteral(cfg.Secrets()...)
	return slog.New(security.NewRedactingHandler(inner, redactor))
}

// NewRegistry returns a registry with the Go runtime and process
// collectors registered.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// Build wires every component from a validated configuration. The Bot API
// token is checked with getMe, so Build needs network access to the API.
func Build(ctx context.Context, cfg *config.Config, opts Options) (bot *Bot, err error) {
	if opts.LogOutput == nil {
		opts.LogOutput = io.Discard
	}
	logger := NewLogger(opts.LogOutput, cfg)
	reg := NewRegistry()
	m := metrics.New(reg)

	// Resources acquired so far are released if a later step fails.
	var cleanup []func()
	defer func() {
		if err != nil {
			for i := len(cleanup) - 1; i >= 0; i-- {
				cleanup[i]()
			}
		}
	}()

	tp, shutdownTracing, err := telemetry.Setup(ctx, cfg.Telemetry, opts.Version)
	if err != nil {
		return nil, err
	}
	cleanup = append(cleanup, func() { _ = shutdownTracing(context.WithoutCancel(ctx)) })

	client, err := telegram.NewClient(cfg.Telegram,
		telegram.WithLogger(logger.With("component", "telegram")),
		telegram.WithMetrics(m),
		telegram.WithTracerProvider(tp),
	)
	if err != nil {
		return nil, err
	}
	cleanup = append(cleanup, client.Close)

	formatter, err := format.New(cfg.MessageTemplates(), cfg.FormatOptions())
	if err != nil {
		return nil, err
	}

	rt, err := router.New(router.Config{
		Messenger:      client,
		Formatter:      formatter,
		Policy:         cfg.Policy(),
		Logger:         logger.With("component", "router"),
		Metrics:        m,
		TracerProvider: tp,
	})
	if err != nil {
		return nil, err
	}

	gw, err := gateway.New(gateway.Params{
		Config:         cfg.Gateway,
		Receiver:       telegram.NewWebhookReceiver(cfg.Webhook.Secret),
		Dispatcher:     rt,
		Metrics:        m,
		Gatherer:       reg,
		Status:         client,
		TracerProvider: tp,
		Logger:         logger.With("component", "gateway"),
		Version:        opts.Version,
	})
	if err != nil {
		return nil, err
	}

	registration := telegram.NewWebhookRegistration(client,
		cfg.WebhookRegistration(),
		cfg.Webhook.DeleteOnStop,
		logger.With("component", "webhook"),
	)

	app := core.NewApp(logger, core.WithShutdownTimeout(cfg.Gateway.ShutdownTimeout*2))

	// Added first so they stop last, after everything that uses them.
	units := []namedUnit{
		{"telemetry", core.StopFunc(shutdownTracing)},
		{"telegram-client", core.StopFunc(func(context.Context) error {
			client.Close()
			return nil
		})},
		{"gateway", gw},
		{"webhook", registration},
	}

	var scheduler *cron.Scheduler
	if cfg.KeepAliveEnabled() {
		scheduler, err = newScheduler(cfg, opts, logger, m)
		if err != nil {
			return nil, err
		}
		units = append(units, namedUnit{"scheduler", scheduler})
	} else {
		logger.Info("keep-alive pinger disabled")
	}

	for _, u := range units {
		if err := app.Add(u.name, u.unit); err != nil {
			return nil, err
		}
	}

	return &Bot{
		App:       app,
		Logger:    logger,
		Registry:  reg,
		Client:    client,
		Router:    rt,
		Gateway:   gw,
		Scheduler: scheduler,
	}, nil
}

type namedUnit struct {
	name string
	unit any
}

func newScheduler(cfg *config.Config, opts Options, logger *slog.Logger, m *metrics.Metrics) (*cron.Scheduler, error) {
	pingerOpts := []keepalive.Option{
		keepalive.WithLogger(logger.With("component", "keepalive")),
		keepalive.WithMetrics(m),
		keepalive.WithUserAgent("doorman/" + versionOr(opts.Version)),
	}
	if opts.HTTPClient != nil {
		pingerOpts = append(pingerOpts, keepalive.WithHTTPClient(opts.HTTPClient))
	}

	pinger, err := keepalive.New(cfg.KeepAlive.Config, pingerOpts...)
	if err != nil {
		return nil, err
	}

	scheduler := cron.NewScheduler(logger.With("component", "cron"))
	if err := scheduler.RegisterJob(pinger); err != nil {
		return nil, fmt.Errorf("registering %s: %w", pinger.Name(), err)
	}
	return scheduler, nil
}

func versionOr(v string) string {
	if v == "" {
		return "dev"
	}
	return v
}

// Package keepalive periodically requests the service's own public URL so
// that hosts which idle inactive services keep it running.
package keepalive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/flemzord/doorman/internal/cron"
	"github.com/flemzord/doorman/internal/metrics"
)

// ErrInvalidConfig is returned by Config.Validate.
var ErrInvalidConfig = errors.New("keepalive: invalid config")

// Ping results beyond the shared metrics labels.
const resultSkipped = "skipped"

// maxDrain bounds how much of a response body is read before closing it.
const maxDrain = 64 << 10

// Config configures the pinger. An empty URL disables it.
type Config struct {
	URL        string        `yaml:"url" env:"KEEPALIVE_URL"`
	Interval   time.Duration `yaml:"interval" env:"KEEPALIVE_INTERVAL"`
	Timeout    time.Duration `yaml:"timeout"`
	QuietHours string        `yaml:"quiet_hours"`
	Timezone   string        `yaml:"timezone"`
}

// Defaults fills zero values.
func (c *Config) Defaults() {
	if c.Interval <= 0 {
		c.Interval = 30 * time.Second
	}
	if c.Timeout <= 0 {
		c.Timeout = 10 * time.Second
	}
	if c.Timezone == "" {
		c.Timezone = "UTC"
	}
}

// Enabled reports whether a URL is configured.
func (c Config) Enabled() bool {
	return c.URL != ""
}

// Validate checks the configuration after Defaults has run.
func (c Config) Validate() error {
	var errs []error
	if c.URL != "" {
		u, err := url.Parse(c.URL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errs = append(errs, fmt.Errorf("%w: url %q must be an absolute http(s) URL", ErrInvalidConfig, c.URL))
		}
	}
	if c.Interval < time.Second {
		errs = append(errs, fmt.Errorf("%w: interval %s is below 1s", ErrInvalidConfig, c.Interval))
	}
	if c.QuietHours != "" {
		if _, err := ParseQuietHours(c.QuietHours); err != nil {
			errs = append(errs, fmt.Errorf("%w: %w", ErrInvalidConfig, err))
		}
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("%w: timezone: %w", ErrInvalidConfig, err))
	}
	return errors.Join(errs...)
}

// Option configures a Pinger.
type Option func(*Pinger)

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(p *Pinger) { p.client = c }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *Pinger) { p.logger = l }
}

// WithMetrics records ping results.
func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Pinger) { p.metrics = m }
}

// WithClock overrides the time source used for quiet hours.
func WithClock(now func() time.Time) Option {
	return func(p *Pinger) { p.now = now }
}

// WithUserAgent sets the User-Agent header of ping requests.
func WithUserAgent(ua string) Option {
	return func(p *Pinger) { p.userAgent = ua }
}

// Pinger is a cron job that GETs a URL on every tick.
type Pinger struct {
	cfg       Config
	quiet     *QuietHours
	loc       *time.Location
	client    *http.Client
	logger    *slog.Logger
	metrics   *metrics.Metrics
	now       func() time.Time
	userAgent string
}

var (
	_ cron.Job   = (*Pinger)(nil)
	_ cron.Eager = (*Pinger)(nil)
)

// New builds a pinger for an enabled configuration.
func New(cfg Config, opts ...Option) (*Pinger, error) {
	cfg.Defaults()
	if !cfg.Enabled() {
		return nil, fmt.Errorf("%w: url is required", ErrInvalidConfig)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("%w: timezone: %w", ErrInvalidConfig, err)
	}

	p := &Pinger{
		cfg:       cfg,
		client:    &http.Client{Timeout: cfg.Timeout},
		logger:    slog.New(slog.DiscardHandler),
		now:       time.Now,
		loc:       loc,
		userAgent: "doorman-keepalive",
	}
	if cfg.QuietHours != "" {
		q, err := ParseQuietHours(cfg.QuietHours)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
		p.quiet = &q
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Name implements cron.Job.
func (p *Pinger) Name() string { return "keepalive" }

// Schedule implements cron.Job.
func (p *Pinger) Schedule() string { return "@every " + p.cfg.Interval.String() }

// RunOnStart implements cron.Eager: the first ping goes out at startup.
func (p *Pinger) RunOnStart() bool { return true }

// Run sends one ping. Failures are logged and counted, never returned, so a
// flaky host does not turn into scheduler errors.
func (p *Pinger) Run(ctx context.Context) error {
	if p.quiet != nil && p.quiet.Contains(p.now().In(p.loc)) {
		p.logger.Debug("keep-alive ping skipped: quiet hours", "window", p.quiet.String())
		p.metrics.ObservePing(resultSkipped)
		return nil
	}

	start := time.Now()
	status, err := p.ping(ctx)
	elapsed := time.Since(start)

	switch {
	case err != nil:
		if ctx.Err() != nil {
			return nil
		}
		p.logger.Warn("keep-alive ping failed", "url", p.cfg.URL, "error", err, "duration", elapsed)
		p.metrics.ObservePing(metrics.ResultError)
	case status < 200 || status > 299:
		p.logger.Warn("keep-alive ping unexpected status", "url", p.cfg.URL, "status", status, "duration", elapsed)
		p.metrics.ObservePing(metrics.ResultError)
	default:
		p.logger.Info("keep-alive ping", "url", p.cfg.URL, "status", status, "duration", elapsed)
		p.metrics.ObservePing(metrics.ResultOK)
	}
	return nil
}

func (p *Pinger) ping(ctx context.Context) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.cfg.URL, nil)
	if err != nil {
		return 0, fmt.Errorf("keepalive: build request: %w", err)
	}
	req.Header.Set("User-Agent", p.userAgent)

	resp, err := p.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("keepalive: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxDrain))
	return resp.StatusCode, nil
}

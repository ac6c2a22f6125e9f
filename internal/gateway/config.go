package gateway

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidConfig is returned by Config.Validate.
var ErrInvalidConfig = errors.New("gateway: invalid config")

// Config holds HTTP gateway configuration.
type Config struct {
	Host            string        `yaml:"host" env:"HOST"`
	Port            int           `yaml:"port" env:"PORT"`
	WebhookPath     string        `yaml:"webhook_path" env:"WEBHOOK_PATH"`
	MaxBodyBytes    int64         `yaml:"max_body_bytes"`
	DispatchTimeout time.Duration `yaml:"dispatch_timeout"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	Auth            AuthConfig    `yaml:"auth"`
}

// Defaults fills zero values with sensible defaults.
func (c *Config) Defaults() {
	if c.Host == "" {
		c.Host = "0.0.0.0"
	}
	if c.Port == 0 {
		c.Port = 10000
	}
	if c.WebhookPath == "" {
		c.WebhookPath = "/telegram"
	}
	if c.MaxBodyBytes <= 0 {
		c.MaxBodyBytes = 1 << 20
	}
	if c.DispatchTimeout <= 0 {
		c.DispatchTimeout = 25 * time.Second
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = 10 * time.Second
	}
	if c.WriteTimeout <= 0 {
		// A dispatch may retry through a rate limit before the 200 goes out.
		c.WriteTimeout = c.DispatchTimeout + 5*time.Second
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = 5 * time.Second
	}
}

// Validate checks the configuration after Defaults has run.
func (c Config) Validate() error {
	var errs []error
	if c.Port < 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("%w: port %d out of range", ErrInvalidConfig, c.Port))
	}
	if !strings.HasPrefix(c.WebhookPath, "/") {
		errs = append(errs, fmt.Errorf("%w: webhook_path %q must start with /", ErrInvalidConfig, c.WebhookPath))
	}
	switch c.WebhookPath {
	case "/", "/health", "/metrics", "/status":
		errs = append(errs, fmt.Errorf("%w: webhook_path %q collides with a built-in route", ErrInvalidConfig, c.WebhookPath))
	}
	if c.Auth.BasicUser != "" && c.Auth.BasicPass == "" {
		errs = append(errs, fmt.Errorf("%w: auth.basic_pass is required with auth.basic_user", ErrInvalidConfig))
	}
	return errors.Join(errs...)
}

// Addr returns the listen address.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// AuthConfig configures authentication for the operational endpoints.
type AuthConfig struct {
	BearerToken string `yaml:"bearer_token" env:"GATEWAY_BEARER_TOKEN"`
	BasicUser   string `yaml:"basic_user"`
	BasicPass   string `yaml:"basic_pass"`
}

// IsConfigured returns true if any auth method is configured.
func (a AuthConfig) IsConfigured() bool {
	return a.BearerToken != "" || (a.BasicUser != "" && a.BasicPass != "")
}

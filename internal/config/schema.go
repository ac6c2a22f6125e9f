// Package config handles configuration loading for doorman: an optional
// YAML file with ${VAR} expansion, environment overrides, defaults and
// validation.
package config

import (
	"log/slog"
	"strings"

	"github.com/flemzord/doorman/internal/format"
	"github.com/flemzord/doorman/internal/gateway"
	"github.com/flemzord/doorman/internal/keepalive"
	"github.com/flemzord/doorman/internal/platform"
	"github.com/flemzord/doorman/internal/router"
	"github.com/flemzord/doorman/internal/telemetry"
	"github.com/flemzord/doorman/modules/channel/telegram"
	"github.com/flemzord/doorman/pkg/message"
)

// Config is the top-level configuration structure.
type Config struct {
	Telegram  telegram.Config  `yaml:"telegram"`
	ChannelID int64            `yaml:"channel_id" env:"CHANNEL_ID"`
	Webhook   WebhookConfig    `yaml:"webhook"`
	Gateway   gateway.Config   `yaml:"gateway"`
	Filters   FiltersConfig    `yaml:"filters"`
	Templates TemplatesConfig  `yaml:"templates"`
	KeepAlive KeepAliveConfig  `yaml:"keepalive"`
	Telemetry telemetry.Config `yaml:"telemetry"`
	Logging   LoggingConfig    `yaml:"logging"`
}

// WebhookConfig controls the webhook registration with the platform.
type WebhookConfig struct {
	// PublicURL is the externally reachable base URL of the service.
	// RENDER_EXTERNAL_URL is used when PUBLIC_URL is not set.
	PublicURL      string   `yaml:"public_url" env:"PUBLIC_URL"`
	Secret         string   `yaml:"secret" env:"WEBHOOK_SECRET"`
	DeleteOnStop   bool     `yaml:"delete_on_stop" env:"WEBHOOK_DELETE_ON_STOP"`
	AllowedUpdates []string `yaml:"allowed_updates,omitempty"`
}

// FiltersConfig scopes each handler to chats.
type FiltersConfig struct {
	JoinRequests router.FilterMode `yaml:"join_requests"`
	MemberStatus router.FilterMode `yaml:"member_status"`
}

// TemplatesConfig overrides the built-in message templates. An empty text
// keeps the built-in template of that kind.
type TemplatesConfig struct {
	EscapeFields bool           `yaml:"escape_fields"`
	Welcome      TemplateConfig `yaml:"welcome"`
	Farewell     TemplateConfig `yaml:"farewell"`
	AutoReply    TemplateConfig `yaml:"auto_reply"`
}

// TemplateConfig is one message template.
type TemplateConfig struct {
	Text string `yaml:"text,omitempty"`
	// ParseMode is Markdown when omitted; "plain" disables formatting.
	ParseMode string          `yaml:"parse_mode,omitempty"`
	Button    *message.Button `yaml:"button,omitempty"`
}

// KeepAliveConfig configures the keep-alive pinger. The URL defaults to
// the webhook public URL.
type KeepAliveConfig struct {
	Disabled         bool `yaml:"disabled" env:"KEEPALIVE_DISABLED"`
	keepalive.Config `yaml:",inline"`
}

// LoggingConfig configures the process logger.
type LoggingConfig struct {
	Level  string `yaml:"level" env:"LOG_LEVEL"`
	Format string `yaml:"format" env:"LOG_FORMAT"`
}

// Log formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// plainParseMode is the config spelling of message.ParsePlain.
const plainParseMode = "plain"

// Defaults fills zero values across all sections.
func (c *Config) Defaults() {
	c.Telegram.Defaults()
	c.Gateway.Defaults()
	c.Telemetry.Defaults()
	c.KeepAlive.Defaults()
	if c.KeepAlive.URL == "" && !c.KeepAlive.Disabled {
		c.KeepAlive.URL = c.Webhook.PublicURL
	}
	if len(c.Webhook.AllowedUpdates) == 0 {
		c.Webhook.AllowedUpdates = platform.DefaultAllowedUpdates()
	}
	if c.Filters.JoinRequests == "" {
		c.Filters.JoinRequests = router.FilterAny
	}
	if c.Filters.MemberStatus == "" {
		c.Filters.MemberStatus = router.FilterChannel
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = FormatText
	}
}

// WebhookURL is the full URL registered with the platform.
func (c *Config) WebhookURL() string {
	if c.Webhook.PublicURL == "" {
		return ""
	}
	return strings.TrimRight(c.Webhook.PublicURL, "/") + c.Gateway.WebhookPath
}

// WebhookRegistration returns the registration sent on startup.
func (c *Config) WebhookRegistration() platform.WebhookConfig {
	return platform.WebhookConfig{
		URL:            c.WebhookURL(),
		Secret:         c.Webhook.Secret,
		AllowedUpdates: c.Webhook.AllowedUpdates,
	}
}

// Policy returns the router's chat scoping.
func (c *Config) Policy() router.Policy {
	return router.Policy{
		ChannelID:    c.ChannelID,
		JoinRequests: c.Filters.JoinRequests,
		MemberStatus: c.Filters.MemberStatus,
	}
}

// KeepAliveEnabled reports whether the pinger should run.
func (c *Config) KeepAliveEnabled() bool {
	return !c.KeepAlive.Disabled && c.KeepAlive.Enabled()
}

// FormatOptions returns the formatter's rendering options.
func (c *Config) FormatOptions() format.Options {
	return format.Options{EscapeFields: c.Templates.EscapeFields}
}

// MessageTemplates returns the built-in templates with configured
// overrides applied.
func (c *Config) MessageTemplates() map[format.TemplateKind]format.Template {
	templates := format.DefaultTemplates()
	overrides := map[format.TemplateKind]TemplateConfig{
		format.Welcome:   c.Templates.Welcome,
		format.Farewell:  c.Templates.Farewell,
		format.AutoReply: c.Templates.AutoReply,
	}
	for kind, o := range overrides {
		t := templates[kind]
		if o.Text != "" {
			t.Text = o.Text
			t.ParseMode = message.ParseMarkdown
		}
		if o.ParseMode != "" {
			t.ParseMode = parseMode(o.ParseMode)
		}
		if !o.Button.IsZero() {
			b := *o.Button
			t.Button = &b
		}
		templates[kind] = t
	}
	return templates
}

func parseMode(s string) message.ParseMode {
	if strings.EqualFold(s, plainParseMode) {
		return message.ParsePlain
	}
	return message.ParseMode(s)
}

// LogLevel returns the configured level, defaulting to info.
func (c *Config) LogLevel() slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.Logging.Level)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}

// Secrets returns the literal secret values to redact from logs.
func (c *Config) Secrets() []string {
	return []string{
		c.Telegram.Token,
		c.Webhook.Secret,
		c.Gateway.Auth.BearerToken,
		c.Gateway.Auth.BasicPass,
	}
}

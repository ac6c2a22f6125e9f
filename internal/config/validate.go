package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"slices"

	"github.com/flemzord/doorman/internal/format"
	"github.com/flemzord/doorman/modules/channel/telegram"
	"github.com/flemzord/doorman/pkg/message"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("config: invalid configuration")

// knownUpdates are the update types the platform accepts in allowed_updates.
var knownUpdates = []string{
	"message", "edited_message", "channel_post", "edited_channel_post",
	"business_connection", "business_message", "edited_business_message",
	"deleted_business_messages", "message_reaction", "message_reaction_count",
	"inline_query", "chosen_inline_result", "callback_query", "shipping_query",
	"pre_checkout_query", "purchased_paid_media", "poll", "poll_answer",
	"my_chat_member", "chat_member", "chat_join_request", "chat_boost",
	"removed_chat_boost",
}

// Validate checks a loaded Config. Defaults must have been applied (Load
// and Parse do so). The returned error joins every failure and matches
// ErrInvalid.
func Validate(cfg *Config) error {
	var errs []error

	errs = append(errs, cfg.Telegram.Validate())
	errs = append(errs, cfg.Policy().Validate())
	errs = append(errs, validateWebhook(cfg)...)
	errs = append(errs, cfg.Gateway.Validate())
	errs = append(errs, cfg.Telemetry.Validate())
	if cfg.KeepAliveEnabled() {
		errs = append(errs, cfg.KeepAlive.Validate())
	}
	errs = append(errs, validateTemplates(cfg)...)
	errs = append(errs, validateLogging(cfg.Logging)...)

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("%w:\n%w", ErrInvalid, err)
	}
	return nil
}

func validateWebhook(cfg *Config) []error {
	var errs []error

	w := cfg.Webhook
	switch u, err := url.Parse(w.PublicURL); {
	case w.PublicURL == "":
		errs = append(errs, errors.New("webhook: public_url is required (PUBLIC_URL or RENDER_EXTERNAL_URL)"))
	case err != nil || u.Host == "":
		errs = append(errs, fmt.Errorf("webhook: public_url %q is not an absolute URL", w.PublicURL))
	case u.Scheme != "https":
		errs = append(errs, fmt.Errorf("webhook: public_url %q must use https", w.PublicURL))
	}

	if err := telegram.ValidateSecret(w.Secret); err != nil {
		errs = append(errs, err)
	}
	for _, u := range w.AllowedUpdates {
		if !slices.Contains(knownUpdates, u) {
			errs = append(errs, fmt.Errorf("webhook: unknown allowed update %q", u))
		}
	}
	return errs
}

func validateTemplates(cfg *Config) []error {
	var errs []error
	for name, t := range map[string]TemplateConfig{
		"welcome":    cfg.Templates.Welcome,
		"farewell":   cfg.Templates.Farewell,
		"auto_reply": cfg.Templates.AutoReply,
	} {
		if t.ParseMode != "" && !parseMode(t.ParseMode).Valid() {
			errs = append(errs, fmt.Errorf("templates.%s: unknown parse_mode %q", name, t.ParseMode))
		}
		if t.Button != nil {
			errs = append(errs, validateButton(name, t.Button)...)
		}
	}
	if len(errs) > 0 {
		return errs
	}

	f, err := format.New(cfg.MessageTemplates(), cfg.FormatOptions())
	if err != nil {
		return append(errs, fmt.Errorf("templates: %w", err))
	}
	// Auto-replies answer private chats, which have no title.
	if fields, _ := f.Fields(format.AutoReply); slices.Contains(fields, format.FieldChatTitle) {
		errs = append(errs, fmt.Errorf("templates.auto_reply: {%s} is not available in private chats", format.FieldChatTitle))
	}
	return errs
}

func validateButton(name string, b *message.Button) []error {
	var errs []error
	if b.Label == "" {
		errs = append(errs, fmt.Errorf("templates.%s.button: label is required", name))
	}
	u, err := url.Parse(b.URL)
	if err != nil || u.Scheme == "" {
		errs = append(errs, fmt.Errorf("templates.%s.button: url %q must be absolute", name, b.URL))
	}
	return errs
}

func validateLogging(l LoggingConfig) []error {
	var errs []error
	if l.Format != FormatText && l.Format != FormatJSON {
		errs = append(errs, fmt.Errorf("logging: format must be %q or %q, got %q", FormatText, FormatJSON, l.Format))
	}
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(l.Level)); err != nil {
		errs = append(errs, fmt.Errorf("logging: level: %w", err))
	}
	return errs
}

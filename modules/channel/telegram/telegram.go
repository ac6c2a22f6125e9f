package telegram

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/flemzord/doorman/internal/platform"
)

// WebhookRegistration registers the bot's webhook when the application
// starts and, if asked to, removes it when the application stops.
type WebhookRegistration struct {
	client       platform.WebhookRegistrar
	config       platform.WebhookConfig
	deleteOnStop bool
	logger       *slog.Logger
}

// NewWebhookRegistration creates a registration lifecycle component.
func NewWebhookRegistration(client platform.WebhookRegistrar, cfg platform.WebhookConfig, deleteOnStop bool, logger *slog.Logger) *WebhookRegistration {
	if cfg.AllowedUpdates == nil {
		cfg.AllowedUpdates = platform.DefaultAllowedUpdates()
	}
	return &WebhookRegistration{
		client:       client,
		config:       cfg,
		deleteOnStop: deleteOnStop,
		logger:       logger,
	}
}

// Start sets the webhook. A failure aborts startup.
func (w *WebhookRegistration) Start(ctx context.Context) error {
	if w.config.Secret == "" {
		w.logger.Warn("telegram webhook running without secret_token, " +
			"consider setting webhook.secret for production deployments")
	}
	if err := w.client.SetWebhook(ctx, w.config); err != nil {
		return fmt.Errorf("telegram: setWebhook failed: %w", err)
	}
	w.logger.Info("telegram webhook configured",
		"url", w.config.URL,
		"allowed_updates", w.config.AllowedUpdates,
	)
	return nil
}

// Stop deletes the webhook when configured to. Failures are logged only.
func (w *WebhookRegistration) Stop(ctx context.Context) error {
	if !w.deleteOnStop {
		return nil
	}
	if err := w.client.DeleteWebhook(ctx, false); err != nil {
		w.logger.Warn("telegram: failed to delete webhook on shutdown", "error", err)
		return nil
	}
	w.logger.Info("telegram webhook deleted")
	return nil
}

// Package platform defines the outbound contract between the bot's handlers
// and the messaging platform. Concrete clients (the Telegram Bot API client in
// modules/channel/telegram) implement these interfaces; the router and the
// CLI only ever see the interfaces.
package platform

import (
	"context"

	"github.com/flemzord/doorman/pkg/message"
)

// Messenger performs the calls the router needs while handling an event.
type Messenger interface {
	// ApproveJoinRequest approves userID's pending request to join chatID.
	ApproveJoinRequest(ctx context.Context, chatID, userID int64) error

	// SendMessage delivers msg to msg.ChatID.
	SendMessage(ctx context.Context, msg message.OutboundMessage) error
}

// WebhookRegistrar manages the platform's webhook registration.
type WebhookRegistrar interface {
	SetWebhook(ctx context.Context, cfg WebhookConfig) error
	DeleteWebhook(ctx context.Context, dropPending bool) error
	WebhookInfo(ctx context.Context) (WebhookStatus, error)
}

// Client is the full platform surface used by the application.
type Client interface {
	Messenger
	WebhookRegistrar
}

// WebhookConfig is the registration sent to the platform.
type WebhookConfig struct {
	// URL is the public HTTPS address the platform posts updates to.
	URL string
	// Secret, when set, is echoed back by the platform on every delivery.
	Secret string
	// AllowedUpdates restricts which update types are delivered.
	AllowedUpdates []string
}

// WebhookStatus describes the webhook as currently registered with the platform.
type WebhookStatus struct {
	URL                string
	PendingUpdateCount int
	MaxConnections     int
	LastErrorDate      int64
	LastErrorMessage   string
}

// DefaultAllowedUpdates are the update types the bot acts on. Membership
// updates are only delivered when explicitly requested.
func DefaultAllowedUpdates() []string {
	return []string{"message", "chat_member", "chat_join_request"}
}

package telegram

import (
	"crypto/subtle"
	"errors"
	"net/http"

	"github.com/flemzord/doorman/pkg/event"
)

// SecretHeader carries the webhook secret token on every delivery.
const SecretHeader = "X-Telegram-Bot-Api-Secret-Token"

// ErrInvalidSecret indicates a delivery whose secret token header does not match.
var ErrInvalidSecret = errors.New("telegram: invalid webhook secret token")

// WebhookReceiver turns webhook deliveries into inbound events.
type WebhookReceiver struct {
	secret string
}

// NewWebhookReceiver creates a receiver. An empty secret disables the
// header check.
func NewWebhookReceiver(secret string) *WebhookReceiver {
	return &WebhookReceiver{secret: secret}
}

// Receive validates the secret token header and decodes body.
func (w *WebhookReceiver) Receive(body []byte, headers http.Header) (event.InboundEvent, error) {
	if w.secret != "" {
		token := headers.Get(SecretHeader)
		if subtle.ConstantTimeCompare([]byte(w.secret), []byte(token)) != 1 {
			return nil, ErrInvalidSecret
		}
	}
	return Decode(body)
}

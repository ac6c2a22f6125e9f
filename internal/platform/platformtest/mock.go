// Package platformtest provides test doubles for the platform interfaces.
package platformtest

import (
	"context"
	"slices"
	"sync"

	"github.com/flemzord/doorman/internal/platform"
	"github.com/flemzord/doorman/pkg/message"
)

// Approval records one ApproveJoinRequest call.
type Approval struct {
	ChatID int64
	UserID int64
}

// Call names a recorded call in order.
type Call string

// Recorded call names.
const (
	CallApprove       Call = "approve"
	CallSend          Call = "send"
	CallSetWebhook    Call = "set_webhook"
	CallDeleteWebhook Call = "delete_webhook"
	CallWebhookInfo   Call = "webhook_info"
)

// MockClient is a platform.Client that records every call. The optional
// Func fields override the default success behaviour.
type MockClient struct {
	mu        sync.Mutex
	calls     []Call
	approvals []Approval
	sent      []message.OutboundMessage
	webhooks  []platform.WebhookConfig
	deleted   int

	ApproveFunc       func(ctx context.Context, chatID, userID int64) error
	SendFunc          func(ctx context.Context, msg message.OutboundMessage) error
	SetWebhookFunc    func(ctx context.Context, cfg platform.WebhookConfig) error
	DeleteWebhookFunc func(ctx context.Context, dropPending bool) error
	Status            platform.WebhookStatus
}

var _ platform.Client = (*MockClient)(nil)

// NewMockClient returns an empty MockClient.
func NewMockClient() *MockClient {
	return &MockClient{}
}

// ApproveJoinRequest implements platform.Messenger.
func (m *MockClient) ApproveJoinRequest(ctx context.Context, chatID, userID int64) error {
	m.mu.Lock()
	m.calls = append(m.calls, CallApprove)
	m.approvals = append(m.approvals, Approval{ChatID: chatID, UserID: userID})
	fn := m.ApproveFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, chatID, userID)
	}
	return nil
}

// SendMessage implements platform.Messenger.
func (m *MockClient) SendMessage(ctx context.Context, msg message.OutboundMessage) error {
	m.mu.Lock()
	m.calls = append(m.calls, CallSend)
	m.sent = append(m.sent, msg)
	fn := m.SendFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, msg)
	}
	return nil
}

// SetWebhook implements platform.WebhookRegistrar.
func (m *MockClient) SetWebhook(ctx context.Context, cfg platform.WebhookConfig) error {
	m.mu.Lock()
	m.calls = append(m.calls, CallSetWebhook)
	m.webhooks = append(m.webhooks, cfg)
	fn := m.SetWebhookFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, cfg)
	}
	return nil
}

// DeleteWebhook implements platform.WebhookRegistrar.
func (m *MockClient) DeleteWebhook(ctx context.Context, dropPending bool) error {
	m.mu.Lock()
	m.calls = append(m.calls, CallDeleteWebhook)
	m.deleted++
	fn := m.DeleteWebhookFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, dropPending)
	}
	return nil
}

// WebhookInfo implements platform.WebhookRegistrar.
func (m *MockClient) WebhookInfo(_ context.Context) (platform.WebhookStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, CallWebhookInfo)
	return m.Status, nil
}

// Calls returns the recorded call names in order.
func (m *MockClient) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.calls)
}

// Approvals returns a copy of the recorded approvals.
func (m *MockClient) Approvals() []Approval {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.approvals)
}

// Sent returns a copy of the recorded outbound messages.
func (m *MockClient) Sent() []message.OutboundMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.sent)
}

// Webhooks returns a copy of the recorded webhook registrations.
func (m *MockClient) Webhooks() []platform.WebhookConfig {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.webhooks)
}

// DeleteCount returns how many times DeleteWebhook was called.
func (m *MockClient) DeleteCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.deleted
}

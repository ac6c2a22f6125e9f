// Package telegram implements the bot's platform client on the Telegram Bot API.
//
// It provides:
//
//   - Client, a platform.Client backed by go-telegram-bot-api with rate-limit
//     retries, Prometheus metrics and OpenTelemetry spans per call
//   - Decode, which turns a webhook update into an event.InboundEvent
//   - WebhookReceiver, which checks the secret token header before decoding
//   - WebhookRegistration, the lifecycle component that registers the
//     webhook at startup and optionally removes it at shutdown
package telegram

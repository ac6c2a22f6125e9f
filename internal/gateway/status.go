package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// StatusResponse is the JSON response for GET /status.
type StatusResponse struct {
	UptimeSeconds int64          `json:"uptime_seconds"`
	Version       string         `json:"version,omitempty"`
	WebhookPath   string         `json:"webhook_path"`
	Webhook       *WebhookReport `json:"webhook,omitempty"`
	Error         string         `json:"error,omitempty"`
}

// WebhookReport mirrors the platform's view of the registered webhook.
type WebhookReport struct {
	URL                string `json:"url"`
	PendingUpdateCount int    `json:"pending_update_count"`
	MaxConnections     int    `json:"max_connections,omitempty"`
	LastErrorDate      int64  `json:"last_error_date,omitempty"`
	LastErrorMessage   string `json:"last_error_message,omitempty"`
}

const statusTimeout = 10 * time.Second

// handleStatus returns an http.HandlerFunc for GET /status. A failed
// platform query is reported in the body with 502.
func (g *Gateway) handleStatus() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := StatusResponse{
			UptimeSeconds: int64(time.Since(g.startedAt) / time.Second),
			Version:       g.version,
			WebhookPath:   g.config.WebhookPath,
		}

		ctx, cancel := context.WithTimeout(r.Context(), statusTimeout)
		defer cancel()

		code := http.StatusOK
		info, err := g.status.WebhookInfo(ctx)
		if err != nil {
			g.logger.Warn("webhook info failed", "error", err)
			resp.Error = err.Error()
			code = http.StatusBadGateway
		} else {
			resp.Webhook = &WebhookReport{
				URL:                info.URL,
				PendingUpdateCount: info.PendingUpdateCount,
				MaxConnections:     info.MaxConnections,
				LastErrorDate:      info.LastErrorDate,
				LastErrorMessage:   info.LastErrorMessage,
			}
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(resp)
	}
}

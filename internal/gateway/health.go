package gateway

import (
	"encoding/json"
	"net/http"
	"time"
)

// LivenessMessage is the fixed body of GET /.
const LivenessMessage = "Bot is alive and running! 🚀"

// HealthResponse is the JSON response for GET /health.
type HealthResponse struct {
	Status        string `json:"status"`
	Version       string `json:"version,omitempty"`
	UptimeSeconds int64  `json:"uptime_seconds"`
}

// handleRoot serves the liveness probe used by the host and the keep-alive pinger.
func (g *Gateway) handleRoot() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte(LivenessMessage))
	}
}

// handleHealth returns an http.HandlerFunc for GET /health.
func (g *Gateway) handleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		resp := HealthResponse{
			Status:        "ok",
			Version:       g.version,
			UptimeSeconds: int64(time.Since(g.startedAt) / time.Second),
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}
}

package gateway

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// buildRouter constructs the chi mux with all routes wired.
func (g *Gateway) buildRouter() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.GetHead)

	// Public, no auth required.
	r.Get("/", g.handleRoot())
	r.Get("/health", g.handleHealth())

	// The platform authenticates with the secret token header, checked by
	// the receiver.
	r.Post(g.config.WebhookPath, g.handleWebhook())

	// Operational endpoints. /metrics is public unless auth is configured;
	// /status queries the platform and is only mounted behind auth.
	r.Group(func(r chi.Router) {
		if g.config.Auth.IsConfigured() {
			r.Use(authMiddleware(g.config.Auth, g.logger))
			if g.status != nil {
				r.Get("/status", g.handleStatus())
			}
		}
		if g.gatherer != nil {
			r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(g.gatherer, promhttp.HandlerOpts{
				ErrorLog: slog.NewLogLogger(g.logger.Handler(), slog.LevelWarn),
			}))
		}
	})

	return r
}

package chi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httplog"
	"github.com/marcelsud/commit-webhooks/webhook"
	"github.com/rs/zerolog"
)

// NewLogger returns the JSON request logger shared by the router and the pipeline
func NewLogger(level string) zerolog.Logger {
	return httplog.NewLogger("commit-webhooks", httplog.Options{
		JSON:     true,
		LogLevel: level,
	})
}

// Handlers sets up the webhook receiver routes. metricsHandler may be nil.
func Handlers(ctx context.Context, logger zerolog.Logger, pipeline webhook.UseCase, metricsHandler http.Handler) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(httplog.RequestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	})

	if metricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", metricsHandler)
	}

	for _, p := range pipeline.Providers() {
		r.Method(http.MethodPost, p.Path, postWebhook(pipeline, p.ID, p.MaxBodyBytes))
		r.Method(http.MethodGet, p.Path, getWebhook(p.ID))
	}

	return r
}

package chi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/httplog"
	"github.com/marcelsud/commit-webhooks/webhook"
)

/* HTTP layer for inbound deliveries
 * The handler only adapts the request: every decision is the pipeline's.
 */

// statusResponse is the body of GET on a webhook path
type statusResponse struct {
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	Provider string `json:"provider"`
}

// postWebhook handles POST on a provider path
func postWebhook(pipeline webhook.UseCase, providerID string, maxBodyBytes int64) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// chunked bodies are cut off by the reader, declared lengths by the validator
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		defer r.Body.Close()

		resp := pipeline.Handle(r.Context(), webhook.FromHTTP(providerID, r, time.Now()))

		httplog.LogEntrySetField(r.Context(), "request_id", resp.RequestID)
		httplog.LogEntrySetField(r.Context(), "webhook_code", resp.ErrorCode())
		if err := resp.Write(w); err != nil {
			httplog.LogEntry(r.Context()).Error().Err(err).Msg("writing webhook response")
		}
	})
}

// getWebhook handles GET on a provider path. It has no side effects.
func getWebhook(providerID string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(statusResponse{
			Success:  true,
			Message:  "webhook endpoint is live",
			Provider: providerID,
		}); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	})
}

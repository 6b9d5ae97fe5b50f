package chi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/marcelsud/commit-webhooks/config"
	"github.com/marcelsud/commit-webhooks/providers"
	"github.com/marcelsud/commit-webhooks/webhook"
	"github.com/marcelsud/commit-webhooks/webhook/mocks"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func catalog() []*providers.Provider {
	cfg := &config.Config{ReplayToleranceSeconds: 300, ReplaySkewSeconds: 60, MaxBodyBytes: 64}
	return []*providers.Provider{providers.Identity(cfg), providers.Payment(cfg)}
}

func newRouter(t *testing.T) (*mocks.UseCase, http.Handler) {
	s := mocks.NewUseCase(t)
	s.On("Providers").Return(catalog())
	metrics := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("webhook_requests_total 1\n"))
	})
	return s, Handlers(context.Background(), zerolog.Nop(), s, metrics)
}

func TestPostWebhook(t *testing.T) {
	t.Run("success - delivery is handed to the pipeline for its provider", func(t *testing.T) {
		s, h := newRouter(t)
		ms := int64(3)
		s.On("Handle", mock.Anything, mock.MatchedBy(func(req webhook.InboundRequest) bool {
			body, err := io.ReadAll(req.Body)
			return err == nil &&
				req.Provider == "identity" &&
				string(body) == `{"type":"user.created"}` &&
				req.UserAgent == "Svix-Webhooks/1.45" &&
				req.Header.Get("svix-id") == "msg_1"
		})).Return(webhook.Response{
			Status:         http.StatusOK,
			Success:        true,
			Message:        "event applied",
			RequestID:      "req_1",
			EventType:      "identity-subject-created",
			Outcome:        "applied",
			ProcessingTime: &ms,
		})

		req := httptest.NewRequest(http.MethodPost, "/webhooks/identity", strings.NewReader(`{"type":"user.created"}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("User-Agent", "Svix-Webhooks/1.45")
		req.Header.Set("svix-id", "msg_1")
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
		var body map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, true, body["success"])
		assert.Equal(t, "applied", body["outcome"])
		assert.Equal(t, "req_1", body["requestId"])
		assert.Equal(t, float64(3), body["processingTime"])
		assert.NotContains(t, body, "error")
	})

	t.Run("failure - rejection keeps the pipeline status and code", func(t *testing.T) {
		s, h := newRouter(t)
		s.On("Handle", mock.Anything, mock.AnythingOfType("webhook.InboundRequest")).Return(webhook.Response{
			Status:    http.StatusBadRequest,
			Message:   "delivery timestamp is outside the tolerance window",
			Error:     webhook.TimestampTooOld,
			RequestID: "req_2",
		})

		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/webhooks/payment", strings.NewReader(`{}`)))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		var body map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, false, body["success"])
		assert.Equal(t, "TIMESTAMP_TOO_OLD", body["error"])
		assert.Equal(t, "req_2", body["requestId"])
	})

	t.Run("failure - oversize chunked body fails while reading", func(t *testing.T) {
		s, h := newRouter(t)
		s.On("Handle", mock.Anything, mock.MatchedBy(func(req webhook.InboundRequest) bool {
			_, err := io.ReadAll(req.Body)
			var maxErr *http.MaxBytesError
			return errors.As(err, &maxErr)
		})).Return(webhook.Response{Status: http.StatusBadRequest, Error: webhook.ValidationFailed})

		req := httptest.NewRequest(http.MethodPost, "/webhooks/identity", strings.NewReader(strings.Repeat("x", 65)))
		req.ContentLength = -1
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("failure - unknown path is not routed", func(t *testing.T) {
		_, h := newRouter(t)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/webhooks/github", strings.NewReader(`{}`)))
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestGetWebhook(t *testing.T) {
	t.Run("success - liveness without side effects", func(t *testing.T) {
		s, h := newRouter(t)

		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/webhooks/payment", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		var body statusResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, statusResponse{Success: true, Message: "webhook endpoint is live", Provider: "payment"}, body)
		s.AssertNotCalled(t, "Handle", mock.Anything, mock.Anything)
	})
}

func TestHealthAndMetrics(t *testing.T) {
	_, h := newRouter(t)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, w.Body.String())

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "webhook_requests_total")
}

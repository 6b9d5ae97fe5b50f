package webhook

import (
	"io"
	"net/http"
	"time"
)

/* InboundRequest is one HTTP delivery as the pipeline sees it
 * Body is read at most once, after structural validation, and the bytes are
 * passed to verification unmodified
 */
type InboundRequest struct {
	Provider      string
	Header        http.Header
	ContentLength int64 // -1 when unknown
	ContentType   string
	UserAgent     string
	ReceivedAt    time.Time
	Body          io.Reader
}

// FromHTTP builds an InboundRequest for the given provider
func FromHTTP(provider string, r *http.Request, receivedAt time.Time) InboundRequest {
	return InboundRequest{
		Provider:      provider,
		Header:        r.Header,
		ContentLength: r.ContentLength,
		ContentType:   r.Header.Get("Content-Type"),
		UserAgent:     r.UserAgent(),
		ReceivedAt:    receivedAt,
		Body:          r.Body,
	}
}

// DeliveryMetadata is what the provider's headers say about a delivery
type DeliveryMetadata struct {
	DeliveryID   string
	Timestamp    int64  // unix seconds, zero when the scheme has no timestamp
	RawTimestamp string // as sent; this exact string is signed
	Signature    string
}

package providers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/marcelsud/commit-webhooks/config"
)

// MaxBodyLimit is the largest body cap a provider may configure (16 MiB)
const MaxBodyLimit = 16 << 20

/* Provider describes one inbound webhook source
 * Maps an endpoint path to the headers and secret used to authenticate it
 */
type Provider struct {
	ID              string
	Scheme          Scheme
	Path            string
	IDHeader        string // delivery id; optional for Razorpay
	TimestampHeader string
	SignatureHeader string
	UserAgent       string // expected substring, mismatch only warns
	SecretEnv       string
	Tolerance       time.Duration
	Skew            time.Duration
	MaxBodyBytes    int64
}

// Validate checks if the provider configuration is valid
func (p *Provider) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("provider_id cannot be empty")
	}
	if err := p.Scheme.Validate(); err != nil {
		return fmt.Errorf("invalid scheme for provider %s: %w", p.ID, err)
	}
	if !strings.HasPrefix(p.Path, "/") {
		return fmt.Errorf("path must start with / for provider %s", p.ID)
	}
	if p.SignatureHeader == "" {
		return fmt.Errorf("signature_header cannot be empty for provider %s", p.ID)
	}
	if p.Scheme == StandardWebhooks && (p.IDHeader == "" || p.TimestampHeader == "") {
		return fmt.Errorf("id_header and timestamp_header are required for %s provider %s", p.Scheme, p.ID)
	}
	if p.Tolerance <= 0 {
		return fmt.Errorf("tolerance_seconds must be positive for provider %s", p.ID)
	}
	if p.Skew < 0 {
		return fmt.Errorf("skew_seconds cannot be negative for provider %s", p.ID)
	}
	if p.MaxBodyBytes <= 0 || p.MaxBodyBytes > MaxBodyLimit {
		return fmt.Errorf("max_body_bytes must be between 1 and %d for provider %s (got %d)", MaxBodyLimit, p.ID, p.MaxBodyBytes)
	}
	return nil
}

// RequiredHeaders returns the canonical names of the headers a delivery must carry
func (p *Provider) RequiredHeaders() []string {
	if p.Scheme == StandardWebhooks {
		return []string{
			http.CanonicalHeaderKey(p.IDHeader),
			http.CanonicalHeaderKey(p.TimestampHeader),
			http.CanonicalHeaderKey(p.SignatureHeader),
		}
	}
	return []string{http.CanonicalHeaderKey(p.SignatureHeader)}
}

// Identity returns the built-in identity provider, delivered through Svix
func Identity(cfg *config.Config) *Provider {
	return &Provider{
		ID:              "identity",
		Scheme:          StandardWebhooks,
		Path:            "/webhooks/identity",
		IDHeader:        "svix-id",
		TimestampHeader: "svix-timestamp",
		SignatureHeader: "svix-signature",
		UserAgent:       "Svix-Webhooks",
		SecretEnv:       "IDENTITY_WEBHOOK_SECRET",
		Tolerance:       time.Duration(cfg.ReplayToleranceSeconds) * time.Second,
		Skew:            time.Duration(cfg.ReplaySkewSeconds) * time.Second,
		MaxBodyBytes:    cfg.MaxBodyBytes,
	}
}

// Payment returns the built-in payment provider
func Payment(cfg *config.Config) *Provider {
	return &Provider{
		ID:              "payment",
		Scheme:          Razorpay,
		Path:            "/webhooks/payment",
		IDHeader:        "X-Razorpay-Event-Id",
		SignatureHeader: "X-Razorpay-Signature",
		UserAgent:       "Razorpay-Webhook",
		SecretEnv:       "PAYMENT_WEBHOOK_SECRET",
		Tolerance:       time.Duration(cfg.ReplayToleranceSeconds) * time.Second,
		Skew:            time.Duration(cfg.ReplaySkewSeconds) * time.Second,
		MaxBodyBytes:    cfg.MaxBodyBytes,
	}
}

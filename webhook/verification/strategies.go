package verification

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"

	"github.com/marcelsud/commit-webhooks/providers"
	"github.com/marcelsud/commit-webhooks/webhook/signature"
	"github.com/razorpay/razorpay-go/utils"
	svix "github.com/svix/svix-webhooks/go"
)

// SvixCheck verifies Standard Webhooks deliveries with the Svix library
type SvixCheck struct {
	wh *svix.Webhook
}

func NewSvixCheck(secret string) (*SvixCheck, error) {
	wh, err := svix.NewWebhook(secret)
	if err != nil {
		return nil, fmt.Errorf("creating svix verifier: %w", err)
	}
	return &SvixCheck{wh: wh}, nil
}

func (c *SvixCheck) Verify(d Delivery) error {
	// the library reads its own header names; the provider may use others
	headers := http.Header{}
	headers.Set("svix-id", d.ID)
	headers.Set("svix-timestamp", d.Timestamp)
	headers.Set("svix-signature", d.Signature)
	return c.wh.Verify(d.Body, headers)
}

// StandardWebhooksCheck recomputes base64 HMAC-SHA256 over id.timestamp.body
type StandardWebhooksCheck struct {
	secret signature.Secret
}

func NewStandardWebhooksCheck(secret string) (*StandardWebhooksCheck, error) {
	s, err := signature.ParseSecret(secret)
	if err != nil {
		return nil, err
	}
	return &StandardWebhooksCheck{secret: s}, nil
}

func (c *StandardWebhooksCheck) Verify(d Delivery) error {
	return signature.VerifyHeader(c.secret, d.ID, d.Timestamp, d.Body, d.Signature)
}

// RazorpayCheck verifies payment deliveries with the Razorpay SDK
type RazorpayCheck struct {
	secret string
}

func NewRazorpayCheck(secret string) *RazorpayCheck {
	return &RazorpayCheck{secret: secret}
}

func (c *RazorpayCheck) Verify(d Delivery) error {
	if !utils.VerifyWebhookSignature(string(d.Body), d.Signature, c.secret) {
		return ErrMismatch
	}
	return nil
}

// HexHMACCheck recomputes hex HMAC-SHA256 over the raw body
type HexHMACCheck struct {
	secret []byte
}

func NewHexHMACCheck(secret string) *HexHMACCheck {
	return &HexHMACCheck{secret: []byte(secret)}
}

func (c *HexHMACCheck) Verify(d Delivery) error {
	expected, err := hex.DecodeString(strings.TrimSpace(d.Signature))
	if err != nil {
		return fmt.Errorf("decoding signature: %w", err)
	}
	if !hmac.Equal(expected, hexHMAC(c.secret, d.Body)) {
		return ErrMismatch
	}
	return nil
}

// HexSignature signs body the way the payment provider does
func HexSignature(secret string, body []byte) string {
	return hex.EncodeToString(hexHMAC([]byte(secret), body))
}

func hexHMAC(secret, body []byte) []byte {
	mac := hmac.New(sha256.New, secret)
	mac.Write(body)
	return mac.Sum(nil)
}

// CheckSecret validates the secret format a scheme requires. Failures wrap signature.ErrInvalidSecret.
func CheckSecret(scheme providers.Scheme, secret string) error {
	switch scheme {
	case providers.StandardWebhooks:
		_, err := signature.ParseSecret(secret)
		return err
	case providers.Razorpay:
		if strings.TrimSpace(secret) == "" {
			return fmt.Errorf("%w: secret is empty", signature.ErrInvalidSecret)
		}
		return nil
	}
	return fmt.Errorf("unknown scheme %s", scheme)
}

// ForProvider builds the primary and fallback checks for a provider's scheme
func ForProvider(p *providers.Provider, secret string) (*Verifier, error) {
	if err := CheckSecret(p.Scheme, secret); err != nil {
		return nil, fmt.Errorf("provider %s: %w", p.ID, err)
	}

	switch p.Scheme {
	case providers.StandardWebhooks:
		primary, err := NewSvixCheck(secret)
		if err != nil {
			return nil, fmt.Errorf("provider %s: %w: %v", p.ID, signature.ErrInvalidSecret, err)
		}
		fallback, err := NewStandardWebhooksCheck(secret)
		if err != nil {
			return nil, fmt.Errorf("provider %s: %w", p.ID, err)
		}
		return New(primary, fallback), nil
	default:
		return New(NewRazorpayCheck(secret), NewHexHMACCheck(secret)), nil
	}
}

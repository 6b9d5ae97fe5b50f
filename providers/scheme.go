package providers

import "fmt"

/* Scheme identifies how a provider signs its deliveries
 * StandardWebhooks signs id.timestamp.body and base64-encodes the MAC
 * Razorpay signs the raw body and hex-encodes the MAC, with no timestamp
 */
type Scheme int

const (
	StandardWebhooks Scheme = iota + 1
	Razorpay
)

// String returns the string representation of the scheme
func (s Scheme) String() string {
	switch s {
	case StandardWebhooks:
		return "standard-webhooks"
	case Razorpay:
		return "razorpay"
	default:
		return "unknown"
	}
}

// NewScheme creates a Scheme from a string, returning 0 for unknown names
func NewScheme(s string) Scheme {
	switch s {
	case "standard-webhooks":
		return StandardWebhooks
	case "razorpay":
		return Razorpay
	default:
		return 0
	}
}

// Validate checks if the scheme is valid
func (s Scheme) Validate() error {
	if s != StandardWebhooks && s != Razorpay {
		return fmt.Errorf("invalid scheme: %d", s)
	}
	return nil
}

// Timestamped reports whether deliveries carry a signed timestamp the replay guard can check.
func (s Scheme) Timestamped() bool {
	return s == StandardWebhooks
}

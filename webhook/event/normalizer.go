package event

import (
	"fmt"

	"github.com/marcelsud/commit-webhooks/providers"
)

// ForScheme returns the normalizer for a provider scheme
func ForScheme(scheme providers.Scheme) (Normalizer, error) {
	switch scheme {
	case providers.StandardWebhooks:
		return IdentityNormalizer{}, nil
	case providers.Razorpay:
		return PaymentNormalizer{}, nil
	}
	return nil, fmt.Errorf("no normalizer for scheme %s", scheme)
}

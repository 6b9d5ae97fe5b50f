package event

// Kind is the closed set of events the service acts on
type Kind int

const (
	Unrecognized Kind = iota + 1
	IdentityCreated
	IdentityUpdated
	IdentityDeleted
	PaymentCaptured
	PaymentFailed
	SubscriptionActivated
	SubscriptionCancelled
)

// String returns the string representation of the kind
func (k Kind) String() string {
	switch k {
	case Unrecognized:
		return "unrecognized"
	case IdentityCreated:
		return "identity-subject-created"
	case IdentityUpdated:
		return "identity-subject-updated"
	case IdentityDeleted:
		return "identity-subject-deleted"
	case PaymentCaptured:
		return "payment-captured"
	case PaymentFailed:
		return "payment-failed"
	case SubscriptionActivated:
		return "subscription-activated"
	case SubscriptionCancelled:
		return "subscription-cancelled"
	default:
		return "unknown"
	}
}

// Kinds lists every dispatchable kind
func Kinds() []Kind {
	return []Kind{
		IdentityCreated,
		IdentityUpdated,
		IdentityDeleted,
		PaymentCaptured,
		PaymentFailed,
		SubscriptionActivated,
		SubscriptionCancelled,
	}
}

package user

import "bytes"

// Tier is the plan level of an account
type Tier int

const (
	Free Tier = iota + 1
	Pro
)

func (t Tier) String() string {
	switch t {
	case Free:
		return "free"
	case Pro:
		return "pro"
	}
	return "unknown"
}

// MarshalJSON renders the tier by name
func (t Tier) MarshalJSON() ([]byte, error) {
	buffer := bytes.NewBufferString(`"`)
	buffer.WriteString(t.String())
	buffer.WriteString(`"`)
	return buffer.Bytes(), nil
}

// NewTier creates a Tier from a string, defaulting to Free
func NewTier(s string) Tier {
	if s == "pro" {
		return Pro
	}
	return Free
}

// SubscriptionStatus tracks the lifecycle of a paid subscription
type SubscriptionStatus int

const (
	SubscriptionNone SubscriptionStatus = iota + 1
	SubscriptionActive
	SubscriptionCancelled
)

func (s SubscriptionStatus) String() string {
	switch s {
	case SubscriptionNone:
		return "none"
	case SubscriptionActive:
		return "active"
	case SubscriptionCancelled:
		return "cancelled"
	}
	return "unknown"
}

// NewSubscriptionStatus creates a SubscriptionStatus from a string, defaulting to none
func NewSubscriptionStatus(s string) SubscriptionStatus {
	switch s {
	case "active":
		return SubscriptionActive
	case "cancelled":
		return SubscriptionCancelled
	}
	return SubscriptionNone
}

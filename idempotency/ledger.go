package idempotency

import (
	"context"
	"fmt"
)

/* The ledger remembers which deliveries were applied.
 * Begin claims a delivery id with a short-lived pending marker. Complete turns
 * the claim into a long-lived applied marker; Abandon releases it so a
 * redelivery can retry after a failure.
 */

// State of a delivery id as seen by Begin
type State int

const (
	// Claimed means the caller now owns the delivery and must Complete or Abandon it
	Claimed State = iota + 1
	// InFlight means another request holds the claim
	InFlight
	// Applied means the delivery was already applied
	Applied
)

func (s State) String() string {
	switch s {
	case Claimed:
		return "claimed"
	case InFlight:
		return "in-flight"
	case Applied:
		return "applied"
	}
	return "unknown"
}

type Ledger interface {
	Begin(ctx context.Context, key string) (State, error)
	Complete(ctx context.Context, key string) error
	Abandon(ctx context.Context, key string) error
}

// Key scopes a delivery id to its provider
func Key(provider, deliveryID string) string {
	return fmt.Sprintf("%s:%s", provider, deliveryID)
}

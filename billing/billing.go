package billing

import (
	"context"
	"errors"
	"fmt"
	"time"
)

/* A Reference links an identifier issued by the payment provider (an order
 * or a subscription) to the account that created it. Payment callbacks are
 * correlated through it, never through identifiers supplied in the payload.
 */

var ErrNotFound = errors.New("billing reference not found")

// Kind of provider identifier a reference stands for
type Kind int

const (
	Order Kind = iota + 1
	Subscription
)

func (k Kind) String() string {
	switch k {
	case Order:
		return "order"
	case Subscription:
		return "subscription"
	}
	return "unknown"
}

// NewKind creates a Kind from a string, returning 0 for unknown names
func NewKind(s string) Kind {
	switch s {
	case "order":
		return Order
	case "subscription":
		return Subscription
	}
	return 0
}

type Reference struct {
	ID         string
	Kind       Kind
	SubjectID  string
	Plan       string
	PeriodDays int
	Receipt    string
	CreatedAt  time.Time
}

// Validate checks the fields every store requires
func (r Reference) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("reference id cannot be empty")
	}
	if r.Kind != Order && r.Kind != Subscription {
		return fmt.Errorf("invalid reference kind: %d", r.Kind)
	}
	if r.SubjectID == "" {
		return fmt.Errorf("subject id cannot be empty for reference %s", r.ID)
	}
	if r.PeriodDays < 0 {
		return fmt.Errorf("period days cannot be negative for reference %s", r.ID)
	}
	return nil
}

type Reader interface {
	FindByReference(ctx context.Context, id string) (Reference, error)
}

type Writer interface {
	Save(ctx context.Context, ref Reference) error
}

type Repository interface {
	Reader
	Writer
	Close(ctx context.Context) error
}

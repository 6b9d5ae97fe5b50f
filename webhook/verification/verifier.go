package verification

import (
	"errors"
	"fmt"
	"strings"
)

/* Verifier runs two independent checks of the same secret-derived proof.
 * The primary is the provider's own library; the fallback recomputes the MAC
 * from first principles and only runs when the primary fails. A request is
 * verified when either succeeds and rejected when both fail.
 */

var (
	ErrMismatch = errors.New("signature mismatch")
	ErrPanicked = errors.New("verification panicked")
)

// Strategy identifies which check verified a delivery
type Strategy int

const (
	Primary Strategy = iota + 1
	Fallback
)

// String returns the string representation of the strategy
func (s Strategy) String() string {
	switch s {
	case Primary:
		return "primary"
	case Fallback:
		return "fallback"
	default:
		return "none"
	}
}

// Delivery is the signed material of one request. Timestamp is kept as sent.
type Delivery struct {
	ID        string
	Timestamp string
	Signature string
	Body      []byte
}

// Check is one verification strategy
type Check interface {
	Verify(d Delivery) error
}

// CheckFunc adapts a function to Check
type CheckFunc func(d Delivery) error

func (f CheckFunc) Verify(d Delivery) error {
	return f(d)
}

// Result is the tagged outcome of verification
type Result struct {
	Verified    bool
	Strategy    Strategy // zero unless Verified
	PrimaryErr  error
	FallbackErr error
}

// Reason summarises why verification failed, or which path succeeded
func (r Result) Reason() string {
	if r.Verified {
		return fmt.Sprintf("verified by %s", r.Strategy)
	}
	parts := make([]string, 0, 2)
	if r.PrimaryErr != nil {
		parts = append(parts, "primary: "+r.PrimaryErr.Error())
	}
	if r.FallbackErr != nil {
		parts = append(parts, "fallback: "+r.FallbackErr.Error())
	}
	return strings.Join(parts, "; ")
}

type Verifier struct {
	primary  Check
	fallback Check
}

func New(primary, fallback Check) *Verifier {
	return &Verifier{primary: primary, fallback: fallback}
}

// Verify never returns an unverified Result with both errors nil
func (v *Verifier) Verify(d Delivery) Result {
	err := run(v.primary, d)
	if err == nil {
		return Result{Verified: true, Strategy: Primary}
	}
	result := Result{PrimaryErr: err}

	if err := run(v.fallback, d); err != nil {
		result.FallbackErr = err
		return result
	}
	result.Verified = true
	result.Strategy = Fallback
	return result
}

func run(c Check, d Delivery) (err error) {
	if c == nil {
		return fmt.Errorf("strategy not configured")
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrPanicked, r)
		}
	}()
	return c.Verify(d)
}

package event

import (
	"errors"
	"time"
)

// ErrMalformed marks a verified body that lacks the fields needed to act on it
var ErrMalformed = errors.New("malformed event")

/* Event is a verified delivery parsed into a typed payload
 * Created only after signature verification and never modified afterwards
 */
type Event struct {
	Provider   string
	Kind       Kind
	Type       string // provider type string, kept for unrecognized kinds
	OccurredAt time.Time

	Subject      *Subject
	Payment      *Payment
	Subscription *Subscription
}

// Subject carries identity-provider account data. Nil name fields were absent in the payload.
type Subject struct {
	ID        string
	Email     string // primary verified address, or the first verified one
	FirstName *string
	LastName  *string
	ImageURL  *string
	Username  *string
}

type Payment struct {
	ID               string
	OrderID          string
	Amount           int64 // smallest currency unit
	Currency         string
	Status           string
	ErrorCode        string
	ErrorDescription string
}

type Subscription struct {
	ID         string
	PlanID     string
	Status     string
	CurrentEnd time.Time
}

// Normalizer turns a verified raw body into an Event.
// Failures wrap ErrMalformed.
type Normalizer interface {
	Normalize(provider string, body []byte, receivedAt time.Time) (Event, error)
}

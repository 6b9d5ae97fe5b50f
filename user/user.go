package user

import (
	"errors"
	"time"
)

/* Value semantics: a User is data copied in and out of the stores.
 * Only the store mutates the persisted record, keyed by SubjectID.
 */

var ErrNotFound = errors.New("user not found")

// User is the local account mirrored from the identity provider
type User struct {
	SubjectID    string
	Email        string
	FirstName    string
	LastName     string
	ImageURL     string
	Username     string
	Tier         Tier
	Subscription Subscription
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Subscription holds the billing state applied from payment callbacks
type Subscription struct {
	ID                string
	Status            SubscriptionStatus
	Plan              string
	ExpiresAt         time.Time
	LastPaymentID     string
	LastPaymentStatus string
}

// New creates a user with the default free-tier state
func New(subjectID, email string, now time.Time) User {
	return User{
		SubjectID: subjectID,
		Email:     email,
		Tier:      Free,
		Subscription: Subscription{
			Status: SubscriptionNone,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

/* Patch is a partial update. A nil field leaves the stored value untouched. */
type Patch struct {
	Email              *string
	FirstName          *string
	LastName           *string
	ImageURL           *string
	Username           *string
	Tier               *Tier
	SubscriptionID     *string
	SubscriptionStatus *SubscriptionStatus
	Plan               *string
	ExpiresAt          *time.Time
	LastPaymentID      *string
	LastPaymentStatus  *string
}

// Apply copies every set field of the patch onto u
func (p Patch) Apply(u *User) {
	set(&u.Email, p.Email)
	set(&u.FirstName, p.FirstName)
	set(&u.LastName, p.LastName)
	set(&u.ImageURL, p.ImageURL)
	set(&u.Username, p.Username)
	set(&u.Tier, p.Tier)
	set(&u.Subscription.ID, p.SubscriptionID)
	set(&u.Subscription.Status, p.SubscriptionStatus)
	set(&u.Subscription.Plan, p.Plan)
	set(&u.Subscription.ExpiresAt, p.ExpiresAt)
	set(&u.Subscription.LastPaymentID, p.LastPaymentID)
	set(&u.Subscription.LastPaymentStatus, p.LastPaymentStatus)
}

func set[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

// Ptr returns a pointer to v, for building patches
func Ptr[T any](v T) *T {
	return &v
}

package event

import (
	"encoding/json"
	"fmt"
	"time"
)

var identityKinds = map[string]Kind{
	"user.created": IdentityCreated,
	"user.updated": IdentityUpdated,
	"user.deleted": IdentityDeleted,
}

type identityEnvelope struct {
	Type      string          `json:"type"`
	Timestamp int64           `json:"timestamp"` // unix milliseconds
	Data      json.RawMessage `json:"data"`
}

type identityUser struct {
	ID                    string          `json:"id"`
	EmailAddresses        []identityEmail `json:"email_addresses"`
	PrimaryEmailAddressID *string         `json:"primary_email_address_id"`
	FirstName             *string         `json:"first_name"`
	LastName              *string         `json:"last_name"`
	ImageURL              *string         `json:"image_url"`
	Username              *string         `json:"username"`
}

type identityEmail struct {
	ID           string `json:"id"`
	EmailAddress string `json:"email_address"`
	Verification *struct {
		Status string `json:"status"`
	} `json:"verification"`
}

func (e identityEmail) verified() bool {
	return e.EmailAddress != "" && e.Verification != nil && e.Verification.Status == "verified"
}

// verifiedEmail returns the primary address when verified, otherwise the first verified one
func (u identityUser) verifiedEmail() string {
	if u.PrimaryEmailAddressID != nil {
		for _, e := range u.EmailAddresses {
			if e.ID == *u.PrimaryEmailAddressID && e.verified() {
				return e.EmailAddress
			}
		}
	}
	for _, e := range u.EmailAddresses {
		if e.verified() {
			return e.EmailAddress
		}
	}
	return ""
}

// IdentityNormalizer parses user lifecycle events from the identity provider
type IdentityNormalizer struct{}

func (IdentityNormalizer) Normalize(provider string, body []byte, receivedAt time.Time) (Event, error) {
	var env identityEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return Event{}, fmt.Errorf("%w: parsing body: %v", ErrMalformed, err)
	}
	if err := checkType(env.Type); err != nil {
		return Event{}, err
	}

	ev := Event{
		Provider:   provider,
		Kind:       Unrecognized,
		Type:       env.Type,
		OccurredAt: receivedAt.UTC(),
	}
	if env.Timestamp > 0 {
		ev.OccurredAt = time.UnixMilli(env.Timestamp).UTC()
	}

	kind, known := identityKinds[env.Type]
	if !known {
		return ev, nil
	}
	ev.Kind = kind

	var data identityUser
	if len(env.Data) == 0 || json.Unmarshal(env.Data, &data) != nil {
		return Event{}, fmt.Errorf("%w: %s without a user object", ErrMalformed, env.Type)
	}
	if data.ID == "" {
		return Event{}, fmt.Errorf("%w: %s without data.id", ErrMalformed, env.Type)
	}

	subject := &Subject{ID: data.ID}
	if kind != IdentityDeleted {
		subject.Email = data.verifiedEmail()
		subject.FirstName = data.FirstName
		subject.LastName = data.LastName
		subject.ImageURL = data.ImageURL
		subject.Username = data.Username
	}
	if kind == IdentityCreated && subject.Email == "" {
		return Event{}, fmt.Errorf("%w: %s for %s has no verified email address", ErrMalformed, env.Type, data.ID)
	}
	ev.Subject = subject

	return ev, nil
}

// checkType only requires a type. Any type outside the known kinds is unrecognized, never malformed.
func checkType(t string) error {
	if t == "" {
		return fmt.Errorf("%w: event type is required", ErrMalformed)
	}
	return nil
}

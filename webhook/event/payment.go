package event

import (
	"encoding/json"
	"fmt"
	"time"
)

var paymentKinds = map[string]Kind{
	"payment.captured":       PaymentCaptured,
	"payment.failed":         PaymentFailed,
	"subscription.activated": SubscriptionActivated,
	"subscription.cancelled": SubscriptionCancelled,
}

type paymentEnvelope struct {
	Event   string `json:"event"`
	Payload struct {
		Payment *struct {
			Entity paymentEntity `json:"entity"`
		} `json:"payment"`
		Subscription *struct {
			Entity subscriptionEntity `json:"entity"`
		} `json:"subscription"`
	} `json:"payload"`
	CreatedAt int64 `json:"created_at"` // unix seconds
}

type paymentEntity struct {
	ID               string  `json:"id"`
	OrderID          *string `json:"order_id"`
	Amount           int64   `json:"amount"`
	Currency         string  `json:"currency"`
	Status           string  `json:"status"`
	ErrorCode        *string `json:"error_code"`
	ErrorDescription *string `json:"error_description"`
}

type subscriptionEntity struct {
	ID         string `json:"id"`
	PlanID     string `json:"plan_id"`
	Status     string `json:"status"`
	CurrentEnd *int64 `json:"current_end"`
}

// PaymentNormalizer parses payment and subscription events from the payment provider
type PaymentNormalizer struct{}

func (PaymentNormalizer) Normalize(provider string, body []byte, receivedAt time.Time) (Event, error) {
	var env paymentEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return Event{}, fmt.Errorf("%w: parsing body: %v", ErrMalformed, err)
	}
	if err := checkType(env.Event); err != nil {
		return Event{}, err
	}

	ev := Event{
		Provider:   provider,
		Kind:       Unrecognized,
		Type:       env.Event,
		OccurredAt: receivedAt.UTC(),
	}
	if env.CreatedAt > 0 {
		ev.OccurredAt = time.Unix(env.CreatedAt, 0).UTC()
	}

	kind, known := paymentKinds[env.Event]
	if !known {
		return ev, nil
	}
	ev.Kind = kind

	switch kind {
	case PaymentCaptured, PaymentFailed:
		p := env.Payload.Payment
		if p == nil || p.Entity.ID == "" {
			return Event{}, fmt.Errorf("%w: %s without payload.payment.entity.id", ErrMalformed, env.Event)
		}
		if p.Entity.OrderID == nil || *p.Entity.OrderID == "" {
			return Event{}, fmt.Errorf("%w: %s for %s without order_id", ErrMalformed, env.Event, p.Entity.ID)
		}
		ev.Payment = &Payment{
			ID:               p.Entity.ID,
			OrderID:          *p.Entity.OrderID,
			Amount:           p.Entity.Amount,
			Currency:         p.Entity.Currency,
			Status:           p.Entity.Status,
			ErrorCode:        deref(p.Entity.ErrorCode),
			ErrorDescription: deref(p.Entity.ErrorDescription),
		}
	case SubscriptionActivated, SubscriptionCancelled:
		s := env.Payload.Subscription
		if s == nil || s.Entity.ID == "" {
			return Event{}, fmt.Errorf("%w: %s without payload.subscription.entity.id", ErrMalformed, env.Event)
		}
		ev.Subscription = &Subscription{
			ID:     s.Entity.ID,
			PlanID: s.Entity.PlanID,
			Status: s.Entity.Status,
		}
		if s.Entity.CurrentEnd != nil && *s.Entity.CurrentEnd > 0 {
			ev.Subscription.CurrentEnd = time.Unix(*s.Entity.CurrentEnd, 0).UTC()
		}
	}

	return ev, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

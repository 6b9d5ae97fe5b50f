package dispatch

import (
	"context"
	"errors"
	"fmt"

	"github.com/marcelsud/commit-webhooks/billing"
	"github.com/marcelsud/commit-webhooks/user"
	"github.com/marcelsud/commit-webhooks/webhook/event"
	"github.com/rs/zerolog"
)

// DefaultPeriodDays is the paid period applied when an order reference carries none
const DefaultPeriodDays = 30

// Payment statuses recorded on the account
const (
	PaymentCaptured = "captured"
	PaymentFailed   = "failed"
)

var ErrUncorrelated = errors.New("no billing reference for event")

// Handlers applies identity and billing events to user accounts
type Handlers struct {
	Users   user.UseCase
	Billing billing.Reader
}

func NewHandlers(users user.UseCase, refs billing.Reader) *Handlers {
	return &Handlers{Users: users, Billing: refs}
}

// Register adds a handler for every kind Handlers can apply
func (h *Handlers) Register(r *Registry) {
	r.Register(event.IdentityCreated, HandlerFunc(h.subjectCreated))
	r.Register(event.IdentityUpdated, HandlerFunc(h.subjectUpdated))
	r.Register(event.IdentityDeleted, HandlerFunc(h.subjectDeleted))
	r.Register(event.PaymentCaptured, HandlerFunc(h.paymentCaptured))
	r.Register(event.PaymentFailed, HandlerFunc(h.paymentFailed))
	r.Register(event.SubscriptionActivated, HandlerFunc(h.subscriptionChanged))
	r.Register(event.SubscriptionCancelled, HandlerFunc(h.subscriptionChanged))
}

func subjectOf(ev event.Event) (*event.Subject, error) {
	if ev.Subject == nil || ev.Subject.ID == "" {
		return nil, fmt.Errorf("%w: %s without subject", event.ErrMalformed, ev.Kind)
	}
	return ev.Subject, nil
}

func profilePatch(s *event.Subject) user.Patch {
	p := user.Patch{
		FirstName: s.FirstName,
		LastName:  s.LastName,
		ImageURL:  s.ImageURL,
		Username:  s.Username,
	}
	if s.Email != "" {
		p.Email = user.Ptr(s.Email)
	}
	return p
}

func (h *Handlers) subjectCreated(ctx context.Context, ev event.Event) (bool, error) {
	s, err := subjectOf(ev)
	if err != nil {
		return false, err
	}
	if s.Email == "" {
		return false, fmt.Errorf("%w: %w", event.ErrMalformed, user.ErrMissingEmail)
	}

	u := user.New(s.ID, s.Email, ev.OccurredAt)
	profilePatch(s).Apply(&u)

	created, err := h.Users.Register(ctx, u)
	if err != nil {
		return false, err
	}
	return created, nil
}

// subjectUpdated creates the record when it has not been seen yet, so an
// update delivered before its create still lands
func (h *Handlers) subjectUpdated(ctx context.Context, ev event.Event) (bool, error) {
	s, err := subjectOf(ev)
	if err != nil {
		return false, err
	}

	_, err = h.Users.SyncProfile(ctx, s.ID, profilePatch(s))
	if errors.Is(err, user.ErrMissingEmail) {
		return false, fmt.Errorf("%w: %w", event.ErrMalformed, err)
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (h *Handlers) subjectDeleted(ctx context.Context, ev event.Event) (bool, error) {
	s, err := subjectOf(ev)
	if err != nil {
		return false, err
	}
	return h.Users.Remove(ctx, s.ID)
}

// correlate resolves the account that owns a provider identifier. Identifiers
// in the callback body are only used as lookup keys, never as the account id.
func (h *Handlers) correlate(ctx context.Context, id string, kind billing.Kind) (billing.Reference, error) {
	ref, err := h.Billing.FindByReference(ctx, id)
	if errors.Is(err, billing.ErrNotFound) {
		return billing.Reference{}, fmt.Errorf("%w: %s %s", ErrUncorrelated, kind, id)
	}
	if err != nil {
		return billing.Reference{}, fmt.Errorf("finding %s reference: %w", kind, err)
	}
	if ref.Kind != kind {
		return billing.Reference{}, fmt.Errorf("%w: %s is a %s reference", ErrUncorrelated, id, ref.Kind)
	}
	return ref, nil
}

func paymentOf(ev event.Event) (*event.Payment, error) {
	if ev.Payment == nil || ev.Payment.ID == "" || ev.Payment.OrderID == "" {
		return nil, fmt.Errorf("%w: %s without payment", event.ErrMalformed, ev.Kind)
	}
	return ev.Payment, nil
}

func (h *Handlers) paymentCaptured(ctx context.Context, ev event.Event) (bool, error) {
	pay, err := paymentOf(ev)
	if err != nil {
		return false, err
	}
	ref, err := h.correlate(ctx, pay.OrderID, billing.Order)
	if err != nil {
		return false, err
	}

	days := ref.PeriodDays
	if days <= 0 {
		days = DefaultPeriodDays
	}
	expiresAt := ev.OccurredAt.AddDate(0, 0, days).UTC()

	p := user.Patch{
		Tier:               user.Ptr(user.Pro),
		SubscriptionStatus: user.Ptr(user.SubscriptionActive),
		ExpiresAt:          &expiresAt,
		LastPaymentStatus:  user.Ptr(PaymentCaptured),
	}
	if ref.Plan != "" {
		p.Plan = user.Ptr(ref.Plan)
	}

	changed, err := h.Users.RecordPayment(ctx, ref.SubjectID, pay.ID, p)
	if err != nil {
		return false, err
	}
	if changed {
		zerolog.Ctx(ctx).Info().
			Str("subject_id", ref.SubjectID).
			Str("payment_id", pay.ID).
			Str("order_id", pay.OrderID).
			Time("expires_at", expiresAt).
			Msg("subscription activated by payment")
	}
	return changed, nil
}

// paymentFailed records the failure for audit; an active subscription is kept
func (h *Handlers) paymentFailed(ctx context.Context, ev event.Event) (bool, error) {
	pay, err := paymentOf(ev)
	if err != nil {
		return false, err
	}
	ref, err := h.correlate(ctx, pay.OrderID, billing.Order)
	if err != nil {
		return false, err
	}

	changed, err := h.Users.RecordPayment(ctx, ref.SubjectID, pay.ID, user.Patch{
		LastPaymentStatus: user.Ptr(PaymentFailed),
	})
	if err != nil {
		return false, err
	}
	zerolog.Ctx(ctx).Warn().
		Str("subject_id", ref.SubjectID).
		Str("payment_id", pay.ID).
		Str("order_id", pay.OrderID).
		Str("error_code", pay.ErrorCode).
		Str("error_description", pay.ErrorDescription).
		Bool("recorded", changed).
		Msg("payment failed")
	return changed, nil
}

func (h *Handlers) subscriptionChanged(ctx context.Context, ev event.Event) (bool, error) {
	if ev.Subscription == nil || ev.Subscription.ID == "" {
		return false, fmt.Errorf("%w: %s without subscription", event.ErrMalformed, ev.Kind)
	}
	sub := ev.Subscription
	ref, err := h.correlate(ctx, sub.ID, billing.Subscription)
	if err != nil {
		return false, err
	}

	tier, status := user.Pro, user.SubscriptionActive
	if ev.Kind == event.SubscriptionCancelled {
		tier, status = user.Free, user.SubscriptionCancelled
	}
	p := user.Patch{
		Tier:               &tier,
		SubscriptionID:     user.Ptr(sub.ID),
		SubscriptionStatus: &status,
	}
	if plan := firstNonEmpty(sub.PlanID, ref.Plan); plan != "" {
		p.Plan = &plan
	}
	if !sub.CurrentEnd.IsZero() {
		p.ExpiresAt = &sub.CurrentEnd
	}

	if _, err := h.Users.UpdateSubscription(ctx, ref.SubjectID, p); err != nil {
		return false, err
	}
	zerolog.Ctx(ctx).Info().
		Str("subject_id", ref.SubjectID).
		Str("subscription_id", sub.ID).
		Str("status", status.String()).
		Time("current_end", sub.CurrentEnd).
		Msg("subscription status updated")
	return true, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

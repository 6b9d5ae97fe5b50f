package dispatch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/marcelsud/commit-webhooks/idempotency"
	"github.com/marcelsud/commit-webhooks/webhook/event"
	"github.com/rs/zerolog"
)

// ErrHandlerPanicked wraps a recovered handler panic
var ErrHandlerPanicked = errors.New("handler panicked")

/* Dispatcher routes verified events to their handler at most once per delivery.
 * The ledger short-circuits redeliveries of a delivery id, or of a payment id
 * when the provider sent no delivery id. Handlers are still
 * written against conditional store writes, so a ledger outage or a missing
 * delivery id degrades to handler-level idempotency instead of failing.
 */
type Dispatcher struct {
	registry *Registry
	ledger   idempotency.Ledger
	timeout  time.Duration
}

// NewDispatcher creates a dispatcher. A nil ledger disables delivery tracking.
func NewDispatcher(registry *Registry, ledger idempotency.Ledger, timeout time.Duration) *Dispatcher {
	return &Dispatcher{
		registry: registry,
		ledger:   ledger,
		timeout:  timeout,
	}
}

// Dispatch applies ev and reports the outcome. It never panics.
// The request context only contributes values: once an event is verified it
// is applied to completion, bounded by the store timeout.
func (d *Dispatcher) Dispatch(ctx context.Context, deliveryID string, ev event.Event) Outcome {
	logger := zerolog.Ctx(ctx).With().
		Str("event_kind", ev.Kind.String()).
		Str("delivery_id", deliveryID).
		Logger()

	h, ok := d.registry.Get(ev.Kind)
	if !ok {
		logger.Info().Str("event_type", ev.Type).Msg("no handler for event, acknowledging")
		return Outcome{Status: Ignored, Reason: fmt.Sprintf("no handler for %s", ev.Type)}
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.timeout)
	defer cancel()

	key := ""
	id := ledgerID(deliveryID, ev)
	if d.ledger != nil && id != "" {
		key = idempotency.Key(ev.Provider, id)
		state, err := d.ledger.Begin(ctx, key)
		switch {
		case err != nil:
			logger.Warn().Err(err).Msg("delivery ledger unavailable, relying on handler idempotency")
			key = ""
		case state == idempotency.Applied:
			logger.Info().Msg("delivery already applied")
			return alreadyApplied("delivery already applied")
		case state == idempotency.InFlight:
			logger.Info().Msg("delivery is being applied by another request")
			return alreadyApplied("delivery in flight")
		}
	} else if id == "" {
		logger.Debug().Msg("no delivery id, relying on handler idempotency")
	}

	changed, err := invoke(ctx, h, ev)
	if err != nil {
		if key != "" {
			if abandonErr := d.ledger.Abandon(ctx, key); abandonErr != nil {
				logger.Warn().Err(abandonErr).Msg("releasing delivery claim")
			}
		}
		logger.Error().Err(err).Msg("applying event")
		return failed(err)
	}

	if key != "" {
		if err := d.ledger.Complete(ctx, key); err != nil {
			logger.Warn().Err(err).Msg("marking delivery applied")
		}
	}

	if !changed {
		logger.Info().Msg("event already applied")
		return alreadyApplied("no changes")
	}
	logger.Info().Msg("event applied")
	return applied()
}

// ledgerID names the delivery in the ledger. Without a delivery id a payment
// event is tracked by its kind and payment id.
func ledgerID(deliveryID string, ev event.Event) string {
	if deliveryID != "" {
		return deliveryID
	}
	if ev.Payment != nil && ev.Payment.ID != "" {
		return ev.Kind.String() + ":" + ev.Payment.ID
	}
	return ""
}

func invoke(ctx context.Context, h Handler, ev event.Event) (changed bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrHandlerPanicked, r)
		}
	}()
	return h.Handle(ctx, ev)
}

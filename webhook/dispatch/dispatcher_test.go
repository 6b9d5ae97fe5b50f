package dispatch

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/marcelsud/commit-webhooks/idempotency"
	ledgermemory "github.com/marcelsud/commit-webhooks/idempotency/memory"
	"github.com/marcelsud/commit-webhooks/webhook/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingLedger struct{}

func (failingLedger) Begin(context.Context, string) (idempotency.State, error) {
	return 0, errors.New("connection refused")
}
func (failingLedger) Complete(context.Context, string) error { return errors.New("connection refused") }
func (failingLedger) Abandon(context.Context, string) error  { return errors.New("connection refused") }

func createdEvent(id string) event.Event {
	return event.Event{
		Provider:   "identity",
		Kind:       event.IdentityCreated,
		Type:       "user.created",
		OccurredAt: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
		Subject:    &event.Subject{ID: id, Email: id + "@example.com"},
	}
}

func countingRegistry(calls *atomic.Int32, result func() (bool, error)) *Registry {
	r := NewRegistry()
	r.Register(event.IdentityCreated, HandlerFunc(func(context.Context, event.Event) (bool, error) {
		calls.Add(1)
		return result()
	}))
	return r
}

func TestRegistry(t *testing.T) {
	t.Run("duplicate registration panics", func(t *testing.T) {
		r := NewRegistry()
		h := HandlerFunc(func(context.Context, event.Event) (bool, error) { return true, nil })
		r.Register(event.IdentityCreated, h)
		assert.Panics(t, func() { r.Register(event.IdentityCreated, h) })
	})

	t.Run("unrecognized kind cannot be registered", func(t *testing.T) {
		h := HandlerFunc(func(context.Context, event.Event) (bool, error) { return true, nil })
		assert.Panics(t, func() { NewRegistry().Register(event.Unrecognized, h) })
	})

	t.Run("handlers cover every dispatchable kind", func(t *testing.T) {
		r := NewRegistry()
		NewHandlers(nil, nil).Register(r)
		assert.Equal(t, event.Kinds(), r.Kinds())
	})
}

func TestDispatcher_Dispatch(t *testing.T) {
	ctx := context.Background()
	ok := func() (bool, error) { return true, nil }

	t.Run("success - same delivery twice applies once", func(t *testing.T) {
		var calls atomic.Int32
		d := NewDispatcher(countingRegistry(&calls, ok), ledgermemory.NewLedger(time.Minute, time.Hour), time.Second)

		first := d.Dispatch(ctx, "msg_1", createdEvent("user_1"))
		second := d.Dispatch(ctx, "msg_1", createdEvent("user_1"))

		assert.Equal(t, Applied, first.Status)
		assert.Equal(t, AlreadyApplied, second.Status)
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("success - unrecognized kind is never routed", func(t *testing.T) {
		var calls atomic.Int32
		d := NewDispatcher(countingRegistry(&calls, ok), nil, time.Second)

		out := d.Dispatch(ctx, "msg_1", event.Event{Provider: "identity", Kind: event.Unrecognized, Type: "session.created"})
		assert.Equal(t, Ignored, out.Status)
		assert.Zero(t, calls.Load())
	})

	t.Run("success - handler reports no change", func(t *testing.T) {
		var calls atomic.Int32
		d := NewDispatcher(countingRegistry(&calls, func() (bool, error) { return false, nil }), nil, time.Second)

		out := d.Dispatch(ctx, "", createdEvent("user_1"))
		assert.Equal(t, AlreadyApplied, out.Status)
	})

	t.Run("failure - failed delivery can be retried", func(t *testing.T) {
		var calls atomic.Int32
		result := func() (bool, error) {
			if calls.Load() == 1 {
				return false, errors.New("store timeout")
			}
			return true, nil
		}
		d := NewDispatcher(countingRegistry(&calls, result), ledgermemory.NewLedger(time.Minute, time.Hour), time.Second)

		first := d.Dispatch(ctx, "msg_1", createdEvent("user_1"))
		require.Equal(t, Failed, first.Status)
		assert.EqualError(t, first.Err, "store timeout")

		second := d.Dispatch(ctx, "msg_1", createdEvent("user_1"))
		assert.Equal(t, Applied, second.Status)
		assert.Equal(t, int32(2), calls.Load())
	})

	t.Run("failure - handler panic becomes an outcome", func(t *testing.T) {
		r := NewRegistry()
		r.Register(event.IdentityCreated, HandlerFunc(func(context.Context, event.Event) (bool, error) {
			panic("nil pointer")
		}))
		out := NewDispatcher(r, nil, time.Second).Dispatch(ctx, "msg_1", createdEvent("user_1"))

		assert.Equal(t, Failed, out.Status)
		assert.ErrorIs(t, out.Err, ErrHandlerPanicked)
	})

	t.Run("success - ledger outage falls back to the handler", func(t *testing.T) {
		var calls atomic.Int32
		d := NewDispatcher(countingRegistry(&calls, ok), failingLedger{}, time.Second)

		out := d.Dispatch(ctx, "msg_1", createdEvent("user_1"))
		assert.Equal(t, Applied, out.Status)
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("success - cancelled request still applies", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		r := NewRegistry()
		r.Register(event.IdentityCreated, HandlerFunc(func(ctx context.Context, _ event.Event) (bool, error) {
			return true, ctx.Err()
		}))
		out := NewDispatcher(r, nil, time.Second).Dispatch(cancelled, "msg_1", createdEvent("user_1"))
		assert.Equal(t, Applied, out.Status)
	})

	t.Run("success - ledger is scoped per provider", func(t *testing.T) {
		var calls atomic.Int32
		d := NewDispatcher(countingRegistry(&calls, ok), ledgermemory.NewLedger(time.Minute, time.Hour), time.Second)

		ev := createdEvent("user_1")
		d.Dispatch(ctx, "msg_1", ev)
		ev.Provider = "other"
		out := d.Dispatch(ctx, "msg_1", ev)

		assert.Equal(t, Applied, out.Status)
		assert.Equal(t, int32(2), calls.Load())
	})
}

func TestStatus_String(t *testing.T) {
	assert.Equal(t, "applied", Applied.String())
	assert.Equal(t, "already-applied", AlreadyApplied.String())
	assert.Equal(t, "error", Failed.String())
	assert.Equal(t, "ignored", Ignored.String())
	assert.Equal(t, "unknown", Status(0).String())
}

package memory

import (
	"context"
	"sync"
	"time"

	"github.com/marcelsud/commit-webhooks/idempotency"
)

type entry struct {
	applied   bool
	expiresAt time.Time
}

// Ledger is an in-process idempotency.Ledger with the same TTL semantics as the Redis one
type Ledger struct {
	mu         sync.Mutex
	entries    map[string]entry
	pendingTTL time.Duration
	appliedTTL time.Duration
	now        func() time.Time
}

func NewLedger(pendingTTL, appliedTTL time.Duration) *Ledger {
	return &Ledger{
		entries:    make(map[string]entry),
		pendingTTL: pendingTTL,
		appliedTTL: appliedTTL,
		now:        time.Now,
	}
}

func (l *Ledger) Begin(_ context.Context, key string) (idempotency.State, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if e, ok := l.entries[key]; ok && now.Before(e.expiresAt) {
		if e.applied {
			return idempotency.Applied, nil
		}
		return idempotency.InFlight, nil
	}
	l.entries[key] = entry{expiresAt: now.Add(l.pendingTTL)}
	return idempotency.Claimed, nil
}

func (l *Ledger) Complete(_ context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries[key] = entry{applied: true, expiresAt: l.now().Add(l.appliedTTL)}
	return nil
}

func (l *Ledger) Abandon(_ context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if e, ok := l.entries[key]; ok && !e.applied {
		delete(l.entries, key)
	}
	return nil
}

package dispatch

import (
	"context"
	"fmt"
	"sync"

	"github.com/marcelsud/commit-webhooks/webhook/event"
)

// Handler applies one kind of event. It reports false when the event had
// already been applied and nothing changed.
type Handler interface {
	Handle(ctx context.Context, ev event.Event) (bool, error)
}

// HandlerFunc adapts a function to Handler
type HandlerFunc func(ctx context.Context, ev event.Event) (bool, error)

func (f HandlerFunc) Handle(ctx context.Context, ev event.Event) (bool, error) {
	return f(ctx, ev)
}

// Registry maps event kinds to their handlers.
// It is safe for concurrent reads; Register should only be called at startup.
type Registry struct {
	mu       sync.RWMutex
	handlers map[event.Kind]Handler
}

func NewRegistry() *Registry {
	return &Registry{handlers: make(map[event.Kind]Handler)}
}

// Register adds a handler. Panics on a duplicate or unrecognized kind.
func (r *Registry) Register(kind event.Kind, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if kind == event.Unrecognized || kind.String() == "unknown" {
		panic(fmt.Sprintf("dispatch registry: kind %s cannot have a handler", kind))
	}
	if _, exists := r.handlers[kind]; exists {
		panic(fmt.Sprintf("dispatch registry: duplicate handler for %s", kind))
	}
	r.handlers[kind] = h
}

// Get returns the handler for a kind
func (r *Registry) Get(kind event.Kind) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[kind]
	return h, ok
}

// Kinds returns the registered kinds in event.Kinds order
func (r *Registry) Kinds() []event.Kind {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]event.Kind, 0, len(r.handlers))
	for _, k := range event.Kinds() {
		if _, ok := r.handlers[k]; ok {
			out = append(out, k)
		}
	}
	return out
}

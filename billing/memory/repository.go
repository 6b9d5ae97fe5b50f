package memory

import (
	"context"
	"sync"

	"github.com/marcelsud/commit-webhooks/billing"
)

type Repository struct {
	mu   sync.RWMutex
	refs map[string]billing.Reference
}

func NewRepository() *Repository {
	return &Repository{refs: make(map[string]billing.Reference)}
}

func (r *Repository) FindByReference(_ context.Context, id string) (billing.Reference, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ref, ok := r.refs[id]
	if !ok {
		return billing.Reference{}, billing.ErrNotFound
	}
	return ref, nil
}

func (r *Repository) Save(_ context.Context, ref billing.Reference) error {
	if err := ref.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.refs[ref.ID] = ref
	return nil
}

func (r *Repository) Close(context.Context) error {
	return nil
}

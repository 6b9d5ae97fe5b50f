package memory

import (
	"context"
	"sync"
	"time"

	"github.com/marcelsud/commit-webhooks/user"
)

/* In-memory user.Repository guarded by a single mutex
 * Used by tests and by STORE_DRIVER=memory for local runs
 */

type Repository struct {
	mu    sync.Mutex
	users map[string]user.User
	now   func() time.Time
}

func NewRepository() *Repository {
	return &Repository{
		users: make(map[string]user.User),
		now:   time.Now,
	}
}

func (r *Repository) FindBySubjectID(_ context.Context, subjectID string) (user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[subjectID]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	return u, nil
}

func (r *Repository) CreateIfAbsent(_ context.Context, u user.User) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[u.SubjectID]; ok {
		return false, nil
	}
	r.users[u.SubjectID] = u
	return true, nil
}

func (r *Repository) UpsertBySubjectID(_ context.Context, subjectID string, p user.Patch) (user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now().UTC()
	u, ok := r.users[subjectID]
	if !ok {
		u = user.New(subjectID, "", now)
	}
	p.Apply(&u)
	u.UpdatedAt = now
	r.users[subjectID] = u
	return u, nil
}

func (r *Repository) UpdateBySubjectID(_ context.Context, subjectID string, p user.Patch) (user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[subjectID]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	p.Apply(&u)
	u.UpdatedAt = r.now().UTC()
	r.users[subjectID] = u
	return u, nil
}

func (r *Repository) RecordPayment(_ context.Context, subjectID, paymentID string, p user.Patch) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[subjectID]
	if !ok {
		return false, user.ErrNotFound
	}
	if u.Subscription.LastPaymentID == paymentID {
		return false, nil
	}
	p.Apply(&u)
	u.Subscription.LastPaymentID = paymentID
	u.UpdatedAt = r.now().UTC()
	r.users[subjectID] = u
	return true, nil
}

func (r *Repository) DeleteBySubjectID(_ context.Context, subjectID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[subjectID]; !ok {
		return false, nil
	}
	delete(r.users, subjectID)
	return true, nil
}

// Len returns the number of stored users
func (r *Repository) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.users)
}

func (r *Repository) Close(context.Context) error {
	return nil
}

package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/marcelsud/commit-webhooks/billing"
	"github.com/redis/go-redis/v9"
)

/* Redis implementation of billing.Repository
 * One hash per provider identifier: billing:{reference_id}
 */

const hashPrefix = "billing"

type Repository struct {
	client *redis.Client
}

// NewRepositoryWithClient wraps an existing client, sharing its pool
func NewRepositoryWithClient(client *redis.Client) *Repository {
	return &Repository{client: client}
}

func key(id string) string {
	return fmt.Sprintf("%s:%s", hashPrefix, id)
}

func (r *Repository) FindByReference(ctx context.Context, id string) (billing.Reference, error) {
	data, err := r.client.HGetAll(ctx, key(id)).Result()
	if err != nil {
		return billing.Reference{}, fmt.Errorf("getting billing reference: %w", err)
	}
	if len(data) == 0 {
		return billing.Reference{}, billing.ErrNotFound
	}

	periodDays, _ := strconv.Atoi(data["period_days"])
	createdAt, _ := strconv.ParseInt(data["created_at"], 10, 64)
	return billing.Reference{
		ID:         data["id"],
		Kind:       billing.NewKind(data["kind"]),
		SubjectID:  data["subject_id"],
		Plan:       data["plan"],
		PeriodDays: periodDays,
		Receipt:    data["receipt"],
		CreatedAt:  time.Unix(createdAt, 0).UTC(),
	}, nil
}

func (r *Repository) Save(ctx context.Context, ref billing.Reference) error {
	if err := ref.Validate(); err != nil {
		return err
	}
	err := r.client.HSet(ctx, key(ref.ID), map[string]interface{}{
		"id":          ref.ID,
		"kind":        ref.Kind.String(),
		"subject_id":  ref.SubjectID,
		"plan":        ref.Plan,
		"period_days": ref.PeriodDays,
		"receipt":     ref.Receipt,
		"created_at":  ref.CreatedAt.Unix(),
	}).Err()
	if err != nil {
		return fmt.Errorf("storing billing reference: %w", err)
	}
	return nil
}

// Close closes the Redis connection
func (r *Repository) Close(ctx context.Context) error {
	return r.client.Close()
}

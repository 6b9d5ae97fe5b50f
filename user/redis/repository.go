package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/marcelsud/commit-webhooks/user"
	"github.com/redis/go-redis/v9"
)

/* Redis implementation of user.Repository
 * One hash per account: user:{subject_id}
 * Conditional writes run as Lua scripts so each one is a single atomic step
 */

const hashPrefix = "user"

var (
	createScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 1 then
  return 0
end
redis.call('HSET', KEYS[1], unpack(ARGV))
return 1
`)

	updateScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
  return 0
end
redis.call('HSET', KEYS[1], unpack(ARGV))
return 1
`)

	paymentScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
  return -1
end
if redis.call('HGET', KEYS[1], 'last_payment_id') == ARGV[1] then
  return 0
end
redis.call('HSET', KEYS[1], unpack(ARGV, 2))
return 1
`)
)

type Repository struct {
	client *redis.Client
	now    func() time.Time
}

// NewRepositoryWithClient wraps an existing client, sharing its pool
func NewRepositoryWithClient(client *redis.Client) *Repository {
	return &Repository{
		client: client,
		now:    time.Now,
	}
}

func key(subjectID string) string {
	return fmt.Sprintf("%s:%s", hashPrefix, subjectID)
}

func (r *Repository) FindBySubjectID(ctx context.Context, subjectID string) (user.User, error) {
	data, err := r.client.HGetAll(ctx, key(subjectID)).Result()
	if err != nil {
		return user.User{}, fmt.Errorf("getting user: %w", err)
	}
	if len(data) == 0 {
		return user.User{}, user.ErrNotFound
	}
	return decode(data), nil
}

func (r *Repository) CreateIfAbsent(ctx context.Context, u user.User) (bool, error) {
	created, err := createScript.Run(ctx, r.client, []string{key(u.SubjectID)}, encode(u)...).Int()
	if err != nil {
		return false, fmt.Errorf("creating user: %w", err)
	}
	return created == 1, nil
}

func (r *Repository) UpsertBySubjectID(ctx context.Context, subjectID string, p user.Patch) (user.User, error) {
	k := key(subjectID)
	now := r.now().UTC()
	defaults := user.New(subjectID, "", now)

	var snapshot *redis.MapStringStringCmd
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSetNX(ctx, k, "subject_id", subjectID)
		pipe.HSetNX(ctx, k, "tier", int(defaults.Tier))
		pipe.HSetNX(ctx, k, "subscription_status", int(defaults.Subscription.Status))
		pipe.HSetNX(ctx, k, "created_at", now.Unix())
		pipe.HSet(ctx, k, patchFields(p, now)...)
		snapshot = pipe.HGetAll(ctx, k)
		return nil
	})
	if err != nil {
		return user.User{}, fmt.Errorf("upserting user: %w", err)
	}
	return decode(snapshot.Val()), nil
}

func (r *Repository) UpdateBySubjectID(ctx context.Context, subjectID string, p user.Patch) (user.User, error) {
	updated, err := updateScript.Run(ctx, r.client, []string{key(subjectID)}, patchFields(p, r.now().UTC())...).Int()
	if err != nil {
		return user.User{}, fmt.Errorf("updating user: %w", err)
	}
	if updated == 0 {
		return user.User{}, user.ErrNotFound
	}
	return r.FindBySubjectID(ctx, subjectID)
}

func (r *Repository) RecordPayment(ctx context.Context, subjectID, paymentID string, p user.Patch) (bool, error) {
	p.LastPaymentID = &paymentID
	args := append([]interface{}{paymentID}, patchFields(p, r.now().UTC())...)

	result, err := paymentScript.Run(ctx, r.client, []string{key(subjectID)}, args...).Int()
	if err != nil {
		return false, fmt.Errorf("recording payment: %w", err)
	}
	switch result {
	case -1:
		return false, user.ErrNotFound
	case 0:
		return false, nil
	}
	return true, nil
}

func (r *Repository) DeleteBySubjectID(ctx context.Context, subjectID string) (bool, error) {
	n, err := r.client.Del(ctx, key(subjectID)).Result()
	if err != nil {
		return false, fmt.Errorf("deleting user: %w", err)
	}
	return n > 0, nil
}

func encode(u user.User) []interface{} {
	return []interface{}{
		"subject_id", u.SubjectID,
		"email", u.Email,
		"first_name", u.FirstName,
		"last_name", u.LastName,
		"image_url", u.ImageURL,
		"username", u.Username,
		"tier", int(u.Tier),
		"subscription_id", u.Subscription.ID,
		"subscription_status", int(u.Subscription.Status),
		"plan", u.Subscription.Plan,
		"expires_at", unix(u.Subscription.ExpiresAt),
		"last_payment_id", u.Subscription.LastPaymentID,
		"last_payment_status", u.Subscription.LastPaymentStatus,
		"created_at", u.CreatedAt.Unix(),
		"updated_at", u.UpdatedAt.Unix(),
	}
}

// patchFields flattens the set fields of p into HSET arguments, always stamping updated_at
func patchFields(p user.Patch, now time.Time) []interface{} {
	fields := []interface{}{"updated_at", now.Unix()}
	str := func(name string, v *string) {
		if v != nil {
			fields = append(fields, name, *v)
		}
	}
	str("email", p.Email)
	str("first_name", p.FirstName)
	str("last_name", p.LastName)
	str("image_url", p.ImageURL)
	str("username", p.Username)
	str("subscription_id", p.SubscriptionID)
	str("plan", p.Plan)
	str("last_payment_id", p.LastPaymentID)
	str("last_payment_status", p.LastPaymentStatus)
	if p.Tier != nil {
		fields = append(fields, "tier", int(*p.Tier))
	}
	if p.SubscriptionStatus != nil {
		fields = append(fields, "subscription_status", int(*p.SubscriptionStatus))
	}
	if p.ExpiresAt != nil {
		fields = append(fields, "expires_at", unix(*p.ExpiresAt))
	}
	return fields
}

func decode(data map[string]string) user.User {
	return user.User{
		SubjectID: data["subject_id"],
		Email:     data["email"],
		FirstName: data["first_name"],
		LastName:  data["last_name"],
		ImageURL:  data["image_url"],
		Username:  data["username"],
		Tier:      user.Tier(parseInt64(data["tier"])),
		Subscription: user.Subscription{
			ID:                data["subscription_id"],
			Status:            user.SubscriptionStatus(parseInt64(data["subscription_status"])),
			Plan:              data["plan"],
			ExpiresAt:         fromUnix(parseInt64(data["expires_at"])),
			LastPaymentID:     data["last_payment_id"],
			LastPaymentStatus: data["last_payment_status"],
		},
		CreatedAt: time.Unix(parseInt64(data["created_at"]), 0).UTC(),
		UpdatedAt: time.Unix(parseInt64(data["updated_at"]), 0).UTC(),
	}
}

func unix(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.Unix()
}

func fromUnix(sec int64) time.Time {
	if sec == 0 {
		return time.Time{}
	}
	return time.Unix(sec, 0).UTC()
}

func parseInt64(s string) int64 {
	n, _ := strconv.ParseInt(s, 10, 64)
	return n
}

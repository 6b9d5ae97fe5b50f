package redis

import (
	"fmt"
	"testing"
	"time"

	"github.com/marcelsud/commit-webhooks/user"
	"github.com/stretchr/testify/assert"
)

func toHash(fields []interface{}) map[string]string {
	hash := make(map[string]string, len(fields)/2)
	for i := 0; i+1 < len(fields); i += 2 {
		hash[fields[i].(string)] = fmt.Sprint(fields[i+1])
	}
	return hash
}

func TestEncodeDecode(t *testing.T) {
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	u := user.New("user_1", "a@example.com", now)
	u.FirstName = "Ada"
	u.Subscription.ExpiresAt = now.AddDate(0, 1, 0)

	assert.Equal(t, u, decode(toHash(encode(u))))
}

func TestPatchFields(t *testing.T) {
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	t.Run("only set fields are written", func(t *testing.T) {
		hash := toHash(patchFields(user.Patch{Tier: user.Ptr(user.Pro), Plan: user.Ptr("monthly")}, now))
		assert.Equal(t, map[string]string{
			"updated_at": "1714557600",
			"tier":       "2",
			"plan":       "monthly",
		}, hash)
	})

	t.Run("zero expiry is stored as zero", func(t *testing.T) {
		hash := toHash(patchFields(user.Patch{ExpiresAt: &time.Time{}}, now))
		assert.Equal(t, "0", hash["expires_at"])
	})
}

package memory

import (
	"context"
	"testing"

	"github.com/marcelsud/commit-webhooks/billing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository()

	t.Run("success - save and find", func(t *testing.T) {
		ref := billing.Reference{ID: "order_1", Kind: billing.Order, SubjectID: "user_1", Plan: "monthly", PeriodDays: 30}
		require.NoError(t, repo.Save(ctx, ref))

		got, err := repo.FindByReference(ctx, "order_1")
		require.NoError(t, err)
		assert.Equal(t, ref, got)
	})

	t.Run("error - unknown reference", func(t *testing.T) {
		_, err := repo.FindByReference(ctx, "order_x")
		assert.ErrorIs(t, err, billing.ErrNotFound)
	})

	t.Run("error - invalid reference", func(t *testing.T) {
		err := repo.Save(ctx, billing.Reference{ID: "order_2", Kind: billing.Order})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "subject id")
	})
}

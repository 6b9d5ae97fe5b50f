//go:build !integration

package postgres

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/marcelsud/commit-webhooks/user"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

/*
Unit tests for the PostgreSQL user repository

sqlmock stands in for the database, so these tests check the SQL and the
argument mapping, not real database behaviour. The integration tests run the
same repository against a PostgreSQL container.
*/

var fixedNow = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

func newMockRepo(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo := NewRepositoryWithDB(db)
	repo.now = func() time.Time { return fixedNow }
	return repo, mock
}

var userColumns = []string{
	"subject_id", "email", "first_name", "last_name", "image_url", "username", "tier",
	"subscription_id", "subscription_status", "plan", "expires_at", "last_payment_id", "last_payment_status",
	"created_at", "updated_at",
}

func TestRepository_CreateIfAbsent_Unit(t *testing.T) {
	ctx := context.Background()
	u := user.New("user_1", "a@example.com", fixedNow)

	t.Run("inserted", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectExec(regexp.QuoteMeta(insertQuery)).
			WithArgs("user_1", "a@example.com", "", "", "", "", 1, "", 1, "", nil, "", "", fixedNow, fixedNow).
			WillReturnResult(sqlmock.NewResult(0, 1))

		created, err := repo.CreateIfAbsent(ctx, u)
		require.NoError(t, err)
		assert.True(t, created)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("conflict leaves the record alone", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectExec(regexp.QuoteMeta(insertQuery)).
			WillReturnResult(sqlmock.NewResult(0, 0))

		created, err := repo.CreateIfAbsent(ctx, u)
		require.NoError(t, err)
		assert.False(t, created)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRepository_FindBySubjectID_Unit(t *testing.T) {
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		rows := sqlmock.NewRows(userColumns).
			AddRow("user_1", "a@example.com", "Ada", "", "", "", 2, "sub_1", 2, "monthly", fixedNow, "pay_1", "captured", fixedNow, fixedNow)
		mock.ExpectQuery(regexp.QuoteMeta(selectQuery)).WithArgs("user_1").WillReturnRows(rows)

		u, err := repo.FindBySubjectID(ctx, "user_1")
		require.NoError(t, err)
		assert.Equal(t, user.Pro, u.Tier)
		assert.Equal(t, user.SubscriptionActive, u.Subscription.Status)
		assert.Equal(t, fixedNow, u.Subscription.ExpiresAt)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectQuery(regexp.QuoteMeta(selectQuery)).WithArgs("ghost").WillReturnRows(sqlmock.NewRows(userColumns))

		_, err := repo.FindBySubjectID(ctx, "ghost")
		assert.ErrorIs(t, err, user.ErrNotFound)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRepository_UpdateBySubjectID_Unit(t *testing.T) {
	ctx := context.Background()

	t.Run("unset fields are passed as NULL", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		rows := sqlmock.NewRows(userColumns).
			AddRow("user_1", "a@example.com", "Grace", "", "", "", 1, "", 1, "", nil, "", "", fixedNow, fixedNow)
		mock.ExpectQuery(regexp.QuoteMeta(updateQuery)).
			WithArgs("user_1", nil, "Grace", nil, nil, nil, nil, nil, nil, nil, nil, nil, nil, fixedNow).
			WillReturnRows(rows)

		u, err := repo.UpdateBySubjectID(ctx, "user_1", user.Patch{FirstName: user.Ptr("Grace")})
		require.NoError(t, err)
		assert.Equal(t, "Grace", u.FirstName)
		assert.True(t, u.Subscription.ExpiresAt.IsZero())
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing record", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectQuery(regexp.QuoteMeta(updateQuery)).WillReturnRows(sqlmock.NewRows(userColumns))

		_, err := repo.UpdateBySubjectID(ctx, "ghost", user.Patch{})
		assert.ErrorIs(t, err, user.ErrNotFound)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRepository_UpsertBySubjectID_Unit(t *testing.T) {
	repo, mock := newMockRepo(t)
	rows := sqlmock.NewRows(userColumns).
		AddRow("user_1", "a@example.com", "", "", "", "", 1, "", 1, "", nil, "", "", fixedNow, fixedNow)
	mock.ExpectQuery(regexp.QuoteMeta(upsertQuery)).
		WithArgs(
			"user_1", "a@example.com", "", "", "", "", 1, "", 1, "", nil, "", "", fixedNow, fixedNow,
			"a@example.com", nil, nil, nil, nil, nil, nil, nil, nil, nil, nil, nil,
		).
		WillReturnRows(rows)

	u, err := repo.UpsertBySubjectID(context.Background(), "user_1", user.Patch{Email: user.Ptr("a@example.com")})
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", u.Email)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_RecordPayment_Unit(t *testing.T) {
	ctx := context.Background()
	p := user.Patch{Tier: user.Ptr(user.Pro)}

	t.Run("applied", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectExec(regexp.QuoteMeta(paymentQuery)).
			WithArgs("user_1", nil, nil, nil, nil, nil, 2, nil, nil, nil, nil, "pay_1", nil, fixedNow).
			WillReturnResult(sqlmock.NewResult(0, 1))

		applied, err := repo.RecordPayment(ctx, "user_1", "pay_1", p)
		require.NoError(t, err)
		assert.True(t, applied)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("already recorded", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectExec(regexp.QuoteMeta(paymentQuery)).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(regexp.QuoteMeta(existsQuery)).WithArgs("user_1").
			WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))

		applied, err := repo.RecordPayment(ctx, "user_1", "pay_1", p)
		require.NoError(t, err)
		assert.False(t, applied)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing record", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectExec(regexp.QuoteMeta(paymentQuery)).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(regexp.QuoteMeta(existsQuery)).WithArgs("ghost").
			WillReturnRows(sqlmock.NewRows([]string{"?column?"}))

		_, err := repo.RecordPayment(ctx, "ghost", "pay_1", p)
		assert.ErrorIs(t, err, user.ErrNotFound)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRepository_DeleteBySubjectID_Unit(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectExec(regexp.QuoteMeta(deleteQuery)).WithArgs("user_1").WillReturnResult(sqlmock.NewResult(0, 0))

	deleted, err := repo.DeleteBySubjectID(context.Background(), "user_1")
	require.NoError(t, err)
	assert.False(t, deleted)
	require.NoError(t, mock.ExpectationsWereMet())
}

package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/marcelsud/commit-webhooks/billing"
)

const (
	selectQuery = `SELECT id, kind, subject_id, plan, period_days, receipt, created_at
	FROM billing_references WHERE id = $1`

	saveQuery = `INSERT INTO billing_references (id, kind, subject_id, plan, period_days, receipt, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	ON CONFLICT (id) DO UPDATE SET
		kind = EXCLUDED.kind,
		subject_id = EXCLUDED.subject_id,
		plan = EXCLUDED.plan,
		period_days = EXCLUDED.period_days,
		receipt = EXCLUDED.receipt`

	schemaQuery = `
		CREATE TABLE IF NOT EXISTS billing_references (
			id TEXT PRIMARY KEY,
			kind TEXT NOT NULL,
			subject_id TEXT NOT NULL,
			plan TEXT NOT NULL DEFAULT '',
			period_days INTEGER NOT NULL DEFAULT 0,
			receipt TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL
		)
	`
)

type Repository struct {
	DB *sql.DB
}

// NewRepositoryWithDB wraps an existing pool
func NewRepositoryWithDB(db *sql.DB) *Repository {
	return &Repository{DB: db}
}

func (r *Repository) FindByReference(ctx context.Context, id string) (billing.Reference, error) {
	var ref billing.Reference
	var kind string
	err := r.DB.QueryRowContext(ctx, selectQuery, id).Scan(
		&ref.ID,
		&kind,
		&ref.SubjectID,
		&ref.Plan,
		&ref.PeriodDays,
		&ref.Receipt,
		&ref.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return billing.Reference{}, billing.ErrNotFound
	}
	if err != nil {
		return billing.Reference{}, fmt.Errorf("selecting billing reference: %w", err)
	}
	ref.Kind = billing.NewKind(kind)
	ref.CreatedAt = ref.CreatedAt.UTC()
	return ref, nil
}

func (r *Repository) Save(ctx context.Context, ref billing.Reference) error {
	if err := ref.Validate(); err != nil {
		return err
	}
	_, err := r.DB.ExecContext(ctx, saveQuery,
		ref.ID, ref.Kind.String(), ref.SubjectID, ref.Plan, ref.PeriodDays, ref.Receipt, ref.CreatedAt)
	if err != nil {
		return fmt.Errorf("saving billing reference: %w", err)
	}
	return nil
}

// Close closes the database pool
func (r *Repository) Close(ctx context.Context) error {
	if r.DB != nil {
		return r.DB.Close()
	}
	return nil
}

// CreateSchema creates the billing_references table
func (r *Repository) CreateSchema(ctx context.Context) error {
	if _, err := r.DB.ExecContext(ctx, schemaQuery); err != nil {
		return fmt.Errorf("creating billing_references table: %w", err)
	}
	return nil
}

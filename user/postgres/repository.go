package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/marcelsud/commit-webhooks/user"
)

/*
PostgreSQL implementation of user.Repository

Every write is a single statement keyed by subject_id:
- CreateIfAbsent uses ON CONFLICT DO NOTHING
- partial updates use COALESCE so a NULL parameter keeps the stored value
- RecordPayment is a conditional UPDATE on last_payment_id
*/

const columns = `subject_id, email, first_name, last_name, image_url, username, tier,
	subscription_id, subscription_status, plan, expires_at, last_payment_id, last_payment_status,
	created_at, updated_at`

const (
	selectQuery = `SELECT ` + columns + ` FROM users WHERE subject_id = $1`

	insertQuery = `INSERT INTO users (` + columns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	ON CONFLICT (subject_id) DO NOTHING`

	upsertQuery = `INSERT INTO users (` + columns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	ON CONFLICT (subject_id) DO UPDATE SET
		email = COALESCE($16, users.email),
		first_name = COALESCE($17, users.first_name),
		last_name = COALESCE($18, users.last_name),
		image_url = COALESCE($19, users.image_url),
		username = COALESCE($20, users.username),
		tier = COALESCE($21, users.tier),
		subscription_id = COALESCE($22, users.subscription_id),
		subscription_status = COALESCE($23, users.subscription_status),
		plan = COALESCE($24, users.plan),
		expires_at = COALESCE($25, users.expires_at),
		last_payment_id = COALESCE($26, users.last_payment_id),
		last_payment_status = COALESCE($27, users.last_payment_status),
		updated_at = $15
	RETURNING ` + columns

	setClause = `
		email = COALESCE($2, email),
		first_name = COALESCE($3, first_name),
		last_name = COALESCE($4, last_name),
		image_url = COALESCE($5, image_url),
		username = COALESCE($6, username),
		tier = COALESCE($7, tier),
		subscription_id = COALESCE($8, subscription_id),
		subscription_status = COALESCE($9, subscription_status),
		plan = COALESCE($10, plan),
		expires_at = COALESCE($11, expires_at),
		last_payment_id = COALESCE($12, last_payment_id),
		last_payment_status = COALESCE($13, last_payment_status),
		updated_at = $14`

	updateQuery = `UPDATE users SET` + setClause + `
	WHERE subject_id = $1
	RETURNING ` + columns

	paymentQuery = `UPDATE users SET` + setClause + `
	WHERE subject_id = $1 AND last_payment_id <> $12`

	existsQuery = `SELECT 1 FROM users WHERE subject_id = $1`

	deleteQuery = `DELETE FROM users WHERE subject_id = $1`

	schemaQuery = `
		CREATE TABLE IF NOT EXISTS users (
			subject_id TEXT PRIMARY KEY,
			email TEXT NOT NULL,
			first_name TEXT NOT NULL DEFAULT '',
			last_name TEXT NOT NULL DEFAULT '',
			image_url TEXT NOT NULL DEFAULT '',
			username TEXT NOT NULL DEFAULT '',
			tier INTEGER NOT NULL,
			subscription_id TEXT NOT NULL DEFAULT '',
			subscription_status INTEGER NOT NULL,
			plan TEXT NOT NULL DEFAULT '',
			expires_at TIMESTAMPTZ NULL,
			last_payment_id TEXT NOT NULL DEFAULT '',
			last_payment_status TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)
	`
)

type Repository struct {
	DB  *sql.DB
	now func() time.Time
}

// NewRepositoryWithDB wraps an existing pool
func NewRepositoryWithDB(db *sql.DB) *Repository {
	return &Repository{DB: db, now: time.Now}
}

// Open creates a PostgreSQL pool
// maxOpenConns: maximum simultaneous connections (0 = unlimited)
// maxIdleConns: maximum idle connections kept in the pool
// maxLifeMinutes: maximum time a connection may be reused
func Open(connectionString string, maxOpenConns, maxIdleConns, maxLifeMinutes int) (*sql.DB, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("opening postgres connection: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}

	if maxOpenConns > 0 {
		db.SetMaxOpenConns(maxOpenConns)
	}
	if maxIdleConns > 0 {
		db.SetMaxIdleConns(maxIdleConns)
	}
	if maxLifeMinutes > 0 {
		db.SetConnMaxLifetime(time.Duration(maxLifeMinutes) * time.Minute)
	}
	return db, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(row scanner) (user.User, error) {
	var u user.User
	var expiresAt sql.NullTime
	err := row.Scan(
		&u.SubjectID,
		&u.Email,
		&u.FirstName,
		&u.LastName,
		&u.ImageURL,
		&u.Username,
		&u.Tier,
		&u.Subscription.ID,
		&u.Subscription.Status,
		&u.Subscription.Plan,
		&expiresAt,
		&u.Subscription.LastPaymentID,
		&u.Subscription.LastPaymentStatus,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return user.User{}, err
	}
	if expiresAt.Valid {
		u.Subscription.ExpiresAt = expiresAt.Time.UTC()
	}
	u.CreatedAt = u.CreatedAt.UTC()
	u.UpdatedAt = u.UpdatedAt.UTC()
	return u, nil
}

func rowArgs(u user.User) []any {
	return []any{
		u.SubjectID,
		u.Email,
		u.FirstName,
		u.LastName,
		u.ImageURL,
		u.Username,
		int(u.Tier),
		u.Subscription.ID,
		int(u.Subscription.Status),
		u.Subscription.Plan,
		nullTime(u.Subscription.ExpiresAt),
		u.Subscription.LastPaymentID,
		u.Subscription.LastPaymentStatus,
		u.CreatedAt,
		u.UpdatedAt,
	}
}

// patchArgs returns the twelve nullable patch parameters in column order
func patchArgs(p user.Patch) []any {
	var tier, status, expiresAt any
	if p.Tier != nil {
		tier = int(*p.Tier)
	}
	if p.SubscriptionStatus != nil {
		status = int(*p.SubscriptionStatus)
	}
	if p.ExpiresAt != nil {
		expiresAt = *p.ExpiresAt
	}
	return []any{
		nullString(p.Email),
		nullString(p.FirstName),
		nullString(p.LastName),
		nullString(p.ImageURL),
		nullString(p.Username),
		tier,
		nullString(p.SubscriptionID),
		status,
		nullString(p.Plan),
		expiresAt,
		nullString(p.LastPaymentID),
		nullString(p.LastPaymentStatus),
	}
}

func nullString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}

func (r *Repository) FindBySubjectID(ctx context.Context, subjectID string) (user.User, error) {
	u, err := scanUser(r.DB.QueryRowContext(ctx, selectQuery, subjectID))
	if errors.Is(err, sql.ErrNoRows) {
		return user.User{}, user.ErrNotFound
	}
	if err != nil {
		return user.User{}, fmt.Errorf("selecting user: %w", err)
	}
	return u, nil
}

func (r *Repository) CreateIfAbsent(ctx context.Context, u user.User) (bool, error) {
	result, err := r.DB.ExecContext(ctx, insertQuery, rowArgs(u)...)
	if err != nil {
		return false, fmt.Errorf("inserting user: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("getting rows affected: %w", err)
	}
	return rows == 1, nil
}

func (r *Repository) UpsertBySubjectID(ctx context.Context, subjectID string, p user.Patch) (user.User, error) {
	now := r.now().UTC()
	fresh := user.New(subjectID, "", now)
	p.Apply(&fresh)

	args := append(rowArgs(fresh), patchArgs(p)...)
	u, err := scanUser(r.DB.QueryRowContext(ctx, upsertQuery, args...))
	if err != nil {
		return user.User{}, fmt.Errorf("upserting user: %w", err)
	}
	return u, nil
}

func (r *Repository) UpdateBySubjectID(ctx context.Context, subjectID string, p user.Patch) (user.User, error) {
	args := append([]any{subjectID}, patchArgs(p)...)
	args = append(args, r.now().UTC())

	u, err := scanUser(r.DB.QueryRowContext(ctx, updateQuery, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return user.User{}, user.ErrNotFound
	}
	if err != nil {
		return user.User{}, fmt.Errorf("updating user: %w", err)
	}
	return u, nil
}

func (r *Repository) RecordPayment(ctx context.Context, subjectID, paymentID string, p user.Patch) (bool, error) {
	p.LastPaymentID = &paymentID
	args := append([]any{subjectID}, patchArgs(p)...)
	args = append(args, r.now().UTC())

	result, err := r.DB.ExecContext(ctx, paymentQuery, args...)
	if err != nil {
		return false, fmt.Errorf("recording payment: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("getting rows affected: %w", err)
	}
	if rows > 0 {
		return true, nil
	}

	var one int
	err = r.DB.QueryRowContext(ctx, existsQuery, subjectID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, user.ErrNotFound
	}
	if err != nil {
		return false, fmt.Errorf("checking user: %w", err)
	}
	return false, nil
}

func (r *Repository) DeleteBySubjectID(ctx context.Context, subjectID string) (bool, error) {
	result, err := r.DB.ExecContext(ctx, deleteQuery, subjectID)
	if err != nil {
		return false, fmt.Errorf("deleting user: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("getting rows affected: %w", err)
	}
	return rows > 0, nil
}

// Close closes the database pool
func (r *Repository) Close(ctx context.Context) error {
	if r.DB != nil {
		return r.DB.Close()
	}
	return nil
}

// CreateSchema creates the users table
func (r *Repository) CreateSchema(ctx context.Context) error {
	if _, err := r.DB.ExecContext(ctx, schemaQuery); err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}
	return nil
}

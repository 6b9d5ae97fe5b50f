package user

import "context"

/* Every write is keyed by SubjectID and must be atomic in the store:
 * deliveries for the same subject may arrive concurrently.
 */

type Reader interface {
	FindBySubjectID(ctx context.Context, subjectID string) (User, error)
}

type Writer interface {
	// CreateIfAbsent inserts u unless a record exists and reports whether it did
	CreateIfAbsent(ctx context.Context, u User) (bool, error)
	// UpsertBySubjectID applies p, creating a default record first when absent
	UpsertBySubjectID(ctx context.Context, subjectID string, p Patch) (User, error)
	// UpdateBySubjectID applies p to an existing record or returns ErrNotFound
	UpdateBySubjectID(ctx context.Context, subjectID string, p Patch) (User, error)
	// RecordPayment applies p unless paymentID is already the last recorded payment
	RecordPayment(ctx context.Context, subjectID, paymentID string, p Patch) (bool, error)
	// DeleteBySubjectID removes the record and reports whether one existed
	DeleteBySubjectID(ctx context.Context, subjectID string) (bool, error)
}

type Repository interface {
	Reader
	Writer
	Close(ctx context.Context) error
}

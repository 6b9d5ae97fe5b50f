package user

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var ErrMissingEmail = errors.New("verified email address is required")

type UseCase interface {
	Register(ctx context.Context, u User) (bool, error)
	SyncProfile(ctx context.Context, subjectID string, p Patch) (User, error)
	Remove(ctx context.Context, subjectID string) (bool, error)
	RecordPayment(ctx context.Context, subjectID, paymentID string, p Patch) (bool, error)
	UpdateSubscription(ctx context.Context, subjectID string, p Patch) (User, error)
}

type Service struct {
	Repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{
		Repo: repo,
		now:  time.Now,
	}
}

// Register creates the account with free-tier defaults unless it already exists
func (s *Service) Register(ctx context.Context, u User) (bool, error) {
	if u.Email == "" {
		return false, ErrMissingEmail
	}
	now := s.now().UTC()
	if u.Tier == 0 {
		u.Tier = Free
	}
	if u.Subscription.Status == 0 {
		u.Subscription.Status = SubscriptionNone
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now

	created, err := s.Repo.CreateIfAbsent(ctx, u)
	if err != nil {
		return false, fmt.Errorf("creating user: %w", err)
	}
	return created, nil
}

// SyncProfile upserts profile fields. Without an email the record must
// already exist, so no account is ever created with placeholder data.
func (s *Service) SyncProfile(ctx context.Context, subjectID string, p Patch) (User, error) {
	if p.Email != nil && *p.Email != "" {
		u, err := s.Repo.UpsertBySubjectID(ctx, subjectID, p)
		if err != nil {
			return User{}, fmt.Errorf("upserting user: %w", err)
		}
		return u, nil
	}

	p.Email = nil
	u, err := s.Repo.UpdateBySubjectID(ctx, subjectID, p)
	if errors.Is(err, ErrNotFound) {
		return User{}, fmt.Errorf("%w: %w", ErrMissingEmail, err)
	}
	if err != nil {
		return User{}, fmt.Errorf("updating user: %w", err)
	}
	return u, nil
}

func (s *Service) Remove(ctx context.Context, subjectID string) (bool, error) {
	deleted, err := s.Repo.DeleteBySubjectID(ctx, subjectID)
	if err != nil {
		return false, fmt.Errorf("deleting user: %w", err)
	}
	return deleted, nil
}

func (s *Service) RecordPayment(ctx context.Context, subjectID, paymentID string, p Patch) (bool, error) {
	if paymentID == "" {
		return false, fmt.Errorf("payment id is required")
	}
	p.LastPaymentID = &paymentID
	applied, err := s.Repo.RecordPayment(ctx, subjectID, paymentID, p)
	if err != nil {
		return false, fmt.Errorf("recording payment: %w", err)
	}
	return applied, nil
}

func (s *Service) UpdateSubscription(ctx context.Context, subjectID string, p Patch) (User, error) {
	u, err := s.Repo.UpdateBySubjectID(ctx, subjectID, p)
	if err != nil {
		return User{}, fmt.Errorf("updating subscription: %w", err)
	}
	return u, nil
}

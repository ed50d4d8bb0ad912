package watch

import (
	"context"
	"fmt"

	"github.com/expdynts/expwatch/internal/domain"
	"github.com/google/uuid"
)

// Service manages subscriptions.
type Service struct {
	repo Repository
}

// NewService creates a subscription service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Subscribe opts a user in to tracking a case.
func (s *Service) Subscribe(ctx context.Context, userID, caseID string) (*domain.Subscription, error) {
	if _, err := s.repo.GetCase(ctx, caseID); err != nil {
		return nil, fmt.Errorf("subscribe: %w", err)
	}

	sub := &domain.Subscription{
		ID:     uuid.NewString(),
		UserID: userID,
		CaseID: caseID,
		Status: domain.SubscriptionStatusActive,
	}
	if err := s.repo.CreateSubscription(ctx, sub); err != nil {
		return nil, err
	}
	return sub, nil
}

// Archive soft-archives a subscription. Archived subscriptions stop
// being scheduled but keep their snapshot history.
func (s *Service) Archive(ctx context.Context, id string) error {
	return s.repo.ArchiveSubscription(ctx, id)
}

// ListForUser returns all subscriptions of a user, archived included.
func (s *Service) ListForUser(ctx context.Context, userID string) ([]domain.Subscription, error) {
	return s.repo.ListUserSubscriptions(ctx, userID)
}

// ListActive returns the subscriptions eligible for scheduling.
func (s *Service) ListActive(ctx context.Context) ([]domain.Subscription, error) {
	return s.repo.ListActiveSubscriptions(ctx)
}

// History returns the latest snapshot for a subscription.
func (s *Service) History(ctx context.Context, subscriptionID string) (*domain.SnapshotEntry, error) {
	if _, err := s.repo.GetSubscription(ctx, subscriptionID); err != nil {
		return nil, err
	}
	return s.repo.GetLatestSnapshot(ctx, subscriptionID)
}

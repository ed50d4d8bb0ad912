package watch

import (
	"context"
	"errors"

	"github.com/expdynts/expwatch/internal/domain"
)

// Repository errors.
var (
	ErrSubscriptionNotFound = errors.New("subscription not found")
	ErrCaseNotFound         = errors.New("case not found")
	ErrNoSnapshot           = errors.New("no snapshot recorded for subscription")
	ErrSubscriptionExists   = errors.New("subscription already exists for this user and case")
)

// Repository defines data access for subscriptions, cases, and the
// append-only snapshot history.
type Repository interface {
	// Subscriptions
	CreateSubscription(ctx context.Context, sub *domain.Subscription) error
	GetSubscription(ctx context.Context, id string) (*domain.Subscription, error)
	ArchiveSubscription(ctx context.Context, id string) error
	ListUserSubscriptions(ctx context.Context, userID string) ([]domain.Subscription, error)
	ListActiveSubscriptions(ctx context.Context) ([]domain.Subscription, error)

	// Cases and contacts
	GetCase(ctx context.Context, id string) (*domain.Case, error)
	GetContact(ctx context.Context, userID string) (*domain.Contact, error)

	// Snapshot store. Entries are append-only; GetLatestSnapshot
	// returns ErrNoSnapshot when the subscription has no history yet.
	GetLatestSnapshot(ctx context.Context, subscriptionID string) (*domain.SnapshotEntry, error)
	AppendSnapshot(ctx context.Context, entry *domain.SnapshotEntry) error

	// UpdateCurrentSnapshot rolls the case row forward: the previous
	// record set and fingerprint are shifted aside and the new ones
	// become current.
	UpdateCurrentSnapshot(ctx context.Context, caseID string, recordSet []domain.CaseEntry, fingerprint string) error
}

// CourtResolver resolves court metadata for notification payloads.
type CourtResolver interface {
	CourtMeta(ctx context.Context, courtID string) (*domain.Court, error)
}

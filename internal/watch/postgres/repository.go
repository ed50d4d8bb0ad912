// Package postgres provides the PostgreSQL implementation of the watch
// repository: subscriptions, cases, contacts, and the snapshot history.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/expdynts/expwatch/internal/domain"
	"github.com/expdynts/expwatch/internal/watch"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository implements watch.Repository using PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new PostgreSQL watch repository.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// CreateSubscription creates a new subscription.
func (r *Repository) CreateSubscription(ctx context.Context, sub *domain.Subscription) error {
	query := `
		INSERT INTO subscriptions (id, user_id, case_id, status)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query,
		sub.ID,
		sub.UserID,
		sub.CaseID,
		sub.Status,
	).Scan(&sub.CreatedAt, &sub.UpdatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return watch.ErrSubscriptionExists
		}
		return fmt.Errorf("create subscription: %w", err)
	}
	return nil
}

// GetSubscription retrieves a subscription by ID.
func (r *Repository) GetSubscription(ctx context.Context, id string) (*domain.Subscription, error) {
	query := `
		SELECT id, user_id, case_id, status, created_at, updated_at
		FROM subscriptions
		WHERE id = $1
	`
	var sub domain.Subscription
	err := r.db.QueryRow(ctx, query, id).Scan(
		&sub.ID,
		&sub.UserID,
		&sub.CaseID,
		&sub.Status,
		&sub.CreatedAt,
		&sub.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, watch.ErrSubscriptionNotFound
		}
		return nil, fmt.Errorf("get subscription: %w", err)
	}
	return &sub, nil
}

// ArchiveSubscription soft-archives a subscription.
func (r *Repository) ArchiveSubscription(ctx context.Context, id string) error {
	query := `
		UPDATE subscriptions
		SET status = 'ARCHIVED', updated_at = NOW()
		WHERE id = $1
	`
	result, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("archive subscription: %w", err)
	}
	if result.RowsAffected() == 0 {
		return watch.ErrSubscriptionNotFound
	}
	return nil
}

// ListUserSubscriptions retrieves all subscriptions of one user.
func (r *Repository) ListUserSubscriptions(ctx context.Context, userID string) ([]domain.Subscription, error) {
	query := `
		SELECT id, user_id, case_id, status, created_at, updated_at
		FROM subscriptions
		WHERE user_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list user subscriptions: %w", err)
	}
	defer rows.Close()

	return scanSubscriptions(rows)
}

// ListActiveSubscriptions retrieves every ACTIVE subscription.
func (r *Repository) ListActiveSubscriptions(ctx context.Context) ([]domain.Subscription, error) {
	query := `
		SELECT id, user_id, case_id, status, created_at, updated_at
		FROM subscriptions
		WHERE status = 'ACTIVE'
		ORDER BY created_at
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list active subscriptions: %w", err)
	}
	defer rows.Close()

	return scanSubscriptions(rows)
}

func scanSubscriptions(rows pgx.Rows) ([]domain.Subscription, error) {
	subs := make([]domain.Subscription, 0)
	for rows.Next() {
		var sub domain.Subscription
		err := rows.Scan(
			&sub.ID,
			&sub.UserID,
			&sub.CaseID,
			&sub.Status,
			&sub.CreatedAt,
			&sub.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan subscription: %w", err)
		}
		subs = append(subs, sub)
	}
	return subs, nil
}

// GetCase retrieves a case by ID.
func (r *Repository) GetCase(ctx context.Context, id string) (*domain.Case, error) {
	query := `
		SELECT id, number, year, court_id, source_url, created_at, updated_at
		FROM cases
		WHERE id = $1
	`
	var kase domain.Case
	err := r.db.QueryRow(ctx, query, id).Scan(
		&kase.ID,
		&kase.Number,
		&kase.Year,
		&kase.CourtID,
		&kase.SourceURL,
		&kase.CreatedAt,
		&kase.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, watch.ErrCaseNotFound
		}
		return nil, fmt.Errorf("get case: %w", err)
	}
	return &kase, nil
}

// GetContact retrieves the notification contact attributes of a user.
func (r *Repository) GetContact(ctx context.Context, userID string) (*domain.Contact, error) {
	query := `
		SELECT user_id, COALESCE(name, ''), COALESCE(phone, '')
		FROM user_contacts
		WHERE user_id = $1
	`
	var contact domain.Contact
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&contact.UserID,
		&contact.Name,
		&contact.Phone,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// A user without contact attributes is tolerated; the
			// notify stage decides what to do with an empty recipient.
			return &domain.Contact{UserID: userID}, nil
		}
		return nil, fmt.Errorf("get contact: %w", err)
	}
	return &contact, nil
}

// GetLatestSnapshot returns the most recent history entry for a
// subscription.
func (r *Repository) GetLatestSnapshot(ctx context.Context, subscriptionID string) (*domain.SnapshotEntry, error) {
	query := `
		SELECT id, subscription_id, record_set, fingerprint, diff, created_at
		FROM snapshots
		WHERE subscription_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`
	var entry domain.SnapshotEntry
	err := r.db.QueryRow(ctx, query, subscriptionID).Scan(
		&entry.ID,
		&entry.SubscriptionID,
		&entry.RecordSet,
		&entry.Fingerprint,
		&entry.Diff,
		&entry.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, watch.ErrNoSnapshot
		}
		return nil, fmt.Errorf("get latest snapshot: %w", err)
	}
	return &entry, nil
}

// AppendSnapshot inserts a new history entry. Entries are never
// updated or deleted afterwards.
func (r *Repository) AppendSnapshot(ctx context.Context, entry *domain.SnapshotEntry) error {
	query := `
		INSERT INTO snapshots (subscription_id, record_set, fingerprint, diff)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`
	err := r.db.QueryRow(ctx, query,
		entry.SubscriptionID,
		entry.RecordSet,
		entry.Fingerprint,
		entry.Diff,
	).Scan(&entry.ID, &entry.CreatedAt)

	if err != nil {
		return fmt.Errorf("append snapshot: %w", err)
	}
	return nil
}

// UpdateCurrentSnapshot rolls the case row forward: current record set
// and fingerprint move to the previous columns, the new ones replace
// them.
func (r *Repository) UpdateCurrentSnapshot(ctx context.Context, caseID string, recordSet []domain.CaseEntry, fingerprint string) error {
	query := `
		UPDATE cases
		SET record_set_previous = record_set_current,
		    fingerprint_previous = fingerprint_current,
		    record_set_current = $2,
		    fingerprint_current = $3,
		    updated_at = NOW()
		WHERE id = $1
	`
	result, err := r.db.Exec(ctx, query, caseID, recordSet, fingerprint)
	if err != nil {
		return fmt.Errorf("update current snapshot: %w", err)
	}
	if result.RowsAffected() == 0 {
		return watch.ErrCaseNotFound
	}
	return nil
}

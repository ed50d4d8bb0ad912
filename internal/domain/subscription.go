package domain

import "time"

// SubscriptionStatus represents the lifecycle state of a subscription.
type SubscriptionStatus string

// Subscription statuses.
const (
	SubscriptionStatusActive   SubscriptionStatus = "ACTIVE"
	SubscriptionStatusArchived SubscriptionStatus = "ARCHIVED"
)

// Subscription links one user to one tracked case. Subscriptions are
// never deleted, only archived; only ACTIVE ones are scheduled.
type Subscription struct {
	ID        string             `json:"id"`
	UserID    string             `json:"user_id"`
	CaseID    string             `json:"case_id"`
	Status    SubscriptionStatus `json:"status"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
}

// Contact holds the notification recipient attributes of a user.
type Contact struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	Phone  string `json:"phone"`
}

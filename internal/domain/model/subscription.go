package model

import "time"

type SubscriptionStatus string

const (
	SubscriptionStatusActive  SubscriptionStatus = "ACTIVE"
	SubscriptionStatusExpired SubscriptionStatus = "EXPIRED"
	SubscriptionStatusPending SubscriptionStatus = "PENDING"
)

// Subscription is an entitlement of one profile to one plan's features.
// At most one ACTIVE subscription exists per (user, profile); a successful
// payment for a pair that already has one extends EndAt instead of creating
// a second row.
type Subscription struct {
	ID        string // UUID
	UserID    int64
	ProfileID int64
	PlanID    int64
	Status    SubscriptionStatus
	StartAt   time.Time
	EndAt     time.Time
	CreatedAt time.Time
}

func (s *Subscription) Lapsed(now time.Time) bool {
	return s.Status == SubscriptionStatusActive && now.After(s.EndAt)
}

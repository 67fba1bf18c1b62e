package repository

import (
	"context"

	"skillbridge-billing/internal/domain/model"
)

// SubscriptionRepository is the port for subscription persistence.
type SubscriptionRepository interface {
	Save(ctx context.Context, tx Tx, s *model.Subscription) error
	// FindActiveByUserAndProfile locks the row (FOR UPDATE) when called
	// inside a transaction so extend-vs-create stays race free.
	FindActiveByUserAndProfile(ctx context.Context, tx Tx, userID, profileID int64) (*model.Subscription, error)
	ListByUser(ctx context.Context, tx Tx, userID int64) ([]*model.Subscription, error)

	// ExpireLapsed flips ACTIVE subscriptions whose EndAt has passed to
	// EXPIRED and returns how many rows changed.
	ExpireLapsed(ctx context.Context, tx Tx) (int, error)

	// CountActiveByPlan keys the result by plan name (admin stats).
	CountActiveByPlan(ctx context.Context, tx Tx) (map[string]int, error)
}

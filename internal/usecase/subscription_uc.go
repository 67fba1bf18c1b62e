package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"skillbridge-billing/internal/domain"
	"skillbridge-billing/internal/domain/model"
	"skillbridge-billing/internal/domain/ports/repository"
)

var _ SubscriptionUseCase = (*subscriptionUC)(nil)

type SubscriptionUseCase interface {
	// ActivateOrExtend is called only after the payment has been durably
	// marked SUCCESS, inside the same transaction. It returns the resulting
	// subscription and whether it was newly created.
	ActivateOrExtend(ctx context.Context, tx repository.Tx, userID, profileID int64, plan *model.Plan) (*model.Subscription, bool, error)
	ListByUser(ctx context.Context, userID int64) ([]*model.Subscription, error)
	// FinishExpired flips lapsed ACTIVE subscriptions to EXPIRED and returns
	// how many were swept.
	FinishExpired(ctx context.Context) (int, error)
}

type subscriptionUC struct {
	subs repository.SubscriptionRepository
}

func NewSubscriptionUseCase(subs repository.SubscriptionRepository) *subscriptionUC {
	return &subscriptionUC{subs: subs}
}

// ActivateOrExtend keeps the one-ACTIVE-per-(user,profile) invariant: an
// existing active subscription is extended additively by the plan duration
// (not reset from now); otherwise a fresh one starts immediately.
func (u *subscriptionUC) ActivateOrExtend(ctx context.Context, tx repository.Tx, userID, profileID int64, plan *model.Plan) (*model.Subscription, bool, error) {
	if plan == nil {
		return nil, false, domain.ErrInvalidArgument
	}

	existing, err := u.subs.FindActiveByUserAndProfile(ctx, tx, userID, profileID)
	switch err {
	case nil:
		existing.EndAt = existing.EndAt.Add(plan.Duration())
		if err := u.subs.Save(ctx, tx, existing); err != nil {
			return nil, false, err
		}
		return existing, false, nil
	case domain.ErrNotFound:
		now := time.Now().UTC()
		s := &model.Subscription{
			ID:        uuid.NewString(),
			UserID:    userID,
			ProfileID: profileID,
			PlanID:    plan.ID,
			Status:    model.SubscriptionStatusActive,
			StartAt:   now,
			EndAt:     now.Add(plan.Duration()),
			CreatedAt: now,
		}
		if err := u.subs.Save(ctx, tx, s); err != nil {
			return nil, false, err
		}
		return s, true, nil
	default:
		return nil, false, err
	}
}

func (u *subscriptionUC) ListByUser(ctx context.Context, userID int64) ([]*model.Subscription, error) {
	return u.subs.ListByUser(ctx, repository.NoTX, userID)
}

func (u *subscriptionUC) FinishExpired(ctx context.Context) (int, error) {
	return u.subs.ExpireLapsed(ctx, repository.NoTX)
}

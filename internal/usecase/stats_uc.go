package usecase

import (
	"context"

	"skillbridge-billing/internal/domain/ports/repository"
)

var _ StatsUseCase = (*statsUC)(nil)

// StatsUseCase aggregates payment and subscription counters for the admin
// dashboard.
type StatsUseCase interface {
	Totals(ctx context.Context) (paymentsByStatus map[string]int, activeByPlan map[string]int, err error)
	Revenue(ctx context.Context) (week, month, year int64, err error)
}

type statsUC struct {
	payments repository.PaymentRepository
	subs     repository.SubscriptionRepository
}

func NewStatsUseCase(payments repository.PaymentRepository, subs repository.SubscriptionRepository) *statsUC {
	return &statsUC{payments: payments, subs: subs}
}

func (u *statsUC) Totals(ctx context.Context) (map[string]int, map[string]int, error) {
	byStatus, err := u.payments.CountByStatus(ctx, repository.NoTX)
	if err != nil {
		return nil, nil, err
	}
	byPlan, err := u.subs.CountActiveByPlan(ctx, repository.NoTX)
	if err != nil {
		return nil, nil, err
	}
	return byStatus, byPlan, nil
}

func (u *statsUC) Revenue(ctx context.Context) (int64, int64, int64, error) {
	week, err := u.payments.SumSucceededByPeriod(ctx, repository.NoTX, "week")
	if err != nil {
		return 0, 0, 0, err
	}
	month, err := u.payments.SumSucceededByPeriod(ctx, repository.NoTX, "month")
	if err != nil {
		return 0, 0, 0, err
	}
	year, err := u.payments.SumSucceededByPeriod(ctx, repository.NoTX, "year")
	if err != nil {
		return 0, 0, 0, err
	}
	return week, month, year, nil
}

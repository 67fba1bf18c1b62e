package usecase

import (
	"context"

	"github.com/shopspring/decimal"

	"skillbridge-billing/internal/domain"
	"skillbridge-billing/internal/domain/model"
	"skillbridge-billing/internal/domain/ports/repository"
)

var _ PlanUseCase = (*planUC)(nil)

type PlanUseCase interface {
	ListActive(ctx context.Context, audience model.PlanAudience) ([]*model.Plan, error)
	ListAll(ctx context.Context) ([]*model.Plan, error)
	FindByID(ctx context.Context, id int64) (*model.Plan, error)
	Save(ctx context.Context, plan *model.Plan) error
	Deactivate(ctx context.Context, id int64) error
}

type planUC struct {
	plans repository.PlanRepository
}

func NewPlanUseCase(plans repository.PlanRepository) *planUC {
	return &planUC{plans: plans}
}

func (u *planUC) ListActive(ctx context.Context, audience model.PlanAudience) ([]*model.Plan, error) {
	return u.plans.ListActive(ctx, repository.NoTX, audience)
}

func (u *planUC) ListAll(ctx context.Context) ([]*model.Plan, error) {
	return u.plans.ListAll(ctx, repository.NoTX)
}

func (u *planUC) FindByID(ctx context.Context, id int64) (*model.Plan, error) {
	return u.plans.FindByID(ctx, repository.NoTX, id)
}

func (u *planUC) Save(ctx context.Context, plan *model.Plan) error {
	if plan.Name == "" || plan.DurationDays <= 0 {
		return domain.ErrInvalidArgument
	}
	if plan.Audience != model.PlanAudienceClient && plan.Audience != model.PlanAudienceProfessional {
		return domain.ErrInvalidArgument
	}
	if plan.PriceKES.LessThan(decimal.Zero) {
		return domain.ErrInvalidArgument
	}
	if len(plan.Features) == 0 {
		plan.Features = []byte("{}")
	}
	return u.plans.Save(ctx, repository.NoTX, plan)
}

func (u *planUC) Deactivate(ctx context.Context, id int64) error {
	return u.plans.Delete(ctx, repository.NoTX, id)
}

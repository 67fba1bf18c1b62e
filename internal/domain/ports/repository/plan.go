package repository

import (
	"context"

	"skillbridge-billing/internal/domain/model"
)

// PlanRepository is the port for plan catalog persistence.
type PlanRepository interface {
	Save(ctx context.Context, tx Tx, plan *model.Plan) error
	FindByID(ctx context.Context, tx Tx, id int64) (*model.Plan, error)
	// ListActive filters by audience when it is non-empty.
	ListActive(ctx context.Context, tx Tx, audience model.PlanAudience) ([]*model.Plan, error)
	ListAll(ctx context.Context, tx Tx) ([]*model.Plan, error)
	Delete(ctx context.Context, tx Tx, id int64) error
}

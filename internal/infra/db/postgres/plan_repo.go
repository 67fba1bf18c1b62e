package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"skillbridge-billing/internal/domain"
	"skillbridge-billing/internal/domain/model"
	"skillbridge-billing/internal/domain/ports/repository"
)

var _ repository.PlanRepository = (*planRepo)(nil)

type planRepo struct{ pool *pgxpool.Pool }

func NewPlanRepo(pool *pgxpool.Pool) *planRepo {
	return &planRepo{pool: pool}
}

const planColumns = `id, name, audience, price_kes, duration_days, features, is_active, created_at`

func scanPlan(row pgx.Row) (*model.Plan, error) {
	p := &model.Plan{}
	if err := row.Scan(&p.ID, &p.Name, &p.Audience, &p.PriceKES, &p.DurationDays, &p.Features, &p.Active, &p.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return p, nil
}

func (r *planRepo) Save(ctx context.Context, tx repository.Tx, plan *model.Plan) error {
	if plan.ID == 0 {
		const q = `
INSERT INTO plans (name, audience, price_kes, duration_days, features, is_active, created_at)
VALUES ($1,$2,$3,$4,$5,$6,NOW())
RETURNING id;`
		row, err := pickRow(ctx, r.pool, tx, q, plan.Name, plan.Audience, plan.PriceKES, plan.DurationDays, plan.Features, plan.Active)
		if err != nil {
			return err
		}
		if err := row.Scan(&plan.ID); err != nil {
			return domain.ErrOperationFailed
		}
		return nil
	}

	const q = `
UPDATE plans
   SET name=$2, audience=$3, price_kes=$4, duration_days=$5, features=$6, is_active=$7
 WHERE id=$1;`
	cmd, err := execSQL(ctx, r.pool, tx, q, plan.ID, plan.Name, plan.Audience, plan.PriceKES, plan.DurationDays, plan.Features, plan.Active)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *planRepo) FindByID(ctx context.Context, tx repository.Tx, id int64) (*model.Plan, error) {
	const q = `SELECT ` + planColumns + ` FROM plans WHERE id=$1;`
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	return scanPlan(row)
}

func (r *planRepo) ListActive(ctx context.Context, tx repository.Tx, audience model.PlanAudience) ([]*model.Plan, error) {
	q := `SELECT ` + planColumns + ` FROM plans WHERE is_active`
	args := []interface{}{}
	if audience != "" {
		q += ` AND audience=$1`
		args = append(args, audience)
	}
	q += ` ORDER BY price_kes ASC;`
	return r.list(ctx, tx, q, args...)
}

func (r *planRepo) ListAll(ctx context.Context, tx repository.Tx) ([]*model.Plan, error) {
	const q = `SELECT ` + planColumns + ` FROM plans ORDER BY id ASC;`
	return r.list(ctx, tx, q)
}

func (r *planRepo) list(ctx context.Context, tx repository.Tx, q string, args ...interface{}) ([]*model.Plan, error) {
	rows, err := queryRows(ctx, r.pool, tx, q, args...)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return nil, err
		}
		return nil, domain.ErrOperationFailed
	}
	defer rows.Close()

	var out []*model.Plan
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func (r *planRepo) Delete(ctx context.Context, tx repository.Tx, id int64) error {
	// Plans referenced by payments/subscriptions must survive; deactivate
	// instead of removing the row.
	const q = `UPDATE plans SET is_active=FALSE WHERE id=$1;`
	cmd, err := execSQL(ctx, r.pool, tx, q, id)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

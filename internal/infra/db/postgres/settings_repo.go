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

var _ repository.SettingsRepository = (*settingsRepo)(nil)

// settingsRepo persists the single merchant settings row (id fixed at 1).
type settingsRepo struct{ pool *pgxpool.Pool }

func NewSettingsRepo(pool *pgxpool.Pool) *settingsRepo {
	return &settingsRepo{pool: pool}
}

func (r *settingsRepo) Get(ctx context.Context, tx repository.Tx) (*model.MerchantSettings, error) {
	const q = `SELECT shortcode, passkey, company_name, environment, callback_base_url, updated_at FROM merchant_settings WHERE id=1;`
	row, err := pickRow(ctx, r.pool, tx, q)
	if err != nil {
		return nil, err
	}
	s := &model.MerchantSettings{}
	if err := row.Scan(&s.Shortcode, &s.Passkey, &s.CompanyName, &s.Environment, &s.CallbackBaseURL, &s.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return s, nil
}

func (r *settingsRepo) Save(ctx context.Context, tx repository.Tx, s *model.MerchantSettings) error {
	const q = `
INSERT INTO merchant_settings (id, shortcode, passkey, company_name, environment, callback_base_url, updated_at)
VALUES (1,$1,$2,$3,$4,$5,NOW())
ON CONFLICT (id) DO UPDATE SET
  shortcode=$1, passkey=$2, company_name=$3, environment=$4, callback_base_url=$5, updated_at=NOW();`

	_, err := execSQL(ctx, r.pool, tx, q, s.Shortcode, s.Passkey, s.CompanyName, s.Environment, s.CallbackBaseURL)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

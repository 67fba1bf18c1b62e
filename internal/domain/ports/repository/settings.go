package repository

import (
	"context"

	"skillbridge-billing/internal/domain/model"
)

// SettingsRepository reads and writes the single merchant settings row.
type SettingsRepository interface {
	Get(ctx context.Context, tx Tx) (*model.MerchantSettings, error)
	Save(ctx context.Context, tx Tx, s *model.MerchantSettings) error
}

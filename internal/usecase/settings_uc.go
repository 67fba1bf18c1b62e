package usecase

import (
	"context"
	"sync"

	"skillbridge-billing/internal/domain"
	"skillbridge-billing/internal/domain/model"
	"skillbridge-billing/internal/domain/ports/adapter"
	"skillbridge-billing/internal/domain/ports/repository"

	"github.com/rs/zerolog"
)

var (
	_ SettingsUseCase        = (*settingsUC)(nil)
	_ adapter.SettingsSource = (*settingsUC)(nil)
)

// SettingsUseCase is the settings provider: it serves a cached snapshot of
// the merchant settings and refreshes it only on explicit Reload. The
// gateway never touches storage through a supposedly pure signing path.
type SettingsUseCase interface {
	Current() (*model.MerchantSettings, error)
	Reload(ctx context.Context) error
	Update(ctx context.Context, s *model.MerchantSettings) error
}

type settingsUC struct {
	repo repository.SettingsRepository
	log  *zerolog.Logger

	mu      sync.RWMutex
	current *model.MerchantSettings
}

func NewSettingsUseCase(repo repository.SettingsRepository, logger *zerolog.Logger) *settingsUC {
	l := logger.With().Str("component", "SettingsUC").Logger()
	return &settingsUC{repo: repo, log: &l}
}

func (u *settingsUC) Current() (*model.MerchantSettings, error) {
	u.mu.RLock()
	defer u.mu.RUnlock()
	if u.current == nil {
		return nil, domain.ErrSettingsMissing
	}
	cp := *u.current
	return &cp, nil
}

func (u *settingsUC) Reload(ctx context.Context) error {
	s, err := u.repo.Get(ctx, repository.NoTX)
	if err != nil {
		if err == domain.ErrNotFound {
			u.log.Warn().Msg("merchant settings row missing; gateway calls will fail until configured")
			return domain.ErrSettingsMissing
		}
		return err
	}
	u.mu.Lock()
	u.current = s
	u.mu.Unlock()
	u.log.Info().Str("environment", string(s.Environment)).Msg("merchant settings loaded")
	return nil
}

func (u *settingsUC) Update(ctx context.Context, s *model.MerchantSettings) error {
	if s == nil {
		return domain.ErrInvalidArgument
	}
	if err := u.repo.Save(ctx, repository.NoTX, s); err != nil {
		return err
	}
	return u.Reload(ctx)
}

package usecase

import (
	"context"
	"errors"
	"testing"

	"skillbridge-billing/internal/domain"
	"skillbridge-billing/internal/domain/model"
)

func TestSettingsCurrentBeforeReload(t *testing.T) {
	uc := NewSettingsUseCase(&memSettingsRepo{}, newTestLogger())

	if _, err := uc.Current(); !errors.Is(err, domain.ErrSettingsMissing) {
		t.Fatalf("err = %v, want ErrSettingsMissing", err)
	}
}

func TestSettingsReloadMissingRow(t *testing.T) {
	uc := NewSettingsUseCase(&memSettingsRepo{}, newTestLogger())

	if err := uc.Reload(context.Background()); !errors.Is(err, domain.ErrSettingsMissing) {
		t.Fatalf("err = %v, want ErrSettingsMissing", err)
	}
}

// Saved settings are not visible until loaded through Update or Reload;
// afterwards Current serves the snapshot without hitting the repo.
func TestSettingsUpdateRefreshesSnapshot(t *testing.T) {
	repo := &memSettingsRepo{}
	uc := NewSettingsUseCase(repo, newTestLogger())

	err := uc.Update(context.Background(), &model.MerchantSettings{
		Shortcode:       "174379",
		Passkey:         "passkey",
		CompanyName:     "SkillBridge",
		Environment:     model.MpesaEnvSandbox,
		CallbackBaseURL: "https://billing.example.com",
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	cur, err := uc.Current()
	if err != nil {
		t.Fatalf("current: %v", err)
	}
	if cur.Shortcode != "174379" || cur.Environment != model.MpesaEnvSandbox {
		t.Fatalf("unexpected snapshot: %+v", cur)
	}

	// A direct repo write stays invisible until the next Reload.
	repo.Save(context.Background(), nil, &model.MerchantSettings{
		Shortcode: "600999", Passkey: "other", Environment: model.MpesaEnvLive,
	})
	cur, _ = uc.Current()
	if cur.Shortcode != "174379" {
		t.Fatalf("snapshot changed without reload: %+v", cur)
	}

	if err := uc.Reload(context.Background()); err != nil {
		t.Fatalf("reload: %v", err)
	}
	cur, _ = uc.Current()
	if cur.Shortcode != "600999" {
		t.Fatalf("reload did not pick up new row: %+v", cur)
	}
}

package service

import (
	"context"
	"strconv"

	"cafe-pos/internal/models"
	"cafe-pos/internal/store"
	"cafe-pos/internal/util"

	"go.uber.org/zap"
)

// SettingsService exposes the key→string configuration consumed by the
// presentation layer and by order creation (tax rate).
type SettingsService struct {
	store  *store.Store
	logger *zap.Logger
}

// NewSettingsService creates a new settings service.
func NewSettingsService(st *store.Store) *SettingsService {
	return &SettingsService{
		store:  st,
		logger: util.GetLogger(),
	}
}

// Settings is the editable subset of configuration.
type Settings struct {
	CafeName       string  `json:"cafe_name"`
	TaxRatePercent float64 `json:"tax_rate_percent"`
}

// Get returns the current settings.
func (s *SettingsService) Get(ctx context.Context) (*Settings, error) {
	name, err := s.store.CafeName(ctx)
	if err != nil {
		return nil, err
	}
	rate, err := s.store.TaxRatePercent(ctx)
	if err != nil {
		return nil, err
	}
	return &Settings{CafeName: name, TaxRatePercent: rate}, nil
}

// VerifyAdminPIN reports whether pin matches the stored admin PIN. An
// empty stored PIN disables the check.
func (s *SettingsService) VerifyAdminPIN(ctx context.Context, pin string) (bool, error) {
	stored, err := s.store.AdminPIN(ctx)
	if err != nil {
		return false, err
	}
	return stored == "" || pin == stored, nil
}

// Update stores the editable settings.
func (s *SettingsService) Update(ctx context.Context, in *Settings) error {
	if in.TaxRatePercent < 0 {
		return models.Validationf("tax rate cannot be negative")
	}
	if err := s.store.SetSetting(ctx, store.SettingCafeName, in.CafeName); err != nil {
		return err
	}
	if err := s.store.SetSetting(ctx, store.SettingTaxRatePercent,
		strconv.FormatFloat(in.TaxRatePercent, 'f', -1, 64)); err != nil {
		return err
	}
	s.logger.Info("Settings updated",
		zap.String("cafe_name", in.CafeName),
		zap.Float64("tax_rate_percent", in.TaxRatePercent))
	return nil
}

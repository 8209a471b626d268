package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
)

// GetSetting returns the stored value for key, or "" when absent.
func (s *Store) GetSetting(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.GetContext(ctx, &value, "SELECT value FROM settings WHERE key = ?", key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return value, nil
}

// SetSetting upserts a key/value pair.
func (s *Store) SetSetting(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO settings(key, value) VALUES(?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, value)
	return err
}

// TaxRatePercent returns the configured tax rate; a missing row behaves
// as 0, an unparseable value is an error.
func (s *Store) TaxRatePercent(ctx context.Context) (float64, error) {
	raw, err := s.GetSetting(ctx, SettingTaxRatePercent)
	if err != nil {
		return 0, err
	}
	if raw == "" {
		return 0, nil
	}
	rate, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("tax rate setting is corrupt (%q): %w", raw, err)
	}
	return rate, nil
}

// CafeName returns the configured display name.
func (s *Store) CafeName(ctx context.Context) (string, error) {
	return s.GetSetting(ctx, SettingCafeName)
}

// AdminPIN returns the configured admin PIN.
func (s *Store) AdminPIN(ctx context.Context) (string, error) {
	return s.GetSetting(ctx, SettingAdminPIN)
}

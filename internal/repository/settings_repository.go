package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/jadwal-guru-api/internal/models"
)

// SettingsRepository persists the key/value settings backing resolution gating.
type SettingsRepository struct {
	db *sqlx.DB
}

// NewSettingsRepository creates a new settings repository.
func NewSettingsRepository(db *sqlx.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// Get returns a single setting row, or sql.ErrNoRows when absent.
func (r *SettingsRepository) Get(ctx context.Context, key string) (*models.Setting, error) {
	const query = `SELECT key, value, updated_by, updated_at FROM settings WHERE key = $1`
	var setting models.Setting
	if err := r.db.GetContext(ctx, &setting, query, key); err != nil {
		return nil, err
	}
	return &setting, nil
}

// Upsert writes a setting value, replacing any existing row for the key.
func (r *SettingsRepository) Upsert(ctx context.Context, setting *models.Setting) error {
	setting.UpdatedAt = time.Now().UTC()
	const query = `INSERT INTO settings (key, value, updated_by, updated_at) VALUES (:key, :value, :updated_by, :updated_at) ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_by = EXCLUDED.updated_by, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, setting); err != nil {
		return fmt.Errorf("upsert setting %s: %w", setting.Key, err)
	}
	return nil
}

// GetResolutionSettings assembles the resolution toggles. Missing keys default
// to true so a fresh install applies global layers until told otherwise.
func (r *SettingsRepository) GetResolutionSettings(ctx context.Context) (models.ResolutionSettings, error) {
	settings := models.ResolutionSettings{ApplyGlobalDaysOff: true, ApplyGlobalExceptions: true}

	read := func(key string, target *bool) error {
		setting, err := r.Get(ctx, key)
		if err != nil {
			if err == sql.ErrNoRows {
				return nil
			}
			return fmt.Errorf("read setting %s: %w", key, err)
		}
		parsed, err := strconv.ParseBool(setting.Value)
		if err != nil {
			return nil // malformed value keeps the default
		}
		*target = parsed
		return nil
	}

	if err := read(models.SettingApplyGlobalDaysOff, &settings.ApplyGlobalDaysOff); err != nil {
		return settings, err
	}
	if err := read(models.SettingApplyGlobalExceptions, &settings.ApplyGlobalExceptions); err != nil {
		return settings, err
	}
	return settings, nil
}

package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/jadwal-guru-api/internal/models"
)

func TestSettingsRepositoryResolutionDefaults(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSettingsRepository(db)

	// Both keys absent: the toggles default to enabled.
	mock.ExpectQuery("FROM settings WHERE key").
		WithArgs(models.SettingApplyGlobalDaysOff).
		WillReturnRows(sqlmock.NewRows([]string{"key", "value", "updated_by", "updated_at"}))
	mock.ExpectQuery("FROM settings WHERE key").
		WithArgs(models.SettingApplyGlobalExceptions).
		WillReturnRows(sqlmock.NewRows([]string{"key", "value", "updated_by", "updated_at"}))

	settings, err := repo.GetResolutionSettings(context.Background())
	require.NoError(t, err)
	assert.True(t, settings.ApplyGlobalDaysOff)
	assert.True(t, settings.ApplyGlobalExceptions)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSettingsRepositoryResolutionStoredValues(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSettingsRepository(db)

	now := time.Now()
	mock.ExpectQuery("FROM settings WHERE key").
		WithArgs(models.SettingApplyGlobalDaysOff).
		WillReturnRows(sqlmock.NewRows([]string{"key", "value", "updated_by", "updated_at"}).
			AddRow(models.SettingApplyGlobalDaysOff, "false", nil, now))
	mock.ExpectQuery("FROM settings WHERE key").
		WithArgs(models.SettingApplyGlobalExceptions).
		WillReturnRows(sqlmock.NewRows([]string{"key", "value", "updated_by", "updated_at"}).
			AddRow(models.SettingApplyGlobalExceptions, "not-a-bool", nil, now))

	settings, err := repo.GetResolutionSettings(context.Background())
	require.NoError(t, err)
	assert.False(t, settings.ApplyGlobalDaysOff)
	// A malformed stored value keeps the enabled default.
	assert.True(t, settings.ApplyGlobalExceptions)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSettingsRepositoryUpsert(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSettingsRepository(db)

	mock.ExpectExec("INSERT INTO settings").
		WillReturnResult(sqlmock.NewResult(0, 1))

	admin := "admin-1"
	setting := &models.Setting{
		Key:       models.SettingApplyGlobalDaysOff,
		Value:     "false",
		UpdatedBy: &admin,
	}
	require.NoError(t, repo.Upsert(context.Background(), setting))
	assert.False(t, setting.UpdatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

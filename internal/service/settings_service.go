package service

import (
	"context"
	"strconv"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/jadwal-guru-api/internal/dto"
	"github.com/noah-isme/jadwal-guru-api/internal/models"
	appErrors "github.com/noah-isme/jadwal-guru-api/pkg/errors"
)

type settingsRepository interface {
	GetResolutionSettings(ctx context.Context) (models.ResolutionSettings, error)
	Upsert(ctx context.Context, setting *models.Setting) error
}

// SettingsService manages the global resolution toggles.
type SettingsService struct {
	repo      settingsRepository
	audit     auditRecorder
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSettingsService constructs a SettingsService.
func NewSettingsService(repo settingsRepository, audit auditRecorder, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *SettingsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &SettingsService{repo: repo, audit: audit, cache: cache, validator: validate, logger: logger}
}

// Get returns the current resolution settings.
func (s *SettingsService) Get(ctx context.Context) (models.ResolutionSettings, error) {
	settings, err := s.repo.GetResolutionSettings(ctx)
	if err != nil {
		return settings, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load settings")
	}
	return settings, nil
}

// Update applies the requested toggle changes. Omitted fields keep their
// stored value. Every change invalidates all cached resolutions.
func (s *SettingsService) Update(ctx context.Context, adminID string, req dto.UpdateSettingsRequest) (models.ResolutionSettings, error) {
	current, err := s.Get(ctx)
	if err != nil {
		return current, err
	}
	if req.ApplyGlobalDaysOff == nil && req.ApplyGlobalExceptions == nil {
		return current, appErrors.Clone(appErrors.ErrValidation, "no settings provided")
	}

	write := func(key string, value bool) error {
		return s.repo.Upsert(ctx, &models.Setting{
			Key:       key,
			Value:     strconv.FormatBool(value),
			UpdatedBy: &adminID,
		})
	}

	if req.ApplyGlobalDaysOff != nil {
		if err := write(models.SettingApplyGlobalDaysOff, *req.ApplyGlobalDaysOff); err != nil {
			return current, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store settings")
		}
		current.ApplyGlobalDaysOff = *req.ApplyGlobalDaysOff
	}
	if req.ApplyGlobalExceptions != nil {
		if err := write(models.SettingApplyGlobalExceptions, *req.ApplyGlobalExceptions); err != nil {
			return current, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store settings")
		}
		current.ApplyGlobalExceptions = *req.ApplyGlobalExceptions
	}

	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, resolutionCachePattern("*")); err != nil {
			s.logger.Warn("failed to invalidate resolution cache", zap.Error(err))
		}
	}

	if s.audit != nil {
		if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
			UserID:   &adminID,
			Action:   models.AuditActionSettingsUpdate,
			Resource: "settings",
		}); err != nil {
			s.logger.Warn("failed to record settings audit log", zap.Error(err))
		}
	}

	return current, nil
}

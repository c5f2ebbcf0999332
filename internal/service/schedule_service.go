package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/jadwal-guru-api/internal/dto"
	"github.com/noah-isme/jadwal-guru-api/internal/models"
	appErrors "github.com/noah-isme/jadwal-guru-api/pkg/errors"
)

type scheduleRepository interface {
	GetWeekly(ctx context.Context, userID string) (models.WeeklySchedule, error)
	ReplaceWeekly(ctx context.Context, userID string, schedule models.WeeklySchedule) error
}

// ScheduleService manages the recurring weekly template.
type ScheduleService struct {
	repo      scheduleRepository
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewScheduleService constructs a ScheduleService.
func NewScheduleService(repo scheduleRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *ScheduleService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &ScheduleService{repo: repo, cache: cache, validator: validate, logger: logger}
}

// GetWeekly returns the caller's normalized weekly template.
func (s *ScheduleService) GetWeekly(ctx context.Context, userID string) (models.WeeklySchedule, error) {
	schedule, err := s.repo.GetWeekly(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load weekly schedule")
	}
	return schedule.Normalize(), nil
}

// UpdateWeekly replaces the caller's template. Unknown weekday keys are
// rejected; rows are normalized before persisting.
func (s *ScheduleService) UpdateWeekly(ctx context.Context, userID string, req dto.UpdateScheduleRequest) (models.WeeklySchedule, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule payload")
	}

	known := make(map[models.Weekday]bool, len(models.Weekdays))
	for _, day := range models.Weekdays {
		known[day] = true
	}
	for day := range req.Schedule {
		if !known[day] {
			return nil, appErrors.Clone(appErrors.ErrValidation, "unknown weekday "+string(day))
		}
	}

	normalized := req.Schedule.Normalize()
	if err := s.repo.ReplaceWeekly(ctx, userID, normalized); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store weekly schedule")
	}

	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, resolutionCachePattern(userID)); err != nil {
			s.logger.Warn("failed to invalidate resolution cache", zap.Error(err))
		}
	}
	return normalized, nil
}

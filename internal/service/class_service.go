package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/jadwal-guru-api/internal/dto"
	"github.com/noah-isme/jadwal-guru-api/internal/models"
	appErrors "github.com/noah-isme/jadwal-guru-api/pkg/errors"
)

type classRepository interface {
	List(ctx context.Context, userID string, filter models.ClassFilter) ([]models.Class, int, error)
	FindByID(ctx context.Context, id string) (*models.Class, error)
	Create(ctx context.Context, class *models.Class) error
	Update(ctx context.Context, class *models.Class) error
	Delete(ctx context.Context, id string) error
}

type classScheduleRepository interface {
	ClearClass(ctx context.Context, userID, classID string) error
}

// ClassService manages a teacher's class catalog.
type ClassService struct {
	repo      classRepository
	schedules classScheduleRepository
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewClassService constructs a ClassService.
func NewClassService(repo classRepository, schedules classScheduleRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *ClassService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &ClassService{repo: repo, schedules: schedules, cache: cache, validator: validate, logger: logger}
}

// List returns the caller's classes with pagination metadata.
func (s *ClassService) List(ctx context.Context, userID string, filter models.ClassFilter) ([]models.Class, *models.Pagination, error) {
	classes, total, err := s.repo.List(ctx, userID, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list classes")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 50
	}
	return classes, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns one class owned by the caller.
func (s *ClassService) Get(ctx context.Context, userID, classID string) (*models.Class, error) {
	class, err := s.ownedClass(ctx, userID, classID)
	if err != nil {
		return nil, err
	}
	return class, nil
}

// Create adds a class for the caller.
func (s *ClassService) Create(ctx context.Context, userID string, req dto.CreateClassRequest) (*models.Class, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid class payload")
	}
	class := &models.Class{
		UserID:  userID,
		Name:    req.Name,
		Subject: req.Subject,
		Color:   req.Color,
	}
	if err := s.repo.Create(ctx, class); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create class")
	}
	return class, nil
}

// Update modifies one of the caller's classes.
func (s *ClassService) Update(ctx context.Context, userID, classID string, req dto.UpdateClassRequest) (*models.Class, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid class payload")
	}
	class, err := s.ownedClass(ctx, userID, classID)
	if err != nil {
		return nil, err
	}
	class.Name = req.Name
	class.Subject = req.Subject
	class.Color = req.Color
	if err := s.repo.Update(ctx, class); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update class")
	}
	return class, nil
}

// Delete removes a class and blanks every template slot referencing it.
func (s *ClassService) Delete(ctx context.Context, userID, classID string) error {
	if _, err := s.ownedClass(ctx, userID, classID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, classID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete class")
	}
	if s.schedules != nil {
		if err := s.schedules.ClearClass(ctx, userID, classID); err != nil {
			s.logger.Warn("failed to clear deleted class from schedule", zap.String("class_id", classID), zap.Error(err))
		}
	}
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, resolutionCachePattern(userID)); err != nil {
			s.logger.Warn("failed to invalidate resolution cache", zap.Error(err))
		}
	}
	return nil
}

func (s *ClassService) ownedClass(ctx context.Context, userID, classID string) (*models.Class, error) {
	class, err := s.repo.FindByID(ctx, classID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	if class.UserID != userID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "class belongs to another user")
	}
	return class, nil
}

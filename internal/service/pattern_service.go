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

type patternRepository interface {
	ListVisible(ctx context.Context, userID string) ([]models.ExceptionPattern, error)
	ListGlobal(ctx context.Context) ([]models.ExceptionPattern, error)
	FindByID(ctx context.Context, id string) (*models.ExceptionPattern, error)
	NameExists(ctx context.Context, userID *string, name, excludeID string) (bool, error)
	CountReferences(ctx context.Context, patternID string) (int, error)
	Create(ctx context.Context, pattern *models.ExceptionPattern) error
	Update(ctx context.Context, pattern *models.ExceptionPattern) error
	Delete(ctx context.Context, id string) error
}

// PatternService manages personal and global exception patterns.
type PatternService struct {
	repo      patternRepository
	audit     auditRecorder
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewPatternService constructs a PatternService.
func NewPatternService(repo patternRepository, audit auditRecorder, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *PatternService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &PatternService{repo: repo, audit: audit, cache: cache, validator: validate, logger: logger}
}

// ListVisible returns the caller's patterns plus the global catalog.
func (s *PatternService) ListVisible(ctx context.Context, userID string) ([]models.ExceptionPattern, error) {
	patterns, err := s.repo.ListVisible(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list patterns")
	}
	return patterns, nil
}

// ListGlobal returns only the global catalog.
func (s *PatternService) ListGlobal(ctx context.Context) ([]models.ExceptionPattern, error) {
	patterns, err := s.repo.ListGlobal(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list global patterns")
	}
	return patterns, nil
}

// CreatePersonal adds a pattern owned by the caller.
func (s *PatternService) CreatePersonal(ctx context.Context, userID string, req dto.WritePatternRequest) (*models.ExceptionPattern, error) {
	return s.create(ctx, &userID, false, "", req)
}

// CreateGlobal adds a pattern to the global catalog.
func (s *PatternService) CreateGlobal(ctx context.Context, adminID string, req dto.WritePatternRequest) (*models.ExceptionPattern, error) {
	return s.create(ctx, nil, true, adminID, req)
}

func (s *PatternService) create(ctx context.Context, userID *string, isGlobal bool, adminID string, req dto.WritePatternRequest) (*models.ExceptionPattern, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid pattern payload")
	}
	taken, err := s.repo.NameExists(ctx, userID, req.Name, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check pattern name")
	}
	if taken {
		return nil, appErrors.Clone(appErrors.ErrConflict, "pattern name already in use")
	}

	data, err := models.EncodePatternSlots(req.Slots)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid pattern slots")
	}
	pattern := &models.ExceptionPattern{
		UserID:      userID,
		Name:        req.Name,
		PatternData: data,
		IsGlobal:    isGlobal,
	}
	if err := s.repo.Create(ctx, pattern); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create pattern")
	}
	if isGlobal {
		s.invalidateAll(ctx)
		s.recordAudit(ctx, adminID, pattern.ID)
	}
	return pattern, nil
}

// Update modifies a pattern. Personal patterns require ownership; global ones
// require the caller to come through the admin route.
func (s *PatternService) Update(ctx context.Context, userID, id string, isAdmin bool, req dto.WritePatternRequest) (*models.ExceptionPattern, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid pattern payload")
	}
	pattern, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(pattern, userID, isAdmin); err != nil {
		return nil, err
	}

	taken, err := s.repo.NameExists(ctx, pattern.UserID, req.Name, pattern.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check pattern name")
	}
	if taken {
		return nil, appErrors.Clone(appErrors.ErrConflict, "pattern name already in use")
	}

	data, err := models.EncodePatternSlots(req.Slots)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid pattern slots")
	}
	pattern.Name = req.Name
	pattern.PatternData = data
	if err := s.repo.Update(ctx, pattern); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update pattern")
	}

	if pattern.IsGlobal {
		s.invalidateAll(ctx)
		s.recordAudit(ctx, userID, pattern.ID)
	} else if pattern.UserID != nil {
		s.invalidateUser(ctx, *pattern.UserID)
	}
	return pattern, nil
}

// Delete removes a pattern that no applied exception references.
func (s *PatternService) Delete(ctx context.Context, userID, id string, isAdmin bool) error {
	pattern, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := s.authorize(pattern, userID, isAdmin); err != nil {
		return err
	}

	refs, err := s.repo.CountReferences(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count pattern references")
	}
	if refs > 0 {
		return appErrors.Clone(appErrors.ErrConflict, "pattern is still referenced by applied exceptions")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete pattern")
	}
	if pattern.IsGlobal {
		s.invalidateAll(ctx)
		s.recordAudit(ctx, userID, id)
	} else if pattern.UserID != nil {
		s.invalidateUser(ctx, *pattern.UserID)
	}
	return nil
}

func (s *PatternService) authorize(pattern *models.ExceptionPattern, userID string, isAdmin bool) error {
	if pattern.IsGlobal {
		if !isAdmin {
			return appErrors.Clone(appErrors.ErrForbidden, "global patterns are admin managed")
		}
		return nil
	}
	if pattern.UserID == nil || *pattern.UserID != userID {
		return appErrors.Clone(appErrors.ErrForbidden, "pattern belongs to another user")
	}
	return nil
}

func (s *PatternService) load(ctx context.Context, id string) (*models.ExceptionPattern, error) {
	pattern, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "pattern not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load pattern")
	}
	return pattern, nil
}

func (s *PatternService) invalidateUser(ctx context.Context, userID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, resolutionCachePattern(userID)); err != nil {
		s.logger.Warn("failed to invalidate resolution cache", zap.Error(err))
	}
}

func (s *PatternService) invalidateAll(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, resolutionCachePattern("*")); err != nil {
		s.logger.Warn("failed to invalidate resolution cache", zap.Error(err))
	}
}

func (s *PatternService) recordAudit(ctx context.Context, adminID, resourceID string) {
	if s.audit == nil {
		return
	}
	if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     &adminID,
		Action:     models.AuditActionGlobalPattern,
		Resource:   "exception_patterns",
		ResourceID: &resourceID,
	}); err != nil {
		s.logger.Warn("failed to record pattern audit log", zap.Error(err))
	}
}

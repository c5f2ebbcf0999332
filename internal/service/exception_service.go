package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/jadwal-guru-api/internal/dto"
	"github.com/noah-isme/jadwal-guru-api/internal/models"
	appErrors "github.com/noah-isme/jadwal-guru-api/pkg/errors"
)

type exceptionRepository interface {
	ListPersonal(ctx context.Context, userID string) ([]models.AppliedException, error)
	ListGlobal(ctx context.Context) ([]models.AppliedException, error)
	FindByID(ctx context.Context, id string) (*models.AppliedException, error)
	Create(ctx context.Context, exc *models.AppliedException) error
	Update(ctx context.Context, exc *models.AppliedException) error
	Delete(ctx context.Context, id string) error
}

type exceptionPatternLookup interface {
	FindByID(ctx context.Context, id string) (*models.ExceptionPattern, error)
}

// ExceptionService manages applied exceptions for both scopes.
type ExceptionService struct {
	repo      exceptionRepository
	patterns  exceptionPatternLookup
	audit     auditRecorder
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewExceptionService constructs an ExceptionService.
func NewExceptionService(repo exceptionRepository, patterns exceptionPatternLookup, audit auditRecorder, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *ExceptionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &ExceptionService{repo: repo, patterns: patterns, audit: audit, cache: cache, validator: validate, logger: logger}
}

// ListPersonal returns the caller's exceptions.
func (s *ExceptionService) ListPersonal(ctx context.Context, userID string) ([]models.AppliedException, error) {
	excs, err := s.repo.ListPersonal(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list exceptions")
	}
	return excs, nil
}

// ListGlobal returns every global exception.
func (s *ExceptionService) ListGlobal(ctx context.Context) ([]models.AppliedException, error) {
	excs, err := s.repo.ListGlobal(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list global exceptions")
	}
	return excs, nil
}

// CreatePersonal adds an exception for the caller. Personal scope is the only
// one allowed to carry an ad-hoc single-slot override.
func (s *ExceptionService) CreatePersonal(ctx context.Context, userID string, req dto.WriteExceptionRequest) (*models.AppliedException, error) {
	exc := &models.AppliedException{UserID: &userID, Scope: models.ExceptionScopePersonal}
	if err := s.applyRequest(ctx, exc, req, userID); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, exc); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create exception")
	}
	s.invalidateUser(ctx, userID)
	return exc, nil
}

// CreateGlobal adds a global exception. Ad-hoc overrides are rejected because
// a single-slot substitution has no meaning across every teacher's base grid.
func (s *ExceptionService) CreateGlobal(ctx context.Context, adminID string, req dto.WriteExceptionRequest) (*models.AppliedException, error) {
	if req.PeriodIndex != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "global exceptions cannot carry ad-hoc overrides")
	}
	exc := &models.AppliedException{Scope: models.ExceptionScopeGlobal}
	if err := s.applyRequest(ctx, exc, req, ""); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, exc); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create global exception")
	}
	s.invalidateAll(ctx)
	s.recordAudit(ctx, adminID, exc.ID)
	return exc, nil
}

// UpdatePersonal modifies one of the caller's exceptions.
func (s *ExceptionService) UpdatePersonal(ctx context.Context, userID, id string, req dto.WriteExceptionRequest) (*models.AppliedException, error) {
	exc, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if exc.Scope != models.ExceptionScopePersonal || exc.UserID == nil || *exc.UserID != userID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "exception belongs to another user")
	}
	if err := s.applyRequest(ctx, exc, req, userID); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, exc); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update exception")
	}
	s.invalidateUser(ctx, userID)
	return exc, nil
}

// UpdateGlobal modifies a global exception.
func (s *ExceptionService) UpdateGlobal(ctx context.Context, adminID, id string, req dto.WriteExceptionRequest) (*models.AppliedException, error) {
	if req.PeriodIndex != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "global exceptions cannot carry ad-hoc overrides")
	}
	exc, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if exc.Scope != models.ExceptionScopeGlobal {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "global exception not found")
	}
	if err := s.applyRequest(ctx, exc, req, ""); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, exc); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update global exception")
	}
	s.invalidateAll(ctx)
	s.recordAudit(ctx, adminID, exc.ID)
	return exc, nil
}

// DeletePersonal removes one of the caller's exceptions.
func (s *ExceptionService) DeletePersonal(ctx context.Context, userID, id string) error {
	exc, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if exc.Scope != models.ExceptionScopePersonal || exc.UserID == nil || *exc.UserID != userID {
		return appErrors.Clone(appErrors.ErrForbidden, "exception belongs to another user")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete exception")
	}
	s.invalidateUser(ctx, userID)
	return nil
}

// DeleteGlobal removes a global exception.
func (s *ExceptionService) DeleteGlobal(ctx context.Context, adminID, id string) error {
	exc, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if exc.Scope != models.ExceptionScopeGlobal {
		return appErrors.Clone(appErrors.ErrNotFound, "global exception not found")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete global exception")
	}
	s.invalidateAll(ctx)
	s.recordAudit(ctx, adminID, id)
	return nil
}

func (s *ExceptionService) applyRequest(ctx context.Context, exc *models.AppliedException, req dto.WriteExceptionRequest, visibleTo string) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid exception payload")
	}

	if req.IsDayOff && req.ExceptionPatternID != nil {
		return appErrors.Clone(appErrors.ErrExclusiveException, "")
	}
	if req.PeriodIndex != nil && (req.IsDayOff || req.ExceptionPatternID != nil) {
		return appErrors.Clone(appErrors.ErrExclusiveException, "ad-hoc override cannot combine with day-off or pattern")
	}
	if !req.IsDayOff && req.ExceptionPatternID == nil && req.PeriodIndex == nil {
		return appErrors.Clone(appErrors.ErrValidation, "exception must select a behavior")
	}
	if req.PeriodIndex != nil && req.ClassID == nil {
		return appErrors.Clone(appErrors.ErrValidation, "ad-hoc override requires a class")
	}

	date, err := time.ParseInLocation(models.DateLayout, req.Date, time.Local)
	if err != nil {
		return appErrors.Clone(appErrors.ErrValidation, "invalid date")
	}

	if req.ExceptionPatternID != nil {
		pattern, err := s.patterns.FindByID(ctx, *req.ExceptionPatternID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return appErrors.Clone(appErrors.ErrNotFound, "pattern not found")
			}
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load pattern")
		}
		if !pattern.IsGlobal && (pattern.UserID == nil || visibleTo == "" || *pattern.UserID != visibleTo) {
			return appErrors.Clone(appErrors.ErrForbidden, "pattern is not visible to this user")
		}
	}

	exc.Date = date
	exc.IsDayOff = req.IsDayOff
	exc.ExceptionPatternID = req.ExceptionPatternID
	exc.PeriodIndex = req.PeriodIndex
	exc.ClassID = req.ClassID
	exc.Reason = req.Reason
	exc.Pattern = nil
	return nil
}

func (s *ExceptionService) load(ctx context.Context, id string) (*models.AppliedException, error) {
	exc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "exception not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load exception")
	}
	return exc, nil
}

func (s *ExceptionService) invalidateUser(ctx context.Context, userID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, resolutionCachePattern(userID)); err != nil {
		s.logger.Warn("failed to invalidate resolution cache", zap.Error(err))
	}
}

func (s *ExceptionService) invalidateAll(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, resolutionCachePattern("*")); err != nil {
		s.logger.Warn("failed to invalidate resolution cache", zap.Error(err))
	}
}

func (s *ExceptionService) recordAudit(ctx context.Context, adminID, resourceID string) {
	if s.audit == nil {
		return
	}
	if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     &adminID,
		Action:     models.AuditActionGlobalException,
		Resource:   "applied_exceptions",
		ResourceID: &resourceID,
	}); err != nil {
		s.logger.Warn("failed to record exception audit log", zap.Error(err))
	}
}

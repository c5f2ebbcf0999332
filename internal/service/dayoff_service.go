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

type dayOffRepository interface {
	ListPersonal(ctx context.Context, userID string) ([]models.DayOffRecord, error)
	ListGlobal(ctx context.Context) ([]models.DayOffRecord, error)
	FindByID(ctx context.Context, id string) (*models.DayOffRecord, error)
	Create(ctx context.Context, record *models.DayOffRecord) error
	Update(ctx context.Context, record *models.DayOffRecord) error
	Delete(ctx context.Context, id string) error
}

type auditRecorder interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// DayOffService manages personal and global day-off records.
type DayOffService struct {
	repo      dayOffRepository
	audit     auditRecorder
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewDayOffService constructs a DayOffService.
func NewDayOffService(repo dayOffRepository, audit auditRecorder, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *DayOffService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &DayOffService{repo: repo, audit: audit, cache: cache, validator: validate, logger: logger}
}

// ListPersonal returns the caller's day-off records.
func (s *DayOffService) ListPersonal(ctx context.Context, userID string) ([]models.DayOffRecord, error) {
	records, err := s.repo.ListPersonal(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list day-offs")
	}
	return records, nil
}

// ListGlobal returns every institution-wide day-off record.
func (s *DayOffService) ListGlobal(ctx context.Context) ([]models.DayOffRecord, error) {
	records, err := s.repo.ListGlobal(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list global day-offs")
	}
	return records, nil
}

// CreatePersonal adds a day-off for the caller.
func (s *DayOffService) CreatePersonal(ctx context.Context, userID string, req dto.WriteDayOffRequest) (*models.DayOffRecord, error) {
	record, err := s.buildRecord(&userID, models.ScopePersonal, req)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, record); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create day-off")
	}
	s.invalidateUser(ctx, userID)
	return record, nil
}

// CreateGlobal adds an institution-wide day-off. Admin only; the route guard
// enforces the role, this layer records the audit trail.
func (s *DayOffService) CreateGlobal(ctx context.Context, adminID string, req dto.WriteDayOffRequest) (*models.DayOffRecord, error) {
	record, err := s.buildRecord(nil, models.ScopeGlobal, req)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, record); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create global day-off")
	}
	s.invalidateAll(ctx)
	s.recordAudit(ctx, adminID, models.AuditActionGlobalDayOff, record.ID)
	return record, nil
}

// UpdatePersonal modifies one of the caller's records.
func (s *DayOffService) UpdatePersonal(ctx context.Context, userID, id string, req dto.WriteDayOffRequest) (*models.DayOffRecord, error) {
	existing, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing.Scope != models.ScopePersonal || existing.UserID == nil || *existing.UserID != userID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "day-off belongs to another user")
	}
	if err := s.applyRequest(existing, req, models.ScopePersonal); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, existing); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update day-off")
	}
	s.invalidateUser(ctx, userID)
	return existing, nil
}

// UpdateGlobal modifies a global record.
func (s *DayOffService) UpdateGlobal(ctx context.Context, adminID, id string, req dto.WriteDayOffRequest) (*models.DayOffRecord, error) {
	existing, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing.Scope != models.ScopeGlobal {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "global day-off not found")
	}
	if err := s.applyRequest(existing, req, models.ScopeGlobal); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, existing); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update global day-off")
	}
	s.invalidateAll(ctx)
	s.recordAudit(ctx, adminID, models.AuditActionGlobalDayOff, existing.ID)
	return existing, nil
}

// DeletePersonal removes one of the caller's records.
func (s *DayOffService) DeletePersonal(ctx context.Context, userID, id string) error {
	existing, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if existing.Scope != models.ScopePersonal || existing.UserID == nil || *existing.UserID != userID {
		return appErrors.Clone(appErrors.ErrForbidden, "day-off belongs to another user")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete day-off")
	}
	s.invalidateUser(ctx, userID)
	return nil
}

// DeleteGlobal removes a global record.
func (s *DayOffService) DeleteGlobal(ctx context.Context, adminID, id string) error {
	existing, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if existing.Scope != models.ScopeGlobal {
		return appErrors.Clone(appErrors.ErrNotFound, "global day-off not found")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete global day-off")
	}
	s.invalidateAll(ctx)
	s.recordAudit(ctx, adminID, models.AuditActionGlobalDayOff, id)
	return nil
}

func (s *DayOffService) buildRecord(userID *string, scope models.DayOffScope, req dto.WriteDayOffRequest) (*models.DayOffRecord, error) {
	record := &models.DayOffRecord{UserID: userID, Scope: scope}
	if err := s.applyRequest(record, req, scope); err != nil {
		return nil, err
	}
	return record, nil
}

func (s *DayOffService) applyRequest(record *models.DayOffRecord, req dto.WriteDayOffRequest, scope models.DayOffScope) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid day-off payload")
	}

	start, err := time.ParseInLocation(models.DateLayout, req.StartDate, time.Local)
	if err != nil {
		return appErrors.Clone(appErrors.ErrValidation, "invalid start date")
	}
	record.StartDate = start
	record.EndDate = nil
	if req.EndDate != "" && req.EndDate != req.StartDate {
		if req.EndDate < req.StartDate {
			return appErrors.Clone(appErrors.ErrInvalidDateRange, "")
		}
		end, err := time.ParseInLocation(models.DateLayout, req.EndDate, time.Local)
		if err != nil {
			return appErrors.Clone(appErrors.ErrValidation, "invalid end date")
		}
		record.EndDate = &end
	}

	record.Reason = req.Reason
	record.Color = req.Color
	if record.Color == "" {
		if scope == models.ScopeGlobal {
			record.Color = models.DefaultGlobalDayOffColor
		} else {
			record.Color = models.DefaultPersonalDayOffColor
		}
	}
	return nil
}

func (s *DayOffService) load(ctx context.Context, id string) (*models.DayOffRecord, error) {
	record, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "day-off not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load day-off")
	}
	return record, nil
}

func (s *DayOffService) invalidateUser(ctx context.Context, userID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, resolutionCachePattern(userID)); err != nil {
		s.logger.Warn("failed to invalidate resolution cache", zap.Error(err))
	}
}

func (s *DayOffService) invalidateAll(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, resolutionCachePattern("*")); err != nil {
		s.logger.Warn("failed to invalidate resolution cache", zap.Error(err))
	}
}

func (s *DayOffService) recordAudit(ctx context.Context, adminID, action, resourceID string) {
	if s.audit == nil {
		return
	}
	if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     &adminID,
		Action:     action,
		Resource:   "day_offs",
		ResourceID: &resourceID,
	}); err != nil {
		s.logger.Warn("failed to record day-off audit log", zap.Error(err))
	}
}

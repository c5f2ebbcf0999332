package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/jadwal-guru-api/internal/dto"
	"github.com/noah-isme/jadwal-guru-api/internal/models"
	appErrors "github.com/noah-isme/jadwal-guru-api/pkg/errors"
)

type dayOffStoreStub struct {
	items map[string]models.DayOffRecord
}

func newDayOffStoreStub() *dayOffStoreStub {
	return &dayOffStoreStub{items: map[string]models.DayOffRecord{}}
}

func (s *dayOffStoreStub) ListPersonal(ctx context.Context, userID string) ([]models.DayOffRecord, error) {
	var out []models.DayOffRecord
	for _, rec := range s.items {
		if rec.Scope == models.ScopePersonal && rec.UserID != nil && *rec.UserID == userID {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (s *dayOffStoreStub) ListGlobal(ctx context.Context) ([]models.DayOffRecord, error) {
	var out []models.DayOffRecord
	for _, rec := range s.items {
		if rec.Scope == models.ScopeGlobal {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (s *dayOffStoreStub) FindByID(ctx context.Context, id string) (*models.DayOffRecord, error) {
	rec, ok := s.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &rec, nil
}

func (s *dayOffStoreStub) Create(ctx context.Context, record *models.DayOffRecord) error {
	if record.ID == "" {
		record.ID = "off-" + record.StartDateString()
	}
	s.items[record.ID] = *record
	return nil
}

func (s *dayOffStoreStub) Update(ctx context.Context, record *models.DayOffRecord) error {
	s.items[record.ID] = *record
	return nil
}

func (s *dayOffStoreStub) Delete(ctx context.Context, id string) error {
	delete(s.items, id)
	return nil
}

func newDayOffFixture() (*DayOffService, *dayOffStoreStub, *auditStub) {
	store := newDayOffStoreStub()
	audit := &auditStub{}
	return NewDayOffService(store, audit, nil, nil, nil), store, audit
}

func TestCreatePersonalDayOffDefaults(t *testing.T) {
	svc, store, _ := newDayOffFixture()

	record, err := svc.CreatePersonal(context.Background(), "teacher-1", dto.WriteDayOffRequest{
		StartDate: "2025-01-10",
		Reason:    "cuti",
	})
	require.NoError(t, err)
	assert.Equal(t, models.ScopePersonal, record.Scope)
	assert.Equal(t, models.DefaultPersonalDayOffColor, record.Color)
	assert.Nil(t, record.EndDate)
	assert.False(t, record.IsRange())
	assert.Len(t, store.items, 1)
}

func TestCreatePersonalDayOffRange(t *testing.T) {
	svc, _, _ := newDayOffFixture()

	record, err := svc.CreatePersonal(context.Background(), "teacher-1", dto.WriteDayOffRequest{
		StartDate: "2025-01-10",
		EndDate:   "2025-01-12",
	})
	require.NoError(t, err)
	require.NotNil(t, record.EndDate)
	assert.True(t, record.IsRange())
	assert.Equal(t, 3, record.DayCount())

	// An end date equal to the start collapses to a single day.
	single, err := svc.CreatePersonal(context.Background(), "teacher-1", dto.WriteDayOffRequest{
		StartDate: "2025-02-01",
		EndDate:   "2025-02-01",
	})
	require.NoError(t, err)
	assert.Nil(t, single.EndDate)
}

func TestCreatePersonalDayOffRejectsInvertedRange(t *testing.T) {
	svc, _, _ := newDayOffFixture()

	_, err := svc.CreatePersonal(context.Background(), "teacher-1", dto.WriteDayOffRequest{
		StartDate: "2025-01-12",
		EndDate:   "2025-01-10",
	})
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrInvalidDateRange.Code, appErr.Code)
}

func TestCreateGlobalDayOffAuditsAndColors(t *testing.T) {
	svc, _, audit := newDayOffFixture()

	record, err := svc.CreateGlobal(context.Background(), "admin-1", dto.WriteDayOffRequest{
		StartDate: "2025-08-17",
		Reason:    "hari kemerdekaan",
	})
	require.NoError(t, err)
	assert.Equal(t, models.ScopeGlobal, record.Scope)
	assert.Nil(t, record.UserID)
	assert.Equal(t, models.DefaultGlobalDayOffColor, record.Color)
	require.Len(t, audit.logs, 1)
	assert.Equal(t, models.AuditActionGlobalDayOff, audit.logs[0].Action)
}

func TestUpdatePersonalDayOffOwnership(t *testing.T) {
	svc, store, _ := newDayOffFixture()
	owner := "teacher-1"
	store.items["off-1"] = models.DayOffRecord{ID: "off-1", UserID: &owner, Scope: models.ScopePersonal}

	_, err := svc.UpdatePersonal(context.Background(), "intruder", "off-1", dto.WriteDayOffRequest{
		StartDate: "2025-01-10",
	})
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrForbidden.Code, appErr.Code)

	err = svc.DeletePersonal(context.Background(), "intruder", "off-1")
	require.Error(t, err)
}

func TestDeleteGlobalDayOffScopeMismatch(t *testing.T) {
	svc, store, _ := newDayOffFixture()
	owner := "teacher-1"
	store.items["off-1"] = models.DayOffRecord{ID: "off-1", UserID: &owner, Scope: models.ScopePersonal}

	err := svc.DeleteGlobal(context.Background(), "admin-1", "off-1")
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

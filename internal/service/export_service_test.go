package service

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/jadwal-guru-api/internal/models"
	appErrors "github.com/noah-isme/jadwal-guru-api/pkg/errors"
)

type classListStub struct {
	classes []models.Class
}

func (s *classListStub) List(ctx context.Context, userID string, filter models.ClassFilter) ([]models.Class, int, error) {
	return s.classes, len(s.classes), nil
}

func newExportFixture(t *testing.T, dayOffs *dayOffRepoStub) *ExportService {
	t.Helper()
	resolution, _ := newResolutionFixture(dayOffs, &exceptionRepoStub{}, models.ResolutionSettings{ApplyGlobalDaysOff: true, ApplyGlobalExceptions: true}, nil)
	classes := &classListStub{classes: []models.Class{
		{ID: "c1", Name: "Matematika X-A"},
		{ID: "c2", Name: "Fisika X-B"},
		{ID: "c3", Name: "Kimia XI-A"},
	}}
	return NewExportService(resolution, classes, true, nil)
}

func TestExportWeekCSV(t *testing.T) {
	teacher := "teacher-1"
	dayOffs := &dayOffRepoStub{
		personal: []models.DayOffRecord{dayOffOn(t, "off-1", "2025-01-07", &teacher, models.ScopePersonal)},
	}
	svc := newExportFixture(t, dayOffs)

	payload, contentType, err := svc.ExportWeek(context.Background(), teacher, "2025-01-06", "csv")
	require.NoError(t, err)
	assert.Equal(t, "text/csv", contentType)

	body := string(payload)
	assert.Contains(t, body, "Tanggal")
	assert.Contains(t, body, "Matematika X-A")
	assert.Contains(t, body, "LIBUR", "tuesday day off must render as LIBUR")

	lines := strings.Split(strings.TrimSpace(body), "\n")
	assert.Len(t, lines, 7, "header plus six weekdays")
}

func TestExportWeekPDF(t *testing.T) {
	svc := newExportFixture(t, &dayOffRepoStub{})

	payload, contentType, err := svc.ExportWeek(context.Background(), "teacher-1", "2025-01-06", "pdf")
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", contentType)
	require.Greater(t, len(payload), 0)
	assert.True(t, strings.HasPrefix(string(payload[:5]), "%PDF-"))
}

func TestExportWeekRejectsUnknownFormat(t *testing.T) {
	svc := newExportFixture(t, &dayOffRepoStub{})

	_, _, err := svc.ExportWeek(context.Background(), "teacher-1", "2025-01-06", "xlsx")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

type pagedClassStub struct {
	classes []models.Class
	calls   int
}

func (s *pagedClassStub) List(ctx context.Context, userID string, filter models.ClassFilter) ([]models.Class, int, error) {
	s.calls++
	start := (filter.Page - 1) * filter.PageSize
	if start < 0 || start >= len(s.classes) {
		return nil, len(s.classes), nil
	}
	end := start + filter.PageSize
	if end > len(s.classes) {
		end = len(s.classes)
	}
	return s.classes[start:end], len(s.classes), nil
}

func TestExportClassNamesSpanPages(t *testing.T) {
	stub := &pagedClassStub{}
	for i := 0; i < 250; i++ {
		stub.classes = append(stub.classes, models.Class{ID: fmt.Sprintf("c%d", i), Name: fmt.Sprintf("Kelas %d", i)})
	}
	resolution, _ := newResolutionFixture(&dayOffRepoStub{}, &exceptionRepoStub{}, models.ResolutionSettings{ApplyGlobalDaysOff: true, ApplyGlobalExceptions: true}, nil)
	svc := NewExportService(resolution, stub, true, nil)

	names, err := svc.classNames(context.Background(), "teacher-1")
	require.NoError(t, err)
	assert.Len(t, names, 250)
	assert.Equal(t, "Kelas 249", names["c249"], "names past the first page must be loaded")
	assert.Equal(t, 3, stub.calls)
}

func TestExportWeekDisabled(t *testing.T) {
	resolution, _ := newResolutionFixture(&dayOffRepoStub{}, &exceptionRepoStub{}, models.ResolutionSettings{ApplyGlobalDaysOff: true, ApplyGlobalExceptions: true}, nil)
	svc := NewExportService(resolution, &classListStub{}, false, nil)

	_, _, err := svc.ExportWeek(context.Background(), "teacher-1", time.Now().Format(models.DateLayout), "csv")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

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

func exceptionColumns() []string {
	return []string{"id", "user_id", "scope", "date", "is_day_off", "exception_pattern_id", "period_index", "class_id", "reason", "created_at", "updated_at", "pattern_name", "pattern_payload"}
}

func TestExceptionRepositoryListPersonalHydratesPattern(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewExceptionRepository(db)

	now := time.Now()
	date := time.Date(2025, 1, 6, 0, 0, 0, 0, time.Local)
	rows := sqlmock.NewRows(exceptionColumns()).
		AddRow("exc-1", "teacher-1", "PERSONAL", date, false, "pat-1", nil, nil, nil, now, now, "short day", `[1,2,3,null,null,null]`).
		AddRow("exc-2", "teacher-1", "PERSONAL", date, true, nil, nil, nil, "sick", now, now, nil, nil)

	mock.ExpectQuery("FROM applied_exceptions e LEFT JOIN exception_patterns p").
		WithArgs("PERSONAL", "teacher-1").
		WillReturnRows(rows)

	excs, err := repo.ListPersonal(context.Background(), "teacher-1")
	require.NoError(t, err)
	require.Len(t, excs, 2)

	require.NotNil(t, excs[0].Pattern)
	assert.Equal(t, "pat-1", excs[0].Pattern.ID)
	assert.Equal(t, "short day", excs[0].Pattern.Name)
	slots, ok := excs[0].Pattern.Slots()
	require.True(t, ok)
	require.NotNil(t, slots[0])
	assert.Equal(t, 1, *slots[0])

	assert.Nil(t, excs[1].Pattern)
	assert.True(t, excs[1].IsDayOff)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExceptionRepositoryCreateAdHoc(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewExceptionRepository(db)

	mock.ExpectExec("INSERT INTO applied_exceptions").
		WillReturnResult(sqlmock.NewResult(1, 1))

	userID := "teacher-1"
	period := 2
	classID := "class-9"
	exc := &models.AppliedException{
		UserID:      &userID,
		Scope:       models.ExceptionScopePersonal,
		Date:        time.Date(2025, 1, 6, 0, 0, 0, 0, time.Local),
		PeriodIndex: &period,
		ClassID:     &classID,
	}
	require.NoError(t, repo.Create(context.Background(), exc))
	assert.NotEmpty(t, exc.ID)
	assert.True(t, exc.IsAdHoc())
	assert.NoError(t, mock.ExpectationsWereMet())
}

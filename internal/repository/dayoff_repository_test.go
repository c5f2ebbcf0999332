package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/jadwal-guru-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestDayOffRepositoryCreateAndListPersonal(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewDayOffRepository(db)

	mock.ExpectExec("INSERT INTO day_offs").
		WillReturnResult(sqlmock.NewResult(1, 1))

	userID := "teacher-1"
	record := &models.DayOffRecord{
		UserID:    &userID,
		Scope:     models.ScopePersonal,
		StartDate: time.Date(2025, 1, 10, 0, 0, 0, 0, time.Local),
		Reason:    "cuti",
		Color:     models.DefaultPersonalDayOffColor,
	}
	require.NoError(t, repo.Create(context.Background(), record))
	assert.NotEmpty(t, record.ID, "create must assign an id")

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "user_id", "scope", "start_date", "end_date", "reason", "color", "created_at", "updated_at"}).
		AddRow("off-1", userID, "PERSONAL", record.StartDate, nil, "cuti", models.DefaultPersonalDayOffColor, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, user_id, scope, start_date, end_date, reason, color, created_at, updated_at FROM day_offs WHERE scope = $1 AND user_id = $2 ORDER BY start_date DESC, id")).
		WithArgs("PERSONAL", userID).
		WillReturnRows(rows)

	records, err := repo.ListPersonal(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "off-1", records[0].ID)
	assert.Nil(t, records[0].EndDate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDayOffRepositoryWindowQueryUsesRangeBounds(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewDayOffRepository(db)

	from := time.Date(2025, 1, 6, 0, 0, 0, 0, time.Local)
	to := time.Date(2025, 1, 11, 0, 0, 0, 0, time.Local)

	rows := sqlmock.NewRows([]string{"id", "user_id", "scope", "start_date", "end_date", "reason", "color", "created_at", "updated_at"})
	mock.ExpectQuery("FROM day_offs WHERE scope = .+ AND start_date <= .+ AND COALESCE").
		WithArgs("GLOBAL", from, to).
		WillReturnRows(rows)

	records, err := repo.ListGlobalInWindow(context.Background(), from, to)
	require.NoError(t, err)
	assert.Empty(t, records)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDayOffRepositoryDelete(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewDayOffRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM day_offs WHERE id = $1")).
		WithArgs("off-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Delete(context.Background(), "off-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

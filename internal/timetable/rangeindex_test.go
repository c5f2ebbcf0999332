package timetable

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/jadwal-guru-api/internal/models"
)

func mustDate(t *testing.T, date string) time.Time {
	t.Helper()
	parsed, err := time.ParseInLocation(models.DateLayout, date, time.Local)
	require.NoError(t, err)
	return parsed
}

func datePtr(t *testing.T, date string) *time.Time {
	t.Helper()
	parsed := mustDate(t, date)
	return &parsed
}

func TestDateRangeIndexRangeContainment(t *testing.T) {
	record := models.DayOffRecord{
		ID:        "off-1",
		StartDate: mustDate(t, "2025-01-10"),
		EndDate:   datePtr(t, "2025-01-12"),
	}
	idx := NewDateRangeIndex([]models.DayOffRecord{record})

	assert.True(t, idx.IsCovered("2025-01-10"))
	assert.True(t, idx.IsCovered("2025-01-11"))
	assert.True(t, idx.IsCovered("2025-01-12"))
	assert.False(t, idx.IsCovered("2025-01-13"))
	assert.False(t, idx.IsCovered("2025-01-09"))
	assert.Equal(t, 3, record.DayCount())
	assert.Equal(t, 3, idx.Len())

	owner, ok := idx.OwnerOf("2025-01-11")
	require.True(t, ok)
	assert.Equal(t, "off-1", owner.ID)

	_, ok = idx.OwnerOf("2025-01-13")
	assert.False(t, ok)
}

func TestDateRangeIndexSingleDay(t *testing.T) {
	record := models.DayOffRecord{ID: "off-1", StartDate: mustDate(t, "2025-02-03")}
	idx := NewDateRangeIndex([]models.DayOffRecord{record})

	assert.True(t, idx.IsCovered("2025-02-03"))
	assert.False(t, idx.IsCovered("2025-02-04"))
	assert.False(t, record.IsRange())
	assert.Equal(t, 1, record.DayCount())
	assert.Equal(t, []string{"2025-02-03"}, record.DatesInRange())
}

func TestDateRangeIndexOverlapDeterminism(t *testing.T) {
	a := models.DayOffRecord{
		ID:        "a",
		StartDate: mustDate(t, "2025-01-10"),
		EndDate:   datePtr(t, "2025-01-12"),
	}
	b := models.DayOffRecord{
		ID:        "b",
		StartDate: mustDate(t, "2025-01-11"),
		EndDate:   datePtr(t, "2025-01-13"),
	}

	// The owner of an overlapped date must not depend on input order.
	first := NewDateRangeIndex([]models.DayOffRecord{a, b})
	second := NewDateRangeIndex([]models.DayOffRecord{b, a})

	ownerFirst, ok := first.OwnerOf("2025-01-11")
	require.True(t, ok)
	ownerSecond, ok := second.OwnerOf("2025-01-11")
	require.True(t, ok)
	assert.Equal(t, ownerFirst.ID, ownerSecond.ID)
	assert.Equal(t, "b", ownerFirst.ID)
	assert.Equal(t, 4, first.Len())
}

func TestDateRangeIndexCoveredDatesSorted(t *testing.T) {
	records := []models.DayOffRecord{
		{ID: "later", StartDate: mustDate(t, "2025-03-05")},
		{ID: "earlier", StartDate: mustDate(t, "2025-03-03"), EndDate: datePtr(t, "2025-03-04")},
	}
	idx := NewDateRangeIndex(records)
	assert.Equal(t, []string{"2025-03-03", "2025-03-04", "2025-03-05"}, idx.CoveredDates())
}

func TestDateRangeIndexEmpty(t *testing.T) {
	idx := NewDateRangeIndex(nil)
	assert.False(t, idx.IsCovered("2025-01-01"))
	assert.Zero(t, idx.Len())
	assert.Empty(t, idx.CoveredDates())
}

func TestDayOffRecordDayCountAcrossDST(t *testing.T) {
	// 2025-03-28 .. 2025-03-31 crosses the European spring-forward Sunday;
	// whole-day arithmetic must still count four days.
	record := models.DayOffRecord{
		ID:        "dst",
		StartDate: mustDate(t, "2025-03-28"),
		EndDate:   datePtr(t, "2025-03-31"),
	}
	assert.Equal(t, 4, record.DayCount())
	assert.Equal(t, []string{"2025-03-28", "2025-03-29", "2025-03-30", "2025-03-31"}, record.DatesInRange())
	assert.True(t, record.IncludesDate("2025-03-30"))
	assert.False(t, record.IncludesDate("2025-04-01"))
}

func TestDayOffRecordEachDateStopsEarly(t *testing.T) {
	record := models.DayOffRecord{
		ID:        "off",
		StartDate: mustDate(t, "2025-01-01"),
		EndDate:   datePtr(t, "2025-01-10"),
	}
	var visited []string
	record.EachDate(func(date string) bool {
		visited = append(visited, date)
		return len(visited) < 2
	})
	assert.Equal(t, []string{"2025-01-01", "2025-01-02"}, visited)

	// Restartable: a fresh walk sees the full span again.
	count := 0
	record.EachDate(func(string) bool {
		count++
		return true
	})
	assert.Equal(t, 10, count)
}

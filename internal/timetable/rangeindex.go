package timetable

import (
	"sort"

	"github.com/noah-isme/jadwal-guru-api/internal/models"
)

// DateRangeIndex answers O(1) date membership queries over a list of day-off
// records. It is derived data: whenever the underlying list changes the whole
// index is rebuilt from the full list rather than patched incrementally, which
// is cheap at the expected list sizes and removes a class of drift bugs.
type DateRangeIndex struct {
	covered map[string]struct{}
	owner   map[string]models.DayOffRecord
	dates   []string
}

// NewDateRangeIndex builds the index. Records are processed in (start date, id)
// order so that when two records overlap on a date, the owning record is
// deterministic regardless of the order the caller supplies them in; the last
// record in sort order wins, preserving the established last-write-wins map
// semantics.
func NewDateRangeIndex(records []models.DayOffRecord) *DateRangeIndex {
	sorted := make([]models.DayOffRecord, len(records))
	copy(sorted, records)
	sort.Slice(sorted, func(i, j int) bool {
		si, sj := sorted[i].StartDateString(), sorted[j].StartDateString()
		if si != sj {
			return si < sj
		}
		return sorted[i].ID < sorted[j].ID
	})

	idx := &DateRangeIndex{
		covered: make(map[string]struct{}),
		owner:   make(map[string]models.DayOffRecord),
	}
	for _, record := range sorted {
		record.EachDate(func(date string) bool {
			idx.covered[date] = struct{}{}
			idx.owner[date] = record
			return true
		})
	}

	idx.dates = make([]string, 0, len(idx.covered))
	for date := range idx.covered {
		idx.dates = append(idx.dates, date)
	}
	sort.Strings(idx.dates)
	return idx
}

// IsCovered reports whether any record marks the date off.
func (x *DateRangeIndex) IsCovered(date string) bool {
	_, ok := x.covered[date]
	return ok
}

// OwnerOf returns the record covering the date, if any.
func (x *DateRangeIndex) OwnerOf(date string) (models.DayOffRecord, bool) {
	record, ok := x.owner[date]
	return record, ok
}

// CoveredDates returns every covered date in ascending order.
func (x *DateRangeIndex) CoveredDates() []string {
	dates := make([]string, len(x.dates))
	copy(dates, x.dates)
	return dates
}

// Len returns the number of distinct covered dates.
func (x *DateRangeIndex) Len() int {
	return len(x.dates)
}

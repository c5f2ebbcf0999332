package models

import "time"

// DateLayout is the canonical wire format for calendar dates.
const DateLayout = "2006-01-02"

// Default day-off colors per scope.
const (
	DefaultPersonalDayOffColor = "#F0F0F0"
	DefaultGlobalDayOffColor   = "#E0E0E0"
)

// DayOffScope distinguishes personal records from institution-wide ones.
type DayOffScope string

const (
	ScopePersonal DayOffScope = "PERSONAL"
	ScopeGlobal   DayOffScope = "GLOBAL"
)

// DayOffRecord marks a single date or an inclusive date range as non-working.
// Personal records belong to exactly one user; global records belong to none.
type DayOffRecord struct {
	ID        string      `db:"id" json:"id"`
	UserID    *string     `db:"user_id" json:"user_id,omitempty"`
	Scope     DayOffScope `db:"scope" json:"scope"`
	StartDate time.Time   `db:"start_date" json:"start_date"`
	EndDate   *time.Time  `db:"end_date" json:"end_date,omitempty"`
	Reason    string      `db:"reason" json:"reason"`
	Color     string      `db:"color" json:"color"`
	CreatedAt time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt time.Time   `db:"updated_at" json:"updated_at"`
}

// IsRange reports whether the record spans more than a single day.
func (r DayOffRecord) IsRange() bool {
	return r.EndDate != nil && !sameDate(r.StartDate, *r.EndDate)
}

// StartDateString returns the canonical YYYY-MM-DD start date.
func (r DayOffRecord) StartDateString() string {
	return r.StartDate.Format(DateLayout)
}

// EndDateString returns the canonical end date, falling back to the start date.
func (r DayOffRecord) EndDateString() string {
	if r.EndDate == nil {
		return r.StartDateString()
	}
	return r.EndDate.Format(DateLayout)
}

// IncludesDate reports whether the canonical date falls within the record's span.
// Lexicographic comparison is safe because both sides are YYYY-MM-DD.
func (r DayOffRecord) IncludesDate(date string) bool {
	return date >= r.StartDateString() && date <= r.EndDateString()
}

// DayCount returns the number of calendar days the record spans. Both endpoints
// are re-anchored at midday before subtracting so DST-shifted wall clocks cannot
// produce a fractional day.
func (r DayOffRecord) DayCount() int {
	start := middayUTC(r.StartDate)
	end := start
	if r.EndDate != nil {
		end = middayUTC(*r.EndDate)
	}
	days := int(end.Sub(start).Hours() / 24)
	if days < 0 {
		days = -days
	}
	return days + 1
}

// EachDate visits every covered date in ascending order as a canonical string,
// stopping early when visit returns false. Iteration is by whole calendar days,
// not elapsed time, so DST transitions cannot skip or repeat a date.
func (r DayOffRecord) EachDate(visit func(date string) bool) {
	end := r.EndDateString()
	cur := middayUTC(r.StartDate)
	for {
		date := cur.Format(DateLayout)
		if date > end {
			return
		}
		if !visit(date) {
			return
		}
		cur = cur.AddDate(0, 0, 1)
	}
}

// DatesInRange returns every covered date in ascending order.
func (r DayOffRecord) DatesInRange() []string {
	dates := make([]string, 0, r.DayCount())
	r.EachDate(func(date string) bool {
		dates = append(dates, date)
		return true
	})
	return dates
}

func sameDate(a, b time.Time) bool {
	return a.Format(DateLayout) == b.Format(DateLayout)
}

func middayUTC(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 12, 0, 0, 0, time.UTC)
}

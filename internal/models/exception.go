package models

import "time"

// ExceptionScope distinguishes personal applied exceptions from global ones.
type ExceptionScope string

const (
	ExceptionScopePersonal ExceptionScope = "PERSONAL"
	ExceptionScopeGlobal   ExceptionScope = "GLOBAL"
)

// AppliedException binds one calendar date to exactly one behavior: a full
// day-off, a named pattern, or (personal scope only) an ad-hoc single-slot
// override. Day-off and pattern are mutually exclusive at write time.
type AppliedException struct {
	ID                 string         `db:"id" json:"id"`
	UserID             *string        `db:"user_id" json:"user_id,omitempty"`
	Scope              ExceptionScope `db:"scope" json:"scope"`
	Date               time.Time      `db:"date" json:"date"`
	IsDayOff           bool           `db:"is_day_off" json:"is_day_off"`
	ExceptionPatternID *string        `db:"exception_pattern_id" json:"exception_pattern_id,omitempty"`
	PeriodIndex        *int           `db:"period_index" json:"period_index,omitempty"`
	ClassID            *string        `db:"class_id" json:"class_id,omitempty"`
	Reason             *string        `db:"reason" json:"reason,omitempty"`
	CreatedAt          time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time      `db:"updated_at" json:"updated_at"`

	// Pattern is populated by joins when the exception is pattern-based.
	Pattern *ExceptionPattern `db:"-" json:"pattern,omitempty"`
}

// DateString returns the canonical YYYY-MM-DD date the exception applies to.
func (e AppliedException) DateString() string {
	return e.Date.Format(DateLayout)
}

// IsAdHoc reports whether the exception is a single-slot override.
func (e AppliedException) IsAdHoc() bool {
	return !e.IsDayOff && e.ExceptionPatternID == nil && e.PeriodIndex != nil
}

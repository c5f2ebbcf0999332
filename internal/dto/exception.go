package dto

// WriteExceptionRequest describes payload for creating or updating an applied
// exception. Exactly one behavior must be present: is_day_off, a pattern id,
// or (personal scope) an ad-hoc period override.
type WriteExceptionRequest struct {
	Date               string  `json:"date" validate:"required,datetime=2006-01-02"`
	IsDayOff           bool    `json:"is_day_off"`
	ExceptionPatternID *string `json:"exception_pattern_id" validate:"omitempty,uuid"`
	PeriodIndex        *int    `json:"period_index" validate:"omitempty,min=0,max=5"`
	ClassID            *string `json:"class_id" validate:"omitempty,uuid"`
	Reason             *string `json:"reason" validate:"omitempty,max=240"`
}

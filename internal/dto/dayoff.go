package dto

// WriteDayOffRequest describes payload for creating or updating a day-off.
// EndDate may be omitted or equal to StartDate for a single day.
type WriteDayOffRequest struct {
	StartDate string `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate   string `json:"end_date" validate:"omitempty,datetime=2006-01-02"`
	Reason    string `json:"reason" validate:"max=240"`
	Color     string `json:"color" validate:"omitempty,hexcolor"`
}

package dto

import "github.com/noah-isme/jadwal-guru-api/internal/models"

// ResolvedDay is one dated column of an effective week.
type ResolvedDay struct {
	Date    string         `json:"date"`
	Weekday models.Weekday `json:"weekday"`
	Slots   []models.Slot  `json:"slots"`
	DayOff  bool           `json:"day_off"`
	Reason  string         `json:"reason,omitempty"`
	Color   string         `json:"color,omitempty"`
}

// ResolvedWeek is the fully merged schedule for one Monday-to-Saturday week.
type ResolvedWeek struct {
	WeekStart string                    `json:"week_start"`
	Days      []ResolvedDay             `json:"days"`
	Settings  models.ResolutionSettings `json:"settings"`
}

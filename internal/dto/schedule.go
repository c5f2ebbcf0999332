package dto

import "github.com/noah-isme/jadwal-guru-api/internal/models"

// UpdateScheduleRequest replaces the caller's whole weekly template.
type UpdateScheduleRequest struct {
	Schedule models.WeeklySchedule `json:"schedule" validate:"required"`
}

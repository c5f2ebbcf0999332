package models

import "time"

// ResolutionSettings gates whether the global layers participate in resolution.
type ResolutionSettings struct {
	ApplyGlobalDaysOff    bool `json:"apply_global_days_off"`
	ApplyGlobalExceptions bool `json:"apply_global_exceptions"`
}

// Setting is one persisted configuration row.
type Setting struct {
	Key       string    `db:"key" json:"key"`
	Value     string    `db:"value" json:"value"`
	UpdatedBy *string   `db:"updated_by" json:"updated_by,omitempty"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Setting keys backing ResolutionSettings.
const (
	SettingApplyGlobalDaysOff    = "apply_global_days_off"
	SettingApplyGlobalExceptions = "apply_global_exceptions"
)

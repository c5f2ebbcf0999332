package dto

// UpdateSettingsRequest toggles the global resolution layers. Pointer fields
// distinguish "leave unchanged" from an explicit false.
type UpdateSettingsRequest struct {
	ApplyGlobalDaysOff    *bool `json:"apply_global_days_off"`
	ApplyGlobalExceptions *bool `json:"apply_global_exceptions"`
}

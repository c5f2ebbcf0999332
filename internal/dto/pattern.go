package dto

// WritePatternRequest describes payload for creating or updating a pattern.
// Slots entry i is the 1-based original period to show at position i, or null.
type WritePatternRequest struct {
	Name  string `json:"name" validate:"required,max=120"`
	Slots []*int `json:"slots" validate:"required,max=6,dive,omitempty,min=1,max=6"`
}

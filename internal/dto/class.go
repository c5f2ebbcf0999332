package dto

// CreateClassRequest describes payload for creating a class.
type CreateClassRequest struct {
	Name    string `json:"name" validate:"required,max=120"`
	Subject string `json:"subject" validate:"max=120"`
	Color   string `json:"color" validate:"omitempty,hexcolor"`
}

// UpdateClassRequest describes payload for updating a class.
type UpdateClassRequest struct {
	Name    string `json:"name" validate:"required,max=120"`
	Subject string `json:"subject" validate:"max=120"`
	Color   string `json:"color" validate:"omitempty,hexcolor"`
}

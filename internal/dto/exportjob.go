package dto

// CreateExportJobRequest queues an effective-schedule export.
type CreateExportJobRequest struct {
	Date   string `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Format string `json:"format" validate:"required,oneof=csv pdf"`
}

// ExportJobResponse reports job state back to the client.
type ExportJobResponse struct {
	ID        string  `json:"id"`
	Status    string  `json:"status"`
	Progress  int     `json:"progress"`
	ResultURL *string `json:"result_url,omitempty"`
	Error     *string `json:"error,omitempty"`
}

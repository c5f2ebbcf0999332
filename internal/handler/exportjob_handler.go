package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/jadwal-guru-api/internal/dto"
	"github.com/noah-isme/jadwal-guru-api/internal/models"
	"github.com/noah-isme/jadwal-guru-api/internal/service"
	appErrors "github.com/noah-isme/jadwal-guru-api/pkg/errors"
	"github.com/noah-isme/jadwal-guru-api/pkg/response"
)

// ExportJobHandler exposes queued export endpoints.
type ExportJobHandler struct {
	service *service.ExportJobService
}

// NewExportJobHandler creates a new handler.
func NewExportJobHandler(svc *service.ExportJobService) *ExportJobHandler {
	return &ExportJobHandler{service: svc}
}

// CreateJob godoc
// @Summary Queue an effective-schedule export
// @Description Renders the week asynchronously; poll the job status for the download link
// @Tags Resolution
// @Accept json
// @Produce json
// @Param payload body dto.CreateExportJobRequest true "Export request"
// @Success 202 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /resolution/export-jobs [post]
func (h *ExportJobHandler) CreateJob(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.CreateExportJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid export payload"))
		return
	}
	job, err := h.service.CreateJob(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusAccepted, job, nil)
}

// JobStatus godoc
// @Summary Export job status
// @Tags Resolution
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /resolution/export-jobs/{id} [get]
func (h *ExportJobHandler) JobStatus(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	job, err := h.service.GetStatus(c.Request.Context(), claims.UserID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, job, nil)
}

// Download godoc
// @Summary Download a finished export
// @Description The signed token in the path is the sole credential
// @Tags Resolution
// @Produce text/csv
// @Produce application/pdf
// @Param token path string true "Signed download token"
// @Success 200 {file} binary
// @Failure 403 {object} response.Envelope
// @Router /exports/{token} [get]
func (h *ExportJobHandler) Download(c *gin.Context) {
	download, err := h.service.ResolveDownload(c.Request.Context(), c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer download.File.Close() //nolint:errcheck

	contentType := "text/csv"
	if download.Format == models.ExportFormatPDF {
		contentType = "application/pdf"
	}
	headers := map[string]string{
		"Content-Disposition": fmt.Sprintf("attachment; filename=%q", download.Filename),
	}
	c.DataFromReader(http.StatusOK, download.SizeBytes, contentType, download.File, headers)
}

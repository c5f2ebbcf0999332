package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/jadwal-guru-api/internal/models"
	"github.com/noah-isme/jadwal-guru-api/internal/service"
	appErrors "github.com/noah-isme/jadwal-guru-api/pkg/errors"
	"github.com/noah-isme/jadwal-guru-api/pkg/response"
)

// ResolutionHandler exposes effective schedule endpoints.
type ResolutionHandler struct {
	service *service.ResolutionService
	exports *service.ExportService
}

// NewResolutionHandler creates a new handler.
func NewResolutionHandler(svc *service.ResolutionService, exports *service.ExportService) *ResolutionHandler {
	return &ResolutionHandler{service: svc, exports: exports}
}

// Week godoc
// @Summary Resolve effective week
// @Description Merges the base template with day-offs and exceptions for the week containing the date
// @Tags Resolution
// @Produce json
// @Param date query string false "Any date inside the requested week, YYYY-MM-DD; defaults to today"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /resolution/week [get]
func (h *ResolutionHandler) Week(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	date := c.Query("date")
	if date == "" {
		date = time.Now().Format(models.DateLayout)
	}
	week, err := h.service.ResolveWeek(c.Request.Context(), claims.UserID, date)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, week, nil)
}

// Date godoc
// @Summary Resolve effective day
// @Tags Resolution
// @Produce json
// @Param date path string true "Date, YYYY-MM-DD"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /resolution/date/{date} [get]
func (h *ResolutionHandler) Date(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	day, err := h.service.ResolveDate(c.Request.Context(), claims.UserID, c.Param("date"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, day, nil)
}

// Export godoc
// @Summary Export effective week
// @Description Renders the effective week as CSV or PDF
// @Tags Resolution
// @Produce text/csv
// @Produce application/pdf
// @Param date query string false "Any date inside the requested week; defaults to today"
// @Param format query string false "csv or pdf, default csv"
// @Success 200 {file} binary
// @Failure 400 {object} response.Envelope
// @Router /resolution/export [get]
func (h *ResolutionHandler) Export(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if h.exports == nil || !h.exports.Enabled() {
		response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "exports are disabled"))
		return
	}
	date := c.Query("date")
	if date == "" {
		date = time.Now().Format(models.DateLayout)
	}
	format := c.DefaultQuery("format", "csv")

	payload, contentType, err := h.exports.ExportWeek(c.Request.Context(), claims.UserID, date, format)
	if err != nil {
		response.Error(c, err)
		return
	}

	filename := fmt.Sprintf("jadwal-%s.%s", date, format)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, contentType, payload)
}

package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/jadwal-guru-api/internal/dto"
	"github.com/noah-isme/jadwal-guru-api/internal/service"
	appErrors "github.com/noah-isme/jadwal-guru-api/pkg/errors"
	"github.com/noah-isme/jadwal-guru-api/pkg/response"
)

// DayOffHandler exposes personal and global day-off endpoints.
type DayOffHandler struct {
	service *service.DayOffService
}

// NewDayOffHandler creates a new handler.
func NewDayOffHandler(svc *service.DayOffService) *DayOffHandler {
	return &DayOffHandler{service: svc}
}

// ListPersonal godoc
// @Summary List personal day-offs
// @Tags DayOffs
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /days-off [get]
func (h *DayOffHandler) ListPersonal(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	records, err := h.service.ListPersonal(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records, nil)
}

// CreatePersonal godoc
// @Summary Create personal day-off
// @Tags DayOffs
// @Accept json
// @Produce json
// @Param payload body dto.WriteDayOffRequest true "Day-off payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /days-off [post]
func (h *DayOffHandler) CreatePersonal(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.WriteDayOffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid day-off payload"))
		return
	}
	record, err := h.service.CreatePersonal(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, record)
}

// UpdatePersonal godoc
// @Summary Update personal day-off
// @Tags DayOffs
// @Accept json
// @Produce json
// @Param id path string true "Day-off ID"
// @Param payload body dto.WriteDayOffRequest true "Day-off payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /days-off/{id} [put]
func (h *DayOffHandler) UpdatePersonal(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.WriteDayOffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid day-off payload"))
		return
	}
	record, err := h.service.UpdatePersonal(c.Request.Context(), claims.UserID, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}

// DeletePersonal godoc
// @Summary Delete personal day-off
// @Tags DayOffs
// @Param id path string true "Day-off ID"
// @Success 204 {object} response.Envelope
// @Router /days-off/{id} [delete]
func (h *DayOffHandler) DeletePersonal(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if err := h.service.DeletePersonal(c.Request.Context(), claims.UserID, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListGlobal godoc
// @Summary List global day-offs
// @Description Visible to every authenticated user
// @Tags DayOffs
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /global-days-off [get]
func (h *DayOffHandler) ListGlobal(c *gin.Context) {
	records, err := h.service.ListGlobal(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records, nil)
}

// CreateGlobal godoc
// @Summary Create global day-off
// @Tags Admin
// @Accept json
// @Produce json
// @Param payload body dto.WriteDayOffRequest true "Day-off payload"
// @Success 201 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /admin/global-days-off [post]
func (h *DayOffHandler) CreateGlobal(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.WriteDayOffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid day-off payload"))
		return
	}
	record, err := h.service.CreateGlobal(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, record)
}

// UpdateGlobal godoc
// @Summary Update global day-off
// @Tags Admin
// @Accept json
// @Produce json
// @Param id path string true "Day-off ID"
// @Param payload body dto.WriteDayOffRequest true "Day-off payload"
// @Success 200 {object} response.Envelope
// @Router /admin/global-days-off/{id} [put]
func (h *DayOffHandler) UpdateGlobal(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.WriteDayOffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid day-off payload"))
		return
	}
	record, err := h.service.UpdateGlobal(c.Request.Context(), claims.UserID, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}

// DeleteGlobal godoc
// @Summary Delete global day-off
// @Tags Admin
// @Param id path string true "Day-off ID"
// @Success 204 {object} response.Envelope
// @Router /admin/global-days-off/{id} [delete]
func (h *DayOffHandler) DeleteGlobal(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if err := h.service.DeleteGlobal(c.Request.Context(), claims.UserID, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/jadwal-guru-api/internal/dto"
	"github.com/noah-isme/jadwal-guru-api/internal/service"
	appErrors "github.com/noah-isme/jadwal-guru-api/pkg/errors"
	"github.com/noah-isme/jadwal-guru-api/pkg/response"
)

// PatternHandler exposes exception pattern endpoints.
type PatternHandler struct {
	service *service.PatternService
}

// NewPatternHandler creates a new handler.
func NewPatternHandler(svc *service.PatternService) *PatternHandler {
	return &PatternHandler{service: svc}
}

// List godoc
// @Summary List visible patterns
// @Description Returns the caller's own patterns plus the global catalog
// @Tags Patterns
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /patterns [get]
func (h *PatternHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	patterns, err := h.service.ListVisible(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, patterns, nil)
}

// Create godoc
// @Summary Create personal pattern
// @Tags Patterns
// @Accept json
// @Produce json
// @Param payload body dto.WritePatternRequest true "Pattern payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /patterns [post]
func (h *PatternHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.WritePatternRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid pattern payload"))
		return
	}
	pattern, err := h.service.CreatePersonal(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, pattern)
}

// Update godoc
// @Summary Update pattern
// @Tags Patterns
// @Accept json
// @Produce json
// @Param id path string true "Pattern ID"
// @Param payload body dto.WritePatternRequest true "Pattern payload"
// @Success 200 {object} response.Envelope
// @Router /patterns/{id} [put]
func (h *PatternHandler) Update(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.WritePatternRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid pattern payload"))
		return
	}
	pattern, err := h.service.Update(c.Request.Context(), claims.UserID, c.Param("id"), isAdmin(claims), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, pattern, nil)
}

// Delete godoc
// @Summary Delete pattern
// @Description Fails while applied exceptions still reference the pattern
// @Tags Patterns
// @Param id path string true "Pattern ID"
// @Success 204 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /patterns/{id} [delete]
func (h *PatternHandler) Delete(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if err := h.service.Delete(c.Request.Context(), claims.UserID, c.Param("id"), isAdmin(claims)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListGlobal godoc
// @Summary List global patterns
// @Tags Admin
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admin/global-patterns [get]
func (h *PatternHandler) ListGlobal(c *gin.Context) {
	patterns, err := h.service.ListGlobal(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, patterns, nil)
}

// CreateGlobal godoc
// @Summary Create global pattern
// @Tags Admin
// @Accept json
// @Produce json
// @Param payload body dto.WritePatternRequest true "Pattern payload"
// @Success 201 {object} response.Envelope
// @Router /admin/global-patterns [post]
func (h *PatternHandler) CreateGlobal(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.WritePatternRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid pattern payload"))
		return
	}
	pattern, err := h.service.CreateGlobal(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, pattern)
}

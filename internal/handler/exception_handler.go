package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/jadwal-guru-api/internal/dto"
	"github.com/noah-isme/jadwal-guru-api/internal/service"
	appErrors "github.com/noah-isme/jadwal-guru-api/pkg/errors"
	"github.com/noah-isme/jadwal-guru-api/pkg/response"
)

// ExceptionHandler exposes applied exception endpoints.
type ExceptionHandler struct {
	service *service.ExceptionService
}

// NewExceptionHandler creates a new handler.
func NewExceptionHandler(svc *service.ExceptionService) *ExceptionHandler {
	return &ExceptionHandler{service: svc}
}

// ListPersonal godoc
// @Summary List personal exceptions
// @Tags Exceptions
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /exceptions [get]
func (h *ExceptionHandler) ListPersonal(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	excs, err := h.service.ListPersonal(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, excs, nil)
}

// CreatePersonal godoc
// @Summary Create personal exception
// @Description A day-off, a pattern application, or an ad-hoc single-slot override for one date
// @Tags Exceptions
// @Accept json
// @Produce json
// @Param payload body dto.WriteExceptionRequest true "Exception payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /exceptions [post]
func (h *ExceptionHandler) CreatePersonal(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.WriteExceptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid exception payload"))
		return
	}
	exc, err := h.service.CreatePersonal(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, exc)
}

// UpdatePersonal godoc
// @Summary Update personal exception
// @Tags Exceptions
// @Accept json
// @Produce json
// @Param id path string true "Exception ID"
// @Param payload body dto.WriteExceptionRequest true "Exception payload"
// @Success 200 {object} response.Envelope
// @Router /exceptions/{id} [put]
func (h *ExceptionHandler) UpdatePersonal(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.WriteExceptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid exception payload"))
		return
	}
	exc, err := h.service.UpdatePersonal(c.Request.Context(), claims.UserID, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, exc, nil)
}

// DeletePersonal godoc
// @Summary Delete personal exception
// @Tags Exceptions
// @Param id path string true "Exception ID"
// @Success 204 {object} response.Envelope
// @Router /exceptions/{id} [delete]
func (h *ExceptionHandler) DeletePersonal(c *gin.Context) {
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
// @Summary List global exceptions
// @Tags Exceptions
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /global-exceptions [get]
func (h *ExceptionHandler) ListGlobal(c *gin.Context) {
	excs, err := h.service.ListGlobal(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, excs, nil)
}

// CreateGlobal godoc
// @Summary Create global exception
// @Tags Admin
// @Accept json
// @Produce json
// @Param payload body dto.WriteExceptionRequest true "Exception payload"
// @Success 201 {object} response.Envelope
// @Router /admin/global-exceptions [post]
func (h *ExceptionHandler) CreateGlobal(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.WriteExceptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid exception payload"))
		return
	}
	exc, err := h.service.CreateGlobal(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, exc)
}

// UpdateGlobal godoc
// @Summary Update global exception
// @Tags Admin
// @Accept json
// @Produce json
// @Param id path string true "Exception ID"
// @Param payload body dto.WriteExceptionRequest true "Exception payload"
// @Success 200 {object} response.Envelope
// @Router /admin/global-exceptions/{id} [put]
func (h *ExceptionHandler) UpdateGlobal(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.WriteExceptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid exception payload"))
		return
	}
	exc, err := h.service.UpdateGlobal(c.Request.Context(), claims.UserID, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, exc, nil)
}

// DeleteGlobal godoc
// @Summary Delete global exception
// @Tags Admin
// @Param id path string true "Exception ID"
// @Success 204 {object} response.Envelope
// @Router /admin/global-exceptions/{id} [delete]
func (h *ExceptionHandler) DeleteGlobal(c *gin.Context) {
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

package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/jadwal-guru-api/internal/middleware"
	"github.com/noah-isme/jadwal-guru-api/internal/models"
	"github.com/noah-isme/jadwal-guru-api/internal/service"
)

type settingsStoreMock struct {
	values map[string]string
}

func (m *settingsStoreMock) GetResolutionSettings(ctx context.Context) (models.ResolutionSettings, error) {
	settings := models.ResolutionSettings{ApplyGlobalDaysOff: true, ApplyGlobalExceptions: true}
	if v, ok := m.values[models.SettingApplyGlobalDaysOff]; ok {
		settings.ApplyGlobalDaysOff = v == "true"
	}
	if v, ok := m.values[models.SettingApplyGlobalExceptions]; ok {
		settings.ApplyGlobalExceptions = v == "true"
	}
	return settings, nil
}

func (m *settingsStoreMock) Upsert(ctx context.Context, setting *models.Setting) error {
	if m.values == nil {
		m.values = make(map[string]string)
	}
	m.values[setting.Key] = setting.Value
	return nil
}

func adminClaims() *models.JWTClaims {
	return &models.JWTClaims{UserID: "admin-1", Role: models.RoleAdmin, Email: "admin@example.com"}
}

func TestSettingsHandlerGetReturnsDefaults(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewSettingsHandler(service.NewSettingsService(&settingsStoreMock{}, nil, nil, nil, nil))

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/settings", nil)
	c.Request = req
	c.Set(middleware.ContextUserKey, teacherClaims())

	handler.Get(c)
	require.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Data models.ResolutionSettings `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.True(t, envelope.Data.ApplyGlobalDaysOff)
	assert.True(t, envelope.Data.ApplyGlobalExceptions)
}

func TestSettingsHandlerUpdateTogglesLayer(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := &settingsStoreMock{}
	handler := NewSettingsHandler(service.NewSettingsService(store, nil, nil, nil, nil))

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	body := []byte(`{"apply_global_days_off":false}`)
	req, _ := http.NewRequest(http.MethodPut, "/admin/settings", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Set(middleware.ContextUserKey, adminClaims())

	handler.Update(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "false", store.values[models.SettingApplyGlobalDaysOff])

	var envelope struct {
		Data models.ResolutionSettings `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.False(t, envelope.Data.ApplyGlobalDaysOff)
	assert.True(t, envelope.Data.ApplyGlobalExceptions)
}

func TestSettingsHandlerUpdateRejectsEmptyPayload(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewSettingsHandler(service.NewSettingsService(&settingsStoreMock{}, nil, nil, nil, nil))

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPut, "/admin/settings", bytes.NewReader([]byte(`{}`)))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Set(middleware.ContextUserKey, adminClaims())

	handler.Update(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

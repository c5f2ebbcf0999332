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
	"github.com/noah-isme/jadwal-guru-api/pkg/response"
)

type scheduleStoreMock struct {
	stored models.WeeklySchedule
}

func (m *scheduleStoreMock) GetWeekly(ctx context.Context, userID string) (models.WeeklySchedule, error) {
	return m.stored, nil
}

func (m *scheduleStoreMock) ReplaceWeekly(ctx context.Context, userID string, schedule models.WeeklySchedule) error {
	m.stored = schedule
	return nil
}

func teacherClaims() *models.JWTClaims {
	return &models.JWTClaims{UserID: "teacher-1", Role: models.RoleTeacher, Email: "guru@example.com"}
}

func TestScheduleHandlerGetWeeklyNormalizes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := &scheduleStoreMock{stored: models.WeeklySchedule{
		models.Monday: {{ClassID: "c1"}},
	}}
	handler := NewScheduleHandler(service.NewScheduleService(store, nil, nil, nil))

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/schedule", nil)
	c.Request = req
	c.Set(middleware.ContextUserKey, teacherClaims())

	handler.GetWeekly(c)
	require.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Data models.WeeklySchedule `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.Len(t, envelope.Data, 6, "every weekday must be present")
	assert.Len(t, envelope.Data[models.Monday], models.PeriodsPerDay)
	assert.Equal(t, "c1", envelope.Data[models.Monday][0].ClassID)
	assert.True(t, envelope.Data[models.Friday][0].IsEmpty())
}

func TestScheduleHandlerUpdateWeeklyRejectsUnknownWeekday(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := &scheduleStoreMock{}
	handler := NewScheduleHandler(service.NewScheduleService(store, nil, nil, nil))

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	body := []byte(`{"schedule":{"sunday":[null,null,null,null,null,null]}}`)
	req, _ := http.NewRequest(http.MethodPut, "/schedule", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Set(middleware.ContextUserKey, teacherClaims())

	handler.UpdateWeekly(c)
	require.Equal(t, http.StatusBadRequest, w.Code)

	var envelope response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.NotNil(t, envelope.Error)
}

func TestScheduleHandlerRequiresAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewScheduleHandler(service.NewScheduleService(&scheduleStoreMock{}, nil, nil, nil))

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/schedule", nil)
	c.Request = req

	handler.GetWeekly(c)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestScheduleHandlerUpdateWeeklyStoresNormalizedGrid(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := &scheduleStoreMock{}
	handler := NewScheduleHandler(service.NewScheduleService(store, nil, nil, nil))

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	body := []byte(`{"schedule":{"monday":[{"class_id":"c1"},null]}}`)
	req, _ := http.NewRequest(http.MethodPut, "/schedule", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Set(middleware.ContextUserKey, teacherClaims())

	handler.UpdateWeekly(c)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, store.stored[models.Monday], models.PeriodsPerDay)
	assert.Equal(t, "c1", store.stored[models.Monday][0].ClassID)
}

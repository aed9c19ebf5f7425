package handler

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/campusforge/scheduler/internal/dto"
	"github.com/campusforge/scheduler/internal/models"
)

type scheduleGeneratorMock struct {
	captured       dto.GenerateScheduleRequest
	commitCaptured dto.CommitScheduleRequest
}

func (m *scheduleGeneratorMock) Generate(ctx context.Context, req dto.GenerateScheduleRequest) (*dto.GenerateScheduleResponse, error) {
	m.captured = req
	return &dto.GenerateScheduleResponse{ProposalID: "proposal-1"}, nil
}

func (m *scheduleGeneratorMock) Commit(ctx context.Context, req dto.CommitScheduleRequest) (string, error) {
	m.commitCaptured = req
	return "schedule-1", nil
}

func (m *scheduleGeneratorMock) List(ctx context.Context, query dto.SemesterScheduleQuery) ([]models.SemesterSchedule, error) {
	return nil, nil
}

func (m *scheduleGeneratorMock) GetSlots(ctx context.Context, id string) ([]models.SemesterScheduleSlot, error) {
	return nil, nil
}

func (m *scheduleGeneratorMock) Delete(ctx context.Context, id string) error {
	return nil
}

func TestScheduleGeneratorGenerateSuccess(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &scheduleGeneratorMock{}
	handler := &ScheduleGeneratorHandler{service: mockSvc}
	payload := []byte(`{"termId":"term-2025","department":"CSE","semester":3}`)
	req, _ := http.NewRequest(http.MethodPost, "/schedules/generate", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req

	handler.Generate(c)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "term-2025", mockSvc.captured.TermID)
	require.Equal(t, "CSE", mockSvc.captured.Department)
	require.Equal(t, 3, mockSvc.captured.Semester)
}

func TestScheduleGeneratorGenerateInvalidJSON(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := &ScheduleGeneratorHandler{service: &scheduleGeneratorMock{}}
	req, _ := http.NewRequest(http.MethodPost, "/schedules/generate", bytes.NewReader([]byte(`{"termId":`)))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req

	handler.Generate(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestScheduleGeneratorCommitSuccess(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &scheduleGeneratorMock{}
	handler := &ScheduleGeneratorHandler{service: mockSvc}
	payload := []byte(`{"proposalId":"proposal-1","sectionId":"section-1","publish":true}`)
	req, _ := http.NewRequest(http.MethodPost, "/schedules/commit", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req

	handler.Commit(c)

	require.Equal(t, http.StatusCreated, w.Code)
	require.Equal(t, "proposal-1", mockSvc.commitCaptured.ProposalID)
	require.Equal(t, "section-1", mockSvc.commitCaptured.SectionID)
	require.True(t, mockSvc.commitCaptured.Publish)
}

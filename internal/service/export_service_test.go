package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"testing"
	"time"

	"github.com/jmoiron/sqlx/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusforge/scheduler/internal/models"
	"github.com/campusforge/scheduler/pkg/storage"
)

type mockExportScheduleReader struct {
	schedule *models.SemesterSchedule
}

func (m *mockExportScheduleReader) FindByID(ctx context.Context, id string) (*models.SemesterSchedule, error) {
	if m.schedule == nil || m.schedule.ID != id {
		return nil, sql.ErrNoRows
	}
	return m.schedule, nil
}

type mockExportSlotReader struct {
	slots []models.SemesterScheduleSlot
}

func (m *mockExportSlotReader) ListBySchedule(ctx context.Context, scheduleID string) ([]models.SemesterScheduleSlot, error) {
	return m.slots, nil
}

func newFixtureExportService(t *testing.T) *ExportService {
	t.Helper()
	schedules := &mockExportScheduleReader{schedule: &models.SemesterSchedule{ID: "schedule-1", ClassID: "section-1"}}
	rooms, _ := json.Marshal([]string{"room-1"})
	faculty, _ := json.Marshal([]string{"faculty-1"})
	slots := &mockExportSlotReader{slots: []models.SemesterScheduleSlot{
		{
			ID:                 "slot-1",
			SemesterScheduleID: "schedule-1",
			Day:                "MON",
			StartMin:           540,
			EndMin:             630,
			CourseCode:         "CS301",
			Kind:               "LECTURE",
			RoomIDs:            types.JSONText(rooms),
			FacultyIDs:         types.JSONText(faculty),
			SectionIDs:         types.JSONText(`["section-1"]`),
		},
	}}
	return NewExportService(schedules, slots, nil, nil, nil, ExportServiceConfig{}, nil)
}

func TestExportServiceViewBuildsCellsFromSlots(t *testing.T) {
	svc := newFixtureExportService(t)

	view, err := svc.View(context.Background(), "schedule-1")
	require.NoError(t, err)
	require.Len(t, view.Cells, 1)
	assert.Equal(t, "section-1", view.SectionID)
	assert.Equal(t, "CS301", view.Cells[0].CourseCode)
	assert.Equal(t, []string{"room-1"}, view.Cells[0].RoomIDs)
}

func TestExportServiceRenderCSV(t *testing.T) {
	svc := newFixtureExportService(t)

	body, contentType, err := svc.Render(context.Background(), "schedule-1", "csv")
	require.NoError(t, err)
	assert.Equal(t, "text/csv", contentType)
	assert.Contains(t, string(body), "CS301")
}

func TestExportServiceUnknownSchedule(t *testing.T) {
	svc := newFixtureExportService(t)

	_, err := svc.View(context.Background(), "does-not-exist")
	require.Error(t, err)
}

func TestExportServicePersistSignedUnconfigured(t *testing.T) {
	svc := newFixtureExportService(t)

	_, _, err := svc.PersistSigned(context.Background(), "schedule-1", "csv")
	require.Error(t, err)
}

func TestExportServicePersistAndFetchSigned(t *testing.T) {
	schedules := &mockExportScheduleReader{schedule: &models.SemesterSchedule{ID: "schedule-1", ClassID: "section-1"}}
	slots := &mockExportSlotReader{}
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	signer := storage.NewSignedURLSigner("test-secret", time.Hour)
	svc := NewExportService(schedules, slots, nil, store, signer, ExportServiceConfig{}, nil)

	token, expiresAt, err := svc.PersistSigned(context.Background(), "schedule-1", "csv")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.True(t, expiresAt.After(time.Now()))

	file, contentType, err := svc.FetchSigned(token)
	require.NoError(t, err)
	defer file.Close()
	assert.Equal(t, "text/csv", contentType)
	body, err := io.ReadAll(file)
	require.NoError(t, err)
	assert.Contains(t, string(body), "day")
}

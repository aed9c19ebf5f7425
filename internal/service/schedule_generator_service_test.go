package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/campusforge/scheduler/internal/dto"
	"github.com/campusforge/scheduler/internal/models"
	"github.com/campusforge/scheduler/internal/scheduling"
)

type mockTermReader struct{ term *models.Term }

func (m *mockTermReader) FindByID(ctx context.Context, id string) (*models.Term, error) {
	if m.term == nil || m.term.ID != id {
		return nil, sql.ErrNoRows
	}
	return m.term, nil
}

type mockSectionReader struct{ sections []models.Class }

func (m *mockSectionReader) ListByDepartmentSemester(ctx context.Context, department string, semester int) ([]models.Class, error) {
	return m.sections, nil
}

type mockOfferingReader struct{ offerings []models.CourseOffering }

func (m *mockOfferingReader) ListForTerm(ctx context.Context, termID string) ([]models.CourseOffering, error) {
	return m.offerings, nil
}

type mockSubjectCodeReader struct{ byCode map[string]*models.Subject }

func (m *mockSubjectCodeReader) FindByCode(ctx context.Context, code string) (*models.Subject, error) {
	if s, ok := m.byCode[code]; ok {
		return s, nil
	}
	return nil, sql.ErrNoRows
}

type mockRoomReader struct{ rooms []models.Room }

func (m *mockRoomReader) ListActive(ctx context.Context) ([]models.Room, error) {
	return m.rooms, nil
}

type mockSemesterScheduleRepo struct {
	created []*models.SemesterSchedule
	statusAt map[string]models.SemesterScheduleStatus
}

func (m *mockSemesterScheduleRepo) CreateVersioned(ctx context.Context, exec sqlx.ExtContext, schedule *models.SemesterSchedule) error {
	schedule.ID = "schedule-1"
	schedule.Version = 1
	m.created = append(m.created, schedule)
	return nil
}

func (m *mockSemesterScheduleRepo) ListByTermClass(ctx context.Context, termID, classID string) ([]models.SemesterSchedule, error) {
	return nil, nil
}

func (m *mockSemesterScheduleRepo) FindByID(ctx context.Context, id string) (*models.SemesterSchedule, error) {
	return &models.SemesterSchedule{ID: id, Status: models.SemesterScheduleStatusDraft}, nil
}

func (m *mockSemesterScheduleRepo) Delete(ctx context.Context, id string) error { return nil }

func (m *mockSemesterScheduleRepo) UpdateStatus(ctx context.Context, exec sqlx.ExtContext, id string, status models.SemesterScheduleStatus, meta types.JSONText) error {
	if m.statusAt == nil {
		m.statusAt = make(map[string]models.SemesterScheduleStatus)
	}
	m.statusAt[id] = status
	return nil
}

type mockSlotRepo struct {
	inserted []models.SemesterScheduleSlot
}

func (m *mockSlotRepo) InsertBatch(ctx context.Context, exec sqlx.ExtContext, slots []models.SemesterScheduleSlot) error {
	m.inserted = append(m.inserted, slots...)
	return nil
}

func (m *mockSlotRepo) ListBySchedule(ctx context.Context, scheduleID string) ([]models.SemesterScheduleSlot, error) {
	return m.inserted, nil
}

func newSQLMockTx(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	return db, mock
}

func fixedCourseOffering(code, sectionID string, facultyIDs []string) models.CourseOffering {
	faculty, _ := jsonMarshalStrings(facultyIDs)
	return models.CourseOffering{
		ID:         "offering-" + code + "-" + sectionID,
		TermID:     "term-1",
		CourseCode: code,
		SectionID:  sectionID,
		FacultyIDs: types.JSONText(faculty),
		L:          3,
		T:          0,
		P:          0,
		Credits:    3,
		Enrollment: 50,
	}
}

func jsonMarshalStrings(values []string) ([]byte, error) {
	out := []byte("[")
	for i, v := range values {
		if i > 0 {
			out = append(out, ',')
		}
		out = append(out, '"')
		out = append(out, []byte(v)...)
		out = append(out, '"')
	}
	out = append(out, ']')
	return out, nil
}

func newFixtureService(t *testing.T) (*ScheduleGeneratorService, *mockSemesterScheduleRepo, *mockSlotRepo, *sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock := newSQLMockTx(t)
	sqlxDB := sqlx.NewDb(db, "sqlmock")

	semesters := &mockSemesterScheduleRepo{}
	slots := &mockSlotRepo{}

	svc := NewScheduleGeneratorService(
		&mockTermReader{term: &models.Term{ID: "term-1"}},
		&mockSectionReader{sections: []models.Class{
			{ID: "section-1", Department: "CSE", Semester: 3, Enrollment: 60},
		}},
		&mockOfferingReader{offerings: []models.CourseOffering{
			fixedCourseOffering("CS301", "section-1", []string{"faculty-1"}),
		}},
		&mockSubjectCodeReader{byCode: map[string]*models.Subject{
			"CS301": {Code: "CS301", Name: "Operating Systems"},
		}},
		&mockRoomReader{rooms: []models.Room{
			{ID: "room-1", Kind: models.RoomKindLectureRoom, Capacity: 80, Active: true},
		}},
		semesters,
		slots,
		txProviderFunc(func(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error) {
			return sqlxDB.BeginTxx(ctx, opts)
		}),
		validator.New(),
		zap.NewNop(),
		ScheduleGeneratorConfig{
			ProposalTTL:            time.Minute,
			Days:                   []scheduling.Day{scheduling.Monday, scheduling.Tuesday, scheduling.Wednesday, scheduling.Thursday, scheduling.Friday},
			SlotGranularityMinutes: 30,
			WorkStartMin:           9 * 60,
			WorkEndMin:             19*60 + 30,
			MaxAttempts:            500,
			Seed:                   7,
		},
	)
	mock.ExpectBegin()
	mock.ExpectCommit()
	return svc, semesters, slots, db, mock
}

type txProviderFunc func(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)

func (f txProviderFunc) BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error) {
	return f(ctx, opts)
}

func TestScheduleGeneratorServiceGenerateAndCommit(t *testing.T) {
	svc, semesters, slots, db, mock := newFixtureService(t)
	defer db.Close()

	resp, err := svc.Generate(context.Background(), dto.GenerateScheduleRequest{
		TermID:     "term-1",
		Department: "CSE",
		Semester:   3,
	})
	require.NoError(t, err)
	require.NotEmpty(t, resp.ProposalID)
	require.NotEmpty(t, resp.Views)
	assert.Equal(t, "section-1", resp.Views[0].SectionID)

	scheduleID, err := svc.Commit(context.Background(), dto.CommitScheduleRequest{
		ProposalID: resp.ProposalID,
		SectionID:  "section-1",
		Publish:    true,
	})
	require.NoError(t, err)
	assert.Equal(t, "schedule-1", scheduleID)
	require.Len(t, semesters.created, 1)
	assert.Equal(t, "term-1", semesters.created[0].TermID)
	assert.Equal(t, "section-1", semesters.created[0].ClassID)
	assert.Equal(t, models.SemesterScheduleStatusPublished, semesters.statusAt["schedule-1"])
	assert.NotEmpty(t, slots.inserted)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleGeneratorServiceGenerateUnknownTerm(t *testing.T) {
	svc, _, _, db, _ := newFixtureService(t)
	defer db.Close()

	_, err := svc.Generate(context.Background(), dto.GenerateScheduleRequest{
		TermID:     "missing-term",
		Department: "CSE",
		Semester:   3,
	})
	require.Error(t, err)
}

func TestScheduleGeneratorServiceCommitUnknownProposal(t *testing.T) {
	svc, _, _, db, _ := newFixtureService(t)
	defer db.Close()

	_, err := svc.Commit(context.Background(), dto.CommitScheduleRequest{
		ProposalID: "does-not-exist",
		SectionID:  "section-1",
	})
	require.Error(t, err)
}

package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"go.uber.org/zap"

	"github.com/campusforge/scheduler/internal/dto"
	"github.com/campusforge/scheduler/internal/models"
	"github.com/campusforge/scheduler/internal/scheduling"
	appErrors "github.com/campusforge/scheduler/pkg/errors"
)

type schedulerTermReader interface {
	FindByID(ctx context.Context, id string) (*models.Term, error)
}

type schedulerSectionReader interface {
	ListByDepartmentSemester(ctx context.Context, department string, semester int) ([]models.Class, error)
}

type schedulerOfferingReader interface {
	ListForTerm(ctx context.Context, termID string) ([]models.CourseOffering, error)
}

type schedulerSubjectCodeReader interface {
	FindByCode(ctx context.Context, code string) (*models.Subject, error)
}

type schedulerRoomReader interface {
	ListActive(ctx context.Context) ([]models.Room, error)
}

type semesterScheduleRepository interface {
	CreateVersioned(ctx context.Context, exec sqlx.ExtContext, schedule *models.SemesterSchedule) error
	ListByTermClass(ctx context.Context, termID, classID string) ([]models.SemesterSchedule, error)
	FindByID(ctx context.Context, id string) (*models.SemesterSchedule, error)
	Delete(ctx context.Context, id string) error
	UpdateStatus(ctx context.Context, exec sqlx.ExtContext, id string, status models.SemesterScheduleStatus, meta types.JSONText) error
}

type semesterScheduleSlotRepository interface {
	InsertBatch(ctx context.Context, exec sqlx.ExtContext, slots []models.SemesterScheduleSlot) error
	ListBySchedule(ctx context.Context, scheduleID string) ([]models.SemesterScheduleSlot, error)
}

type txProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

// ScheduleGeneratorConfig carries the calendar parameters a run builds its
// scheduling.Input from, plus how long an unfollowed proposal stays
// eligible for commit.
type ScheduleGeneratorConfig struct {
	ProposalTTL time.Duration

	Days                   []scheduling.Day
	SlotGranularityMinutes int
	WorkStartMin           int
	WorkEndMin             int
	Breaks                 []scheduling.BreakWindow
	MaxAttempts            int
	Seed                   int64
}

// ScheduleGeneratorService runs the constraint-aware placement engine
// against a term's active rooms, sections, and course offerings, and
// persists accepted proposals as versioned semester schedules.
type ScheduleGeneratorService struct {
	terms     schedulerTermReader
	sections  schedulerSectionReader
	offerings schedulerOfferingReader
	subjects  schedulerSubjectCodeReader
	rooms     schedulerRoomReader
	semesters semesterScheduleRepository
	slots     semesterScheduleSlotRepository
	tx        txProvider
	validator *validator.Validate
	logger    *zap.Logger
	cfg       ScheduleGeneratorConfig
	store     *proposalStore
}

// NewScheduleGeneratorService wires scheduler dependencies.
func NewScheduleGeneratorService(
	terms schedulerTermReader,
	sections schedulerSectionReader,
	offerings schedulerOfferingReader,
	subjects schedulerSubjectCodeReader,
	rooms schedulerRoomReader,
	semesters semesterScheduleRepository,
	slots semesterScheduleSlotRepository,
	tx txProvider,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg ScheduleGeneratorConfig,
) *ScheduleGeneratorService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ProposalTTL <= 0 {
		cfg.ProposalTTL = 30 * time.Minute
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 2000
	}
	return &ScheduleGeneratorService{
		terms:     terms,
		sections:  sections,
		offerings: offerings,
		subjects:  subjects,
		rooms:     rooms,
		semesters: semesters,
		slots:     slots,
		tx:        tx,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
		store:     newProposalStore(cfg.ProposalTTL),
	}
}

// Generate runs one placement attempt for a (term, department, semester)
// batch and stores the result as a pending proposal. Nothing is persisted
// until Commit is called against the returned proposal id.
func (s *ScheduleGeneratorService) Generate(ctx context.Context, req dto.GenerateScheduleRequest) (*dto.GenerateScheduleResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule generation payload")
	}

	if _, err := s.terms.FindByID(ctx, req.TermID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "term not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load term")
	}

	sections, err := s.sections.ListByDepartmentSemester(ctx, req.Department, req.Semester)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list sections")
	}
	if len(sections) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "no sections match department/semester")
	}
	sectionIDs := make(map[string]bool, len(sections))
	for _, sec := range sections {
		sectionIDs[sec.ID] = true
	}

	offerings, err := s.offerings.ListForTerm(ctx, req.TermID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list course offerings")
	}

	rooms, err := s.rooms.ListActive(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list rooms")
	}

	courses, err := s.buildCourses(ctx, offerings, sectionIDs)
	if err != nil {
		return nil, err
	}
	if len(courses) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "no course offerings match department/semester")
	}

	in := scheduling.Input{
		Rooms:              toSchedulingRooms(rooms),
		Sections:           toSchedulingSections(sections),
		Courses:            courses,
		Seed:               resolveSeed(req.Seed, s.cfg.Seed),
		Days:               s.cfg.Days,
		SlotGranularityMin: s.cfg.SlotGranularityMinutes,
		WorkStartMin:       s.cfg.WorkStartMin,
		WorkEndMin:         s.cfg.WorkEndMin,
		Breaks:             s.cfg.Breaks,
		MaxAttempts:        resolveMaxAttempts(req.MaxAttempts, s.cfg.MaxAttempts),
	}

	if inputErrs := scheduling.ValidateInput(in); len(inputErrs) > 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, formatInputErrors(inputErrs))
	}

	result, ledger := scheduling.Run(in)

	cal := scheduling.NewCalendar(in.Days, in.SlotGranularityMin, in.WorkStartMin, in.WorkEndMin, in.Breaks)
	keys := make([]scheduling.TimetableKey, 0, len(sections))
	for _, sec := range sections {
		keys = append(keys, scheduling.TimetableKey{Department: sec.Department, Semester: sec.Semester, SectionID: sec.ID})
	}
	assignmentsBySection := make(map[string][]scheduling.Assignment)
	for _, a := range result.Assignments {
		for _, sid := range a.SectionIDs {
			assignmentsBySection[sid] = append(assignmentsBySection[sid], a)
		}
	}
	views := scheduling.BuildExportViews(ledger, keys, cal, assignmentsBySection)

	proposalID := uuid.NewString()
	s.store.Save(scheduleProposal{
		ProposalID:  proposalID,
		TermID:      req.TermID,
		Department:  req.Department,
		Semester:    req.Semester,
		Result:      result,
		Views:       views,
		RequestedAt: time.Now().UTC(),
	})

	return toGenerateScheduleResponse(proposalID, result, views), nil
}

// Commit persists the assignments of a pending proposal that touch one
// section as a new semester schedule version. A proposal commonly spans
// every section in its department/semester batch, so the proposal is left
// in the store (to expire by TTL, same as any other) rather than deleted
// here: other sections from the same run may still need to commit.
func (s *ScheduleGeneratorService) Commit(ctx context.Context, req dto.CommitScheduleRequest) (string, error) {
	if err := s.validator.Struct(req); err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid commit payload")
	}

	proposal, ok := s.store.Get(req.ProposalID)
	if !ok {
		return "", appErrors.Clone(appErrors.ErrNotFound, "proposal not found or expired")
	}

	sectionAssignments := filterAssignmentsBySection(proposal.Result.Assignments, req.SectionID)
	if len(sectionAssignments) == 0 {
		return "", appErrors.Clone(appErrors.ErrValidation, "proposal has no assignments for the requested section")
	}

	if s.tx == nil {
		return "", appErrors.Clone(appErrors.ErrInternal, "transaction provider missing")
	}
	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	metaBytes, marshalErr := json.Marshal(map[string]any{
		"seed":            proposal.Result.Seed,
		"attempt_count":   proposal.Result.AttemptCount,
		"backtrack_depth": proposal.Result.BacktrackDepth,
		"warning_count":   len(proposal.Result.Warnings),
		"department":      proposal.Department,
		"semester":        proposal.Semester,
		"generated_at":    proposal.RequestedAt,
	})
	if marshalErr != nil {
		err = appErrors.Wrap(marshalErr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode schedule metadata")
		return "", err
	}

	record := &models.SemesterSchedule{
		TermID:  proposal.TermID,
		ClassID: req.SectionID,
		Status:  models.SemesterScheduleStatusDraft,
		Meta:    types.JSONText(metaBytes),
	}
	if err = s.semesters.CreateVersioned(ctx, tx, record); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create semester schedule")
		return "", err
	}

	slotModels, slotErr := toSlotModels(record.ID, sectionAssignments)
	if slotErr != nil {
		err = slotErr
		return "", err
	}
	if err = s.slots.InsertBatch(ctx, tx, slotModels); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist semester schedule slots")
		return "", err
	}

	if req.Publish {
		if err = s.semesters.UpdateStatus(ctx, tx, record.ID, models.SemesterScheduleStatusPublished, nil); err != nil {
			err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to publish semester schedule")
			return "", err
		}
	}

	if err = tx.Commit(); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit schedule transaction")
		return "", err
	}
	return record.ID, nil
}

// List returns semester schedules for a class-term tuple.
func (s *ScheduleGeneratorService) List(ctx context.Context, query dto.SemesterScheduleQuery) ([]models.SemesterSchedule, error) {
	if query.TermID == "" || query.ClassID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "termId and classId are required")
	}
	list, err := s.semesters.ListByTermClass(ctx, query.TermID, query.ClassID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list semester schedules")
	}
	return list, nil
}

// GetSlots returns slot detail for a stored schedule.
func (s *ScheduleGeneratorService) GetSlots(ctx context.Context, scheduleID string) ([]models.SemesterScheduleSlot, error) {
	if scheduleID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "schedule id is required")
	}
	if _, err := s.semesters.FindByID(ctx, scheduleID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "semester schedule not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load semester schedule")
	}
	slots, err := s.slots.ListBySchedule(ctx, scheduleID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list semester schedule slots")
	}
	return slots, nil
}

// Delete removes a draft schedule version.
func (s *ScheduleGeneratorService) Delete(ctx context.Context, scheduleID string) error {
	record, err := s.semesters.FindByID(ctx, scheduleID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "semester schedule not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load semester schedule")
	}
	if record.Status != models.SemesterScheduleStatusDraft {
		return appErrors.Clone(appErrors.ErrConflict, "only draft schedules can be deleted")
	}
	if err := s.semesters.Delete(ctx, scheduleID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "semester schedule not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete semester schedule")
	}
	return nil
}

// buildCourses turns one term's course offerings into scheduling.Course
// values, resolving each course code's software_lab flag from the subject
// catalog (cached per code, since many offerings share a course).
func (s *ScheduleGeneratorService) buildCourses(ctx context.Context, offerings []models.CourseOffering, sectionIDs map[string]bool) ([]scheduling.Course, error) {
	softwareLabByCode := make(map[string]bool)
	courses := make([]scheduling.Course, 0, len(offerings))

	for _, off := range offerings {
		if !sectionIDs[off.SectionID] {
			continue
		}

		softwareLab, cached := softwareLabByCode[off.CourseCode]
		if !cached {
			subject, err := s.subjects.FindByCode(ctx, off.CourseCode)
			if err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("course offering references unknown subject %s", off.CourseCode))
				}
				return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject")
			}
			softwareLab = subject.SoftwareLab
			softwareLabByCode[off.CourseCode] = softwareLab
		}

		var facultyIDs []string
		if len(off.FacultyIDs) > 0 {
			if err := json.Unmarshal(off.FacultyIDs, &facultyIDs); err != nil {
				return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to decode course offering faculty ids")
			}
		}
		facultySet := make(scheduling.FacultySet, len(facultyIDs))
		for i, id := range facultyIDs {
			facultySet[i] = scheduling.FacultyID(id)
		}

		courses = append(courses, scheduling.Course{
			CourseCode:  off.CourseCode,
			SectionID:   off.SectionID,
			FacultySet:  facultySet,
			L:           off.L,
			T:           off.T,
			P:           off.P,
			Credits:     off.Credits,
			Enrollment:  off.Enrollment,
			IsCombined:  off.IsCombined,
			IsElective:  off.IsElective,
			BasketID:    derefOrEmpty(off.BasketID),
			FixedRoomID: derefOrEmpty(off.FixedRoomID),
			SoftwareLab: softwareLab,
		})
	}
	return courses, nil
}

func derefOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func toSchedulingRooms(rooms []models.Room) []scheduling.Room {
	out := make([]scheduling.Room, 0, len(rooms))
	for _, r := range rooms {
		out = append(out, scheduling.Room{ID: r.ID, Kind: roomKindFromModel(r.Kind), Capacity: r.Capacity})
	}
	return out
}

func toSchedulingSections(classes []models.Class) []scheduling.Section {
	out := make([]scheduling.Section, 0, len(classes))
	for _, c := range classes {
		out = append(out, scheduling.Section{
			SectionID:  c.ID,
			Department: c.Department,
			Semester:   c.Semester,
			BatchLabel: c.BatchLabel,
			Enrollment: c.Enrollment,
		})
	}
	return out
}

func roomKindFromModel(kind models.RoomKind) scheduling.RoomKind {
	switch kind {
	case models.RoomKindLectureRoom:
		return scheduling.LectureRoom
	case models.RoomKindSeater120:
		return scheduling.Seater120
	case models.RoomKindSeater240:
		return scheduling.Seater240
	case models.RoomKindComputerLab:
		return scheduling.ComputerLab
	case models.RoomKindHardwareLab:
		return scheduling.HardwareLab
	default:
		return scheduling.LectureRoom
	}
}

func resolveSeed(requested *int64, fallback int64) int64 {
	if requested != nil {
		return *requested
	}
	return fallback
}

func resolveMaxAttempts(requested, fallback int) int {
	if requested > 0 {
		return requested
	}
	return fallback
}

func formatInputErrors(errs []*scheduling.InputError) string {
	var b strings.Builder
	for i, e := range errs {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(e.Error())
	}
	return b.String()
}

func filterAssignmentsBySection(assignments []scheduling.Assignment, sectionID string) []scheduling.Assignment {
	var out []scheduling.Assignment
	for _, a := range assignments {
		for _, sid := range a.SectionIDs {
			if sid == sectionID {
				out = append(out, a)
				break
			}
		}
	}
	return out
}

func toSlotModels(scheduleID string, assignments []scheduling.Assignment) ([]models.SemesterScheduleSlot, error) {
	slots := make([]models.SemesterScheduleSlot, 0, len(assignments))
	for _, a := range assignments {
		a := a

		roomIDsJSON, err := json.Marshal(a.RoomIDs)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode room ids")
		}
		facultyIDsJSON, err := json.Marshal(facultyIDsToStrings(a.FacultySet))
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode faculty ids")
		}
		sectionIDsJSON, err := json.Marshal(a.SectionIDs)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode section ids")
		}

		var basketID *string
		if a.BasketID != "" {
			basketID = &a.BasketID
		}
		var batchLabel *string
		if a.Batch != nil {
			batchLabel = &a.Batch.Label
		}

		slots = append(slots, models.SemesterScheduleSlot{
			SemesterScheduleID: scheduleID,
			Day:                a.Interval.Day.String(),
			StartMin:           a.Interval.StartMin,
			EndMin:             a.Interval.EndMin,
			CourseCode:         a.CourseCode,
			Kind:               a.Kind.String(),
			RoomIDs:            types.JSONText(roomIDsJSON),
			FacultyIDs:         types.JSONText(facultyIDsJSON),
			SectionIDs:         types.JSONText(sectionIDsJSON),
			BasketID:           basketID,
			BatchLabel:         batchLabel,
			CapacityWarning:    a.CapacityWarning,
		})
	}
	return slots, nil
}

func facultyIDsToStrings(fs scheduling.FacultySet) []string {
	out := make([]string, len(fs))
	for i, id := range fs {
		out[i] = string(id)
	}
	return out
}

func toGenerateScheduleResponse(proposalID string, result scheduling.Result, views []scheduling.ExportView) *dto.GenerateScheduleResponse {
	warnings := make([]dto.WarningDTO, 0, len(result.Warnings))
	for _, w := range result.Warnings {
		warnings = append(warnings, dto.WarningDTO{
			Kind:        w.Kind.String(),
			CourseCode:  w.CourseCode,
			SessionKind: w.SessionKind.String(),
			Detail:      w.Detail,
		})
	}
	viewDTOs := make([]dto.ExportViewDTO, 0, len(views))
	for _, v := range views {
		viewDTOs = append(viewDTOs, toExportViewDTO(v))
	}
	return &dto.GenerateScheduleResponse{
		ProposalID:     proposalID,
		AttemptCount:   result.AttemptCount,
		BacktrackDepth: result.BacktrackDepth,
		Warnings:       warnings,
		Views:          viewDTOs,
	}
}

func toExportViewDTO(v scheduling.ExportView) dto.ExportViewDTO {
	cells := make([]dto.ExportCellDTO, 0, len(v.Cells))
	for _, cell := range v.Cells {
		cellDTO := dto.ExportCellDTO{
			Day:        cell.Day.String(),
			StartMin:   cell.SlotStart,
			EndMin:     cell.SlotStart + 30,
			BreakLabel: cell.BreakLabel,
		}
		if a := cell.Assignment; a != nil {
			cellDTO.CourseCode = a.CourseCode
			cellDTO.SessionKind = a.Kind.String()
			cellDTO.RoomIDs = a.RoomIDs
			cellDTO.FacultyIDs = facultyIDsToStrings(a.FacultySet)
			cellDTO.BasketID = a.BasketID
			cellDTO.CapacityWarning = a.CapacityWarning
			if a.Batch != nil {
				cellDTO.BatchLabel = a.Batch.Label
			}
		}
		cells = append(cells, cellDTO)
	}
	return dto.ExportViewDTO{
		Department: v.Key.Department,
		Semester:   v.Key.Semester,
		SectionID:  v.Key.SectionID,
		Cells:      cells,
	}
}

// scheduleProposal is a pending generation result awaiting commit.
type scheduleProposal struct {
	ProposalID  string
	TermID      string
	Department  string
	Semester    int
	Result      scheduling.Result
	Views       []scheduling.ExportView
	RequestedAt time.Time
}

type proposalStore struct {
	ttl   time.Duration
	mu    sync.RWMutex
	items map[string]scheduleProposal
}

func newProposalStore(ttl time.Duration) *proposalStore {
	return &proposalStore{
		ttl:   ttl,
		items: make(map[string]scheduleProposal),
	}
}

func (s *proposalStore) Save(proposal scheduleProposal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[proposal.ProposalID] = proposal
}

func (s *proposalStore) Get(id string) (scheduleProposal, bool) {
	s.mu.RLock()
	proposal, ok := s.items[id]
	s.mu.RUnlock()
	if !ok {
		return scheduleProposal{}, false
	}
	if time.Since(proposal.RequestedAt) > s.ttl {
		s.Delete(id)
		return scheduleProposal{}, false
	}
	return proposal, true
}

func (s *proposalStore) Delete(id string) {
	s.mu.Lock()
	delete(s.items, id)
	s.mu.Unlock()
}

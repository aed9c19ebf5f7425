package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/campusforge/scheduler/internal/dto"
	"github.com/campusforge/scheduler/internal/models"
	appErrors "github.com/campusforge/scheduler/pkg/errors"
	"github.com/campusforge/scheduler/pkg/export"
	"github.com/campusforge/scheduler/pkg/storage"
)

type exportScheduleReader interface {
	FindByID(ctx context.Context, id string) (*models.SemesterSchedule, error)
}

type exportSlotReader interface {
	ListBySchedule(ctx context.Context, scheduleID string) ([]models.SemesterScheduleSlot, error)
}

// ExportCache mirrors repository.CacheRepository's Get/Set surface so the
// service can be tested without a live Redis connection, and so callers
// can pass a nil interface value (rather than a nil *CacheRepository)
// when no cache backend is configured.
type ExportCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// ExportServiceConfig controls how long a committed schedule's export view
// stays cached.
type ExportServiceConfig struct {
	ViewCacheTTL time.Duration
}

// ExportService serves a committed semester schedule's export view —
// cached JSON for the weekly grid, and on-demand CSV/PDF renders for
// download. A committed schedule is immutable once published, so its view
// is cached aggressively; the cache is best-effort and every miss falls
// back to rebuilding from semester_schedule_slots.
type ExportService struct {
	schedules exportScheduleReader
	slots     exportSlotReader
	cache     ExportCache
	store     *storage.LocalStorage
	signer    *storage.SignedURLSigner
	csv       *export.CSVExporter
	pdf       *export.PDFExporter
	cfg       ExportServiceConfig
	logger    *zap.Logger
}

// NewExportService wires the export service. cache may be nil, in which
// case every view is rebuilt from the slot repository on each call. store
// and signer may also be nil, in which case PersistSigned/FetchSigned
// report the feature as unconfigured instead of panicking.
func NewExportService(schedules exportScheduleReader, slots exportSlotReader, cache ExportCache, store *storage.LocalStorage, signer *storage.SignedURLSigner, cfg ExportServiceConfig, logger *zap.Logger) *ExportService {
	if cfg.ViewCacheTTL <= 0 {
		cfg.ViewCacheTTL = 24 * time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		schedules: schedules,
		slots:     slots,
		cache:     cache,
		store:     store,
		signer:    signer,
		csv:       export.NewCSVExporter(),
		pdf:       export.NewPDFExporter(),
		cfg:       cfg,
		logger:    logger,
	}
}

func exportCacheKey(scheduleID string) string {
	return "schedule:export:" + scheduleID
}

// View returns the rendered weekly grid for a committed schedule, serving
// from cache when available.
func (s *ExportService) View(ctx context.Context, scheduleID string) (*dto.ExportViewDTO, error) {
	if s.cache != nil {
		var cached dto.ExportViewDTO
		if err := s.cache.Get(ctx, exportCacheKey(scheduleID), &cached); err == nil {
			return &cached, nil
		}
	}

	view, err := s.buildView(ctx, scheduleID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, exportCacheKey(scheduleID), view, s.cfg.ViewCacheTTL); err != nil {
			s.logger.Sugar().Warnw("failed to cache export view", "schedule_id", scheduleID, "error", err)
		}
	}
	return view, nil
}

// Render produces a downloadable document for a committed schedule in the
// requested format ("csv" or "pdf").
func (s *ExportService) Render(ctx context.Context, scheduleID, format string) ([]byte, string, error) {
	view, err := s.buildView(ctx, scheduleID)
	if err != nil {
		return nil, "", err
	}
	data := toExportDataset(view)

	switch strings.ToLower(format) {
	case "csv":
		body, err := s.csv.Render(data)
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv export")
		}
		return body, "text/csv", nil
	case "pdf":
		title := fmt.Sprintf("%s semester %d — section %s", view.Department, view.Semester, view.SectionID)
		body, err := s.pdf.Render(data, title)
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf export")
		}
		return body, "application/pdf", nil
	default:
		return nil, "", appErrors.Clone(appErrors.ErrValidation, "unsupported export format")
	}
}

// PersistSigned renders a schedule export, writes it to durable storage,
// and returns a signed token a client can later redeem through FetchSigned
// without re-rendering from the database.
func (s *ExportService) PersistSigned(ctx context.Context, scheduleID, format string) (token string, expiresAt time.Time, err error) {
	if s.store == nil || s.signer == nil {
		return "", time.Time{}, appErrors.Clone(appErrors.ErrInternal, "signed export downloads are not configured")
	}
	body, _, err := s.Render(ctx, scheduleID, format)
	if err != nil {
		return "", time.Time{}, err
	}
	filename := fmt.Sprintf("%s.%s", scheduleID, strings.ToLower(format))
	relPath, err := s.store.Save(filename, body)
	if err != nil {
		return "", time.Time{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist export")
	}
	token, expiresAt, err = s.signer.Generate(scheduleID, relPath)
	if err != nil {
		return "", time.Time{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign export download")
	}
	return token, expiresAt, nil
}

// FetchSigned validates a download token minted by PersistSigned and opens
// the persisted export file it references.
func (s *ExportService) FetchSigned(token string) (io.ReadCloser, string, error) {
	if s.store == nil || s.signer == nil {
		return nil, "", appErrors.Clone(appErrors.ErrInternal, "signed export downloads are not configured")
	}
	_, relPath, _, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid or expired download token")
	}
	file, err := s.store.Open(relPath)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "export file not found")
	}
	return file, contentTypeForPath(relPath), nil
}

func contentTypeForPath(path string) string {
	switch {
	case strings.HasSuffix(path, ".pdf"):
		return "application/pdf"
	case strings.HasSuffix(path, ".csv"):
		return "text/csv"
	default:
		return "application/octet-stream"
	}
}

func (s *ExportService) buildView(ctx context.Context, scheduleID string) (*dto.ExportViewDTO, error) {
	schedule, err := s.schedules.FindByID(ctx, scheduleID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule")
	}
	if schedule == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "schedule not found")
	}

	slots, err := s.slots.ListBySchedule(ctx, scheduleID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule slots")
	}

	view := &dto.ExportViewDTO{SectionID: schedule.ClassID}
	cells := make([]dto.ExportCellDTO, 0, len(slots))
	for _, slot := range slots {
		cell := dto.ExportCellDTO{
			Day:             slot.Day,
			StartMin:        slot.StartMin,
			EndMin:          slot.EndMin,
			CourseCode:      slot.CourseCode,
			SessionKind:     slot.Kind,
			RoomIDs:         decodeJSONStrings(slot.RoomIDs),
			FacultyIDs:      decodeJSONStrings(slot.FacultyIDs),
			CapacityWarning: slot.CapacityWarning,
		}
		if slot.BasketID != nil {
			cell.BasketID = *slot.BasketID
		}
		if slot.BatchLabel != nil {
			cell.BatchLabel = *slot.BatchLabel
		}
		cells = append(cells, cell)
	}
	view.Cells = cells
	return view, nil
}

func decodeJSONStrings(raw []byte) []string {
	if len(raw) == 0 {
		return nil
	}
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}
	return out
}

func toExportDataset(view *dto.ExportViewDTO) export.Dataset {
	headers := []string{"day", "start_min", "end_min", "course_code", "kind", "rooms", "faculty", "basket_id", "batch_label", "capacity_warning"}
	rows := make([]map[string]string, 0, len(view.Cells))
	for _, cell := range view.Cells {
		rows = append(rows, map[string]string{
			"day":              cell.Day,
			"start_min":        strconv.Itoa(cell.StartMin),
			"end_min":          strconv.Itoa(cell.EndMin),
			"course_code":      cell.CourseCode,
			"kind":             cell.SessionKind,
			"rooms":            strings.Join(cell.RoomIDs, "|"),
			"faculty":          strings.Join(cell.FacultyIDs, "|"),
			"basket_id":        cell.BasketID,
			"batch_label":      cell.BatchLabel,
			"capacity_warning": strconv.FormatBool(cell.CapacityWarning),
		})
	}
	return export.Dataset{Headers: headers, Rows: rows}
}

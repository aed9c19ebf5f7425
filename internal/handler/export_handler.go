package handler

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/campusforge/scheduler/internal/dto"
	"github.com/campusforge/scheduler/internal/service"
	appErrors "github.com/campusforge/scheduler/pkg/errors"
	"github.com/campusforge/scheduler/pkg/response"
)

type scheduleExporter interface {
	View(ctx context.Context, scheduleID string) (*dto.ExportViewDTO, error)
	Render(ctx context.Context, scheduleID, format string) ([]byte, string, error)
	PersistSigned(ctx context.Context, scheduleID, format string) (token string, expiresAt time.Time, err error)
	FetchSigned(token string) (io.ReadCloser, string, error)
}

// ExportHandler serves a committed semester schedule's export view and
// downloadable renders.
type ExportHandler struct {
	service scheduleExporter
}

// NewExportHandler constructs the handler.
func NewExportHandler(svc *service.ExportService) *ExportHandler {
	return &ExportHandler{service: svc}
}

// View godoc
// @Summary Get the cached weekly grid for a committed schedule
// @Tags Export
// @Produce json
// @Param id path string true "Semester schedule ID"
// @Success 200 {object} response.Envelope
// @Router /semester-schedule/{id}/view [get]
func (h *ExportHandler) View(c *gin.Context) {
	view, err := h.service.View(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}

// Download godoc
// @Summary Download a committed schedule as CSV or PDF
// @Tags Export
// @Produce application/octet-stream
// @Param id path string true "Semester schedule ID"
// @Param format query string true "csv or pdf"
// @Success 200 {file} file
// @Router /semester-schedule/{id}/export [get]
func (h *ExportHandler) Download(c *gin.Context) {
	format := c.DefaultQuery("format", "csv")
	body, contentType, err := h.service.Render(c.Request.Context(), c.Param("id"), format)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Data(http.StatusOK, contentType, body)
}

// Sign godoc
// @Summary Mint a signed, reusable download link for a committed schedule export
// @Tags Export
// @Produce json
// @Param id path string true "Semester schedule ID"
// @Param format query string true "csv or pdf"
// @Success 200 {object} response.Envelope
// @Router /semester-schedule/{id}/export/link [post]
func (h *ExportHandler) Sign(c *gin.Context) {
	format := c.DefaultQuery("format", "csv")
	token, expiresAt, err := h.service.PersistSigned(c.Request.Context(), c.Param("id"), format)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"token": token, "expires_at": expiresAt}, nil)
}

// FetchByToken godoc
// @Summary Fetch a previously signed schedule export
// @Tags Export
// @Produce application/octet-stream
// @Param token query string true "Signed download token"
// @Success 200 {file} file
// @Router /exports/download [get]
func (h *ExportHandler) FetchByToken(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "token is required"))
		return
	}
	file, contentType, err := h.service.FetchSigned(token)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close() //nolint:errcheck
	c.Header("Content-Type", contentType)
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, file); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to stream export"))
	}
}

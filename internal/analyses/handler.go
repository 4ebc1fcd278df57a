package analyses

import (
	"bytes"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/chethana369/Auto-resume-checker/internal/report"
	"github.com/chethana369/Auto-resume-checker/internal/sessions"
	"github.com/chethana369/Auto-resume-checker/internal/shared/metrics"
	"github.com/chethana369/Auto-resume-checker/internal/shared/server/middleware"
	"github.com/chethana369/Auto-resume-checker/internal/shared/server/respond"
	"github.com/chethana369/Auto-resume-checker/internal/shared/telemetry"
	"github.com/chethana369/Auto-resume-checker/internal/shared/util"
)

const (
	defaultMaxUploadBytes = 10 << 20

	// ExportKeyHeader carries the archive key of an export when archiving is enabled.
	ExportKeyHeader = "X-Export-Key"
)

// Handler wires HTTP handlers to the analysis service.
type Handler struct {
	Svc            *Service
	Archive        *report.Archive
	MaxUploadBytes int64
}

// NewHandler constructs a Handler. archive may be nil.
func NewHandler(svc *Service, archive *report.Archive, maxUploadBytes int64) *Handler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = defaultMaxUploadBytes
	}
	return &Handler{Svc: svc, Archive: archive, MaxUploadBytes: maxUploadBytes}
}

// RegisterRoutes attaches analysis routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, guard *middleware.SessionGuard) {
	rg.POST("/session/analyses", middleware.Exclusive(guard), h.create)
	rg.GET("/session/analyses/latest", h.latest)
	rg.GET("/analyses/:id", h.get)
	rg.GET("/analyses/:id/export", h.export)
}

type progressEvent struct {
	Done  int `json:"done"`
	Total int `json:"total"`
}

func (h *Handler) create(c *gin.Context) {
	sessionID := middleware.SessionIDFromContext(c)

	uploads, err := ReadUploads(c, h.MaxUploadBytes)
	if err != nil {
		RespondError(c, err)
		return
	}

	if !wantsEventStream(c) {
		run, err := h.Svc.Analyze(c.Request.Context(), sessionID, uploads, nil)
		if err != nil {
			RespondError(c, err)
			return
		}
		c.Set("runId", run.ID)
		respond.JSON(c, http.StatusCreated, RunResponse(run))
		return
	}

	streaming := false
	progress := func(done, total int) {
		if !streaming {
			streaming = true
			c.Header("Cache-Control", "no-cache")
			c.Header("X-Accel-Buffering", "no")
			c.Status(http.StatusOK)
		}
		c.SSEvent("progress", progressEvent{Done: done, Total: total})
		c.Writer.Flush()
	}

	run, err := h.Svc.Analyze(c.Request.Context(), sessionID, uploads, progress)
	if err != nil {
		if !streaming {
			RespondError(c, err)
			return
		}
		telemetry.Warn("analysis.stream_aborted", map[string]any{
			"session_id": sessionID,
			"error":      err,
		})
		c.SSEvent("error", gin.H{"code": "analysis_aborted", "message": err.Error()})
		c.Writer.Flush()
		return
	}
	c.Set("runId", run.ID)
	c.SSEvent("result", RunResponse(run))
	c.Writer.Flush()
}

func (h *Handler) latest(c *gin.Context) {
	run, err := h.Svc.Latest(c.Request.Context(), middleware.SessionIDFromContext(c))
	if err != nil {
		RespondError(c, err)
		return
	}
	c.Set("runId", run.ID)
	respond.JSON(c, http.StatusOK, RunResponse(run))
}

func (h *Handler) get(c *gin.Context) {
	run, err := h.Svc.Get(c.Request.Context(), middleware.SessionIDFromContext(c), c.Param("id"))
	if err != nil {
		RespondError(c, err)
		return
	}
	c.Set("runId", run.ID)
	respond.JSON(c, http.StatusOK, RunResponse(run))
}

func (h *Handler) export(c *gin.Context) {
	format, err := report.ParseFormat(c.Query("format"))
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), gin.H{"allowed": []string{"csv", "xlsx"}})
		return
	}

	sessionID := middleware.SessionIDFromContext(c)
	run, err := h.Svc.Get(c.Request.Context(), sessionID, c.Param("id"))
	if err != nil {
		RespondError(c, err)
		return
	}
	c.Set("runId", run.ID)

	data, key, err := h.exportBytes(c, sessionID, run, format)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to render export", nil)
		return
	}
	if key != "" {
		c.Header(ExportKeyHeader, key)
	}

	metrics.IncExport()
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", format.FileName()))
	c.Data(http.StatusOK, format.ContentType(), data)
}

// exportBytes serves an archived export when one exists, otherwise renders and archives it.
// Runs are immutable, so an archived export never goes stale.
func (h *Handler) exportBytes(c *gin.Context, sessionID string, run Run, format report.Format) ([]byte, string, error) {
	ctx := c.Request.Context()
	logFields := map[string]any{
		"session_id": sessionID,
		"run_id":     run.ID,
		"format":     string(format),
	}

	data, key, err := h.Archive.Load(ctx, sessionID, run.ID, format)
	if err == nil {
		return data, key, nil
	}
	if !report.IsMiss(err) {
		logFields["error"] = err
		telemetry.Warn("analysis.export_archive_read_failed", logFields)
	}

	var buf bytes.Buffer
	if err := report.Write(&buf, format, run.Rows()); err != nil {
		return nil, "", err
	}

	key, err = h.Archive.Save(ctx, sessionID, run.ID, format, buf.Bytes())
	if err != nil {
		logFields["error"] = err
		telemetry.Warn("analysis.export_archive_failed", logFields)
		key = ""
	}
	return buf.Bytes(), key, nil
}

// ReadUploads reads the multipart "files" field of the request, bounded by maxBytes.
func ReadUploads(c *gin.Context, maxBytes int64) ([]Upload, error) {
	if maxBytes <= 0 {
		maxBytes = defaultMaxUploadBytes
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)

	form, err := c.MultipartForm()
	if err != nil {
		if isTooLarge(err) {
			return nil, ErrPayloadTooLarge
		}
		if errors.Is(err, http.ErrNotMultipart) || errors.Is(err, http.ErrMissingBoundary) {
			return nil, ErrNoFiles
		}
		return nil, fmt.Errorf("%w: %v", errBadUpload, err)
	}

	files := form.File["files"]
	if len(files) == 0 {
		files = form.File["files[]"]
	}
	return readFileHeaders(files)
}

func readFileHeaders(files []*multipart.FileHeader) ([]Upload, error) {
	uploads := make([]Upload, 0, len(files))
	for _, fh := range files {
		data, err := util.ReadFormFile(fh)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", errBadUpload, err)
		}
		uploads = append(uploads, Upload{
			Name:        fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Data:        data,
		})
	}
	return uploads, nil
}

// RespondError maps analysis errors to the standard error body.
func RespondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, sessions.ErrNoJobDescription):
		respond.Error(c, http.StatusConflict, "job_description_required", "Please upload or paste a job description first", nil)
	case errors.Is(err, ErrNoFiles):
		respond.Error(c, http.StatusBadRequest, "validation_error", "upload at least one resume in the \"files\" field", nil)
	case errors.Is(err, ErrTooManyFiles):
		respond.Error(c, http.StatusBadRequest, "too_many_files", err.Error(), nil)
	case errors.Is(err, ErrPayloadTooLarge):
		respond.Error(c, http.StatusRequestEntityTooLarge, "payload_too_large", err.Error(), nil)
	case errors.Is(err, errBadUpload):
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read upload", nil)
	case errors.Is(err, sessions.ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "analysis not found", nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", "analysis failed", nil)
	}
}

// RunResponse is the JSON shape of a run, including the rendered results table.
func RunResponse(run Run) gin.H {
	return gin.H{
		"id":        run.ID,
		"sessionId": run.SessionID,
		"jobSource": run.JobSource,
		"results":   run.Results,
		"failures":  run.Failures,
		"createdAt": run.CreatedAt,
		"table": gin.H{
			"headers": report.Headers,
			"rows":    run.Rows(),
		},
		"exports": gin.H{
			"csv":  "/api/v1/analyses/" + run.ID + "/export?format=csv",
			"xlsx": "/api/v1/analyses/" + run.ID + "/export?format=xlsx",
		},
	}
}

func wantsEventStream(c *gin.Context) bool {
	return strings.Contains(c.GetHeader("Accept"), "text/event-stream")
}

func isTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr) || (err != nil && strings.Contains(err.Error(), "request body too large"))
}

package web

import (
	"embed"
	"errors"
	"html/template"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/chethana369/Auto-resume-checker/internal/analyses"
	"github.com/chethana369/Auto-resume-checker/internal/extract"
	"github.com/chethana369/Auto-resume-checker/internal/report"
	"github.com/chethana369/Auto-resume-checker/internal/scoring"
	"github.com/chethana369/Auto-resume-checker/internal/sessions"
	"github.com/chethana369/Auto-resume-checker/internal/shared/server/middleware"
	"github.com/chethana369/Auto-resume-checker/internal/shared/telemetry"
	"github.com/chethana369/Auto-resume-checker/internal/shared/util"
)

//go:embed templates/*.html
var templateFS embed.FS

// Hint is shown in place of the resume form until the session has a job description.
const Hint = "Please upload or paste a job description first"

const pageTemplate = "index.html"

// Templates parses the embedded page templates.
func Templates() *template.Template {
	return template.Must(template.New("").ParseFS(templateFS, "templates/*.html"))
}

// Handler serves the browser UI.
type Handler struct {
	Sessions       *sessions.Service
	Analyses       *analyses.Service
	MaxUploadBytes int64
}

// NewHandler constructs a Handler.
func NewHandler(sessionSvc *sessions.Service, analysisSvc *analyses.Service, maxUploadBytes int64) *Handler {
	return &Handler{Sessions: sessionSvc, Analyses: analysisSvc, MaxUploadBytes: maxUploadBytes}
}

// Register installs the page templates on engine and attaches the UI routes.
func (h *Handler) Register(engine *gin.Engine, guard *middleware.SessionGuard) {
	engine.SetHTMLTemplate(Templates())
	engine.GET("/", h.index)
	ui := engine.Group("/ui")
	ui.POST("/job-description", middleware.Exclusive(guard), h.setJobDescription)
	ui.POST("/analyze", middleware.Exclusive(guard), h.analyze)
}

type runView struct {
	Headers  []string
	Rows     []report.Row
	Failures []analyses.Failure
	CSVURL   string
	XLSXURL  string
}

type pageView struct {
	HasJob         bool
	JobDescription string
	JobSource      string
	JobTokens      int
	Hint           string
	Error          string
	Run            *runView
}

func (h *Handler) index(c *gin.Context) {
	h.render(c, http.StatusOK, "", nil)
}

func (h *Handler) setJobDescription(c *gin.Context) {
	sessionID := middleware.SessionIDFromContext(c)
	if h.MaxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.MaxUploadBytes)
	}

	var err error
	fileHeader, ferr := c.FormFile("file")
	switch {
	case ferr == nil:
		var data []byte
		data, err = util.ReadFormFile(fileHeader)
		if err == nil {
			name := util.DisplayName(fileHeader.Filename)
			_, err = h.Sessions.SetJobDescriptionFromFile(c.Request.Context(), sessionID, extract.Document{
				Name:      name,
				MediaType: extract.ResolveMediaType(fileHeader.Header.Get("Content-Type"), name, data),
				Data:      data,
			})
		}
	case tooLarge(ferr):
		err = ferr
	default:
		// An empty file input falls back to the pasted text.
		_, err = h.Sessions.SetJobDescription(c.Request.Context(), sessionID, c.PostForm("text"), sessions.SourcePasted)
	}
	if err != nil {
		status, message := jobDescriptionError(err)
		h.render(c, status, message, nil)
		return
	}
	c.Redirect(http.StatusSeeOther, "/")
}

func (h *Handler) analyze(c *gin.Context) {
	sessionID := middleware.SessionIDFromContext(c)

	uploads, err := analyses.ReadUploads(c, h.MaxUploadBytes)
	if err == nil {
		var run analyses.Run
		run, err = h.Analyses.Analyze(c.Request.Context(), sessionID, uploads, nil)
		if err == nil {
			c.Set("runId", run.ID)
			h.render(c, http.StatusOK, "", newRunView(run))
			return
		}
	}
	status, message := analysisError(err)
	h.render(c, status, message, nil)
}

func (h *Handler) render(c *gin.Context, status int, message string, run *runView) {
	view := pageView{Hint: Hint, Error: message, Run: run}

	session, err := h.Sessions.JobDescription(c.Request.Context(), middleware.SessionIDFromContext(c))
	switch {
	case err == nil:
		view.HasJob = true
		view.JobDescription = session.JobDescription
		view.JobSource = session.JobSource
		view.JobTokens = len(scoring.Tokenize(session.JobDescription))
	case !errors.Is(err, sessions.ErrNoJobDescription):
		telemetry.Error("web.load_job_description_failed", map[string]any{
			"session_id": middleware.SessionIDFromContext(c),
			"error":      err,
		})
	}
	c.HTML(status, pageTemplate, view)
}

func newRunView(run analyses.Run) *runView {
	base := "/api/v1/analyses/" + run.ID + "/export?format="
	return &runView{
		Headers:  report.Headers,
		Rows:     run.Rows(),
		Failures: run.Failures,
		CSVURL:   base + string(report.FormatCSV),
		XLSXURL:  base + string(report.FormatXLSX),
	}
}

func jobDescriptionError(err error) (int, string) {
	var decodeErr *extract.DecodeError
	switch {
	case errors.As(err, &decodeErr):
		return http.StatusUnprocessableEntity, decodeErr.Error()
	case tooLarge(err):
		return http.StatusRequestEntityTooLarge, "The upload exceeds the size limit."
	case errors.Is(err, sessions.ErrEmptyJobDescription):
		return http.StatusBadRequest, "The job description is empty."
	case errors.Is(err, sessions.ErrInvalidInput):
		return http.StatusBadRequest, err.Error()
	default:
		return http.StatusInternalServerError, "The job description could not be saved."
	}
}

func analysisError(err error) (int, string) {
	switch {
	case errors.Is(err, sessions.ErrNoJobDescription):
		return http.StatusConflict, Hint
	case errors.Is(err, analyses.ErrNoFiles):
		return http.StatusBadRequest, "Choose at least one resume file."
	case errors.Is(err, analyses.ErrTooManyFiles):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, analyses.ErrPayloadTooLarge):
		return http.StatusRequestEntityTooLarge, "The upload exceeds the size limit."
	case errors.Is(err, sessions.ErrInvalidInput):
		return http.StatusBadRequest, err.Error()
	default:
		return http.StatusInternalServerError, "The resumes could not be analyzed."
	}
}

func tooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr) || (err != nil && strings.Contains(err.Error(), "request body too large"))
}

package sessions

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/chethana369/Auto-resume-checker/internal/extract"
	"github.com/chethana369/Auto-resume-checker/internal/scoring"
	"github.com/chethana369/Auto-resume-checker/internal/shared/server/middleware"
	"github.com/chethana369/Auto-resume-checker/internal/shared/server/respond"
	"github.com/chethana369/Auto-resume-checker/internal/shared/util"
)

const defaultMaxUploadBytes = 10 << 20

// Handler wires HTTP handlers to the session service.
type Handler struct {
	Svc            *Service
	MaxUploadBytes int64
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service, maxUploadBytes int64) *Handler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = defaultMaxUploadBytes
	}
	return &Handler{Svc: svc, MaxUploadBytes: maxUploadBytes}
}

// RegisterRoutes attaches session routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, guard *middleware.SessionGuard) {
	rg.PUT("/session/job-description", middleware.Exclusive(guard), h.putJobDescription)
	rg.GET("/session/job-description", h.getJobDescription)
}

type jobDescriptionRequest struct {
	Text string `json:"text"`
}

func (h *Handler) putJobDescription(c *gin.Context) {
	sessionID := middleware.SessionIDFromContext(c)
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.MaxUploadBytes)

	var (
		session Session
		err     error
	)
	switch c.ContentType() {
	case "multipart/form-data":
		fileHeader, ferr := c.FormFile("file")
		if ferr == nil {
			data, rerr := util.ReadFormFile(fileHeader)
			if rerr != nil {
				respondUploadError(c, rerr)
				return
			}
			name := util.DisplayName(fileHeader.Filename)
			doc := extract.Document{
				Name:      name,
				MediaType: extract.ResolveMediaType(fileHeader.Header.Get("Content-Type"), name, data),
				Data:      data,
			}
			session, err = h.Svc.SetJobDescriptionFromFile(c.Request.Context(), sessionID, doc)
			break
		}
		if isTooLarge(ferr) {
			respondUploadError(c, ferr)
			return
		}
		session, err = h.Svc.SetJobDescription(c.Request.Context(), sessionID, c.PostForm("text"), SourcePasted)
	case "application/x-www-form-urlencoded":
		session, err = h.Svc.SetJobDescription(c.Request.Context(), sessionID, c.PostForm("text"), SourcePasted)
	case "application/json":
		var req jobDescriptionRequest
		if berr := c.ShouldBindJSON(&req); berr != nil {
			if isTooLarge(berr) {
				respondUploadError(c, berr)
				return
			}
			respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
			return
		}
		session, err = h.Svc.SetJobDescription(c.Request.Context(), sessionID, req.Text, SourcePasted)
	case "text/plain", "":
		data, rerr := io.ReadAll(c.Request.Body)
		if rerr != nil {
			respondUploadError(c, rerr)
			return
		}
		doc := extract.Document{Name: "body", MediaType: extract.MediaText, Data: data}
		var text string
		text, err = extract.Extract(c.Request.Context(), doc)
		if err == nil {
			session, err = h.Svc.SetJobDescription(c.Request.Context(), sessionID, text, SourcePasted)
		}
	default:
		respond.Error(c, http.StatusUnsupportedMediaType, "unsupported_media_type", "send multipart/form-data, a form, JSON or text/plain", nil)
		return
	}

	if err != nil {
		respondSetError(c, err)
		return
	}
	respond.JSON(c, http.StatusOK, toResponse(session))
}

func (h *Handler) getJobDescription(c *gin.Context) {
	sessionID := middleware.SessionIDFromContext(c)

	session, err := h.Svc.JobDescription(c.Request.Context(), sessionID)
	if err != nil {
		switch {
		case errors.Is(err, ErrNoJobDescription):
			respond.Error(c, http.StatusNotFound, "job_description_required", "Please upload or paste a job description first", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to load job description", nil)
		}
		return
	}
	respond.JSON(c, http.StatusOK, toResponse(session))
}

func respondSetError(c *gin.Context, err error) {
	var decodeErr *extract.DecodeError
	switch {
	case errors.As(err, &decodeErr):
		respond.Error(c, http.StatusUnprocessableEntity, "decode_error", decodeErr.Error(), gin.H{
			"file":      decodeErr.FileName,
			"mediaType": decodeErr.MediaType,
		})
	case errors.Is(err, ErrEmptyJobDescription):
		respond.Error(c, http.StatusBadRequest, "validation_error", "job description is empty", nil)
	case errors.Is(err, ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to store job description", nil)
	}
}

func respondUploadError(c *gin.Context, err error) {
	if isTooLarge(err) {
		respond.Error(c, http.StatusRequestEntityTooLarge, "payload_too_large", "upload exceeds the size limit", nil)
		return
	}
	respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read upload", nil)
}

func isTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr) || (err != nil && strings.Contains(err.Error(), "request body too large"))
}

func toResponse(s Session) gin.H {
	return gin.H{
		"sessionId":      s.ID,
		"jobDescription": s.JobDescription,
		"source":         s.JobSource,
		"tokens":         len(scoring.Tokenize(s.JobDescription)),
		"updatedAt":      s.UpdatedAt,
	}
}

package sessions

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/chethana369/Auto-resume-checker/internal/extract"
	"github.com/chethana369/Auto-resume-checker/internal/extract/extracttest"
	"github.com/chethana369/Auto-resume-checker/internal/shared/server/middleware"
)

func setupSessionRouter(t *testing.T, maxUpload int64) (*gin.Engine, *Service) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	svc := &Service{Repo: NewMemoryRepo(time.Hour, nil)}
	handler := NewHandler(svc, maxUpload)

	router := gin.New()
	router.Use(middleware.Session(middleware.SessionOptions{}))
	api := router.Group("/api/v1")
	handler.RegisterRoutes(api, middleware.NewSessionGuard())
	return router, svc
}

func multipartBody(t *testing.T, fieldName, fileName, contentType string, data []byte, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	if fileName != "" {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="`+fieldName+`"; filename="`+fileName+`"`)
		h.Set("Content-Type", contentType)
		part, err := w.CreatePart(h)
		if err != nil {
			t.Fatalf("create part: %v", err)
		}
		if _, err := part.Write(data); err != nil {
			t.Fatalf("write part: %v", err)
		}
	}
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return &body, w.FormDataContentType()
}

func doRequest(router *gin.Engine, method, path, contentType string, body *bytes.Buffer) *httptest.ResponseRecorder {
	if body == nil {
		body = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set(middleware.SessionHeader, "test-session")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func decodeBody(t *testing.T, resp *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var payload map[string]any
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response %q: %v", resp.Body.String(), err)
	}
	return payload
}

func TestGetJobDescriptionRequiresOne(t *testing.T) {
	router, _ := setupSessionRouter(t, 0)

	resp := doRequest(router, http.MethodGet, "/api/v1/session/job-description", "", nil)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
	payload := decodeBody(t, resp)
	errBody, _ := payload["error"].(map[string]any)
	if errBody["code"] != "job_description_required" {
		t.Fatalf("unexpected error body: %v", payload)
	}
}

func TestPutJobDescriptionJSON(t *testing.T) {
	router, _ := setupSessionRouter(t, 0)

	resp := doRequest(router, http.MethodPut, "/api/v1/session/job-description", "application/json",
		bytes.NewBufferString(`{"text":"Python SQL aws"}`))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	payload := decodeBody(t, resp)
	if payload["source"] != SourcePasted || payload["tokens"] != float64(3) {
		t.Fatalf("unexpected payload: %v", payload)
	}

	get := doRequest(router, http.MethodGet, "/api/v1/session/job-description", "", nil)
	if get.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", get.Code)
	}
	if decodeBody(t, get)["jobDescription"] != "Python SQL aws" {
		t.Fatalf("unexpected job description: %s", get.Body.String())
	}
}

func TestPutJobDescriptionFormAndPlainText(t *testing.T) {
	router, svc := setupSessionRouter(t, 0)

	resp := doRequest(router, http.MethodPut, "/api/v1/session/job-description", "application/x-www-form-urlencoded",
		bytes.NewBufferString("text=go+rust"))
	if resp.Code != http.StatusOK {
		t.Fatalf("form: expected 200, got %d: %s", resp.Code, resp.Body.String())
	}

	resp = doRequest(router, http.MethodPut, "/api/v1/session/job-description", "text/plain; charset=utf-8",
		bytes.NewBufferString("kotlin swift"))
	if resp.Code != http.StatusOK {
		t.Fatalf("text: expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	session, err := svc.JobDescription(context.Background(), "test-session")
	if err != nil || session.JobDescription != "kotlin swift" {
		t.Fatalf("unexpected stored job description %q (%v)", session.JobDescription, err)
	}
}

func TestPutJobDescriptionUploads(t *testing.T) {
	tests := []struct {
		name        string
		fileName    string
		contentType string
		data        []byte
		want        string
		wantSource  string
	}{
		{name: "text file", fileName: "jd.txt", contentType: "text/plain", data: []byte("python sql"), want: "python sql", wantSource: "upload:jd.txt"},
		{name: "pdf", fileName: "jd.pdf", contentType: extract.MimePDF, data: extracttest.PDF("python ", "sql"), want: "python sql", wantSource: "upload:jd.pdf"},
		{name: "docx", fileName: `C:\Users\me\jd.docx`, contentType: extract.MimeDOCX, data: extracttest.DOCX("python", "sql"), want: "python\nsql", wantSource: "upload:jd.docx"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, svc := setupSessionRouter(t, 0)
			body, ct := multipartBody(t, "file", tt.fileName, tt.contentType, tt.data, nil)

			resp := doRequest(router, http.MethodPut, "/api/v1/session/job-description", ct, body)
			if resp.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
			}
			session, err := svc.JobDescription(context.Background(), "test-session")
			if err != nil {
				t.Fatalf("JobDescription: %v", err)
			}
			if session.JobDescription != tt.want || session.JobSource != tt.wantSource {
				t.Fatalf("unexpected session: %+v", session)
			}
		})
	}
}

func TestPutJobDescriptionDecodeError(t *testing.T) {
	router, _ := setupSessionRouter(t, 0)
	body, ct := multipartBody(t, "file", "latin1.txt", "text/plain", []byte{'c', 'a', 'f', 0xe9}, nil)

	resp := doRequest(router, http.MethodPut, "/api/v1/session/job-description", ct, body)
	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", resp.Code, resp.Body.String())
	}
	errBody, _ := decodeBody(t, resp)["error"].(map[string]any)
	if errBody["code"] != "decode_error" {
		t.Fatalf("unexpected error: %v", errBody)
	}
	details, _ := errBody["details"].(map[string]any)
	if details["file"] != "latin1.txt" || details["mediaType"] != "text" {
		t.Fatalf("unexpected details: %v", details)
	}
}

func TestPutJobDescriptionBlankIsRejected(t *testing.T) {
	router, _ := setupSessionRouter(t, 0)
	body, ct := multipartBody(t, "", "", "", nil, map[string]string{"text": "   "})

	resp := doRequest(router, http.MethodPut, "/api/v1/session/job-description", ct, body)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestPutJobDescriptionTooLarge(t *testing.T) {
	router, _ := setupSessionRouter(t, 64)

	resp := doRequest(router, http.MethodPut, "/api/v1/session/job-description", "text/plain",
		bytes.NewBufferString(strings.Repeat("python ", 100)))
	if resp.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestPutJobDescriptionUnsupportedMediaType(t *testing.T) {
	router, _ := setupSessionRouter(t, 0)

	resp := doRequest(router, http.MethodPut, "/api/v1/session/job-description", "application/xml",
		bytes.NewBufferString("<jd/>"))
	if resp.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("expected 415, got %d", resp.Code)
	}
}

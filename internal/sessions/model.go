package sessions

import (
	"strings"
	"time"
)

// SourcePasted marks a job description typed or pasted by the user.
const SourcePasted = "pasted"

// Session is the per-visitor state: the job description resumes are scored against.
type Session struct {
	ID             string    `json:"id"`
	JobDescription string    `json:"jobDescription"`
	JobSource      string    `json:"jobSource"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// HasJobDescription reports whether a usable job description is stored.
func (s Session) HasJobDescription() bool {
	return strings.TrimSpace(s.JobDescription) != ""
}

// UploadSource labels a job description that came from an uploaded file.
func UploadSource(fileName string) string {
	return "upload:" + fileName
}

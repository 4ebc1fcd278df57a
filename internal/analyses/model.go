package analyses

import (
	"time"

	"github.com/chethana369/Auto-resume-checker/internal/report"
	"github.com/chethana369/Auto-resume-checker/internal/scoring"
)

// Upload is one resume file submitted for analysis.
type Upload struct {
	Name        string
	ContentType string
	Data        []byte
}

// Result is the score of one resume.
type Result struct {
	ResumeName    string          `json:"resumeName"`
	Score         int             `json:"score"`
	Verdict       scoring.Verdict `json:"verdict"`
	Missing       []string        `json:"missing"`
	MatchedCount  int             `json:"matchedCount"`
	JobTokenCount int             `json:"jobTokenCount"`
}

// Failure records a resume that could not be read.
type Failure struct {
	ResumeName string `json:"resumeName"`
	Error      string `json:"error"`
}

// Run is the outcome of one "Analyze" action over a batch of resumes.
type Run struct {
	ID        string    `json:"id"`
	SessionID string    `json:"sessionId"`
	JobSource string    `json:"jobSource"`
	Results   []Result  `json:"results"`
	Failures  []Failure `json:"failures"`
	CreatedAt time.Time `json:"createdAt"`
}

// Rows renders the run's results table in upload order.
func (r Run) Rows() []report.Row {
	rows := make([]report.Row, 0, len(r.Results))
	for _, res := range r.Results {
		rows = append(rows, report.NewRow(res.ResumeName, res.Score, res.Verdict, res.Missing))
	}
	return rows
}

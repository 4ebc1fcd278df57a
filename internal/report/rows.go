package report

import (
	"fmt"
	"strings"

	"github.com/chethana369/Auto-resume-checker/internal/scoring"
)

// Headers are the column names of the results table and of every export.
var Headers = []string{"Resume", "Score", "Verdict", "Missing Skills"}

// Row is one rendered line of the results table.
type Row struct {
	Resume        string `json:"resume"`
	Score         string `json:"score"`
	Verdict       string `json:"verdict"`
	MissingSkills string `json:"missingSkills"`
}

// NewRow renders a scored resume the way the results table shows it.
func NewRow(resumeName string, score int, verdict scoring.Verdict, missing []string) Row {
	return Row{
		Resume:        resumeName,
		Score:         FormatScore(score),
		Verdict:       verdict.String(),
		MissingSkills: strings.Join(scoring.DisplayMissing(missing), ", "),
	}
}

// FormatScore renders a score as "N/100".
func FormatScore(score int) string {
	return fmt.Sprintf("%d/100", score)
}

// Values returns the row's cells in Headers order.
func (r Row) Values() []string {
	return []string{r.Resume, r.Score, r.Verdict, r.MissingSkills}
}

func rowFromValues(values []string) Row {
	cells := make([]string, len(Headers))
	copy(cells, values)
	return Row{Resume: cells[0], Score: cells[1], Verdict: cells[2], MissingSkills: cells[3]}
}

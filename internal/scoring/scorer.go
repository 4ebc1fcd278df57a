package scoring

import (
	"fmt"
	"sort"
	"strings"
)

const (
	// Threshold is the score a resume must exceed to be Relevant.
	Threshold = 50
	// MissingDisplayLimit is how many missing tokens the results table shows.
	MissingDisplayLimit = 5
)

// Verdict is the binary relevance classification of a scored resume.
type Verdict int

const (
	NotRelevant Verdict = iota
	Relevant
)

func (v Verdict) String() string {
	if v == Relevant {
		return "Relevant"
	}
	return "Not Relevant"
}

// MarshalText renders the verdict with its display string.
func (v Verdict) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// UnmarshalText accepts only the display strings produced by MarshalText.
func (v *Verdict) UnmarshalText(text []byte) error {
	switch string(text) {
	case "Relevant":
		*v = Relevant
	case "Not Relevant":
		*v = NotRelevant
	default:
		return fmt.Errorf("unknown verdict %q", text)
	}
	return nil
}

// Result is the outcome of scoring one resume against a job description.
type Result struct {
	Score     int
	Verdict   Verdict
	Missing   []string
	Matched   []string
	JobTokens int
}

// Score compares resumeText against jobText by lowercased whitespace tokens.
// Missing and Matched are sorted alphabetically.
func Score(resumeText, jobText string) Result {
	jobTokens := Tokenize(jobText)
	resumeTokens := Tokenize(resumeText)

	matched := make([]string, 0, len(jobTokens))
	missing := make([]string, 0, len(jobTokens))
	for token := range jobTokens {
		if _, ok := resumeTokens[token]; ok {
			matched = append(matched, token)
		} else {
			missing = append(missing, token)
		}
	}
	sort.Strings(matched)
	sort.Strings(missing)

	denominator := len(jobTokens)
	if denominator < 1 {
		denominator = 1
	}
	score := 100 * len(matched) / denominator

	verdict := NotRelevant
	if score > Threshold {
		verdict = Relevant
	}

	return Result{
		Score:     score,
		Verdict:   verdict,
		Missing:   missing,
		Matched:   matched,
		JobTokens: len(jobTokens),
	}
}

// Tokenize lowercases text and returns its set of whitespace-separated tokens.
func Tokenize(text string) map[string]struct{} {
	fields := strings.Fields(strings.ToLower(text))
	tokens := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		tokens[f] = struct{}{}
	}
	return tokens
}

// DisplayMissing returns at most MissingDisplayLimit tokens from missing.
func DisplayMissing(missing []string) []string {
	if len(missing) <= MissingDisplayLimit {
		return missing
	}
	return missing[:MissingDisplayLimit]
}

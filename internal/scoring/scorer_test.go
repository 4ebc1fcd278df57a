package scoring

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"
)

func TestScoreExamples(t *testing.T) {
	tests := []struct {
		name        string
		resume      string
		job         string
		wantScore   int
		wantVerdict Verdict
		wantMissing []string
	}{
		{
			name:        "one of three matched",
			resume:      "python java",
			job:         "python sql aws",
			wantScore:   33,
			wantVerdict: NotRelevant,
			wantMissing: []string{"aws", "sql"},
		},
		{
			name:        "duplicates collapse and fifty is not relevant",
			resume:      "b b",
			job:         "a a b",
			wantScore:   50,
			wantVerdict: NotRelevant,
			wantMissing: []string{"a"},
		},
		{
			name:        "case insensitive",
			resume:      "Python",
			job:         "python",
			wantScore:   100,
			wantVerdict: Relevant,
			wantMissing: []string{},
		},
		{
			name:        "two of three is relevant",
			resume:      "GO\tsql\n",
			job:         "go sql kafka",
			wantScore:   66,
			wantVerdict: Relevant,
			wantMissing: []string{"kafka"},
		},
		{
			name:        "empty resume",
			resume:      "",
			job:         "rust go",
			wantScore:   0,
			wantVerdict: NotRelevant,
			wantMissing: []string{"go", "rust"},
		},
		{
			name:        "empty job",
			resume:      "python sql",
			job:         "   \n\t",
			wantScore:   0,
			wantVerdict: NotRelevant,
			wantMissing: []string{},
		},
		{
			name:        "punctuation is part of a token",
			resume:      "python, sql.",
			job:         "python sql",
			wantScore:   0,
			wantVerdict: NotRelevant,
			wantMissing: []string{"python", "sql"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Score(tt.resume, tt.job)
			if got.Score != tt.wantScore {
				t.Fatalf("score = %d, want %d", got.Score, tt.wantScore)
			}
			if got.Verdict != tt.wantVerdict {
				t.Fatalf("verdict = %s, want %s", got.Verdict, tt.wantVerdict)
			}
			if !reflect.DeepEqual(got.Missing, tt.wantMissing) {
				t.Fatalf("missing = %v, want %v", got.Missing, tt.wantMissing)
			}
		})
	}
}

func TestScoreIdenticalTextIsFullMatch(t *testing.T) {
	inputs := []string{
		"python",
		"Senior Go engineer with Kubernetes and AWS experience",
		"a a a b\n\nc",
	}
	for _, text := range inputs {
		got := Score(text, text)
		if got.Score != 100 || got.Verdict != Relevant {
			t.Fatalf("Score(%q, %q) = %d/%s, want 100/Relevant", text, text, got.Score, got.Verdict)
		}
		if len(got.Missing) != 0 {
			t.Fatalf("expected no missing tokens, got %v", got.Missing)
		}
	}
}

func TestScoreRangeAndIdempotence(t *testing.T) {
	texts := []string{
		"",
		" ",
		"python",
		"python java go",
		"PYTHON python PyThOn",
		"go rust c++ java kotlin swift python sql aws gcp azure",
		"ünïcödé straße STRASSE",
	}
	for _, resume := range texts {
		for _, job := range texts {
			first := Score(resume, job)
			if first.Score < 0 || first.Score > 100 {
				t.Fatalf("Score(%q, %q) = %d out of range", resume, job, first.Score)
			}
			second := Score(resume, job)
			if !reflect.DeepEqual(first, second) {
				t.Fatalf("Score(%q, %q) not idempotent: %+v vs %+v", resume, job, first, second)
			}
			if strings.TrimSpace(job) == "" && first.Score != 0 {
				t.Fatalf("empty job must score 0, got %d", first.Score)
			}
			if len(first.Matched)+len(first.Missing) != first.JobTokens {
				t.Fatalf("matched+missing must cover job tokens: %+v", first)
			}
		}
	}
}

func TestScoreFloorsTheRatio(t *testing.T) {
	got := Score("a", "a b c d e f g")
	// 100/7 = 14.28...
	if got.Score != 14 {
		t.Fatalf("expected 14, got %d", got.Score)
	}
}

func TestTokenize(t *testing.T) {
	got := Tokenize("  Go go\tSQL\n\nsql  ")
	want := map[string]struct{}{"go": {}, "sql": {}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Tokenize = %v, want %v", got, want)
	}
}

func TestDisplayMissing(t *testing.T) {
	missing := []string{"a", "b", "c", "d", "e", "f", "g"}
	if got := DisplayMissing(missing); !reflect.DeepEqual(got, []string{"a", "b", "c", "d", "e"}) {
		t.Fatalf("unexpected display list: %v", got)
	}
	if got := DisplayMissing([]string{"x"}); !reflect.DeepEqual(got, []string{"x"}) {
		t.Fatalf("unexpected display list: %v", got)
	}
}

func TestVerdictJSON(t *testing.T) {
	payload, err := json.Marshal(map[string]Verdict{"a": Relevant, "b": NotRelevant})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(payload) != `{"a":"Relevant","b":"Not Relevant"}` {
		t.Fatalf("unexpected json: %s", payload)
	}

	var decoded map[string]Verdict
	if err := json.Unmarshal(payload, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded["a"] != Relevant || decoded["b"] != NotRelevant {
		t.Fatalf("unexpected decoded verdicts: %v", decoded)
	}

	for _, bad := range []string{`"relevant"`, `"Maybe"`, `""`} {
		var v Verdict
		if err := json.Unmarshal([]byte(bad), &v); err == nil {
			t.Fatalf("expected error decoding %s, got %v", bad, v)
		}
	}
}

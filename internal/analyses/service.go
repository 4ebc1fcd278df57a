package analyses

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/chethana369/Auto-resume-checker/internal/extract"
	"github.com/chethana369/Auto-resume-checker/internal/scoring"
	"github.com/chethana369/Auto-resume-checker/internal/sessions"
	"github.com/chethana369/Auto-resume-checker/internal/shared/metrics"
	"github.com/chethana369/Auto-resume-checker/internal/shared/telemetry"
	"github.com/chethana369/Auto-resume-checker/internal/shared/util"
)

const defaultMaxResumes = 50

// JobDescriptions resolves the job description of a session.
type JobDescriptions interface {
	JobDescription(ctx context.Context, sessionID string) (sessions.Session, error)
}

// ProgressFunc is called once per processed resume with the running count.
type ProgressFunc func(done, total int)

// Service contains business logic for analysis runs.
type Service struct {
	Repo       Repo
	Sessions   JobDescriptions
	MaxResumes int
	// RunTTL bounds how long a run is kept. Non-positive disables pruning.
	RunTTL time.Duration
	Now    func() time.Time
}

// Analyze scores every upload against the session's job description, one file at a time,
// and stores the run. A file that cannot be read becomes a Failure and the run continues.
func (s *Service) Analyze(ctx context.Context, sessionID string, uploads []Upload, progress ProgressFunc) (Run, error) {
	if len(uploads) == 0 {
		return Run{}, ErrNoFiles
	}
	if limit := s.maxResumes(); len(uploads) > limit {
		return Run{}, fmt.Errorf("%w: %d files, limit %d", ErrTooManyFiles, len(uploads), limit)
	}

	session, err := s.Sessions.JobDescription(ctx, sessionID)
	if err != nil {
		return Run{}, err
	}

	start := time.Now()
	metrics.IncRunStarted()

	run := Run{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		JobSource: session.JobSource,
		Results:   []Result{},
		Failures:  []Failure{},
		CreatedAt: s.now(),
	}

	total := len(uploads)
	for i, upload := range uploads {
		if err := ctx.Err(); err != nil {
			telemetry.Warn("analysis.run_cancelled", map[string]any{
				"session_id": sessionID,
				"run_id":     run.ID,
				"processed":  i,
				"total":      total,
			})
			return Run{}, err
		}

		name := util.DisplayName(upload.Name)
		fileStart := time.Now()
		result, err := scoreUpload(ctx, upload, name, session.JobDescription)
		metrics.ObserveResumeDurationMs(float64(time.Since(fileStart).Microseconds()) / 1000.0)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
				return Run{}, ctxErr
			}
			metrics.IncResumeFailed()
			telemetry.Warn("analysis.resume_failed", map[string]any{
				"session_id": sessionID,
				"run_id":     run.ID,
				"file":       name,
				"error":      err,
			})
			run.Failures = append(run.Failures, Failure{ResumeName: name, Error: err.Error()})
		} else {
			metrics.IncResumeScored()
			run.Results = append(run.Results, result)
		}

		if progress != nil {
			progress(i+1, total)
		}
	}

	if err := s.Repo.Create(ctx, run); err != nil {
		return Run{}, fmt.Errorf("store run: %w", err)
	}

	durationMs := float64(time.Since(start).Microseconds()) / 1000.0
	metrics.IncRunCompleted()
	metrics.ObserveRunDurationMs(durationMs)
	telemetry.Info("analysis.run_complete", map[string]any{
		"session_id":  sessionID,
		"run_id":      run.ID,
		"scored":      len(run.Results),
		"failed":      len(run.Failures),
		"duration_ms": durationMs,
	})
	return run, nil
}

// Get returns a run owned by sessionID. Runs of an expired session are not found.
func (s *Service) Get(ctx context.Context, sessionID, runID string) (Run, error) {
	if strings.TrimSpace(runID) == "" {
		return Run{}, ErrNotFound
	}
	if err := s.requireLiveSession(ctx, sessionID); err != nil {
		return Run{}, err
	}
	run, err := s.Repo.GetByID(ctx, runID)
	if err != nil {
		return Run{}, err
	}
	if run.SessionID != sessionID {
		return Run{}, ErrNotFound
	}
	return run, nil
}

// Latest returns the newest run of a live session.
func (s *Service) Latest(ctx context.Context, sessionID string) (Run, error) {
	if err := s.requireLiveSession(ctx, sessionID); err != nil {
		return Run{}, err
	}
	return s.Repo.Latest(ctx, sessionID)
}

// Prune deletes runs older than RunTTL.
func (s *Service) Prune(ctx context.Context) (int, error) {
	if s.RunTTL <= 0 {
		return 0, nil
	}
	n, err := s.Repo.Prune(ctx, s.now().Add(-s.RunTTL))
	if err != nil {
		return 0, fmt.Errorf("prune runs: %w", err)
	}
	if n > 0 {
		telemetry.Info("analysis.runs_pruned", map[string]any{"count": n})
	}
	return n, nil
}

func (s *Service) requireLiveSession(ctx context.Context, sessionID string) error {
	if _, err := s.Sessions.JobDescription(ctx, sessionID); err != nil {
		if errors.Is(err, sessions.ErrNoJobDescription) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

// ResumeMediaType resolves an upload to PDF or Word. Anything else is ErrUnsupportedType.
func ResumeMediaType(upload Upload) (extract.MediaType, error) {
	mt := extract.ResolveMediaType(upload.ContentType, upload.Name, upload.Data)
	switch mt {
	case extract.MediaPDF, extract.MediaDOCX:
		return mt, nil
	default:
		return "", ErrUnsupportedType
	}
}

func scoreUpload(ctx context.Context, upload Upload, name, jobText string) (Result, error) {
	mt, err := ResumeMediaType(upload)
	if err != nil {
		return Result{}, err
	}
	text, err := extract.Extract(ctx, extract.Document{Name: name, MediaType: mt, Data: upload.Data})
	if err != nil {
		return Result{}, err
	}

	scored := scoring.Score(text, jobText)
	return Result{
		ResumeName:    name,
		Score:         scored.Score,
		Verdict:       scored.Verdict,
		Missing:       scored.Missing,
		MatchedCount:  len(scored.Matched),
		JobTokenCount: scored.JobTokens,
	}, nil
}

func (s *Service) maxResumes() int {
	if s.MaxResumes > 0 {
		return s.MaxResumes
	}
	return defaultMaxResumes
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

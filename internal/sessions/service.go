package sessions

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/chethana369/Auto-resume-checker/internal/extract"
	"github.com/chethana369/Auto-resume-checker/internal/scoring"
	"github.com/chethana369/Auto-resume-checker/internal/shared/metrics"
	"github.com/chethana369/Auto-resume-checker/internal/shared/telemetry"
)

// Service holds the job description of each session.
type Service struct {
	Repo Repo
	Now  func() time.Time
}

// SetJobDescription replaces the session's job description. A blank text leaves the stored
// description untouched and returns ErrEmptyJobDescription.
func (s *Service) SetJobDescription(ctx context.Context, sessionID, text, source string) (Session, error) {
	if strings.TrimSpace(sessionID) == "" {
		return Session{}, fmt.Errorf("%w: session id is required", ErrInvalidInput)
	}
	if strings.TrimSpace(text) == "" {
		return Session{}, ErrEmptyJobDescription
	}
	if strings.TrimSpace(source) == "" {
		source = SourcePasted
	}

	now := s.now()
	session, err := s.Repo.Get(ctx, sessionID)
	switch {
	case errors.Is(err, ErrNotFound):
		session = Session{ID: sessionID, CreatedAt: now}
	case err != nil:
		return Session{}, fmt.Errorf("load session: %w", err)
	}

	session.JobDescription = text
	session.JobSource = source
	session.UpdatedAt = now
	if session.CreatedAt.IsZero() {
		session.CreatedAt = now
	}

	if err := s.Repo.Upsert(ctx, session); err != nil {
		return Session{}, fmt.Errorf("store session: %w", err)
	}

	metrics.IncJobDescriptionSet()
	telemetry.Info("session.job_description_set", map[string]any{
		"session_id": sessionID,
		"source":     source,
		"chars":      len(text),
		"tokens":     len(scoring.Tokenize(text)),
	})
	return session, nil
}

// SetJobDescriptionFromFile extracts doc and stores its text as the job description.
// Extraction failures are returned as *extract.DecodeError.
func (s *Service) SetJobDescriptionFromFile(ctx context.Context, sessionID string, doc extract.Document) (Session, error) {
	text, err := extract.Extract(ctx, doc)
	if err != nil {
		telemetry.Warn("session.job_description_decode_failed", map[string]any{
			"session_id": sessionID,
			"file":       doc.Name,
			"media_type": string(doc.MediaType),
			"error":      err,
		})
		return Session{}, err
	}
	return s.SetJobDescription(ctx, sessionID, text, UploadSource(doc.Name))
}

// JobDescription returns the session holding a non-empty job description, or
// ErrNoJobDescription.
func (s *Service) JobDescription(ctx context.Context, sessionID string) (Session, error) {
	if strings.TrimSpace(sessionID) == "" {
		return Session{}, ErrNoJobDescription
	}
	session, err := s.Repo.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Session{}, ErrNoJobDescription
		}
		return Session{}, fmt.Errorf("load session: %w", err)
	}
	if !session.HasJobDescription() {
		return Session{}, ErrNoJobDescription
	}
	return session, nil
}

// Prune drops expired sessions.
func (s *Service) Prune(ctx context.Context) (int, error) {
	n, err := s.Repo.Prune(ctx)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		telemetry.Info("session.pruned", map[string]any{"count": n})
	}
	return n, nil
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

package analyses

import (
	"context"
	"time"
)

// Repo defines persistence operations for analysis runs.
type Repo interface {
	Create(ctx context.Context, run Run) error
	GetByID(ctx context.Context, runID string) (Run, error)
	Latest(ctx context.Context, sessionID string) (Run, error)
	// Prune deletes runs created at or before cutoff and returns how many were removed.
	Prune(ctx context.Context, cutoff time.Time) (int, error)
}

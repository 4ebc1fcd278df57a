package analyses

import (
	"context"
	"sync"
	"time"
)

// maxRunsPerSession bounds how many runs the memory repo keeps for one session.
const maxRunsPerSession = 20

// MemoryRepo stores runs in memory and is safe for concurrent use.
type MemoryRepo struct {
	mu        sync.RWMutex
	byID      map[string]Run
	bySession map[string][]string
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		byID:      make(map[string]Run),
		bySession: make(map[string][]string),
	}
}

// Create stores the run, evicting the session's oldest runs beyond maxRunsPerSession.
func (r *MemoryRepo) Create(ctx context.Context, run Run) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[run.ID] = run
	ids := append(r.bySession[run.SessionID], run.ID)
	if len(ids) > maxRunsPerSession {
		for _, old := range ids[:len(ids)-maxRunsPerSession] {
			delete(r.byID, old)
		}
		ids = append([]string(nil), ids[len(ids)-maxRunsPerSession:]...)
	}
	r.bySession[run.SessionID] = ids
	return nil
}

// GetByID returns a run by its ID.
func (r *MemoryRepo) GetByID(ctx context.Context, runID string) (Run, error) {
	if err := ctx.Err(); err != nil {
		return Run{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	run, ok := r.byID[runID]
	if !ok {
		return Run{}, ErrNotFound
	}
	return run, nil
}

// Latest returns the most recently created run of a session.
func (r *MemoryRepo) Latest(ctx context.Context, sessionID string) (Run, error) {
	if err := ctx.Err(); err != nil {
		return Run{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := r.bySession[sessionID]
	if len(ids) == 0 {
		return Run{}, ErrNotFound
	}
	return r.byID[ids[len(ids)-1]], nil
}

// Prune removes runs created at or before cutoff and drops sessions left without runs.
func (r *MemoryRepo) Prune(ctx context.Context, cutoff time.Time) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for sessionID, ids := range r.bySession {
		kept := ids[:0]
		for _, id := range ids {
			if r.byID[id].CreatedAt.After(cutoff) {
				kept = append(kept, id)
				continue
			}
			delete(r.byID, id)
			removed++
		}
		if len(kept) == 0 {
			delete(r.bySession, sessionID)
			continue
		}
		r.bySession[sessionID] = kept
	}
	return removed, nil
}

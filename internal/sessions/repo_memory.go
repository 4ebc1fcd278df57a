package sessions

import (
	"context"
	"sync"
	"time"
)

// MemoryRepo stores sessions in memory and is safe for concurrent use.
// Sessions not updated within ttl are treated as absent.
type MemoryRepo struct {
	mu   sync.RWMutex
	byID map[string]Session
	ttl  time.Duration
	now  func() time.Time
}

// NewMemoryRepo constructs a MemoryRepo. A non-positive ttl disables expiry.
func NewMemoryRepo(ttl time.Duration, now func() time.Time) *MemoryRepo {
	if now == nil {
		now = time.Now
	}
	return &MemoryRepo{
		byID: make(map[string]Session),
		ttl:  ttl,
		now:  now,
	}
}

// Get returns a live session by ID.
func (r *MemoryRepo) Get(ctx context.Context, sessionID string) (Session, error) {
	if err := ctx.Err(); err != nil {
		return Session{}, err
	}
	r.mu.RLock()
	session, ok := r.byID[sessionID]
	r.mu.RUnlock()
	if !ok {
		return Session{}, ErrNotFound
	}
	if r.expired(session) {
		r.mu.Lock()
		if current, ok := r.byID[sessionID]; ok && r.expired(current) {
			delete(r.byID, sessionID)
		}
		r.mu.Unlock()
		return Session{}, ErrNotFound
	}
	return session, nil
}

// Upsert stores the session, keeping the original CreatedAt of an existing one.
func (r *MemoryRepo) Upsert(ctx context.Context, session Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.byID[session.ID]; ok && !existing.CreatedAt.IsZero() {
		session.CreatedAt = existing.CreatedAt
	}
	r.byID[session.ID] = session
	return nil
}

// Prune removes expired sessions and returns how many were dropped.
func (r *MemoryRepo) Prune(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for id, session := range r.byID {
		if r.expired(session) {
			delete(r.byID, id)
			removed++
		}
	}
	return removed, nil
}

func (r *MemoryRepo) expired(session Session) bool {
	if r.ttl <= 0 {
		return false
	}
	return r.now().Sub(session.UpdatedAt) > r.ttl
}

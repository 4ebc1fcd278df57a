package sessions

import "context"

// Repo defines persistence operations for sessions.
type Repo interface {
	Get(ctx context.Context, sessionID string) (Session, error)
	Upsert(ctx context.Context, session Session) error
	Prune(ctx context.Context) (int, error)
}

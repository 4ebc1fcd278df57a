package sessions

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB  *sql.DB
	TTL time.Duration
	Now func() time.Time
}

// Get returns a session updated within TTL.
func (r *PGRepo) Get(ctx context.Context, sessionID string) (Session, error) {
	const query = `
SELECT id, job_description, job_source, created_at, updated_at
FROM sessions
WHERE id = $1 AND updated_at > $2
LIMIT 1`
	var s Session
	err := r.DB.QueryRowContext(ctx, query, sessionID, r.cutoff()).Scan(
		&s.ID,
		&s.JobDescription,
		&s.JobSource,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Session{}, ErrNotFound
		}
		return Session{}, err
	}
	return s, nil
}

// Upsert inserts the session or replaces its job description.
func (r *PGRepo) Upsert(ctx context.Context, session Session) error {
	const query = `
INSERT INTO sessions (id, job_description, job_source, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (id) DO UPDATE
SET job_description = EXCLUDED.job_description,
    job_source = EXCLUDED.job_source,
    updated_at = EXCLUDED.updated_at`
	_, err := r.DB.ExecContext(ctx, query,
		session.ID,
		session.JobDescription,
		session.JobSource,
		session.CreatedAt,
		session.UpdatedAt,
	)
	return err
}

// Prune deletes sessions older than TTL.
func (r *PGRepo) Prune(ctx context.Context) (int, error) {
	if r.TTL <= 0 {
		return 0, nil
	}
	res, err := r.DB.ExecContext(ctx, `DELETE FROM sessions WHERE updated_at <= $1`, r.cutoff())
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

func (r *PGRepo) cutoff() time.Time {
	if r.TTL <= 0 {
		return time.Time{}
	}
	now := time.Now
	if r.Now != nil {
		now = r.Now
	}
	return now().UTC().Add(-r.TTL)
}

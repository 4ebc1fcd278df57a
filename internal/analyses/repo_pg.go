package analyses

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// Create inserts a new run.
func (r *PGRepo) Create(ctx context.Context, run Run) error {
	const query = `
INSERT INTO analysis_runs (id, session_id, job_source, results, failures, created_at)
VALUES ($1, $2, $3, $4, $5, $6)`
	if run.Results == nil {
		run.Results = []Result{}
	}
	if run.Failures == nil {
		run.Failures = []Failure{}
	}
	results, err := marshalJSONB(run.Results)
	if err != nil {
		return fmt.Errorf("marshal results: %w", err)
	}
	failures, err := marshalJSONB(run.Failures)
	if err != nil {
		return fmt.Errorf("marshal failures: %w", err)
	}
	_, err = r.DB.ExecContext(ctx, query,
		run.ID,
		run.SessionID,
		run.JobSource,
		results,
		failures,
		run.CreatedAt,
	)
	return err
}

// GetByID returns a run by ID.
func (r *PGRepo) GetByID(ctx context.Context, runID string) (Run, error) {
	const query = `
SELECT id, session_id, job_source, results, failures, created_at
FROM analysis_runs
WHERE id = $1
LIMIT 1`
	return scanRun(r.DB.QueryRowContext(ctx, query, runID))
}

// Latest returns the newest run of a session.
func (r *PGRepo) Latest(ctx context.Context, sessionID string) (Run, error) {
	const query = `
SELECT id, session_id, job_source, results, failures, created_at
FROM analysis_runs
WHERE session_id = $1
ORDER BY created_at DESC
LIMIT 1`
	return scanRun(r.DB.QueryRowContext(ctx, query, sessionID))
}

// Prune deletes runs created at or before cutoff.
func (r *PGRepo) Prune(ctx context.Context, cutoff time.Time) (int, error) {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM analysis_runs WHERE created_at <= $1`, cutoff)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

func scanRun(row *sql.Row) (Run, error) {
	var (
		run      Run
		results  []byte
		failures []byte
	)
	if err := row.Scan(&run.ID, &run.SessionID, &run.JobSource, &results, &failures, &run.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, ErrNotFound
		}
		return Run{}, err
	}
	if err := unmarshalJSONB(results, &run.Results); err != nil {
		return Run{}, fmt.Errorf("decode results: %w", err)
	}
	if err := unmarshalJSONB(failures, &run.Failures); err != nil {
		return Run{}, fmt.Errorf("decode failures: %w", err)
	}
	return run, nil
}

func marshalJSONB(value any) ([]byte, error) {
	if value == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(value)
}

func unmarshalJSONB(raw []byte, dest any) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, dest)
}

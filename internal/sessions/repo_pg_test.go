package sessions

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestPGRepoGetAppliesTTLCutoff(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	now := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	repo := &PGRepo{DB: db, TTL: 24 * time.Hour, Now: func() time.Time { return now }}

	rows := sqlmock.NewRows([]string{"id", "job_description", "job_source", "created_at", "updated_at"}).
		AddRow("s1", "python sql", "pasted", now.Add(-time.Hour), now.Add(-time.Minute))
	mock.ExpectQuery("SELECT id, job_description, job_source, created_at, updated_at FROM sessions").
		WithArgs("s1", now.Add(-24*time.Hour)).
		WillReturnRows(rows)

	got, err := repo.Get(context.Background(), "s1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.JobDescription != "python sql" || got.JobSource != "pasted" {
		t.Fatalf("unexpected session: %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoGetMissingIsNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db, TTL: time.Hour}
	mock.ExpectQuery("SELECT id, job_description").
		WithArgs("missing", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "job_description", "job_source", "created_at", "updated_at"}))

	if _, err := repo.Get(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoUpsert(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}
	now := time.Now().UTC()
	session := Session{ID: "s1", JobDescription: "go", JobSource: "upload:jd.txt", CreatedAt: now, UpdatedAt: now}

	mock.ExpectExec("INSERT INTO sessions").
		WithArgs(session.ID, session.JobDescription, session.JobSource, session.CreatedAt, session.UpdatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Upsert(context.Background(), session); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoPrune(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	now := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	repo := &PGRepo{DB: db, TTL: time.Hour, Now: func() time.Time { return now }}
	mock.ExpectExec("DELETE FROM sessions").
		WithArgs(now.Add(-time.Hour)).
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := repo.Prune(context.Background())
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if n != 3 {
		t.Fatalf("expected 3 pruned rows, got %d", n)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

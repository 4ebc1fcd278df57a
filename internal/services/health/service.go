package health

import (
	"context"
	"database/sql"
	"time"
)

const pingTimeout = 2 * time.Second

// Service reports whether the API and its session store are reachable.
type Service struct {
	DB *sql.DB
}

// NewService constructs a new health service. db may be nil when sessions are kept in memory.
func NewService(db *sql.DB) *Service {
	return &Service{DB: db}
}

// Status returns the health payload and whether every dependency is up.
func (s *Service) Status(ctx context.Context) (map[string]any, bool) {
	if s == nil || s.DB == nil {
		return map[string]any{"ok": true, "storage": "memory"}, true
	}

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := s.DB.PingContext(ctx); err != nil {
		return map[string]any{"ok": false, "storage": "postgres", "error": "database unreachable"}, false
	}
	return map[string]any{"ok": true, "storage": "postgres"}, true
}

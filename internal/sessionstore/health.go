package sessionstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
)

// Health describes the database for status output.
type Health struct {
	DBPath         string
	SchemaVersion  string
	Readable       bool
	IntegrityCheck bool
	Artifacts      int
	Questions      int
	Error          string
}

// CheckHealth pings the database and runs an integrity check.
func (s *Store) CheckHealth(ctx context.Context) (Health, error) {
	health := Health{DBPath: s.path}
	if s.path == "" {
		return health, errors.New("session database path is unknown")
	}
	if info, err := os.Stat(s.path); err != nil {
		return health, fmt.Errorf("stat session database: %w", err)
	} else if info.IsDir() {
		return health, fmt.Errorf("session database path %q is a directory", s.path)
	}

	connCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := s.db.PingContext(connCtx); err != nil {
		health.Error = err.Error()
		return health, fmt.Errorf("ping session database: %w", err)
	}
	health.Readable = true

	version, err := s.SchemaVersion(connCtx)
	if err != nil {
		health.Error = err.Error()
		return health, err
	}
	health.SchemaVersion = version

	if err := s.db.QueryRowContext(connCtx, "SELECT COUNT(*) FROM artifacts").Scan(&health.Artifacts); err != nil {
		health.Error = err.Error()
		return health, fmt.Errorf("count artifacts: %w", err)
	}
	if err := s.db.QueryRowContext(connCtx, "SELECT COUNT(*) FROM qa_history").Scan(&health.Questions); err != nil {
		health.Error = err.Error()
		return health, fmt.Errorf("count questions: %w", err)
	}

	var integrity string
	if err := s.db.QueryRowContext(connCtx, "PRAGMA integrity_check").Scan(&integrity); err != nil {
		health.Error = err.Error()
		return health, fmt.Errorf("integrity check: %w", err)
	}
	health.IntegrityCheck = strings.EqualFold(integrity, "ok")
	return health, nil
}

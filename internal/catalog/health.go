package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
)

// Health summarizes catalog diagnostics.
type Health struct {
	Path           string
	Exists         bool
	Readable       bool
	TableExists    bool
	SchemaVersion  string
	Records        int
	MissingColumns []string
	IntegrityOK    bool
}

var expectedColumns = []string{"id", "author_name", "experiment_name", "archive_path", "metadata_content", "created_at"}

// CheckHealth inspects the database file, schema and integrity.
func (s *Store) CheckHealth(ctx context.Context) (Health, error) {
	health := Health{Path: s.path}

	info, err := os.Stat(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return health, nil
		}
		return health, fmt.Errorf("stat catalog: %w", err)
	}
	if info.IsDir() {
		return health, fmt.Errorf("catalog path %q is a directory", s.path)
	}
	health.Exists = true

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := s.db.PingContext(ctx); err != nil {
		return health, fmt.Errorf("ping catalog: %w", err)
	}
	health.Readable = true

	var table string
	err = s.db.QueryRowContext(ctx, "SELECT name FROM sqlite_master WHERE type = 'table' AND name = 'experiment_data'").Scan(&table)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return health, fmt.Errorf("query table info: %w", err)
	default:
		health.TableExists = true
	}

	if health.TableExists {
		columns, err := s.columns(ctx)
		if err != nil {
			return health, err
		}
		for _, want := range expectedColumns {
			if _, ok := columns[want]; !ok {
				health.MissingColumns = append(health.MissingColumns, want)
			}
		}
		if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM experiment_data").Scan(&health.Records); err != nil {
			return health, fmt.Errorf("count records: %w", err)
		}
	}
	if version, err := s.SchemaVersion(ctx); err == nil {
		health.SchemaVersion = version
	}

	var integrity string
	if err := s.db.QueryRowContext(ctx, "PRAGMA integrity_check").Scan(&integrity); err != nil {
		return health, fmt.Errorf("integrity check: %w", err)
	}
	health.IntegrityOK = strings.EqualFold(integrity, "ok")
	return health, nil
}

func (s *Store) columns(ctx context.Context) (map[string]struct{}, error) {
	rows, err := s.db.QueryContext(ctx, "PRAGMA table_info(experiment_data)")
	if err != nil {
		return nil, fmt.Errorf("table info: %w", err)
	}
	defer rows.Close()

	columns := make(map[string]struct{})
	for rows.Next() {
		var (
			cid     int
			name    string
			typeStr string
			notNull int
			dflt    any
			pk      int
		)
		if err := rows.Scan(&cid, &name, &typeStr, &notNull, &dflt, &pk); err != nil {
			return nil, fmt.Errorf("scan table info: %w", err)
		}
		columns[name] = struct{}{}
	}
	return columns, rows.Err()
}

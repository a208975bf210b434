package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"modernc.org/sqlite"

	"imgvault/internal/config"
	"imgvault/internal/logging"
	"imgvault/internal/services"
)

// Record is one catalogued experiment.
type Record struct {
	ID          int64
	Author      string
	Name        string
	ArchivePath string
	Metadata    string
	CreatedAt   time.Time
}

// Store is the experiment catalog backed by SQLite.
type Store struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
}

// Option customizes a Store.
type Option func(*Store)

// WithLogger attaches a logger for catalog events.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logging.NewComponentLogger(logger, "catalog")
	}
}

// Open connects to the catalog database configured in cfg and applies
// pending migrations.
func Open(cfg *config.Config, opts ...Option) (*Store, error) {
	return OpenPath(context.Background(), cfg.Paths.CatalogPath, opts...)
}

// OpenPath opens the catalog at an explicit path.
func OpenPath(ctx context.Context, path string, opts ...Option) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, services.Wrap(services.ErrStorageUnavailable, "catalog", "open", "create catalog directory", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, services.Wrap(services.ErrStorageUnavailable, "catalog", "open", path, err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.ExecContext(ctx, pragma); execErr != nil {
			_ = db.Close()
			return nil, services.Wrap(services.ErrStorageUnavailable, "catalog", "open", fmt.Sprintf("apply pragma %q", pragma), execErr)
		}
	}

	store := &Store{db: db, path: path, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(store)
	}
	if err := store.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, services.Wrap(services.ErrStorageUnavailable, "catalog", "migrate", path, err)
	}
	return store, nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Exists reports whether an experiment name is already catalogued.
func (s *Store) Exists(ctx context.Context, name string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM experiment_data WHERE experiment_name = ?`, name).Scan(&count)
	if err != nil {
		return false, services.Wrap(services.ErrStorageUnavailable, "catalog", "exists", name, err)
	}
	return count > 0, nil
}

// Insert adds a record. A duplicate name yields ErrDuplicateExperiment.
func (s *Store) Insert(ctx context.Context, rec Record) error {
	created := rec.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO experiment_data (author_name, experiment_name, archive_path, metadata_content, created_at)
         VALUES (?, ?, ?, ?, ?)`,
		rec.Author,
		rec.Name,
		rec.ArchivePath,
		rec.Metadata,
		created.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return services.Wrap(services.ErrDuplicateExperiment, "catalog", "insert", rec.Name, nil)
		}
		return services.Wrap(services.ErrStorageUnavailable, "catalog", "insert", rec.Name, err)
	}
	s.logger.InfoContext(ctx, "experiment catalogued",
		logging.String(logging.FieldExperiment, rec.Name),
		logging.String("archive_path", rec.ArchivePath),
	)
	return nil
}

// SelectAll returns every record in insertion order.
func (s *Store) SelectAll(ctx context.Context) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+recordColumns+` FROM experiment_data ORDER BY id`)
	if err != nil {
		return nil, services.Wrap(services.ErrStorageUnavailable, "catalog", "select all", "", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, services.Wrap(services.ErrStorageUnavailable, "catalog", "scan record", "", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, services.Wrap(services.ErrStorageUnavailable, "catalog", "select all", "", err)
	}
	return records, nil
}

// Get returns the record for name or ErrNotFound.
func (s *Store) Get(ctx context.Context, name string) (Record, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+recordColumns+` FROM experiment_data WHERE experiment_name = ?`, name)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, services.Wrap(services.ErrNotFound, "catalog", "get", name, nil)
	}
	if err != nil {
		return Record{}, services.Wrap(services.ErrStorageUnavailable, "catalog", "get", name, err)
	}
	return rec, nil
}

// SelectPath returns the archive path recorded for name or ErrNotFound.
func (s *Store) SelectPath(ctx context.Context, name string) (string, error) {
	var path sql.NullString
	err := s.db.QueryRowContext(ctx, `SELECT archive_path FROM experiment_data WHERE experiment_name = ?`, name).Scan(&path)
	if errors.Is(err, sql.ErrNoRows) {
		return "", services.Wrap(services.ErrNotFound, "catalog", "select path", name, nil)
	}
	if err != nil {
		return "", services.Wrap(services.ErrStorageUnavailable, "catalog", "select path", name, err)
	}
	return path.String, nil
}

// Delete removes the record for name. No matching row yields ErrNotFound.
func (s *Store) Delete(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM experiment_data WHERE experiment_name = ?`, name)
	if err != nil {
		return services.Wrap(services.ErrStorageUnavailable, "catalog", "delete", name, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return services.Wrap(services.ErrStorageUnavailable, "catalog", "delete", "rows affected", err)
	}
	if affected == 0 {
		return services.Wrap(services.ErrNotFound, "catalog", "delete", name, nil)
	}
	s.logger.InfoContext(ctx, "experiment removed from catalog", logging.String(logging.FieldExperiment, name))
	return nil
}

const recordColumns = "id, author_name, experiment_name, archive_path, metadata_content, created_at"

func scanRecord(scanner interface{ Scan(dest ...any) error }) (Record, error) {
	var (
		rec        Record
		author     sql.NullString
		name       sql.NullString
		path       sql.NullString
		content    sql.NullString
		createdRaw sql.NullString
	)
	if err := scanner.Scan(&rec.ID, &author, &name, &path, &content, &createdRaw); err != nil {
		return Record{}, err
	}
	rec.Author = author.String
	rec.Name = name.String
	rec.ArchivePath = path.String
	rec.Metadata = content.String
	if createdRaw.Valid {
		if created, err := time.Parse(time.RFC3339Nano, createdRaw.String); err == nil {
			rec.CreatedAt = created
		}
	}
	return rec, nil
}

// Extended SQLite result codes.
const (
	sqliteConstraintPrimaryKey = 1555
	sqliteConstraintUnique     = 2067
)

func isUniqueViolation(err error) bool {
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		code := sqliteErr.Code()
		return code == sqliteConstraintUnique || code == sqliteConstraintPrimaryKey
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

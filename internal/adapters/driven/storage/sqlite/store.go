package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nordvig-labs/byggqa-cli/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/nordvig-labs/byggqa-cli/internal/core/domain"
	"github.com/nordvig-labs/byggqa-cli/internal/core/ports/driven"
)

// Store is a unified SQLite-based storage for pipeline run records and
// query analytics, exposed through wrapper types per store interface.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.byggqa/data/runs.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".byggqa", "data")
	}

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "runs.db")

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	// Run migrations
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// RunStore returns a RunStore interface backed by this store.
func (s *Store) RunStore() driven.RunStore {
	return &runStore{store: s}
}

// QueryRunStore returns a QueryRunStore interface backed by this store.
func (s *Store) QueryRunStore() driven.QueryRunStore {
	return &queryRunStore{store: s}
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	// Ensure schema_migrations table exists
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	// Get current version
	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	// Find all up migrations
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	// Sort and run migrations
	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_initial.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}

		if version <= currentVersion {
			continue // Already applied
		}

		// Read and execute migration
		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(
			"INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// ==================== Run Store ====================

// runStore implements driven.RunStore.
type runStore struct {
	store *Store
}

var _ driven.RunStore = (*runStore)(nil)

// SaveRun stores or updates an indexing run. Called after every
// pipeline step, so partial progress survives a crash.
func (s *runStore) SaveRun(ctx context.Context, run *domain.IndexingRun) error {
	if run.ID == "" {
		return domain.ErrInvalidInput
	}

	stepsJSON, err := json.Marshal(run.Steps)
	if err != nil {
		return fmt.Errorf("marshalling steps: %w", err)
	}
	statsJSON, err := json.Marshal(run.Stats)
	if err != nil {
		return fmt.Errorf("marshalling stats: %w", err)
	}

	var finishedAt any
	if !run.FinishedAt.IsZero() {
		finishedAt = run.FinishedAt
	}

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO indexing_runs
			(id, document_id, status, embedding_model, steps, stats, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			steps = excluded.steps,
			stats = excluded.stats,
			finished_at = excluded.finished_at
	`, run.ID, run.DocumentID, string(run.Status), run.EmbeddingModel,
		string(stepsJSON), string(statsJSON), run.StartedAt, finishedAt)

	if err != nil {
		return fmt.Errorf("saving indexing run: %w", err)
	}
	return nil
}

// GetRun retrieves an indexing run by ID.
func (s *runStore) GetRun(ctx context.Context, id string) (*domain.IndexingRun, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, document_id, status, embedding_model, steps, stats, started_at, finished_at
		FROM indexing_runs WHERE id = ?
	`, id)

	return scanRun(row.Scan)
}

// LatestRun retrieves the most recently started run for a document.
func (s *runStore) LatestRun(ctx context.Context, documentID string) (*domain.IndexingRun, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, document_id, status, embedding_model, steps, stats, started_at, finished_at
		FROM indexing_runs WHERE document_id = ?
		ORDER BY started_at DESC LIMIT 1
	`, documentID)

	return scanRun(row.Scan)
}

// ListRuns returns all indexing runs, newest first.
func (s *runStore) ListRuns(ctx context.Context) ([]domain.IndexingRun, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, document_id, status, embedding_model, steps, stats, started_at, finished_at
		FROM indexing_runs
		ORDER BY started_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("querying indexing runs: %w", err)
	}
	defer rows.Close()

	var runs []domain.IndexingRun //nolint:prealloc // size unknown from query
	for rows.Next() {
		run, err := scanRun(rows.Scan)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating indexing runs: %w", err)
	}

	return runs, nil
}

// scanRun scans one indexing run row through the given scan function,
// so *sql.Row and *sql.Rows share a single decode path.
func scanRun(scan func(...any) error) (*domain.IndexingRun, error) {
	var run domain.IndexingRun
	var status, stepsJSON, statsJSON string
	var finishedAt sql.NullTime

	err := scan(&run.ID, &run.DocumentID, &status, &run.EmbeddingModel,
		&stepsJSON, &statsJSON, &run.StartedAt, &finishedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning indexing run: %w", err)
	}

	run.Status = domain.RunStatus(status)
	if finishedAt.Valid {
		run.FinishedAt = finishedAt.Time
	}
	if err := json.Unmarshal([]byte(stepsJSON), &run.Steps); err != nil {
		return nil, fmt.Errorf("unmarshalling steps: %w", err)
	}
	if err := json.Unmarshal([]byte(statsJSON), &run.Stats); err != nil {
		return nil, fmt.Errorf("unmarshalling stats: %w", err)
	}

	return &run, nil
}

// ==================== Query Run Store ====================

// queryRunStore implements driven.QueryRunStore.
type queryRunStore struct {
	store *Store
}

var _ driven.QueryRunStore = (*queryRunStore)(nil)

// SaveQueryRun stores the analytics record of one answered query.
func (s *queryRunStore) SaveQueryRun(ctx context.Context, run *domain.QueryRun) error {
	if run.ID == "" {
		return domain.ErrInvalidInput
	}

	variationsJSON, err := json.Marshal(run.Variations)
	if err != nil {
		return fmt.Errorf("marshalling variations: %w", err)
	}
	resultsJSON, err := json.Marshal(run.Results)
	if err != nil {
		return fmt.Errorf("marshalling results: %w", err)
	}
	timingsJSON, err := json.Marshal(run.Timings)
	if err != nil {
		return fmt.Errorf("marshalling timings: %w", err)
	}
	qualityJSON, err := json.Marshal(run.Quality)
	if err != nil {
		return fmt.Errorf("marshalling quality: %w", err)
	}

	createdAt := run.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO query_runs
			(id, indexing_run_id, query, language, variations, results, response, timings, quality, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			response = excluded.response,
			results = excluded.results,
			timings = excluded.timings,
			quality = excluded.quality
	`, run.ID, run.IndexingRunID, run.Query, run.Language,
		string(variationsJSON), string(resultsJSON), run.Response,
		string(timingsJSON), string(qualityJSON), createdAt)

	if err != nil {
		return fmt.Errorf("saving query run: %w", err)
	}
	return nil
}

// ListQueryRuns returns query runs, newest first, up to limit. A
// non-positive limit returns all.
func (s *queryRunStore) ListQueryRuns(ctx context.Context, limit int) ([]domain.QueryRun, error) {
	query := `
		SELECT id, indexing_run_id, query, language, variations, results, response, timings, quality, created_at
		FROM query_runs
		ORDER BY created_at DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying query runs: %w", err)
	}
	defer rows.Close()

	var runs []domain.QueryRun //nolint:prealloc // size unknown from query
	for rows.Next() {
		var run domain.QueryRun
		var variationsJSON, resultsJSON, timingsJSON, qualityJSON string

		if err := rows.Scan(&run.ID, &run.IndexingRunID, &run.Query, &run.Language,
			&variationsJSON, &resultsJSON, &run.Response, &timingsJSON,
			&qualityJSON, &run.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning query run: %w", err)
		}

		if err := json.Unmarshal([]byte(variationsJSON), &run.Variations); err != nil {
			return nil, fmt.Errorf("unmarshalling variations: %w", err)
		}
		if err := json.Unmarshal([]byte(resultsJSON), &run.Results); err != nil {
			return nil, fmt.Errorf("unmarshalling results: %w", err)
		}
		if err := json.Unmarshal([]byte(timingsJSON), &run.Timings); err != nil {
			return nil, fmt.Errorf("unmarshalling timings: %w", err)
		}
		if err := json.Unmarshal([]byte(qualityJSON), &run.Quality); err != nil {
			return nil, fmt.Errorf("unmarshalling quality: %w", err)
		}

		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating query runs: %w", err)
	}

	return runs, nil
}

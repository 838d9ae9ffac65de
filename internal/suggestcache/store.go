package suggestcache

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"curator/internal/classify"
	"curator/internal/config"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// Store persists classifier suggestions keyed by file fingerprint, backed by
// SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open connects to the suggestion cache configured in cfg, creating the
// database and applying migrations on first use.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	return OpenPath(cfg.SuggestionCachePath())
}

// OpenPath connects to a suggestion cache at an explicit path.
func OpenPath(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.applyMigrations(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file location.
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

// Put stores or replaces the suggestion for a fingerprint.
func (s *Store) Put(ctx context.Context, fingerprint, model string, suggestion classify.Suggestion) error {
	if strings.TrimSpace(fingerprint) == "" {
		return errors.New("fingerprint required")
	}
	var metadataJSON any
	if len(suggestion.Metadata) > 0 {
		encoded, err := json.Marshal(suggestion.Metadata)
		if err != nil {
			return fmt.Errorf("marshal metadata: %w", err)
		}
		metadataJSON = string(encoded)
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO suggestions (
            fingerprint, source, destination, classification, confidence,
            reasoning, suggested_filename, metadata_json, model, created_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(fingerprint) DO UPDATE SET
            source = excluded.source,
            destination = excluded.destination,
            classification = excluded.classification,
            confidence = excluded.confidence,
            reasoning = excluded.reasoning,
            suggested_filename = excluded.suggested_filename,
            metadata_json = excluded.metadata_json,
            model = excluded.model,
            created_at = excluded.created_at`,
		fingerprint,
		suggestion.Source,
		suggestion.Destination,
		suggestion.Classification,
		suggestion.Confidence,
		suggestion.Reasoning,
		suggestion.SuggestedFilename,
		metadataJSON,
		model,
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("upsert suggestion: %w", err)
	}
	return nil
}

// Get returns the cached suggestion for a fingerprint, if present.
func (s *Store) Get(ctx context.Context, fingerprint string) (classify.Suggestion, bool, error) {
	var (
		suggestion   classify.Suggestion
		metadataJSON sql.NullString
	)
	row := s.db.QueryRowContext(ctx,
		`SELECT source, destination, classification, confidence,
            reasoning, suggested_filename, metadata_json
        FROM suggestions WHERE fingerprint = ?`, fingerprint)
	err := row.Scan(
		&suggestion.Source,
		&suggestion.Destination,
		&suggestion.Classification,
		&suggestion.Confidence,
		&suggestion.Reasoning,
		&suggestion.SuggestedFilename,
		&metadataJSON,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return classify.Suggestion{}, false, nil
	}
	if err != nil {
		return classify.Suggestion{}, false, fmt.Errorf("query suggestion: %w", err)
	}
	if metadataJSON.Valid && metadataJSON.String != "" {
		if err := json.Unmarshal([]byte(metadataJSON.String), &suggestion.Metadata); err != nil {
			return classify.Suggestion{}, false, fmt.Errorf("decode metadata: %w", err)
		}
	}
	return suggestion, true, nil
}

// Entry is one cached suggestion with its bookkeeping columns.
type Entry struct {
	Fingerprint string
	Model       string
	CreatedAt   time.Time
	Suggestion  classify.Suggestion
}

// List returns cached suggestions, newest first. A limit of zero or less
// returns everything.
func (s *Store) List(ctx context.Context, limit int) ([]Entry, error) {
	query := `SELECT fingerprint, source, destination, classification, confidence,
            reasoning, suggested_filename, metadata_json, model, created_at
        FROM suggestions ORDER BY created_at DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list suggestions: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			entry        Entry
			metadataJSON sql.NullString
			createdAt    string
		)
		if err := rows.Scan(
			&entry.Fingerprint,
			&entry.Suggestion.Source,
			&entry.Suggestion.Destination,
			&entry.Suggestion.Classification,
			&entry.Suggestion.Confidence,
			&entry.Suggestion.Reasoning,
			&entry.Suggestion.SuggestedFilename,
			&metadataJSON,
			&entry.Model,
			&createdAt,
		); err != nil {
			return nil, fmt.Errorf("scan suggestion: %w", err)
		}
		if metadataJSON.Valid && metadataJSON.String != "" {
			if err := json.Unmarshal([]byte(metadataJSON.String), &entry.Suggestion.Metadata); err != nil {
				return nil, fmt.Errorf("decode metadata: %w", err)
			}
		}
		if parsed, parseErr := time.Parse(time.RFC3339Nano, createdAt); parseErr == nil {
			entry.CreatedAt = parsed
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate suggestions: %w", err)
	}
	return entries, nil
}

// Count returns the number of cached suggestions.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM suggestions").Scan(&count); err != nil {
		return 0, fmt.Errorf("count suggestions: %w", err)
	}
	return count, nil
}

// Prune removes entries created before the cutoff and reports how many went.
func (s *Store) Prune(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-olderThan).Format(time.RFC3339Nano)
	res, err := s.db.ExecContext(ctx, "DELETE FROM suggestions WHERE created_at < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune suggestions: %w", err)
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return removed, nil
}

// Clear removes every cached suggestion.
func (s *Store) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM suggestions"); err != nil {
		return fmt.Errorf("clear suggestions: %w", err)
	}
	return nil
}

type migration struct {
	version string
	sql     string
}

func loadMigrations() ([]migration, error) {
	entries, err := migrationFS.ReadDir("migrations")
	if err != nil {
		return nil, fmt.Errorf("read migrations dir: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	migrations := make([]migration, 0, len(names))
	for _, name := range names {
		data, err := migrationFS.ReadFile("migrations/" + name)
		if err != nil {
			return nil, fmt.Errorf("read migration %s: %w", name, err)
		}
		migrations = append(migrations, migration{
			version: strings.TrimSuffix(name, ".sql"),
			sql:     string(data),
		})
	}
	return migrations, nil
}

func (s *Store) applyMigrations(ctx context.Context) error {
	migrations, err := loadMigrations()
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin migration tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, "CREATE TABLE IF NOT EXISTS schema_migrations (version TEXT PRIMARY KEY)"); err != nil {
		return fmt.Errorf("ensure schema_migrations: %w", err)
	}

	for _, m := range migrations {
		var count int
		row := tx.QueryRowContext(ctx, "SELECT COUNT(1) FROM schema_migrations WHERE version = ?", m.version)
		if err := row.Scan(&count); err != nil {
			return fmt.Errorf("scan migration version: %w", err)
		}
		if count > 0 {
			continue
		}
		if _, err := tx.ExecContext(ctx, m.sql); err != nil {
			return fmt.Errorf("apply migration %s: %w", m.version, err)
		}
		if _, err := tx.ExecContext(ctx, "INSERT INTO schema_migrations (version) VALUES (?)", m.version); err != nil {
			return fmt.Errorf("record migration %s: %w", m.version, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit migrations: %w", err)
	}
	return nil
}

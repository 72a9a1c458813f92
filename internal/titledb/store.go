package titledb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"hopper/internal/config"
)

var ErrInvalidTitleID = errors.New("invalid title id")

// Store manages title catalog persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the catalog database and applies
// migrations.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := cfg.Paths.TitlesDB
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
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

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Upsert inserts or replaces catalog entries. IDs are folded to lowercase
// and must be 16 hex digits.
func (s *Store) Upsert(ctx context.Context, entries ...Entry) error {
	if len(entries) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin upsert tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	now := time.Now().UTC().Format(time.RFC3339Nano)
	for _, entry := range entries {
		id, err := NormalizeID(entry.ID)
		if err != nil {
			return err
		}
		name := strings.TrimSpace(entry.Name)
		if name == "" {
			return fmt.Errorf("title %s: name is required", id)
		}
		_, err = tx.ExecContext(
			ctx,
			`INSERT INTO titles (id, name, region, version, updated_at)
	         VALUES (?, ?, ?, ?, ?)
	         ON CONFLICT(id) DO UPDATE SET
	             name = excluded.name,
	             region = excluded.region,
	             version = excluded.version,
	             updated_at = excluded.updated_at`,
			id,
			name,
			strings.ToUpper(strings.TrimSpace(entry.Region)),
			entry.Version,
			now,
		)
		if err != nil {
			return fmt.Errorf("upsert title %s: %w", id, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit upsert: %w", err)
	}
	return nil
}

// Get fetches a catalog entry by ID. A missing entry returns (nil, nil).
func (s *Store) Get(ctx context.Context, id string) (*Entry, error) {
	normalized, err := NormalizeID(id)
	if err != nil {
		return nil, err
	}
	row := s.db.QueryRowContext(ctx, `SELECT `+entryColumns+` FROM titles WHERE id = ?`, normalized)
	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get title: %w", err)
	}
	return entry, nil
}

// Search returns entries whose name contains the query, case-insensitive,
// ordered by name. An empty query lists the catalog from the start.
func (s *Store) Search(ctx context.Context, query string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	pattern := "%" + escapeLike(strings.TrimSpace(query)) + "%"
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+entryColumns+` FROM titles
	     WHERE name LIKE ? ESCAPE '\' COLLATE NOCASE
	     ORDER BY name COLLATE NOCASE LIMIT ?`,
		pattern,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("search titles: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}
	return entries, rows.Err()
}

// Count returns the number of catalog entries.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var count int64
	row := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM titles`)
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("count titles: %w", err)
	}
	return count, nil
}

// MarkDumped records a completed dump for the title.
func (s *Store) MarkDumped(ctx context.Context, id string) error {
	normalized, err := NormalizeID(id)
	if err != nil {
		return err
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE titles SET last_dumped_at = ?, updated_at = ? WHERE id = ?`,
		now,
		now,
		normalized,
	)
	if err != nil {
		return fmt.Errorf("mark dumped: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s not in catalog", ErrInvalidTitleID, normalized)
	}
	return nil
}

// Remove deletes an entry by ID, reporting whether a row was removed.
func (s *Store) Remove(ctx context.Context, id string) (bool, error) {
	normalized, err := NormalizeID(id)
	if err != nil {
		return false, err
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM titles WHERE id = ?`, normalized)
	if err != nil {
		return false, fmt.Errorf("delete title: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// NormalizeID validates and lowercases a 16-hex-digit title ID.
func NormalizeID(id string) (string, error) {
	id = strings.ToLower(strings.TrimSpace(id))
	if len(id) != 16 {
		return "", fmt.Errorf("%w: %q must be 16 hex digits", ErrInvalidTitleID, id)
	}
	for i := 0; i < len(id); i++ {
		c := id[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return "", fmt.Errorf("%w: %q has non-hex digit at %d", ErrInvalidTitleID, id, i)
		}
	}
	return id, nil
}

const entryColumns = "id, name, region, version, updated_at, last_dumped_at"

func scanEntry(scanner interface{ Scan(dest ...any) error }) (*Entry, error) {
	var (
		id            string
		name          string
		region        string
		version       int64
		updatedRaw    string
		lastDumpedRaw sql.NullString
	)
	if err := scanner.Scan(&id, &name, &region, &version, &updatedRaw, &lastDumpedRaw); err != nil {
		return nil, err
	}

	entry := &Entry{
		ID:      id,
		Name:    name,
		Region:  region,
		Version: uint32(version),
	}
	if updated, err := time.Parse(time.RFC3339Nano, updatedRaw); err == nil {
		entry.UpdatedAt = updated
	}
	if lastDumpedRaw.Valid {
		if dumped, err := time.Parse(time.RFC3339Nano, lastDumpedRaw.String); err == nil {
			entry.LastDumpedAt = &dumped
		}
	}
	return entry, nil
}

func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}

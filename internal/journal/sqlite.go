package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"voice-journal/backend/internal/models"
)

// SQLiteStore is the embedded single-file store.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the database at path and migrates
// it. ":memory:" gives a private in-memory database.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	store := &SQLiteStore{db: db}
	if err := store.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

func (s *SQLiteStore) migrate(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS journal_entries (
			id TEXT PRIMARY KEY,
			audio_uri TEXT NOT NULL,
			text TEXT NOT NULL,
			mood TEXT NOT NULL,
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_journal_text ON journal_entries(text)`,
		`CREATE INDEX IF NOT EXISTS idx_journal_date ON journal_entries(created_at)`,
	}
	for _, statement := range statements {
		if _, err := s.db.ExecContext(ctx, statement); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	hasDuration, err := s.hasColumn(ctx, "journal_entries", "duration")
	if err != nil {
		return err
	}
	if !hasDuration {
		if _, err := s.db.ExecContext(ctx, `ALTER TABLE journal_entries ADD COLUMN duration INTEGER DEFAULT 0`); err != nil {
			return fmt.Errorf("add duration column: %w", err)
		}
	}
	return nil
}

func (s *SQLiteStore) hasColumn(ctx context.Context, table, column string) (bool, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return false, fmt.Errorf("inspect %s: %w", table, err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			cid        int
			name, kind string
			notNull    int
			defaultVal sql.NullString
			primaryKey int
		)
		if err := rows.Scan(&cid, &name, &kind, &notNull, &defaultVal, &primaryKey); err != nil {
			return false, err
		}
		if name == column {
			return true, nil
		}
	}
	return false, rows.Err()
}

func (s *SQLiteStore) Create(ctx context.Context, entry models.JournalEntry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO journal_entries (id, audio_uri, text, mood, duration, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.AudioURI, entry.Text, string(entry.Mood), entry.Duration,
		entry.CreatedAt.UnixMilli(), entry.UpdatedAt.UnixMilli())
	return err
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (*models.JournalEntry, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+entryColumns+` FROM journal_entries WHERE id = ?`, id)
	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (s *SQLiteStore) List(ctx context.Context, limit, offset int) ([]models.JournalEntry, error) {
	return s.query(ctx, `SELECT `+entryColumns+` FROM journal_entries
		ORDER BY created_at DESC LIMIT ? OFFSET ?`, sqliteLimit(limit), offset)
}

func (s *SQLiteStore) Search(ctx context.Context, query string, limit, offset int) ([]models.JournalEntry, error) {
	return s.query(ctx, `SELECT `+entryColumns+` FROM journal_entries
		WHERE text LIKE ? ESCAPE '\'
		ORDER BY created_at DESC LIMIT ? OFFSET ?`, likePattern(query), sqliteLimit(limit), offset)
}

func (s *SQLiteStore) Since(ctx context.Context, from time.Time) ([]models.JournalEntry, error) {
	return s.query(ctx, `SELECT `+entryColumns+` FROM journal_entries
		WHERE created_at >= ? ORDER BY created_at DESC`, from.UnixMilli())
}

func (s *SQLiteStore) Update(ctx context.Context, id string, update models.EntryUpdate, updatedAt time.Time) (*models.JournalEntry, error) {
	text, mood := updateArgs(update)
	result, err := s.db.ExecContext(ctx, `
		UPDATE journal_entries
		SET text = COALESCE(?, text), mood = COALESCE(?, mood), updated_at = ?
		WHERE id = ?`, text, mood, updatedAt.UnixMilli(), id)
	if err != nil {
		return nil, err
	}
	if n, err := result.RowsAffected(); err != nil {
		return nil, err
	} else if n == 0 {
		return nil, ErrNotFound
	}
	return s.Get(ctx, id)
}

func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM journal_entries WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) query(ctx context.Context, query string, args ...any) ([]models.JournalEntry, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	entries := []models.JournalEntry{}
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// sqliteLimit maps "no limit" to SQLite's -1.
func sqliteLimit(limit int) int {
	if limit <= 0 {
		return -1
	}
	return limit
}

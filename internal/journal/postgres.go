package journal

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"voice-journal/backend/internal/db"
	"voice-journal/backend/internal/models"
)

type PostgresStore struct {
	DB *db.Store
}

func NewPostgresStore(store *db.Store) *PostgresStore {
	return &PostgresStore{DB: store}
}

func (s *PostgresStore) Create(ctx context.Context, entry models.JournalEntry) error {
	_, err := s.DB.Pool.Exec(ctx, `
		INSERT INTO journal_entries (id, audio_uri, text, mood, duration, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		entry.ID, entry.AudioURI, entry.Text, string(entry.Mood), entry.Duration,
		entry.CreatedAt.UnixMilli(), entry.UpdatedAt.UnixMilli())
	return err
}

func (s *PostgresStore) Get(ctx context.Context, id string) (*models.JournalEntry, error) {
	row := s.DB.Pool.QueryRow(ctx, `SELECT `+entryColumns+` FROM journal_entries WHERE id=$1`, id)
	entry, err := scanEntry(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (s *PostgresStore) List(ctx context.Context, limit, offset int) ([]models.JournalEntry, error) {
	return s.query(ctx, `SELECT `+entryColumns+` FROM journal_entries
		ORDER BY created_at DESC LIMIT $1 OFFSET $2`, pgLimit(limit), offset)
}

func (s *PostgresStore) Search(ctx context.Context, query string, limit, offset int) ([]models.JournalEntry, error) {
	return s.query(ctx, `SELECT `+entryColumns+` FROM journal_entries
		WHERE text ILIKE $1 ESCAPE '\'
		ORDER BY created_at DESC LIMIT $2 OFFSET $3`, likePattern(query), pgLimit(limit), offset)
}

func (s *PostgresStore) Since(ctx context.Context, from time.Time) ([]models.JournalEntry, error) {
	return s.query(ctx, `SELECT `+entryColumns+` FROM journal_entries
		WHERE created_at >= $1 ORDER BY created_at DESC`, from.UnixMilli())
}

func (s *PostgresStore) Update(ctx context.Context, id string, update models.EntryUpdate, updatedAt time.Time) (*models.JournalEntry, error) {
	text, mood := updateArgs(update)
	row := s.DB.Pool.QueryRow(ctx, `
		UPDATE journal_entries
		SET text=COALESCE($2::text, text), mood=COALESCE($3::text, mood), updated_at=$4
		WHERE id=$1
		RETURNING `+entryColumns, id, text, mood, updatedAt.UnixMilli())
	entry, err := scanEntry(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	tag, err := s.DB.Pool.Exec(ctx, `DELETE FROM journal_entries WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Close is a no-op; the pool belongs to db.Store.
func (s *PostgresStore) Close() error {
	return nil
}

func (s *PostgresStore) query(ctx context.Context, query string, args ...any) ([]models.JournalEntry, error) {
	rows, err := s.DB.Pool.Query(ctx, query, args...)
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

// pgLimit maps "no limit" to LIMIT NULL.
func pgLimit(limit int) any {
	if limit <= 0 {
		return nil
	}
	return limit
}

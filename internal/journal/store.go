package journal

import (
	"context"
	"strings"
	"time"

	"voice-journal/backend/internal/models"
)

// Store persists journal entries. Get returns (nil, nil) for an unknown id;
// Update and Delete return ErrNotFound.
type Store interface {
	Create(ctx context.Context, entry models.JournalEntry) error
	Get(ctx context.Context, id string) (*models.JournalEntry, error)
	List(ctx context.Context, limit, offset int) ([]models.JournalEntry, error)
	Search(ctx context.Context, query string, limit, offset int) ([]models.JournalEntry, error)
	Since(ctx context.Context, from time.Time) ([]models.JournalEntry, error)
	Update(ctx context.Context, id string, update models.EntryUpdate, updatedAt time.Time) (*models.JournalEntry, error)
	Delete(ctx context.Context, id string) error
	Close() error
}

const entryColumns = `id, audio_uri, text, mood, COALESCE(duration, 0), created_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (models.JournalEntry, error) {
	var (
		entry            models.JournalEntry
		mood             string
		created, updated int64
	)
	if err := row.Scan(&entry.ID, &entry.AudioURI, &entry.Text, &mood, &entry.Duration, &created, &updated); err != nil {
		return models.JournalEntry{}, err
	}
	entry.Mood = models.Mood(mood)
	entry.CreatedAt = time.UnixMilli(created).UTC()
	entry.UpdatedAt = time.UnixMilli(updated).UTC()
	return entry, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likePattern matches query anywhere in the text; wildcards in the query
// are literal.
func likePattern(query string) string {
	return "%" + likeEscaper.Replace(query) + "%"
}

// updateArgs returns the text and mood parameters of a partial update,
// nil for fields left unchanged.
func updateArgs(update models.EntryUpdate) (text, mood any) {
	if update.Text != nil {
		text = *update.Text
	}
	if update.Mood != nil {
		mood = string(*update.Mood)
	}
	return text, mood
}

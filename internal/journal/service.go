package journal

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"voice-journal/backend/internal/models"
)

const (
	EventEntryCreated = "entry.created"
	EventEntryUpdated = "entry.updated"
	EventEntryDeleted = "entry.deleted"
)

// Notifier is told about every successful mutation.
type Notifier interface {
	EntryChanged(event string, entry models.JournalEntry)
}

// Enqueuer schedules background analysis of an entry's text.
type Enqueuer interface {
	EnqueueAnalysis(ctx context.Context, entryID, text string) error
}

type Service struct {
	Store    Store
	Notifier Notifier
	Enqueuer Enqueuer
	Logger   *slog.Logger
	Now      func() time.Time
	NewID    func() string
}

func NewService(store Store, notifier Notifier, enqueuer Enqueuer, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		Store:    store,
		Notifier: notifier,
		Enqueuer: enqueuer,
		Logger:   logger,
		Now:      func() time.Time { return time.Now().UTC() },
		NewID:    uuid.NewString,
	}
}

func (s *Service) Create(ctx context.Context, in models.NewEntry) (*models.JournalEntry, error) {
	in.Text = strings.TrimSpace(in.Text)
	in.AudioURI = strings.TrimSpace(in.AudioURI)
	if err := ValidateNew(in); err != nil {
		return nil, err
	}
	now := s.Now().Truncate(time.Millisecond)
	entry := models.JournalEntry{
		ID:        s.NewID(),
		AudioURI:  in.AudioURI,
		Text:      in.Text,
		Mood:      in.Mood,
		Duration:  in.Duration,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.Store.Create(ctx, entry); err != nil {
		return nil, fmt.Errorf("create entry: %w", err)
	}
	s.notify(EventEntryCreated, entry)
	s.enqueue(ctx, entry)
	return &entry, nil
}

func (s *Service) Get(ctx context.Context, id string) (*models.JournalEntry, error) {
	entry, err := s.Store.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get entry: %w", err)
	}
	return entry, nil
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]models.JournalEntry, error) {
	entries, err := s.Store.List(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	return entries, nil
}

// Search matches query as a case-insensitive substring of the entry text.
// A blank query lists everything.
func (s *Service) Search(ctx context.Context, query string, limit, offset int) ([]models.JournalEntry, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return s.List(ctx, limit, offset)
	}
	entries, err := s.Store.Search(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("search entries: %w", err)
	}
	return entries, nil
}

// Update applies a partial change. The new updatedAt is always strictly
// after createdAt.
func (s *Service) Update(ctx context.Context, id string, update models.EntryUpdate) (*models.JournalEntry, error) {
	if update.Text != nil {
		trimmed := strings.TrimSpace(*update.Text)
		update.Text = &trimmed
	}
	if err := ValidateUpdate(update); err != nil {
		return nil, err
	}
	existing, err := s.Store.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get entry: %w", err)
	}
	if existing == nil {
		return nil, ErrNotFound
	}

	updatedAt := s.Now().Truncate(time.Millisecond)
	if !updatedAt.After(existing.CreatedAt) {
		updatedAt = existing.CreatedAt.Add(time.Millisecond)
	}
	if !updatedAt.After(existing.UpdatedAt) {
		updatedAt = existing.UpdatedAt.Add(time.Millisecond)
	}
	entry, err := s.Store.Update(ctx, id, update, updatedAt)
	if err != nil {
		return nil, fmt.Errorf("update entry: %w", err)
	}
	s.notify(EventEntryUpdated, *entry)
	if update.Text != nil && *update.Text != existing.Text {
		s.enqueue(ctx, *entry)
	}
	return entry, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.Store.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}
	s.notify(EventEntryDeleted, models.JournalEntry{ID: id})
	return nil
}

// Trends summarizes the last 60 days relative to the current clock.
func (s *Service) Trends(ctx context.Context) (Trends, error) {
	now := s.Now()
	entries, err := s.Store.Since(ctx, now.Add(-2*frequencyWindow))
	if err != nil {
		return Trends{}, fmt.Errorf("load trend entries: %w", err)
	}
	return ComputeTrends(entries, now), nil
}

func (s *Service) notify(event string, entry models.JournalEntry) {
	if s.Notifier != nil {
		s.Notifier.EntryChanged(event, entry)
	}
}

// enqueue never fails the request; analysis of saved entries is best effort.
func (s *Service) enqueue(ctx context.Context, entry models.JournalEntry) {
	if s.Enqueuer == nil {
		return
	}
	if err := s.Enqueuer.EnqueueAnalysis(ctx, entry.ID, entry.Text); err != nil {
		s.Logger.Warn("enqueue entry analysis failed", "entry_id", entry.ID, "error", err)
	}
}

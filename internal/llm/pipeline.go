package llm

import (
	"context"

	"voice-journal/backend/internal/cache"
	"voice-journal/backend/internal/models"
)

const EventEntryAnalysis = "entry.analysis"

type Broadcaster interface {
	Broadcast(payload any)
}

// EntryReader returns nil, nil for a missing entry.
type EntryReader interface {
	Get(ctx context.Context, id string) (*models.JournalEntry, error)
}

// StoreAnalysis caches finished analyses and tells connected clients. A
// result is kept only while the entry still holds the text it was computed
// from; edits and deletes made while the job ran win.
type StoreAnalysis struct {
	Cache   cache.AnalysisCache
	Hub     Broadcaster
	Entries EntryReader
}

func (s StoreAnalysis) AnalysisReady(ctx context.Context, job AnalysisJob, analysis *models.ComprehensiveMoodAnalysis) (bool, error) {
	current, err := s.current(ctx, job)
	if err != nil || !current {
		return false, err
	}
	if err := s.Cache.Set(ctx, job.EntryID, analysis); err != nil {
		return false, err
	}
	// The entry may have changed between the check and the write.
	current, err = s.current(ctx, job)
	if err != nil || !current {
		if delErr := s.Cache.Delete(ctx, job.EntryID); delErr != nil && err == nil {
			err = delErr
		}
		return false, err
	}
	if s.Hub != nil {
		s.Hub.Broadcast(map[string]any{
			"type":     EventEntryAnalysis,
			"entry_id": job.EntryID,
			"analysis": analysis,
		})
	}
	return true, nil
}

func (s StoreAnalysis) current(ctx context.Context, job AnalysisJob) (bool, error) {
	if s.Entries == nil {
		return true, nil
	}
	entry, err := s.Entries.Get(ctx, job.EntryID)
	if err != nil {
		return false, err
	}
	return entry != nil && entry.Text == job.Text, nil
}

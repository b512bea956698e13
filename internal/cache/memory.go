package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"voice-journal/backend/internal/models"
)

type MemoryCache struct {
	items *gocache.Cache
}

func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{items: gocache.New(ttl, ttl/2)}
}

func (m *MemoryCache) Get(_ context.Context, entryID string) (*models.ComprehensiveMoodAnalysis, error) {
	value, ok := m.items.Get(entryID)
	if !ok {
		return nil, nil
	}
	analysis, _ := value.(*models.ComprehensiveMoodAnalysis)
	return analysis, nil
}

func (m *MemoryCache) Set(_ context.Context, entryID string, analysis *models.ComprehensiveMoodAnalysis) error {
	m.items.SetDefault(entryID, analysis)
	return nil
}

func (m *MemoryCache) Delete(_ context.Context, entryID string) error {
	m.items.Delete(entryID)
	return nil
}

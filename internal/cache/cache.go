// Package cache keeps finished analyses of saved entries so clients can
// fetch them without re-running the pipeline.
package cache

import (
	"context"

	"voice-journal/backend/internal/models"
)

// AnalysisCache returns nil, nil on a miss.
type AnalysisCache interface {
	Get(ctx context.Context, entryID string) (*models.ComprehensiveMoodAnalysis, error)
	Set(ctx context.Context, entryID string, analysis *models.ComprehensiveMoodAnalysis) error
	Delete(ctx context.Context, entryID string) error
}

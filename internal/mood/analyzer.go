package mood

import (
	"context"
	"log/slog"

	"voice-journal/backend/internal/insight"
	"voice-journal/backend/internal/models"
)

type InsightSource interface {
	Insights(ctx context.Context, input insight.Input) []string
}

type AnalysisObserver interface {
	AnalysisCompleted(sentiment models.Sentiment, classified bool)
}

// Analyzer runs the full mood pipeline: patterns, per-sentence
// classification, aggregation, summary and insights.
type Analyzer struct {
	Adapter  *Adapter
	Insights InsightSource
	// Detailed is used by AnalyzeDetailed; falls back to Insights.
	Detailed InsightSource
	Observer AnalysisObserver
	Logger   *slog.Logger
}

// Analyze never fails. Backend failures degrade to the neutral default and
// guaranteed insights.
func (a *Analyzer) Analyze(ctx context.Context, text string) *models.ComprehensiveMoodAnalysis {
	return a.run(ctx, text, a.Insights)
}

func (a *Analyzer) AnalyzeDetailed(ctx context.Context, text string) *models.ComprehensiveMoodAnalysis {
	source := a.Detailed
	if source == nil {
		source = a.Insights
	}
	return a.run(ctx, text, source)
}

func (a *Analyzer) run(ctx context.Context, text string, source InsightSource) (result *models.ComprehensiveMoodAnalysis) {
	defer func() {
		if r := recover(); r != nil {
			a.logger().Error("mood analysis panicked", "panic", r)
			result = fallbackAnalysis(text)
		}
	}()

	patterns := AnalyzeTextPatterns(text)
	keywords := EmotionalKeywords(text)

	var votes []Vote
	if a.Adapter != nil {
		votes = a.Adapter.ClassifySentences(ctx, text)
		if len(votes) == 0 {
			votes = a.Adapter.ClassifyText(ctx, text)
		}
	}

	agg := AggregateVotes(votes, keywords)
	analysis := &models.ComprehensiveMoodAnalysis{
		PrimaryEmotion:      agg.Primary,
		SecondaryEmotions:   agg.Secondary,
		OverallSentiment:    agg.Sentiment,
		EmotionalComplexity: agg.Complexity,
		Summary:             Summary(agg),
	}

	var insights []string
	if source != nil {
		insights = source.Insights(ctx, insight.Input{Text: text, Analysis: analysis, Patterns: patterns})
	}
	if len(insights) == 0 {
		insights = insight.Guaranteed(text, analysis.PrimaryEmotion.Emotion)
	}
	analysis.Insights = insights

	if a.Observer != nil {
		a.Observer.AnalysisCompleted(analysis.OverallSentiment, len(votes) > 0)
	}
	a.logger().Debug("mood analysis complete",
		"primary", analysis.PrimaryEmotion.Emotion,
		"confidence", analysis.PrimaryEmotion.Confidence,
		"votes", len(votes),
		"insights", len(insights))
	return analysis
}

func fallbackAnalysis(text string) *models.ComprehensiveMoodAnalysis {
	agg := defaultAggregate()
	return &models.ComprehensiveMoodAnalysis{
		PrimaryEmotion:      agg.Primary,
		SecondaryEmotions:   agg.Secondary,
		OverallSentiment:    agg.Sentiment,
		EmotionalComplexity: agg.Complexity,
		Summary:             Summary(agg),
		Insights:            insight.Guaranteed(text, agg.Primary.Emotion),
	}
}

func (a *Analyzer) logger() *slog.Logger {
	if a.Logger != nil {
		return a.Logger
	}
	return slog.Default()
}

package mood

import (
	"sort"

	"voice-journal/backend/internal/models"
)

const (
	secondaryThreshold = 0.2
	mixedGap           = 0.2
	maxSecondaries     = 2
	defaultConfidence  = 0.5
)

// Aggregate is the pipeline result before summary and insights are added.
type Aggregate struct {
	Primary    models.EmotionAnalysis
	Secondary  []models.EmotionAnalysis
	Sentiment  models.Sentiment
	Complexity models.Complexity
}

type moodMean struct {
	mood models.Mood
	mean float64
}

// AggregateVotes groups votes by mood and ranks moods by mean confidence.
// Keywords are attached per mood polarity.
func AggregateVotes(votes []Vote, keywords Keywords) Aggregate {
	ranked := rankMoods(votes)
	if len(ranked) == 0 {
		return defaultAggregate()
	}

	primary := emotion(ranked[0], keywords)
	secondary := eligibleSecondaries(ranked, keywords)

	return Aggregate{
		Primary:    primary,
		Secondary:  secondary,
		Sentiment:  overallSentiment(append([]models.EmotionAnalysis{primary}, secondary...)),
		Complexity: models.ComplexityFor(len(secondary)),
	}
}

// eligibleSecondaries considers ranks 2 and 3 only.
func eligibleSecondaries(ranked []moodMean, keywords Keywords) []models.EmotionAnalysis {
	out := []models.EmotionAnalysis{}
	end := 1 + maxSecondaries
	if end > len(ranked) {
		end = len(ranked)
	}
	for _, candidate := range ranked[1:end] {
		if candidate.mean > secondaryThreshold {
			out = append(out, emotion(candidate, keywords))
		}
	}
	return out
}

func rankMoods(votes []Vote) []moodMean {
	sums := map[models.Mood]float64{}
	counts := map[models.Mood]int{}
	for _, vote := range votes {
		sums[vote.Mood] += vote.Score
		counts[vote.Mood]++
	}
	ranked := make([]moodMean, 0, len(sums))
	for mood, sum := range sums {
		ranked = append(ranked, moodMean{mood: mood, mean: sum / float64(counts[mood])})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].mean != ranked[j].mean {
			return ranked[i].mean > ranked[j].mean
		}
		return ranked[i].mood.Before(ranked[j].mood)
	})
	return ranked
}

func emotion(m moodMean, keywords Keywords) models.EmotionAnalysis {
	return models.EmotionAnalysis{
		Emotion:    m.mood,
		Confidence: m.mean,
		Intensity:  models.IntensityFor(m.mean),
		Keywords:   keywords.For(m.mood),
	}
}

func overallSentiment(emotions []models.EmotionAnalysis) models.Sentiment {
	var positive, negative float64
	var hasPositive, hasNegative bool
	for _, e := range emotions {
		switch {
		case e.Emotion.Positive():
			positive += e.Confidence
			hasPositive = true
		case e.Emotion.Negative():
			negative += e.Confidence
			hasNegative = true
		}
	}
	switch {
	case hasPositive && hasNegative:
		diff := positive - negative
		if diff < 0 {
			diff = -diff
		}
		if diff < mixedGap {
			return models.SentimentMixed
		}
		if positive > negative {
			return models.SentimentPositive
		}
		return models.SentimentNegative
	case hasPositive:
		return models.SentimentPositive
	case hasNegative:
		return models.SentimentNegative
	default:
		return models.SentimentNeutral
	}
}

func defaultAggregate() Aggregate {
	return Aggregate{
		Primary: models.EmotionAnalysis{
			Emotion:    models.MoodNeutral,
			Confidence: defaultConfidence,
			Intensity:  models.IntensityFor(defaultConfidence),
			Keywords:   []string{},
		},
		Secondary:  []models.EmotionAnalysis{},
		Sentiment:  models.SentimentNeutral,
		Complexity: models.ComplexitySimple,
	}
}

package mood

import (
	"fmt"
	"strings"

	"voice-journal/backend/internal/models"
)

// Summary renders a one-sentence description of the aggregate.
func Summary(agg Aggregate) string {
	primary := agg.Primary
	switch agg.Complexity {
	case models.ComplexitySimple:
		word := "slightly"
		switch primary.Intensity {
		case models.IntensityHigh:
			word = "very"
		case models.IntensityMedium:
			word = "somewhat"
		}
		return fmt.Sprintf("You're feeling %s %s today.", word, primary.Emotion)
	case models.ComplexityModerate:
		secondary := agg.Secondary[0].Emotion
		if agg.Sentiment == models.SentimentMixed {
			return fmt.Sprintf("You're experiencing mixed emotions, primarily %s but also feeling %s.", primary.Emotion, secondary)
		}
		return fmt.Sprintf("You're mainly feeling %s, with some %s mixed in.", primary.Emotion, secondary)
	default:
		names := []string{string(primary.Emotion)}
		for _, e := range agg.Secondary {
			names = append(names, string(e.Emotion))
		}
		return fmt.Sprintf("You're experiencing a complex mix of emotions including %s.", strings.Join(names, ", "))
	}
}

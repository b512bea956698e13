package insight

import (
	"context"
	"fmt"
	"strings"

	"voice-journal/backend/internal/models"
)

const thoughtfulWordCount = 30

// Guaranteed always returns four insights.
func Guaranteed(text string, emotion models.Mood) []string {
	if emotion == "" {
		emotion = models.MoodNeutral
	}
	third := "Even brief expressions of emotion are meaningful and worth exploring further."
	if len(strings.Fields(text)) > thoughtfulWordCount {
		third = "Your thoughtful expression of these feelings shows you're actively working to understand your emotional experience."
	}
	return []string{
		fmt.Sprintf("Your %s feelings are completely valid and deserve acknowledgment.", emotion),
		"Taking time to express and examine your emotions through writing shows emotional intelligence and self-care.",
		third,
		"Remember that emotions are temporary and provide valuable information about what matters to you.",
	}
}

func GuaranteedStrategy(_ context.Context, c *Context) []string {
	return Guaranteed(c.Text, c.Emotion)
}

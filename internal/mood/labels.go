package mood

import (
	"strings"

	"voice-journal/backend/internal/models"
)

// labelMoods covers the label vocabularies of the emotion and sentiment
// models we call: Ekman-style emotion heads, go_emotions, tweet-eval and
// binary sentiment heads.
var labelMoods = map[string]models.Mood{
	"joy":        models.MoodHappy,
	"happy":      models.MoodHappy,
	"happiness":  models.MoodHappy,
	"love":       models.MoodHappy,
	"admiration": models.MoodHappy,
	"amusement":  models.MoodHappy,
	"approval":   models.MoodHappy,
	"caring":     models.MoodHappy,
	"gratitude":  models.MoodHappy,
	"pride":      models.MoodHappy,
	"positive":   models.MoodHappy,
	"label_2":    models.MoodHappy,

	"excitement": models.MoodExcited,
	"excited":    models.MoodExcited,
	"surprise":   models.MoodExcited,
	"desire":     models.MoodExcited,
	"optimism":   models.MoodExcited,

	"calm":     models.MoodCalm,
	"relief":   models.MoodCalm,
	"serenity": models.MoodCalm,
	"content":  models.MoodCalm,

	"sadness":        models.MoodSad,
	"sad":            models.MoodSad,
	"grief":          models.MoodSad,
	"remorse":        models.MoodSad,
	"disappointment": models.MoodSad,
	"embarrassment":  models.MoodSad,
	"fear":           models.MoodSad,
	"nervousness":    models.MoodSad,
	"pessimism":      models.MoodSad,
	"negative":       models.MoodSad,
	"label_0":        models.MoodSad,

	"anger":       models.MoodAngry,
	"angry":       models.MoodAngry,
	"annoyance":   models.MoodAngry,
	"disgust":     models.MoodAngry,
	"disapproval": models.MoodAngry,

	"neutral":     models.MoodNeutral,
	"realization": models.MoodNeutral,
	"curiosity":   models.MoodNeutral,
	"confusion":   models.MoodNeutral,
	"label_1":     models.MoodNeutral,
}

// MapLabel maps a classifier label to a mood. Unknown labels are neutral.
func MapLabel(label string) models.Mood {
	if mood, ok := labelMoods[strings.ToLower(strings.TrimSpace(label))]; ok {
		return mood
	}
	return models.MoodNeutral
}

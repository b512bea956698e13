package mood

import (
	"strings"

	"voice-journal/backend/internal/models"
)

var positiveKeywords = []string{
	"good", "great", "happy", "excited", "love", "amazing", "wonderful", "fantastic",
	"excellent", "perfect", "awesome", "brilliant", "outstanding", "superb", "terrific",
	"fine", "well", "better", "best", "enjoy", "pleased", "satisfied", "proud", "delighted",
	"thrilled", "cheerful", "joyful", "optimistic", "confident", "grateful", "blessed",
	"lucky", "successful", "accomplished", "relieved", "comfortable", "peaceful", "content",
	"smile", "laugh", "celebrate", "victory", "win", "achieve", "progress", "improve",
}

var negativeKeywords = []string{
	"bad", "terrible", "awful", "hate", "sad", "angry", "frustrated", "disappointed",
	"upset", "worried", "anxious", "depressed", "horrible", "disgusting", "annoying",
	"problem", "issue", "difficult", "hard", "struggle", "fail", "wrong", "stressed",
	"overwhelmed", "exhausted", "tired", "confused", "lost", "hopeless", "scared",
	"nervous", "irritated", "annoyed", "furious", "devastated", "heartbroken", "miserable",
	"cry", "tears", "pain", "hurt", "broken", "defeat", "loss", "mistake",
}

var neutralKeywords = []string{
	"okay", "fine", "alright", "normal", "average", "usual", "typical", "standard",
	"regular", "ordinary", "moderate", "balanced", "stable", "consistent", "routine",
	"expected", "reasonable", "acceptable", "think", "consider", "maybe", "perhaps",
	"possibly", "probably", "seems",
}

// Keywords holds lexicon hits per polarity, in lexicon order.
type Keywords struct {
	Positive []string `json:"positive"`
	Negative []string `json:"negative"`
	Neutral  []string `json:"neutral"`
}

// EmotionalKeywords matches the lexicon against text by case-insensitive
// substring.
func EmotionalKeywords(text string) Keywords {
	lower := strings.ToLower(text)
	return Keywords{
		Positive: containedWords(lower, positiveKeywords),
		Negative: containedWords(lower, negativeKeywords),
		Neutral:  containedWords(lower, neutralKeywords),
	}
}

// For returns the hits of the polarity matching mood.
func (k Keywords) For(mood models.Mood) []string {
	switch {
	case mood.Positive():
		return k.Positive
	case mood.Negative():
		return k.Negative
	default:
		return k.Neutral
	}
}

func containedWords(lower string, words []string) []string {
	found := []string{}
	for _, word := range words {
		if strings.Contains(lower, word) {
			found = append(found, word)
		}
	}
	return found
}

func countContained(lower string, words []string) int {
	count := 0
	for _, word := range words {
		if strings.Contains(lower, word) {
			count++
		}
	}
	return count
}

func containsAny(lower string, words []string) bool {
	for _, word := range words {
		if strings.Contains(lower, word) {
			return true
		}
	}
	return false
}

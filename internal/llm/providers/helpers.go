package providers

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"voice-journal/backend/internal/models"
)

const classifyPrompt = `Classify the emotions expressed in the journal text below.
Respond with JSON only, in the form {"emotions":[{"label":"joy","score":0.8}]}.
Use only these labels: joy, sadness, anger, fear, surprise, disgust, neutral, calm, excitement.
Scores are between 0 and 1. List at most five labels.

Text: `

const generatePreamble = "Answer in one or two short, warm sentences addressed to the writer. " +
	"No greeting, no lists, under 200 characters.\n\n"

var errEmptyResponse = errors.New("empty response")

func averageLatency(current time.Duration, new time.Duration, count int64) time.Duration {
	if count <= 1 {
		return new
	}
	return time.Duration(((current * time.Duration(count-1)) + new) / time.Duration(count))
}

func extractJSON(text string) string {
	start := strings.IndexAny(text, "{[")
	end := strings.LastIndexAny(text, "}]")
	if start == -1 || end == -1 || end <= start {
		return text
	}
	return text[start : end+1]
}

// parseLabelScores accepts {"emotions":[...]}, a bare [...] array, or a
// nested [[...]] array as returned by hosted classifiers.
func parseLabelScores(raw string) ([]models.LabelScore, error) {
	payload := []byte(extractJSON(raw))

	var wrapped struct {
		Emotions []models.LabelScore `json:"emotions"`
	}
	if err := json.Unmarshal(payload, &wrapped); err == nil && len(wrapped.Emotions) > 0 {
		return wrapped.Emotions, nil
	}
	var flat []models.LabelScore
	if err := json.Unmarshal(payload, &flat); err == nil && len(flat) > 0 {
		return flat, nil
	}
	var nested [][]models.LabelScore
	if err := json.Unmarshal(payload, &nested); err == nil && len(nested) > 0 && len(nested[0]) > 0 {
		return nested[0], nil
	}
	return nil, errEmptyResponse
}

package journal

import (
	"math"
	"time"

	"voice-journal/backend/internal/models"
)

const (
	scoreWindow     = 7 * 24 * time.Hour
	frequencyWindow = 30 * 24 * time.Hour
)

// moodScores place each mood on a -1..1 valence scale.
var moodScores = map[models.Mood]float64{
	models.MoodExcited: 0.8,
	models.MoodHappy:   0.45,
	models.MoodCalm:    0.2,
	models.MoodNeutral: 0,
	models.MoodSad:     -0.45,
	models.MoodAngry:   -0.8,
}

func MoodScore(mood models.Mood) float64 {
	return moodScores[mood]
}

// MoodForScore maps a valence score back onto the closest mood band.
func MoodForScore(score float64) models.Mood {
	switch {
	case score > 0.6:
		return models.MoodExcited
	case score > 0.3:
		return models.MoodHappy
	case score > 0.1:
		return models.MoodCalm
	case score > -0.3:
		return models.MoodNeutral
	case score > -0.6:
		return models.MoodSad
	default:
		return models.MoodAngry
	}
}

type DailyMood struct {
	Date    string  `json:"date"`
	Entries int     `json:"entries"`
	Score   float64 `json:"score"`
}

type Trends struct {
	AverageMood     models.Mood         `json:"average_mood"`
	AverageScore    float64             `json:"average_score"`
	ScoreChange     float64             `json:"score_change"`
	Daily           []DailyMood         `json:"daily"`
	Distribution    map[models.Mood]int `json:"distribution"`
	DominantMood    models.Mood         `json:"dominant_mood"`
	TotalEntries    int                 `json:"total_entries"`
	FrequencyChange float64             `json:"frequency_change_percent"`
}

// ComputeTrends reports the last 7 days of mood scores, the change against
// the 7 days before, and the mood distribution of the last 30 days compared
// with the 30 days before.
func ComputeTrends(entries []models.JournalEntry, now time.Time) Trends {
	now = now.UTC()
	t := Trends{
		AverageMood:  models.MoodNeutral,
		DominantMood: models.MoodNeutral,
		Distribution: map[models.Mood]int{},
		Daily:        dailySeries(entries, now),
	}
	for _, mood := range models.AllMoods {
		t.Distribution[mood] = 0
	}

	var weekSum, priorSum float64
	var weekCount, priorCount, previousMonth int
	for _, entry := range entries {
		age := now.Sub(entry.CreatedAt)
		if age < 0 {
			continue
		}
		switch {
		case age < scoreWindow:
			weekSum += MoodScore(entry.Mood)
			weekCount++
		case age < 2*scoreWindow:
			priorSum += MoodScore(entry.Mood)
			priorCount++
		}
		switch {
		case age < frequencyWindow:
			t.Distribution[entry.Mood]++
			t.TotalEntries++
		case age < 2*frequencyWindow:
			previousMonth++
		}
	}

	if weekCount > 0 {
		t.AverageScore = round2(weekSum / float64(weekCount))
		t.AverageMood = MoodForScore(t.AverageScore)
		if priorCount > 0 {
			t.ScoreChange = round2(t.AverageScore - priorSum/float64(priorCount))
		}
	}
	best := 0
	for _, mood := range models.AllMoods {
		if n := t.Distribution[mood]; n > best {
			best = n
			t.DominantMood = mood
		}
	}
	if previousMonth > 0 {
		t.FrequencyChange = round2(float64(t.TotalEntries-previousMonth) / float64(previousMonth) * 100)
	}
	return t
}

func dailySeries(entries []models.JournalEntry, now time.Time) []DailyMood {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	days := make([]DailyMood, 7)
	sums := make([]float64, 7)
	for i := range days {
		days[i].Date = today.AddDate(0, 0, i-6).Format("2006-01-02")
	}
	for _, entry := range entries {
		created := entry.CreatedAt.UTC()
		day := time.Date(created.Year(), created.Month(), created.Day(), 0, 0, 0, 0, time.UTC)
		index := 6 - int(today.Sub(day).Hours()/24)
		if index < 0 || index > 6 {
			continue
		}
		days[index].Entries++
		sums[index] += MoodScore(entry.Mood)
	}
	for i := range days {
		if days[i].Entries > 0 {
			days[i].Score = round2(sums[i] / float64(days[i].Entries))
		}
	}
	return days
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

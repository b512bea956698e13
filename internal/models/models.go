package models

import (
	"fmt"
	"strings"
	"time"
)

type Mood string

const (
	MoodHappy   Mood = "happy"
	MoodSad     Mood = "sad"
	MoodAngry   Mood = "angry"
	MoodNeutral Mood = "neutral"
	MoodExcited Mood = "excited"
	MoodCalm    Mood = "calm"
)

// AllMoods is the closed mood set in canonical order. Ranking ties are
// broken by position in this slice.
var AllMoods = []Mood{MoodHappy, MoodSad, MoodAngry, MoodNeutral, MoodExcited, MoodCalm}

func ParseMood(value string) (Mood, error) {
	mood := Mood(strings.ToLower(strings.TrimSpace(value)))
	if !mood.Valid() {
		return "", fmt.Errorf("invalid mood %q", value)
	}
	return mood, nil
}

func (m Mood) Valid() bool {
	for _, mood := range AllMoods {
		if m == mood {
			return true
		}
	}
	return false
}

func (m Mood) Positive() bool {
	return m == MoodHappy || m == MoodExcited || m == MoodCalm
}

func (m Mood) Negative() bool {
	return m == MoodSad || m == MoodAngry
}

func (m Mood) rank() int {
	for i, mood := range AllMoods {
		if m == mood {
			return i
		}
	}
	return len(AllMoods)
}

// Before reports whether m sorts ahead of other in canonical order.
func (m Mood) Before(other Mood) bool {
	return m.rank() < other.rank()
}

type Intensity string

const (
	IntensityLow    Intensity = "low"
	IntensityMedium Intensity = "medium"
	IntensityHigh   Intensity = "high"
)

func IntensityFor(confidence float64) Intensity {
	if confidence >= 0.7 {
		return IntensityHigh
	}
	if confidence >= 0.4 {
		return IntensityMedium
	}
	return IntensityLow
}

type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNegative Sentiment = "negative"
	SentimentNeutral  Sentiment = "neutral"
	SentimentMixed    Sentiment = "mixed"
)

type Complexity string

const (
	ComplexitySimple   Complexity = "simple"
	ComplexityModerate Complexity = "moderate"
	ComplexityComplex  Complexity = "complex"
)

func ComplexityFor(secondaryCount int) Complexity {
	switch {
	case secondaryCount <= 0:
		return ComplexitySimple
	case secondaryCount == 1:
		return ComplexityModerate
	default:
		return ComplexityComplex
	}
}

type JournalEntry struct {
	ID        string    `json:"id"`
	AudioURI  string    `json:"audio_uri"`
	Text      string    `json:"text"`
	Mood      Mood      `json:"mood"`
	Duration  int       `json:"duration"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type NewEntry struct {
	AudioURI string `json:"audio_uri"`
	Text     string `json:"text"`
	Mood     Mood   `json:"mood"`
	Duration int    `json:"duration"`
}

type EntryUpdate struct {
	Text *string `json:"text"`
	Mood *Mood   `json:"mood"`
}

func (u EntryUpdate) Empty() bool {
	return u.Text == nil && u.Mood == nil
}

type LabelScore struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

type EmotionAnalysis struct {
	Emotion    Mood      `json:"emotion"`
	Confidence float64   `json:"confidence"`
	Intensity  Intensity `json:"intensity"`
	Keywords   []string  `json:"keywords"`
}

type ComprehensiveMoodAnalysis struct {
	PrimaryEmotion      EmotionAnalysis   `json:"primary_emotion"`
	SecondaryEmotions   []EmotionAnalysis `json:"secondary_emotions"`
	OverallSentiment    Sentiment         `json:"overall_sentiment"`
	EmotionalComplexity Complexity        `json:"emotional_complexity"`
	Summary             string            `json:"summary"`
	Insights            []string          `json:"insights"`
}

// Emotions returns the primary emotion followed by the secondaries.
func (a *ComprehensiveMoodAnalysis) Emotions() []EmotionAnalysis {
	out := make([]EmotionAnalysis, 0, 1+len(a.SecondaryEmotions))
	out = append(out, a.PrimaryEmotion)
	return append(out, a.SecondaryEmotions...)
}

type Tense string

const (
	TensePast    Tense = "past"
	TensePresent Tense = "present"
	TenseFuture  Tense = "future"
	TenseMixed   Tense = "mixed"
)

type Progression string

const (
	ProgressionStable      Progression = "stable"
	ProgressionImproving   Progression = "improving"
	ProgressionDeclining   Progression = "declining"
	ProgressionFluctuating Progression = "fluctuating"
)

type TextPatterns struct {
	HasContrasts         bool        `json:"has_contrasts"`
	HasProgression       bool        `json:"has_progression"`
	HasQuestions         bool        `json:"has_questions"`
	HasExclamations      bool        `json:"has_exclamations"`
	TenseUsed            Tense       `json:"tense_used"`
	PersonalPronouns     []string    `json:"personal_pronouns"`
	Topics               []string    `json:"topics"`
	EmotionalTriggers    []string    `json:"emotional_triggers"`
	EmotionalProgression Progression `json:"emotional_progression"`
	IntensityWords       []string    `json:"intensity_words"`
	UncertaintyWords     []string    `json:"uncertainty_words"`
	AchievementWords     []string    `json:"achievement_words"`
	RelationshipWords    []string    `json:"relationship_words"`
	TimeReferences       []string    `json:"time_references"`
}

type MoodConfig struct {
	Mood        Mood   `json:"mood"`
	DisplayName string `json:"display_name"`
	Description string `json:"description"`
	Color       string `json:"color"`
	Icon        string `json:"icon"`
}

var moodConfigs = map[Mood]MoodConfig{
	MoodHappy:   {Mood: MoodHappy, DisplayName: "Happy", Description: "Feeling joyful and content", Color: "#34C759", Icon: "happy"},
	MoodSad:     {Mood: MoodSad, DisplayName: "Sad", Description: "Experiencing sadness or disappointment", Color: "#007AFF", Icon: "sad"},
	MoodAngry:   {Mood: MoodAngry, DisplayName: "Angry", Description: "Feeling frustrated or irritated", Color: "#FF3B30", Icon: "flame"},
	MoodNeutral: {Mood: MoodNeutral, DisplayName: "Neutral", Description: "Balanced emotional state", Color: "#8E8E93", Icon: "remove-circle"},
	MoodExcited: {Mood: MoodExcited, DisplayName: "Excited", Description: "Feeling energetic and enthusiastic", Color: "#FFCC00", Icon: "flash"},
	MoodCalm:    {Mood: MoodCalm, DisplayName: "Calm", Description: "Feeling peaceful and relaxed", Color: "#5856D6", Icon: "leaf"},
}

// ConfigFor falls back to the neutral presentation for unknown moods.
func ConfigFor(mood Mood) MoodConfig {
	if cfg, ok := moodConfigs[mood]; ok {
		return cfg
	}
	return moodConfigs[MoodNeutral]
}

func MoodConfigs() []MoodConfig {
	out := make([]MoodConfig, 0, len(AllMoods))
	for _, mood := range AllMoods {
		out = append(out, moodConfigs[mood])
	}
	return out
}

// FormatDuration renders seconds as m:ss.
func FormatDuration(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}

type Device struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	PairedAt time.Time `json:"paired_at"`
}

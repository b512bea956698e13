package mood

import (
	"reflect"
	"testing"

	"voice-journal/backend/internal/models"
)

func TestAnalyzeTextPatterns(t *testing.T) {
	text := "I was nervous before the exam, but my friend helped me. Maybe I failed? We will see tomorrow!"
	patterns := AnalyzeTextPatterns(text)

	if !patterns.HasContrasts || !patterns.HasQuestions || !patterns.HasExclamations {
		t.Fatalf("expected contrast, question and exclamation: %+v", patterns)
	}
	if !reflect.DeepEqual(patterns.PersonalPronouns, []string{"i", "my", "me", "we"}) {
		t.Fatalf("unexpected pronouns %v", patterns.PersonalPronouns)
	}
	if !reflect.DeepEqual(patterns.Topics, []string{"education", "relationships"}) {
		t.Fatalf("unexpected topics %v", patterns.Topics)
	}
	if !reflect.DeepEqual(patterns.EmotionalTriggers, []string{"failure"}) {
		t.Fatalf("unexpected triggers %v", patterns.EmotionalTriggers)
	}
}

func TestDominantTense(t *testing.T) {
	tests := []struct {
		text     string
		expected models.Tense
	}{
		{"Yesterday it happened and I felt awful, it was a mess.", models.TensePast},
		{"Tomorrow I will go out, soon enough.", models.TenseFuture},
		{"", models.TenseMixed},
	}
	for _, test := range tests {
		if got := AnalyzeTextPatterns(test.text).TenseUsed; got != test.expected {
			t.Fatalf("tense(%q)=%s, expected %s", test.text, got, test.expected)
		}
	}
}

func TestEmotionalProgression(t *testing.T) {
	improving := "This was bad and awful. Terrible day honestly. Then it got better. Great and wonderful and amazing evening."
	if got := AnalyzeTextPatterns(improving).EmotionalProgression; got != models.ProgressionImproving {
		t.Fatalf("expected improving, got %s", got)
	}

	declining := "Great and wonderful and amazing morning. It got better. Then it turned terrible. Awful and bad night."
	if got := AnalyzeTextPatterns(declining).EmotionalProgression; got != models.ProgressionDeclining {
		t.Fatalf("expected declining, got %s", got)
	}

	if got := AnalyzeTextPatterns("Terrible start. Amazing end.").EmotionalProgression; got != models.ProgressionStable {
		t.Fatalf("two sentences must stay stable, got %s", got)
	}
}

func TestSplitSentences(t *testing.T) {
	got := SplitSentences("One!! Two?  Three... ")
	if !reflect.DeepEqual(got, []string{"One", "Two", "Three"}) {
		t.Fatalf("unexpected split %v", got)
	}
}

func TestEmotionalKeywords(t *testing.T) {
	keywords := EmotionalKeywords("I feel GREAT but a bit tired, maybe.")
	if len(keywords.Positive) != 1 || keywords.Positive[0] != "great" {
		t.Fatalf("unexpected positive %v", keywords.Positive)
	}
	if len(keywords.Negative) != 1 || keywords.Negative[0] != "tired" {
		t.Fatalf("unexpected negative %v", keywords.Negative)
	}
	if len(keywords.Neutral) != 1 || keywords.Neutral[0] != "maybe" {
		t.Fatalf("unexpected neutral %v", keywords.Neutral)
	}
}

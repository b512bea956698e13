package mood

import (
	"regexp"
	"strings"

	"voice-journal/backend/internal/models"
)

var (
	sentenceSplit = regexp.MustCompile(`[.!?]+`)
	pronounRegex  = regexp.MustCompile(`(?i)\b(i|me|my|myself|we|us|our|ourselves)\b`)
)

var (
	contrastWords    = []string{"but", "however", "although", "though", "yet", "still", "nevertheless", "nonetheless", "on the other hand", "despite", "in spite of"}
	progressionWords = []string{"then", "after", "later", "now", "next", "finally", "eventually", "gradually", "suddenly", "immediately"}
	pastTenseWords   = []string{"was", "were", "had", "did", "went", "came", "said", "felt", "thought", "happened", "occurred"}
	presentWords     = []string{"am", "is", "are", "have", "do", "go", "come", "say", "feel", "think", "happen", "occur"}
	futureWords      = []string{"will", "going to", "plan to", "hope to", "want to", "intend to", "expect to", "tomorrow", "next", "soon", "later"}
	intensityWords   = []string{"very", "extremely", "incredibly", "absolutely", "completely", "totally", "really", "quite", "rather", "somewhat", "slightly", "barely", "hardly"}
	uncertaintyWords = []string{"maybe", "perhaps", "possibly", "probably", "might", "could", "would", "should", "unsure", "uncertain", "confused", "don't know"}
	achievementWords = []string{"achieved", "accomplished", "completed", "finished", "succeeded", "won", "earned", "gained", "improved", "progressed"}
	relationWords    = []string{"together", "apart", "close", "distant", "connected", "isolated", "supported", "alone", "loved", "rejected"}
	timeWords        = []string{"today", "yesterday", "tomorrow", "now", "then", "recently", "soon", "later", "before", "after", "during", "while"}
)

type wordGroup struct {
	name  string
	words []string
}

var topicGroups = []wordGroup{
	{"work", []string{"work", "job", "career", "office", "boss", "colleague", "meeting", "project", "deadline", "salary"}},
	{"education", []string{"school", "university", "college", "exam", "test", "study", "homework", "assignment", "grade", "teacher", "professor", "class", "lecture"}},
	{"relationships", []string{"friend", "family", "partner", "boyfriend", "girlfriend", "husband", "wife", "mother", "father", "parent", "child", "sibling", "relationship"}},
	{"health", []string{"health", "doctor", "hospital", "sick", "illness", "medicine", "therapy", "exercise", "diet", "sleep"}},
	{"personal", []string{"myself", "personal", "growth", "change", "decision", "choice", "future", "goal", "dream", "hope"}},
}

var triggerGroups = []wordGroup{
	{"failure", []string{"failed", "failure", "mistake", "wrong", "messed up", "screwed up"}},
	{"success", []string{"succeeded", "success", "achieved", "accomplished", "won", "victory"}},
	{"rejection", []string{"rejected", "rejection", "ignored", "dismissed", "turned down"}},
	{"acceptance", []string{"accepted", "approval", "welcomed", "included", "chosen"}},
	{"loss", []string{"lost", "loss", "gone", "missing", "ended", "over"}},
	{"gain", []string{"gained", "got", "received", "earned", "found", "discovered"}},
}

// SplitSentences splits on runs of '.', '!' and '?' and drops blank pieces.
func SplitSentences(text string) []string {
	parts := sentenceSplit.Split(text, -1)
	sentences := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			sentences = append(sentences, trimmed)
		}
	}
	return sentences
}

// AnalyzeTextPatterns extracts structural and lexical features of text.
func AnalyzeTextPatterns(text string) models.TextPatterns {
	lower := strings.ToLower(text)
	sentences := SplitSentences(text)

	return models.TextPatterns{
		HasContrasts:         containsAny(lower, contrastWords),
		HasProgression:       containsAny(lower, progressionWords),
		HasQuestions:         strings.Contains(text, "?"),
		HasExclamations:      strings.Contains(text, "!"),
		TenseUsed:            dominantTense(lower),
		PersonalPronouns:     personalPronouns(text),
		Topics:               matchGroups(lower, topicGroups),
		EmotionalTriggers:    matchGroups(lower, triggerGroups),
		EmotionalProgression: emotionalProgression(sentences),
		IntensityWords:       containedWords(lower, intensityWords),
		UncertaintyWords:     containedWords(lower, uncertaintyWords),
		AchievementWords:     containedWords(lower, achievementWords),
		RelationshipWords:    containedWords(lower, relationWords),
		TimeReferences:       containedWords(lower, timeWords),
	}
}

func dominantTense(lower string) models.Tense {
	past := countContained(lower, pastTenseWords)
	present := countContained(lower, presentWords)
	future := countContained(lower, futureWords)
	switch {
	case past > present && past > future:
		return models.TensePast
	case present > past && present > future:
		return models.TensePresent
	case future > past && future > present:
		return models.TenseFuture
	default:
		return models.TenseMixed
	}
}

func personalPronouns(text string) []string {
	seen := map[string]bool{}
	pronouns := []string{}
	for _, match := range pronounRegex.FindAllString(text, -1) {
		p := strings.ToLower(match)
		if seen[p] {
			continue
		}
		seen[p] = true
		pronouns = append(pronouns, p)
	}
	return pronouns
}

func matchGroups(lower string, groups []wordGroup) []string {
	found := []string{}
	for _, group := range groups {
		if containsAny(lower, group.words) {
			found = append(found, group.name)
		}
	}
	return found
}

// emotionalProgression compares lexicon scores of the first ceil(n/2)
// sentences against the rest. Needs more than two sentences.
func emotionalProgression(sentences []string) models.Progression {
	if len(sentences) <= 2 {
		return models.ProgressionStable
	}
	mid := (len(sentences) + 1) / 2
	first := halfScore(sentences[:mid])
	second := halfScore(sentences[mid:])

	switch {
	case second > first+1:
		return models.ProgressionImproving
	case first > second+1:
		return models.ProgressionDeclining
	case abs(first-second) > 2:
		return models.ProgressionFluctuating
	default:
		return models.ProgressionStable
	}
}

func halfScore(sentences []string) int {
	keywords := EmotionalKeywords(strings.Join(sentences, " "))
	return len(keywords.Positive) - len(keywords.Negative)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

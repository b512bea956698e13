package insight

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"voice-journal/backend/internal/models"
)

const maxContentInsights = 3

type phraseRule struct {
	pattern  *regexp.Regexp
	template func(match []string) string
}

var phraseRules = []phraseRule{
	{
		regexp.MustCompile(`(?i)\b(?:worried|stressed|anxious|concerned) about\s+([^.!?,]{3,40})`),
		func(m []string) string {
			return fmt.Sprintf("Your concern about %s shows how much it matters to you. Focus on the parts you can influence.", phrase(m[1]))
		},
	},
	{
		regexp.MustCompile(`(?i)\b(?:struggling with|having trouble with)\s+([^.!?,]{3,40})`),
		func(m []string) string {
			return fmt.Sprintf("Struggling with %s is hard, and naming it is already a step toward working through it.", phrase(m[1]))
		},
	},
	{
		regexp.MustCompile(`(?i)\b(?:proud of|finally finished|finished|completed|achieved|accomplished)\s+([^.!?,]{3,40})`),
		func(m []string) string {
			return fmt.Sprintf("Finishing %s deserves recognition. Take a moment to appreciate the effort behind it.", phrase(m[1]))
		},
	},
	{
		regexp.MustCompile(`(?i)\bmy (friends?|mom|mother|dad|father|parents|partner|sister|brother|family|boss|wife|husband|boyfriend|girlfriend|kids?|colleagues?|team)\b`),
		func(m []string) string {
			return fmt.Sprintf("Your %s clearly plays a part in how you feel today. The people around us shape our emotional world.", strings.ToLower(m[1]))
		},
	},
	{
		regexp.MustCompile(`(?i)\b(so|very|really|extremely|incredibly|totally|completely)\s+([a-z]{3,})`),
		func(m []string) string {
			return fmt.Sprintf("Feeling %s %s is a strong signal. Intense feelings often point to what matters most right now.", strings.ToLower(m[1]), strings.ToLower(m[2]))
		},
	},
	{
		regexp.MustCompile(`([^.!?]{8,120})\?`),
		func(m []string) string {
			return fmt.Sprintf("You asked yourself %q. Sitting with that question may guide your next reflection.", strings.TrimSpace(m[1])+"?")
		},
	},
}

// Content builds insights from phrases found in the text, then from
// intensity, life domain and length observations.
func Content(_ context.Context, c *Context) []string {
	insights := []string{}
	for _, rule := range phraseRules {
		if len(insights) == maxContentInsights {
			return insights
		}
		if match := rule.pattern.FindStringSubmatch(c.Text); match != nil {
			insights = appendUnique(insights, rule.template(match))
		}
	}
	for _, observation := range observations(c) {
		if len(insights) == maxContentInsights {
			break
		}
		insights = appendUnique(insights, observation)
	}
	return insights
}

func observations(c *Context) []string {
	out := []string{}
	if c.Intensity == models.IntensityHigh {
		out = append(out, fmt.Sprintf("The intensity of your %s feelings comes through clearly in your writing. Strong emotions like this often signal that something important is happening in your life.", c.Emotion))
	}
	if len(c.PersonalContext) > 0 {
		out = append(out, fmt.Sprintf("Your %s feelings in the %s area of your life are completely valid. Different life domains can significantly impact our emotional well-being.", c.Emotion, c.PersonalContext[0]))
	}
	if c.WordCount > 50 {
		out = append(out, fmt.Sprintf("Taking the time to express your thoughts in %d words shows you're actively processing your %s feelings. This kind of reflection is healthy and important.", c.WordCount, c.Emotion))
	}
	return out
}

func phrase(s string) string {
	return strings.TrimSpace(strings.ToLower(s))
}

package insight

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"voice-journal/backend/internal/models"
)

type concern struct {
	kind    string
	pattern *regexp.Regexp
}

var concernPatterns = []concern{
	{"worry", regexp.MustCompile(`(?i)worried about (.+?)[.,!]`)},
	{"uncertainty", regexp.MustCompile(`(?i)don't know (.+?)[.,!]`)},
	{"fear", regexp.MustCompile(`(?i)afraid (.+?)[.,!]`)},
	{"struggle", regexp.MustCompile(`(?i)struggling with (.+?)[.,!]`)},
}

var copingGroups = []domain{
	{"social support", []string{"talked to", "spoke with", "called"}},
	{"physical activity", []string{"exercise", "workout", "run", "walk"}},
	{"mindfulness", []string{"meditate", "breathe", "calm"}},
	{"expressive writing", []string{"write", "journal", "wrote"}},
	{"music", []string{"music", "listen", "song"}},
	{"rest and recovery", []string{"sleep", "rest", "nap"}},
	{"problem-solving", []string{"plan", "organize", "schedule"}},
	{"spiritual practice", []string{"pray", "faith", "spiritual"}},
}

var thoughtPatterns = []domain{
	{"ruminating", []string{"keep thinking", "can't stop", "over and over", "why did", "what if", "should have", "could have"}},
	{"problem-solving", []string{"need to", "going to", "plan to", "will try", "maybe i can", "i should", "next step"}},
	{"accepting", []string{"it is what it is", "accept", "let go", "move on", "okay with", "understand that"}},
	{"avoiding", []string{"don't want to think", "ignore", "forget about", "distract myself", "avoid"}},
}

var (
	pastOrientation    = []string{"was", "were", "had", "did", "yesterday", "before", "earlier", "used to"}
	presentOrientation = []string{"am", "is", "are", "now", "today", "currently", "right now"}
	futureOrientation  = []string{"will", "going to", "tomorrow", "next", "plan to", "hope to"}
	actionPattern      = regexp.MustCompile(`(?i)\b(going to|will|need to|want to|trying to|decided to|planning to)\s+\w+`)
	sentenceEnd        = regexp.MustCompile(`[.!?]+`)
)

var supportGroups = []domain{
	{"friends", []string{"friend"}},
	{"family", []string{"family", "parents"}},
	{"professional help", []string{"therapist", "counselor"}},
	{"romantic partner", []string{"partner", "boyfriend", "girlfriend"}},
}

var situations = []struct {
	keywords []string
	insight  string
}{
	{[]string{"exam", "test"}, "Academic evaluations can trigger intense emotions because they feel like judgments of our abilities. One test or exam doesn't define your intelligence or potential."},
	{[]string{"interview", "job"}, "Career changes involve both opportunity and uncertainty, which naturally creates mixed emotions. Your feelings reflect the significance of this transition in your life."},
	{[]string{"relationship", "breakup"}, "Relationship changes affect us deeply because they touch our need for connection. What you're feeling is a natural response to a significant shift."},
	{[]string{"health", "sick"}, "Health worries can amplify other emotions because they affect our sense of security. Caring for your emotional well-being matters as much as the physical side."},
}

type reflection struct {
	emotion    models.Mood
	hard       bool
	concerns   [][2]string
	coping     []string
	thought    string
	past       int
	present    int
	future     int
	support    []string
	actions    int
	situations []string
}

func reflect(c *Context) reflection {
	lower := strings.ToLower(c.Text)
	r := reflection{
		emotion: c.Emotion,
		hard:    c.Emotion.Negative(),
		past:    count(lower, pastOrientation),
		present: count(lower, presentOrientation),
		future:  count(lower, futureOrientation),
		actions: len(actionPattern.FindAllString(c.Text, -1)),
		thought: dominantThought(lower),
	}
	for _, p := range concernPatterns {
		if m := p.pattern.FindStringSubmatch(c.Text); m != nil {
			r.concerns = append(r.concerns, [2]string{p.kind, strings.TrimSpace(m[1])})
		}
	}
	for _, g := range copingGroups {
		if hasAny(lower, g.keywords) {
			r.coping = append(r.coping, g.name)
		}
	}
	for _, g := range supportGroups {
		if hasAny(lower, g.keywords) {
			r.support = append(r.support, g.name)
		}
	}
	for _, s := range situations {
		if hasAny(lower, s.keywords) {
			r.situations = append(r.situations, s.insight)
		}
	}
	return r
}

// dominantThought returns "" when no indicator matched.
func dominantThought(lower string) string {
	best, bestCount := "", 0
	for _, p := range thoughtPatterns {
		if n := count(lower, p.keywords); n > bestCount {
			best, bestCount = p.name, n
		}
	}
	return best
}

// Reflective produces deeper, text-specific reflections: concerns, coping,
// thought patterns, time orientation, support, situations and triggers.
func Reflective(_ context.Context, c *Context) []string {
	r := reflect(c)
	out := []string{}

	for _, cn := range r.concerns {
		switch cn[0] {
		case "worry":
			out = append(out, fmt.Sprintf("Your worry about %s shows you care deeply about the outcome. Consider what you can influence and what is beyond your control.", cn[1]))
		case "uncertainty":
			out = append(out, fmt.Sprintf("Not knowing %s is creating emotional tension. Acknowledging uncertainty is often the first step toward clarity.", cn[1]))
		case "struggle":
			out = append(out, fmt.Sprintf("Struggling with %s is challenging, but recognizing the struggle means you're actively working through it.", cn[1]))
		case "fear":
			out = append(out, fmt.Sprintf("Your fear %s is a natural protective response. Consider what small steps might help you feel more prepared or supported.", cn[1]))
		}
	}

	if len(r.coping) > 0 {
		out = append(out, fmt.Sprintf("You're already using healthy coping strategies like %s. Building on these strengths can help you through current challenges.", strings.Join(r.coping, ", ")))
	} else if r.hard {
		out = append(out, "You're experiencing difficult emotions without mentioning specific coping strategies. Consider what has helped you through tough times before.")
	}

	switch r.thought {
	case "ruminating":
		out = append(out, "Your thoughts seem to be cycling around the same concerns. Setting aside a specific worry time or doing something that needs focus can break the cycle.")
	case "problem-solving":
		out = append(out, "You're actively thinking through solutions and next steps, which shows resilience even during difficult times.")
	case "accepting":
		out = append(out, "Your acceptance of the situation shows emotional maturity. This mindset often creates space for new possibilities.")
	case "avoiding":
		out = append(out, "You seem to be avoiding some parts of your situation. That can bring temporary relief, but gentle acknowledgment may help in the long run.")
	}

	if total := r.past + r.present + r.future; total > 0 {
		switch {
		case float64(r.past)/float64(total) > 0.6:
			out = append(out, "You're spending significant mental energy on past events. Reflection is valuable, and it can also inform your choices in the present.")
		case float64(r.future)/float64(total) > 0.6:
			out = append(out, "Your focus on future possibilities shows hope and planning. Balancing it with present-moment awareness can ease anxiety about unknowns.")
		}
	}

	if len(r.support) > 0 {
		out = append(out, fmt.Sprintf("You mention %s as part of your life. These connections are valuable resources during emotionally challenging times.", strings.Join(r.support, " and ")))
	} else if r.hard {
		out = append(out, "You don't mention specific people in your support network. Reaching out to someone you trust, even briefly, can bring perspective and comfort.")
	}

	switch c.Patterns.EmotionalProgression {
	case models.ProgressionImproving:
		out = append(out, "Your tone becomes more positive as you write, suggesting that expressing these thoughts is helping you find perspective.")
	case models.ProgressionDeclining:
		out = append(out, "Your tone becomes heavier as you go deeper into your thoughts. Processing at this depth is difficult, and it can lead to important insights.")
	}

	out = append(out, r.situations...)

	if r.actions > 2 {
		out = append(out, "You mention several actions you're taking or planning. You're not just experiencing these emotions, you're actively working on your situation.")
	} else if r.hard {
		out = append(out, "Your emotions may feel overwhelming right now, which makes next steps hard to see. Acknowledging how you feel is an important first action.")
	}

	if c.Analysis != nil && conflicting(c.Analysis) {
		out = append(out, "You're experiencing conflicting emotions at the same time, which shows you're processing a complex situation. That complexity is normal during significant events.")
	}

	out = append(out, triggerReflections(c.Patterns.EmotionalTriggers, r)...)
	out = append(out, recommendations(r)...)

	out = appendUnique(nil, out...)
	if len(out) == 0 {
		out = append(out, contextualFallback(c.Text, c.Emotion))
	}
	if len(out) > DetailedMax {
		out = out[:DetailedMax]
	}
	return out
}

func conflicting(a *models.ComprehensiveMoodAnalysis) bool {
	if len(a.SecondaryEmotions) < 2 {
		return false
	}
	var positive, negative bool
	for _, e := range a.Emotions() {
		positive = positive || e.Emotion == models.MoodHappy || e.Emotion == models.MoodExcited
		negative = negative || e.Emotion.Negative()
	}
	return positive && negative
}

func triggerReflections(triggers []string, r reflection) []string {
	out := []string{}
	for _, trigger := range triggers {
		switch trigger {
		case "failure":
			switch {
			case r.thought == "ruminating":
				out = append(out, "The sense of failure is creating a cycle of repetitive thoughts. Consider what you learned rather than focusing only on the outcome.")
			case len(r.coping) > 0:
				out = append(out, "Despite feeling like you failed, you're actively using coping strategies, which shows resilience and self-care.")
			default:
				out = append(out, "Experiencing failure is difficult, but your willingness to acknowledge and process it is a form of emotional courage.")
			}
		case "success":
			if r.emotion == models.MoodExcited {
				out = append(out, "Your excitement about this success comes through clearly. Savoring positive moments builds resilience for future challenges.")
			} else if r.future > r.present {
				out = append(out, "Even while experiencing success, you're thinking ahead. Balancing celebration with planning shows both gratitude and ambition.")
			}
		case "rejection":
			if len(r.support) > 0 {
				out = append(out, "Being rejected is painful, but you have people around you. Leaning on them can help you keep perspective.")
			} else {
				out = append(out, "Rejection affects our sense of belonging. One person's or institution's decision doesn't define your value or potential.")
			}
		case "loss":
			if r.past > r.present+r.future {
				out = append(out, "You're spending time remembering what you've lost, which is a natural part of grieving. Be gentle with yourself about when to re-engage with the present.")
			} else {
				out = append(out, "Loss creates a complex mix of emotions that can't be rushed. Your feelings deserve the time they need.")
			}
		}
	}
	return out
}

func recommendations(r reflection) []string {
	out := []string{}
	if r.thought == "ruminating" && len(r.coping) == 0 {
		out = append(out, "When thoughts keep repeating, try the 5-4-3-2-1 grounding technique: notice 5 things you see, 4 you can touch, 3 you hear, 2 you smell and 1 you taste.")
	}
	if len(r.support) == 0 && r.hard {
		out = append(out, "Consider reaching out to someone you trust, even just to say you're having a tough day. Connection doesn't require explaining everything.")
	}
	if r.past > r.present+r.future {
		out = append(out, "Try spending ten minutes on something in your immediate environment, whatever you can see, hear or do right now.")
	}
	return out
}

func contextualFallback(text string, emotion models.Mood) string {
	words := len(strings.Fields(text))
	switch {
	case words > 100:
		return fmt.Sprintf("Your detailed expression of these %s feelings shows you're taking time to understand your emotional experience.", emotion)
	case len(sentenceEnd.Split(strings.TrimSpace(text), -1)) <= 2:
		return fmt.Sprintf("Even though you've expressed this briefly, the %s emotion you're experiencing is valid and worth acknowledging.", emotion)
	default:
		return fmt.Sprintf("Your %s feelings come through clearly in your writing. Taking time to express and examine emotions like this is a valuable form of self-care.", emotion)
	}
}

func count(lower string, words []string) int {
	n := 0
	for _, w := range words {
		if strings.Contains(lower, w) {
			n++
		}
	}
	return n
}

func hasAny(lower string, words []string) bool {
	return count(lower, words) > 0
}

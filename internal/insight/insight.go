package insight

import (
	"context"
	"log/slog"
	"regexp"
	"strings"

	"voice-journal/backend/internal/models"
)

const (
	DefaultMax      = 4
	DetailedMax     = 6
	DefaultDesired  = 3
	maxKeyPhrases   = 3
	highIntensityAt = 2
)

type Input struct {
	Text     string
	Analysis *models.ComprehensiveMoodAnalysis
	Patterns models.TextPatterns
}

// Context is what every strategy sees.
type Context struct {
	Text            string
	Emotion         models.Mood
	Confidence      float64
	KeyPhrases      []string
	Intensity       models.Intensity
	WordCount       int
	PersonalContext []string
	Analysis        *models.ComprehensiveMoodAnalysis
	Patterns        models.TextPatterns
}

var keyPhrasePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:worried about|stressed about|anxious about|concerned about)\s+[^.!?]{5,30}`),
	regexp.MustCompile(`(?i)(?:excited about|happy about|proud of)\s+[^.!?]{5,30}`),
	regexp.MustCompile(`(?i)(?:struggling with|having trouble with)\s+[^.!?]{5,30}`),
}

var intensityIndicators = []string{"very", "extremely", "really", "so", "incredibly", "absolutely", "completely", "totally", "utterly", "deeply", "profoundly"}

type domain struct {
	name     string
	keywords []string
}

var personalDomains = []domain{
	{"academic", []string{"school", "exam", "test", "study", "homework", "class"}},
	{"work", []string{"job", "work", "boss", "meeting", "project", "career"}},
	{"relationships", []string{"friend", "family", "partner", "relationship"}},
	{"health", []string{"sick", "tired", "doctor", "health"}},
	{"personal", []string{"myself", "future", "goals", "dreams"}},
}

func NewContext(input Input) *Context {
	lower := strings.ToLower(input.Text)
	c := &Context{
		Text:            input.Text,
		Emotion:         models.MoodNeutral,
		Confidence:      0.5,
		KeyPhrases:      keyPhrases(input.Text),
		Intensity:       textIntensity(lower),
		WordCount:       len(strings.Fields(input.Text)),
		PersonalContext: personalContext(lower),
		Analysis:        input.Analysis,
		Patterns:        input.Patterns,
	}
	if input.Analysis != nil {
		c.Emotion = input.Analysis.PrimaryEmotion.Emotion
		c.Confidence = input.Analysis.PrimaryEmotion.Confidence
	}
	return c
}

func keyPhrases(text string) []string {
	phrases := []string{}
	for _, pattern := range keyPhrasePatterns {
		for _, match := range pattern.FindAllString(text, -1) {
			cleaned := strings.TrimSpace(match)
			if len(cleaned) > 10 && len(cleaned) < 50 {
				phrases = append(phrases, cleaned)
			}
		}
	}
	if len(phrases) > maxKeyPhrases {
		phrases = phrases[:maxKeyPhrases]
	}
	return phrases
}

func textIntensity(lower string) models.Intensity {
	count := 0
	for _, word := range intensityIndicators {
		if strings.Contains(lower, word) {
			count++
		}
	}
	switch {
	case count > highIntensityAt:
		return models.IntensityHigh
	case count > 0:
		return models.IntensityMedium
	default:
		return models.IntensityLow
	}
}

func personalContext(lower string) []string {
	found := []string{}
	for _, d := range personalDomains {
		for _, keyword := range d.keywords {
			if strings.Contains(lower, keyword) {
				found = append(found, d.name)
				break
			}
		}
	}
	return found
}

type Strategy func(ctx context.Context, c *Context) []string

type Tier struct {
	Name     string
	Strategy Strategy
	// Final tiers run only when nothing else produced output.
	Final bool
}

type TierObserver interface {
	InsightTierUsed(tier string)
}

// Chain runs tiers in order. The first tier that yields anything wins; when
// it yields fewer than Desired items the next non-final tier may top it up.
type Chain struct {
	Tiers    []Tier
	Max      int
	Desired  int
	Observer TierObserver
	Logger   *slog.Logger
}

func (c *Chain) Insights(ctx context.Context, input Input) []string {
	ictx := NewContext(input)
	var out []string
	for i, tier := range c.Tiers {
		items := c.run(ctx, tier, ictx)
		if len(items) == 0 {
			continue
		}
		out = appendUnique(out, items...)
		if len(out) < c.desired() && !tier.Final {
			out = c.topUp(ctx, ictx, i+1, out)
		}
		break
	}
	if len(out) == 0 {
		out = Guaranteed(input.Text, ictx.Emotion)
		c.observe("guaranteed")
	}
	if limit := c.max(); len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (c *Chain) topUp(ctx context.Context, ictx *Context, from int, out []string) []string {
	for _, tier := range c.Tiers[from:] {
		if tier.Final {
			return out
		}
		if items := c.run(ctx, tier, ictx); len(items) > 0 {
			return appendUnique(out, items...)
		}
	}
	return out
}

func (c *Chain) run(ctx context.Context, tier Tier, ictx *Context) (items []string) {
	defer func() {
		if r := recover(); r != nil {
			c.logger().Warn("insight tier panicked", "tier", tier.Name, "panic", r)
			items = nil
		}
	}()
	if tier.Strategy == nil {
		return nil
	}
	items = nonEmpty(tier.Strategy(ctx, ictx))
	if len(items) > 0 {
		c.observe(tier.Name)
	}
	return items
}

func (c *Chain) observe(tier string) {
	if c.Observer != nil {
		c.Observer.InsightTierUsed(tier)
	}
}

func (c *Chain) max() int {
	if c.Max > 0 {
		return c.Max
	}
	return DefaultMax
}

func (c *Chain) desired() int {
	if c.Desired > 0 {
		return c.Desired
	}
	return DefaultDesired
}

func (c *Chain) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}

func appendUnique(out []string, items ...string) []string {
	for _, item := range items {
		duplicate := false
		for _, existing := range out {
			if existing == item {
				duplicate = true
				break
			}
		}
		if !duplicate {
			out = append(out, item)
		}
	}
	return out
}

func nonEmpty(items []string) []string {
	out := items[:0:0]
	for _, item := range items {
		if strings.TrimSpace(item) != "" {
			out = append(out, item)
		}
	}
	return out
}

// NewDefaultChain is the analysis call site: remote, content, guaranteed.
func NewDefaultChain(remote *Remote, observer TierObserver, logger *slog.Logger) *Chain {
	return &Chain{
		Tiers: []Tier{
			{Name: "remote", Strategy: remote.Strategy()},
			{Name: "content", Strategy: Content},
			{Name: "guaranteed", Strategy: GuaranteedStrategy, Final: true},
		},
		Max:      DefaultMax,
		Desired:  DefaultDesired,
		Observer: observer,
		Logger:   logger,
	}
}

// NewDetailedChain adds the reflective tier and allows up to six items.
func NewDetailedChain(remote *Remote, observer TierObserver, logger *slog.Logger) *Chain {
	return &Chain{
		Tiers: []Tier{
			{Name: "remote", Strategy: remote.Strategy()},
			{Name: "reflective", Strategy: Reflective},
			{Name: "content", Strategy: Content},
			{Name: "guaranteed", Strategy: GuaranteedStrategy, Final: true},
		},
		Max:      DetailedMax,
		Desired:  DefaultDesired,
		Observer: observer,
		Logger:   logger,
	}
}

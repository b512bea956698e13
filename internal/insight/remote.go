package insight

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"voice-journal/backend/internal/models"
)

const (
	DefaultMinLength   = 15
	DefaultMaxLength   = 200
	DetailedMaxLength  = 280
	defaultRemoteCalls = 3
	defaultCallTimeout = 20 * time.Second
	excerptLength      = 50
)

// Below this the classifier is only guessing at the emotion.
const tentativeConfidence = 0.4

// Generator is one remote text-generation backend.
type Generator interface {
	Name() string
	Generate(ctx context.Context, prompt string) (string, error)
}

// GeneratorSource yields backends in priority order.
type GeneratorSource interface {
	Generators(ctx context.Context) []Generator
}

type StaticGenerators []Generator

func (s StaticGenerators) Generators(context.Context) []Generator { return s }

type theme struct {
	name   string
	prompt func(c *Context) string
}

var (
	validationTheme = theme{"validation", func(c *Context) string {
		if c.Confidence < tentativeConfidence {
			return fmt.Sprintf("Someone might be feeling %s. Give them gentle, supportive advice:", c.Emotion)
		}
		return fmt.Sprintf("Someone is feeling %s. Give them supportive advice:", c.Emotion)
	}}
	copingTheme = theme{"coping", func(c *Context) string {
		if len(c.KeyPhrases) > 0 {
			return fmt.Sprintf("A person is %s. How can they feel better?", strings.Join(c.KeyPhrases, " and "))
		}
		return fmt.Sprintf("A person wrote %q How can they feel better?", excerpt(c.Text))
	}}
	perspectiveTheme = theme{"perspective", func(c *Context) string {
		return fmt.Sprintf("advice for someone feeling %s:", c.Emotion)
	}}
	actionTheme = theme{"action", func(c *Context) string {
		return fmt.Sprintf("What is one small step someone who feels %s could take today?", c.Emotion)
	}}
)

func themesFor(mood models.Mood) []theme {
	switch {
	case mood.Negative():
		return []theme{validationTheme, copingTheme, actionTheme}
	case mood.Positive():
		return []theme{validationTheme, perspectiveTheme, actionTheme}
	default:
		return []theme{validationTheme, perspectiveTheme, copingTheme}
	}
}

// Remote asks generation backends for short themed insights.
type Remote struct {
	Source      GeneratorSource
	MaxCalls    int
	MinLength   int
	MaxLength   int
	CallTimeout time.Duration
	Logger      *slog.Logger
}

func (r *Remote) Strategy() Strategy {
	return func(ctx context.Context, c *Context) []string {
		if r == nil || r.Source == nil {
			return nil
		}
		return r.generate(ctx, c)
	}
}

func (r *Remote) generate(ctx context.Context, c *Context) []string {
	generators := r.Source.Generators(ctx)
	if len(generators) == 0 {
		return nil
	}
	themes := themesFor(c.Emotion)
	if calls := r.maxCalls(); len(themes) > calls {
		themes = themes[:calls]
	}

	insights := []string{}
	for _, t := range themes {
		if ctx.Err() != nil {
			break
		}
		if text := r.ask(ctx, generators, t, c); text != "" {
			insights = appendUnique(insights, text)
		}
	}
	return insights
}

// ask returns the first usable answer for one themed prompt. A failing
// backend contributes nothing.
func (r *Remote) ask(ctx context.Context, generators []Generator, t theme, c *Context) string {
	prompt := t.prompt(c)
	for _, g := range generators {
		callCtx, cancel := context.WithTimeout(ctx, r.callTimeout())
		raw, err := g.Generate(callCtx, prompt)
		cancel()
		if err != nil {
			r.logger().Debug("insight generation failed", "backend", g.Name(), "theme", t.name, "error", err)
			continue
		}
		if cleaned := Clean(raw); r.usable(cleaned) {
			return cleaned
		}
	}
	return ""
}

func (r *Remote) usable(text string) bool {
	n := len([]rune(text))
	return n >= r.minLength() && n <= r.maxLength()
}

func excerpt(text string) string {
	runes := []rune(text)
	if len(runes) <= excerptLength {
		return string(runes)
	}
	return string(runes[:excerptLength]) + "..."
}

func (r *Remote) maxCalls() int {
	if r.MaxCalls > 0 && r.MaxCalls <= defaultRemoteCalls {
		return r.MaxCalls
	}
	return defaultRemoteCalls
}

func (r *Remote) minLength() int {
	if r.MinLength > 0 {
		return r.MinLength
	}
	return DefaultMinLength
}

func (r *Remote) maxLength() int {
	if r.MaxLength > 0 {
		return r.MaxLength
	}
	return DefaultMaxLength
}

func (r *Remote) callTimeout() time.Duration {
	if r.CallTimeout > 0 {
		return r.CallTimeout
	}
	return defaultCallTimeout
}

func (r *Remote) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}

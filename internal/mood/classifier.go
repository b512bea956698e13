package mood

import (
	"context"
	"log/slog"
	"math"
	"sort"
	"strings"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"voice-journal/backend/internal/models"
)

const (
	DefaultTopN              = 5
	DefaultMinSentenceLength = 10
	defaultConcurrency       = 4
)

// Classifier is one remote emotion-classification backend.
type Classifier interface {
	Name() string
	Classify(ctx context.Context, text string) ([]models.LabelScore, error)
}

// ClassifierSource yields backends in priority order.
type ClassifierSource interface {
	Classifiers(ctx context.Context) []Classifier
}

type StaticClassifiers []Classifier

func (s StaticClassifiers) Classifiers(context.Context) []Classifier { return s }

type FailureObserver interface {
	ClassifierFailed(backend string)
}

type Vote struct {
	Mood  models.Mood `json:"mood"`
	Score float64     `json:"score"`
}

// Adapter turns free text into mood votes, one classification per sentence.
type Adapter struct {
	Source            ClassifierSource
	TopN              int
	MinSentenceLength int
	Concurrency       int
	Observer          FailureObserver
	Logger            *slog.Logger
}

// ClassifySentences classifies every sentence of at least
// MinSentenceLength characters and returns the votes in sentence order.
func (a *Adapter) ClassifySentences(ctx context.Context, text string) []Vote {
	units := []string{}
	for _, sentence := range SplitSentences(text) {
		if utf8.RuneCountInString(sentence) >= a.minLength() {
			units = append(units, sentence)
		}
	}
	return a.classifyAll(ctx, units)
}

// ClassifyText makes a single whole-text attempt.
func (a *Adapter) ClassifyText(ctx context.Context, text string) []Vote {
	trimmed := strings.TrimSpace(text)
	if utf8.RuneCountInString(trimmed) < a.minLength() {
		return nil
	}
	return a.classifyAll(ctx, []string{trimmed})
}

func (a *Adapter) classifyAll(ctx context.Context, units []string) []Vote {
	if len(units) == 0 || a.Source == nil {
		return nil
	}
	backends := a.Source.Classifiers(ctx)
	if len(backends) == 0 {
		return nil
	}

	results := make([][]Vote, len(units))
	var g errgroup.Group
	g.SetLimit(a.concurrency())
	for i, unit := range units {
		i, unit := i, unit
		g.Go(func() error {
			results[i] = a.classifyUnit(ctx, unit, backends)
			return nil
		})
	}
	_ = g.Wait()

	votes := []Vote{}
	for _, result := range results {
		votes = append(votes, result...)
	}
	return votes
}

func (a *Adapter) classifyUnit(ctx context.Context, text string, backends []Classifier) (votes []Vote) {
	defer func() {
		if r := recover(); r != nil {
			a.logger().Warn("classifier panicked", "panic", r)
			votes = nil
		}
	}()

	for _, backend := range backends {
		if ctx.Err() != nil {
			return nil
		}
		scores, err := backend.Classify(ctx, text)
		if err != nil {
			a.logger().Debug("classifier backend failed", "backend", backend.Name(), "error", err)
			a.observeFailure(backend.Name())
			continue
		}
		scores = wellFormed(scores)
		if len(scores) == 0 {
			a.observeFailure(backend.Name())
			continue
		}
		return a.toVotes(scores)
	}
	return nil
}

func (a *Adapter) toVotes(scores []models.LabelScore) []Vote {
	sort.SliceStable(scores, func(i, j int) bool { return scores[i].Score > scores[j].Score })
	if len(scores) > a.topN() {
		scores = scores[:a.topN()]
	}
	votes := make([]Vote, 0, len(scores))
	for _, score := range scores {
		votes = append(votes, Vote{Mood: MapLabel(score.Label), Score: score.Score})
	}
	return votes
}

// wellFormed drops pairs without a label or with a score outside [0,1].
func wellFormed(scores []models.LabelScore) []models.LabelScore {
	out := make([]models.LabelScore, 0, len(scores))
	for _, score := range scores {
		if strings.TrimSpace(score.Label) == "" || math.IsNaN(score.Score) || score.Score < 0 || score.Score > 1 {
			continue
		}
		out = append(out, score)
	}
	return out
}

func (a *Adapter) observeFailure(name string) {
	if a.Observer != nil {
		a.Observer.ClassifierFailed(name)
	}
}

func (a *Adapter) minLength() int {
	if a.MinSentenceLength > 0 {
		return a.MinSentenceLength
	}
	return DefaultMinSentenceLength
}

func (a *Adapter) topN() int {
	if a.TopN > 0 {
		return a.TopN
	}
	return DefaultTopN
}

func (a *Adapter) concurrency() int {
	if a.Concurrency > 0 {
		return a.Concurrency
	}
	return defaultConcurrency
}

func (a *Adapter) logger() *slog.Logger {
	if a.Logger != nil {
		return a.Logger
	}
	return slog.Default()
}

package mood

import (
	"context"
	"sync"
	"time"

	"voice-journal/backend/internal/models"
)

const DefaultDebounceWindow = 1200 * time.Millisecond

type AnalyzeFunc func(ctx context.Context, text string) *models.ComprehensiveMoodAnalysis

type Result struct {
	Generation uint64                            `json:"generation"`
	Text       string                            `json:"-"`
	Analysis   *models.ComprehensiveMoodAnalysis `json:"analysis"`
}

// Debouncer re-analyzes draft text after a quiet window. Every Submit
// starts a new generation; an analysis is delivered only while its
// generation is still the latest, so out-of-order completions are dropped.
type Debouncer struct {
	mu         sync.Mutex
	parent     context.Context
	window     time.Duration
	analyze    AnalyzeFunc
	deliver    func(Result)
	generation uint64
	timer      *time.Timer
	cancel     context.CancelFunc
	closed     bool
}

// NewDebouncer calls deliver with the debouncer lock held; deliver must not
// block or call back into the Debouncer.
func NewDebouncer(ctx context.Context, window time.Duration, analyze AnalyzeFunc, deliver func(Result)) *Debouncer {
	if window <= 0 {
		window = DefaultDebounceWindow
	}
	return &Debouncer{parent: ctx, window: window, analyze: analyze, deliver: deliver}
}

// Submit supersedes any pending or running analysis.
func (d *Debouncer) Submit(text string) uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return d.generation
	}
	d.generation++
	gen := d.generation
	d.stopLocked()
	d.timer = time.AfterFunc(d.window, func() { d.fire(gen, text) })
	return gen
}

// Cancel drops any pending or running analysis without scheduling another.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	d.generation++
	d.stopLocked()
}

func (d *Debouncer) Generation() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.generation
}

func (d *Debouncer) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	d.stopLocked()
}

func (d *Debouncer) stopLocked() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
}

func (d *Debouncer) fire(gen uint64, text string) {
	d.mu.Lock()
	if d.closed || gen != d.generation {
		d.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(d.parent)
	d.cancel = cancel
	d.mu.Unlock()

	analysis := d.analyze(ctx, text)
	cancel()

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed || gen != d.generation || analysis == nil {
		return
	}
	d.cancel = nil
	d.deliver(Result{Generation: gen, Text: text, Analysis: analysis})
}

package mood

import (
	"context"
	"sync"
	"testing"
	"time"

	"voice-journal/backend/internal/models"
)

func TestDebouncerDeliversOnlyLatest(t *testing.T) {
	var mu sync.Mutex
	analyzed := []string{}
	delivered := make(chan Result, 4)

	analyze := func(_ context.Context, text string) *models.ComprehensiveMoodAnalysis {
		mu.Lock()
		analyzed = append(analyzed, text)
		mu.Unlock()
		return &models.ComprehensiveMoodAnalysis{Summary: text}
	}
	d := NewDebouncer(context.Background(), 30*time.Millisecond, analyze, func(r Result) { delivered <- r })
	defer d.Close()

	d.Submit("I am")
	d.Submit("I am tired")
	gen := d.Submit("I am tired but okay")

	select {
	case r := <-delivered:
		if r.Generation != gen || r.Analysis.Summary != "I am tired but okay" {
			t.Fatalf("unexpected result %+v", r)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("expected a delivery")
	}

	select {
	case r := <-delivered:
		t.Fatalf("unexpected extra delivery %+v", r)
	case <-time.After(100 * time.Millisecond):
	}

	mu.Lock()
	defer mu.Unlock()
	if len(analyzed) != 1 {
		t.Fatalf("expected superseded drafts to be skipped, analyzed %v", analyzed)
	}
}

func TestDebouncerDropsStaleCompletion(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{}, 1)
	delivered := make(chan Result, 4)

	analyze := func(ctx context.Context, text string) *models.ComprehensiveMoodAnalysis {
		if text == "slow" {
			started <- struct{}{}
			<-release
		}
		return &models.ComprehensiveMoodAnalysis{Summary: text}
	}
	d := NewDebouncer(context.Background(), 10*time.Millisecond, analyze, func(r Result) { delivered <- r })
	defer d.Close()

	d.Submit("slow")
	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatal("slow analysis never started")
	}
	latest := d.Submit("fast")
	close(release)

	select {
	case r := <-delivered:
		if r.Generation != latest || r.Analysis.Summary != "fast" {
			t.Fatalf("expected only the latest draft, got %+v", r)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("expected a delivery")
	}
	select {
	case r := <-delivered:
		t.Fatalf("stale analysis delivered: %+v", r)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestDebouncerClosed(t *testing.T) {
	delivered := make(chan Result, 1)
	d := NewDebouncer(context.Background(), 10*time.Millisecond, func(_ context.Context, text string) *models.ComprehensiveMoodAnalysis {
		return &models.ComprehensiveMoodAnalysis{Summary: text}
	}, func(r Result) { delivered <- r })

	d.Submit("never mind")
	d.Close()
	select {
	case r := <-delivered:
		t.Fatalf("delivery after close: %+v", r)
	case <-time.After(80 * time.Millisecond):
	}
}

func TestDebouncerCancelDropsPendingDraft(t *testing.T) {
	delivered := make(chan Result, 1)
	d := NewDebouncer(context.Background(), 10*time.Millisecond, func(_ context.Context, text string) *models.ComprehensiveMoodAnalysis {
		return &models.ComprehensiveMoodAnalysis{Summary: text}
	}, func(r Result) { delivered <- r })
	defer d.Close()

	gen := d.Submit("I was angry")
	d.Cancel()
	if d.Generation() <= gen {
		t.Fatalf("expected cancel to start a new generation, still %d", d.Generation())
	}
	select {
	case r := <-delivered:
		t.Fatalf("delivery after cancel: %+v", r)
	case <-time.After(80 * time.Millisecond):
	}

	d.Submit("Now I am calm")
	select {
	case r := <-delivered:
		if r.Analysis.Summary != "Now I am calm" {
			t.Fatalf("unexpected result %+v", r)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("expected delivery after resubmit")
	}
}

func TestDebouncerCancelDropsRunningAnalysis(t *testing.T) {
	started := make(chan struct{})
	delivered := make(chan Result, 1)
	d := NewDebouncer(context.Background(), 5*time.Millisecond, func(ctx context.Context, text string) *models.ComprehensiveMoodAnalysis {
		close(started)
		<-ctx.Done()
		return &models.ComprehensiveMoodAnalysis{Summary: text}
	}, func(r Result) { delivered <- r })
	defer d.Close()

	d.Submit("cleared soon")
	<-started
	d.Cancel()
	select {
	case r := <-delivered:
		t.Fatalf("delivery after cancel: %+v", r)
	case <-time.After(80 * time.Millisecond):
	}
}

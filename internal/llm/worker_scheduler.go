package llm

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"voice-journal/backend/internal/models"
)

type AnalyzeFunc func(ctx context.Context, text string) *models.ComprehensiveMoodAnalysis

// ResultSink reports whether the result was kept; results for text the
// entry no longer holds are dropped.
type ResultSink interface {
	AnalysisReady(ctx context.Context, job AnalysisJob, analysis *models.ComprehensiveMoodAnalysis) (bool, error)
}

// WorkerPool drains the analysis queue with a fixed number of workers.
type WorkerPool struct {
	Queue     JobQueue
	Analyze   AnalyzeFunc
	Sink      ResultSink
	Workers   int
	BatchSize int
	Idle      time.Duration
	Logger    *slog.Logger

	wg sync.WaitGroup
}

// Start returns immediately; Wait blocks until ctx is done and every
// worker has returned.
func (p *WorkerPool) Start(ctx context.Context) {
	workers := p.Workers
	if workers <= 0 {
		workers = 1
	}
	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go func(id int) {
			defer p.wg.Done()
			p.run(ctx, id)
		}(i)
	}
}

func (p *WorkerPool) Wait() {
	p.wg.Wait()
}

func (p *WorkerPool) run(ctx context.Context, id int) {
	batch := p.BatchSize
	if batch <= 0 {
		batch = 10
	}
	idle := p.Idle
	if idle <= 0 {
		idle = 500 * time.Millisecond
	}
	logger := p.logger().With("worker", id)

	for {
		if ctx.Err() != nil {
			return
		}
		jobs, err := p.Queue.DequeueBatch(ctx, batch)
		if err != nil {
			logger.Warn("dequeue analysis jobs", "error", err)
			if !sleep(ctx, 2*time.Second) {
				return
			}
			continue
		}
		if len(jobs) == 0 {
			if !sleep(ctx, idle) {
				return
			}
			continue
		}
		for _, job := range jobs {
			p.process(ctx, logger, job)
		}
	}
}

func (p *WorkerPool) process(ctx context.Context, logger *slog.Logger, job AnalysisJob) {
	jobCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	analysis := p.Analyze(jobCtx, job.Text)
	if analysis == nil || p.Sink == nil {
		return
	}
	kept, err := p.Sink.AnalysisReady(jobCtx, job, analysis)
	switch {
	case err != nil:
		logger.Warn("store entry analysis", "entry_id", job.EntryID, "error", err)
	case !kept:
		logger.Debug("dropped stale entry analysis", "entry_id", job.EntryID)
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func (p *WorkerPool) logger() *slog.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return slog.Default()
}

// Package stt turns recorded audio into text using remote speech-to-text
// backends.
package stt

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

const DefaultTimeout = 30 * time.Second

// Placeholder is shown to the user in place of a failed transcription so
// the entry can still be typed by hand.
const Placeholder = "We couldn't transcribe this recording. Tap here to type your entry instead."

var (
	ErrTranscriptionTimeout = errors.New("transcription timed out")
	ErrTranscriptionFailed  = errors.New("transcription failed")
	errEmptyTranscription   = errors.New("no transcription received from service")
)

type Backend interface {
	Name() string
	Transcribe(ctx context.Context, audioPath string) (string, error)
}

type OutcomeObserver interface {
	TranscriptionFinished(backend, outcome string)
}

type Result struct {
	Text    string `json:"text"`
	Backend string `json:"backend"`
}

// Service tries backends in order until one returns text. The whole call
// is bounded by Timeout.
type Service struct {
	Backends []Backend
	Timeout  time.Duration
	Observer OutcomeObserver
	Logger   *slog.Logger
}

func NewService(timeout time.Duration, logger *slog.Logger, backends ...Backend) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{Backends: backends, Timeout: timeout, Logger: logger}
}

func (s *Service) Transcribe(ctx context.Context, audioPath string) (*Result, error) {
	timeout := s.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type outcome struct {
		result *Result
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		result, err := s.tryBackends(ctx, audioPath)
		done <- outcome{result, err}
	}()

	select {
	case out := <-done:
		if out.err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
			s.observe("all", "timeout")
			return nil, ErrTranscriptionTimeout
		}
		return out.result, out.err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			s.observe("all", "timeout")
			return nil, ErrTranscriptionTimeout
		}
		return nil, fmt.Errorf("%w: %v", ErrTranscriptionFailed, ctx.Err())
	}
}

func (s *Service) tryBackends(ctx context.Context, audioPath string) (*Result, error) {
	if len(s.Backends) == 0 {
		return nil, fmt.Errorf("%w: no speech-to-text backend configured", ErrTranscriptionFailed)
	}
	var lastErr error
	for _, backend := range s.Backends {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		text, err := backend.Transcribe(ctx, audioPath)
		if err == nil && text == "" {
			err = errEmptyTranscription
		}
		if err != nil {
			s.logger().Warn("transcription backend failed", "backend", backend.Name(), "error", err)
			s.observe(backend.Name(), "error")
			lastErr = err
			continue
		}
		s.observe(backend.Name(), "success")
		return &Result{Text: text, Backend: backend.Name()}, nil
	}
	return nil, fmt.Errorf("%w: %v", ErrTranscriptionFailed, lastErr)
}

func (s *Service) observe(backend, outcome string) {
	if s.Observer != nil {
		s.Observer.TranscriptionFinished(backend, outcome)
	}
}

func (s *Service) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

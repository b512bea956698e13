// Package audio manages recording sessions and finished recordings on disk.
package audio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
)

const fileExt = ".m4a"

var (
	ErrSessionNotFound = errors.New("recording session not found")
	ErrOutsideAudioDir = errors.New("audio file is outside the audio directory")
)

type Recording struct {
	ID       string `json:"id"`
	URI      string `json:"audio_uri"`
	Path     string `json:"-"`
	Duration int    `json:"duration"`
	Size     int64  `json:"size"`
}

type Session struct {
	ID      string    `json:"id"`
	Started time.Time `json:"started_at"`

	mu       sync.Mutex
	path     string
	file     *os.File
	size     int64
	lastSeen time.Time
}

// Recorder owns every in-progress session. Sessions are explicit so two
// overlapping recordings never share a file.
type Recorder struct {
	dir    string
	logger *slog.Logger
	now    func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewRecorder(dir string, logger *slog.Logger) (*Recorder, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(abs, 0o750); err != nil {
		return nil, fmt.Errorf("create audio dir: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{dir: abs, logger: logger, now: time.Now, sessions: map[string]*Session{}}, nil
}

func (r *Recorder) Dir() string { return r.dir }

func (r *Recorder) Start() (*Session, error) {
	id := uuid.NewString()
	path := filepath.Join(r.dir, id+fileExt)
	file, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o640)
	if err != nil {
		return nil, fmt.Errorf("create recording: %w", err)
	}
	now := r.now()
	session := &Session{ID: id, Started: now, path: path, file: file, lastSeen: now}

	r.mu.Lock()
	r.sessions[id] = session
	r.mu.Unlock()
	r.logger.Debug("recording started", "session_id", id)
	return session, nil
}

// Write appends one chunk to the session file.
func (r *Recorder) Write(id string, chunk io.Reader) (int64, error) {
	session, err := r.session(id)
	if err != nil {
		return 0, err
	}
	session.mu.Lock()
	defer session.mu.Unlock()
	if session.file == nil {
		return 0, ErrSessionNotFound
	}
	n, err := io.Copy(session.file, chunk)
	session.size += n
	session.lastSeen = r.now()
	return n, err
}

// Stop finalizes the session. A negative duration is replaced by the wall
// time since Start.
func (r *Recorder) Stop(id string, duration int) (*Recording, error) {
	session, err := r.remove(id)
	if err != nil {
		return nil, err
	}
	session.mu.Lock()
	defer session.mu.Unlock()
	if err := session.file.Close(); err != nil {
		return nil, fmt.Errorf("close recording: %w", err)
	}
	session.file = nil
	if duration < 0 {
		duration = int(math.Round(r.now().Sub(session.Started).Seconds()))
	}
	r.logger.Debug("recording stopped", "session_id", id, "bytes", session.size, "duration", duration)
	return &Recording{ID: id, URI: fileURI(session.path), Path: session.path, Duration: duration, Size: session.size}, nil
}

// Abort discards the session and its file.
func (r *Recorder) Abort(id string) error {
	session, err := r.remove(id)
	if err != nil {
		return err
	}
	session.discard()
	return nil
}

// Save stores an uploaded recording.
func (r *Recorder) Save(src io.Reader, duration int) (*Recording, error) {
	session, err := r.Start()
	if err != nil {
		return nil, err
	}
	if _, err := r.Write(session.ID, src); err != nil {
		_ = r.Abort(session.ID)
		return nil, fmt.Errorf("write recording: %w", err)
	}
	if duration < 0 {
		duration = 0
	}
	return r.Stop(session.ID, duration)
}

// ReapIdle aborts sessions that have not received data for maxIdle.
func (r *Recorder) ReapIdle(maxIdle time.Duration) int {
	cutoff := r.now().Add(-maxIdle)
	r.mu.Lock()
	stale := []*Session{}
	for id, session := range r.sessions {
		session.mu.Lock()
		idle := session.lastSeen.Before(cutoff)
		session.mu.Unlock()
		if idle {
			stale = append(stale, session)
			delete(r.sessions, id)
		}
	}
	r.mu.Unlock()

	for _, session := range stale {
		session.discard()
		r.logger.Info("reaped idle recording", "session_id", session.ID)
	}
	return len(stale)
}

func (r *Recorder) Schedule(s gocron.Scheduler, interval, maxIdle time.Duration) (gocron.Job, error) {
	return s.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() { r.ReapIdle(maxIdle) }),
		gocron.WithName("recording-reaper"),
	)
}

// Active returns the number of open sessions.
func (r *Recorder) Active() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Resolve maps an audio URI to a file inside the audio directory.
func (r *Recorder) Resolve(uri string) (string, error) {
	parsed, err := url.Parse(uri)
	if err != nil || parsed.Scheme != "file" {
		return "", fmt.Errorf("%w: %s", ErrOutsideAudioDir, uri)
	}
	path := filepath.Clean(parsed.Path)
	rel, err := filepath.Rel(r.dir, path)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("%w: %s", ErrOutsideAudioDir, uri)
	}
	return path, nil
}

// Open returns the recording for playback. Callers close the file.
func (r *Recorder) Open(ctx context.Context, uri string) (*os.File, os.FileInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	path, err := r.Resolve(uri)
	if err != nil {
		return nil, nil, err
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, nil, err
	}
	return file, info, nil
}

func (r *Recorder) session(id string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	session, ok := r.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

func (r *Recorder) remove(id string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	session, ok := r.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	delete(r.sessions, id)
	return session, nil
}

func (s *Session) discard() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file != nil {
		_ = s.file.Close()
		s.file = nil
	}
	_ = os.Remove(s.path)
}

func fileURI(path string) string {
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(path)}).String()
}

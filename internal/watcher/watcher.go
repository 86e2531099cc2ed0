// Package watcher polls a directory for new audio files and hands each one to
// a transcriber exactly once.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/book-expert/logger"
	"github.com/book-expert/speechkit/internal/core"
)

// DefaultInterval is the poll interval used when none is configured.
const DefaultInterval = 2 * time.Second

const dirPermissions = 0o750

// ErrInputDirEmpty indicates a missing watch directory.
var ErrInputDirEmpty = errors.New("input directory cannot be empty")

// AudioExtensions is the allow-list of file extensions that are transcribed.
var AudioExtensions = []string{".wav", ".mp3", ".mp4", ".m4a", ".flac"}

// Watcher polls a single directory. It is not safe for concurrent use.
type Watcher struct {
	dir         string
	interval    time.Duration
	transcriber core.Transcriber
	log         *logger.Logger
	allowed     map[string]struct{}
	seen        map[string]struct{}
}

// New creates a Watcher for dir.
func New(dir string, interval time.Duration, transcriber core.Transcriber, log *logger.Logger) (*Watcher, error) {
	if dir == "" {
		return nil, ErrInputDirEmpty
	}

	if interval <= 0 {
		interval = DefaultInterval
	}

	allowed := make(map[string]struct{}, len(AudioExtensions))
	for _, ext := range AudioExtensions {
		allowed[ext] = struct{}{}
	}

	return &Watcher{
		dir:         dir,
		interval:    interval,
		transcriber: transcriber,
		log:         log,
		allowed:     allowed,
		seen:        make(map[string]struct{}),
	}, nil
}

// Run polls until ctx is canceled. Files already in the directory are
// picked up on the first poll.
func (w *Watcher) Run(ctx context.Context) error {
	err := os.MkdirAll(w.dir, dirPermissions)
	if err != nil {
		return fmt.Errorf("failed to create input directory '%s': %w", w.dir, err)
	}

	w.log.Info("Watching %s every %s", w.dir, w.interval)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		_, pollErr := w.Poll(ctx)
		if pollErr != nil {
			w.log.Error("Poll of %s failed: %v", w.dir, pollErr)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// Poll runs one listing cycle and returns how many new files were handed to
// the transcriber. Transcription failures are logged and never retried.
func (w *Watcher) Poll(ctx context.Context) (int, error) {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return 0, fmt.Errorf("failed to list '%s': %w", w.dir, err)
	}

	processed := 0

	for _, entry := range entries {
		if ctx.Err() != nil {
			break
		}

		if entry.IsDir() || !w.isAudio(entry.Name()) {
			continue
		}

		path := filepath.Join(w.dir, entry.Name())
		if _, done := w.seen[path]; done {
			continue
		}

		w.seen[path] = struct{}{}
		processed++

		w.log.Info("New audio file: %s", path)

		transcribeErr := w.transcriber.TranscribeFile(ctx, path)
		if transcribeErr != nil {
			w.log.Error("Transcription of %s failed: %v", path, transcribeErr)
		}
	}

	return processed, nil
}

// Seen reports whether path has already been handed to the transcriber.
func (w *Watcher) Seen(path string) bool {
	_, ok := w.seen[path]

	return ok
}

func (w *Watcher) isAudio(name string) bool {
	_, ok := w.allowed[strings.ToLower(filepath.Ext(name))]

	return ok
}

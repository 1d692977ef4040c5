// Package watcher reloads the session snapshot when the file changes on
// disk. Editors typically write through rename, so the watch sits on the
// containing directory and filters for the session file's name.
package watcher

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/biolattice/phagegrid/pkg/logging"
)

// FileWatcher watches one file and emits debounced change notifications.
type FileWatcher struct {
	watcher     *fsnotify.Watcher
	path        string
	changes     chan time.Time
	quietPeriod time.Duration
	maxWait     time.Duration
}

// NewFileWatcher creates a watcher for the given file.
func NewFileWatcher(path string) (*FileWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating fsnotify watcher: %w", err)
	}
	fw := &FileWatcher{
		watcher:     w,
		path:        filepath.Clean(path),
		changes:     make(chan time.Time, 4),
		quietPeriod: 250 * time.Millisecond,
		maxWait:     2 * time.Second,
	}
	if err := w.Add(filepath.Dir(fw.path)); err != nil {
		w.Close()
		return nil, fmt.Errorf("watching %s: %w", filepath.Dir(fw.path), err)
	}
	return fw, nil
}

// Start begins processing events until the context is cancelled.
func (fw *FileWatcher) Start(ctx context.Context) {
	logging.Info("watching session file", "path", fw.path)
	go fw.run(ctx)
}

// Changes delivers one timestamp per settled burst of writes.
func (fw *FileWatcher) Changes() <-chan time.Time {
	return fw.changes
}

// Close stops the underlying watcher.
func (fw *FileWatcher) Close() error {
	return fw.watcher.Close()
}

// run filters raw events for the watched file and debounces them: a
// burst of writes yields one notification after the quiet period, and a
// continuous stream is force-flushed after maxWait.
func (fw *FileWatcher) run(ctx context.Context) {
	var (
		quiet    *time.Timer
		deadline *time.Timer
		quietC   <-chan time.Time
		deadC    <-chan time.Time
		pending  bool
	)
	flush := func() {
		if !pending {
			return
		}
		pending = false
		quietC, deadC = nil, nil
		select {
		case fw.changes <- time.Now():
		default:
		}
	}

	for {
		select {
		case <-ctx.Done():
			fw.watcher.Close()
			return
		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != fw.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			logging.Debug("session file changed", "op", event.Op.String())
			if !pending {
				pending = true
				if deadline == nil {
					deadline = time.NewTimer(fw.maxWait)
				} else {
					deadline.Reset(fw.maxWait)
				}
				deadC = deadline.C
			}
			if quiet == nil {
				quiet = time.NewTimer(fw.quietPeriod)
			} else {
				quiet.Reset(fw.quietPeriod)
			}
			quietC = quiet.C
		case <-quietC:
			flush()
		case <-deadC:
			flush()
		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			logging.Warn("watcher error", "error", err)
		}
	}
}

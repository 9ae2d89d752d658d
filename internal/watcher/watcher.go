// Package watcher turns file system changes under the posts and templates
// directories into site rebuilds.
//
// Events are filtered, queued on a bounded channel and handled by a single
// consumer goroutine. A change arriving within the cooldown window of the last
// successful build is dropped rather than queued.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/blogbuilder/internal/build"
	"git.home.luguber.info/inful/blogbuilder/internal/logfields"
	"git.home.luguber.info/inful/blogbuilder/internal/metrics"
)

const (
	DefaultCooldown  = 500 * time.Millisecond
	DefaultQueueSize = 64
)

// RebuildFunc performs one full build. It is expected to advance the shared
// build.State when it succeeds.
type RebuildFunc func(ctx context.Context) error

// Config controls what is watched and how changes are throttled.
type Config struct {
	// Roots are the directories watched recursively. Missing roots are skipped.
	Roots     []string
	Cooldown  time.Duration
	QueueSize int
}

// Watcher watches source directories and triggers rebuilds.
type Watcher struct {
	roots    []string
	cooldown time.Duration
	state    *build.State
	rebuild  RebuildFunc
	recorder metrics.Recorder
	logger   *slog.Logger
	now      func() time.Time

	fsw    *fsnotify.Watcher
	events chan string

	// mu serializes the cooldown check with the rebuild it guards.
	mu sync.Mutex

	done      chan struct{}
	closeOnce sync.Once
}

// New creates a Watcher and registers every directory under cfg.Roots.
func New(cfg Config, state *build.State, rebuild RebuildFunc) (*Watcher, error) {
	if state == nil || rebuild == nil {
		return nil, errors.New("watcher: state and rebuild are required")
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = DefaultCooldown
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = DefaultQueueSize
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("fsnotify: %w", err)
	}

	w := &Watcher{
		cooldown: cfg.Cooldown,
		state:    state,
		rebuild:  rebuild,
		recorder: metrics.NoopRecorder{},
		logger:   slog.Default(),
		now:      time.Now,
		fsw:      fsw,
		events:   make(chan string, cfg.QueueSize),
		done:     make(chan struct{}),
	}
	for _, root := range cfg.Roots {
		abs, err := filepath.Abs(root)
		if err != nil {
			_ = fsw.Close()
			return nil, fmt.Errorf("resolve %s: %w", root, err)
		}
		if _, err := os.Stat(abs); errors.Is(err, fs.ErrNotExist) {
			w.logger.Warn("Watch root does not exist; skipping", logfields.Dir(abs))
			continue
		}
		w.roots = append(w.roots, abs)
		w.addDirsRecursive(abs)
	}
	return w, nil
}

// WithRecorder sets the metrics recorder.
func (w *Watcher) WithRecorder(r metrics.Recorder) *Watcher {
	if r != nil {
		w.recorder = r
	}
	return w
}

// WithLogger sets the logger.
func (w *Watcher) WithLogger(l *slog.Logger) *Watcher {
	if l != nil {
		w.logger = l
	}
	return w
}

// Run reads file system events until ctx is cancelled or Close is called.
// It returns after the consumer goroutine has finished any in-flight rebuild.
// Run must be called at most once.
func (w *Watcher) Run(ctx context.Context) error {
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for path := range w.events {
			w.process(ctx, path)
		}
	}()
	defer func() {
		close(w.events)
		wg.Wait()
	}()

	w.logger.Info("Watching for changes", slog.String("roots", strings.Join(w.roots, ",")))
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-w.done:
			return nil
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(ev)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("Watcher error", logfields.Error(err))
		}
	}
}

// Close stops the underlying fsnotify watcher and makes Run return.
func (w *Watcher) Close() error {
	var err error
	w.closeOnce.Do(func() {
		close(w.done)
		err = w.fsw.Close()
	})
	return err
}

// handleEvent filters ev and queues its path without blocking.
func (w *Watcher) handleEvent(ev fsnotify.Event) {
	if ev.Op == fsnotify.Chmod || w.shouldIgnore(ev.Name) {
		w.recorder.IncWatchEvent(metrics.WatchIgnored)
		return
	}
	if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
		// Files written before the new directory was watched produce no
		// events of their own, so a populated directory counts as a change.
		if !ev.Has(fsnotify.Create) || !w.addDirsRecursive(ev.Name) {
			w.recorder.IncWatchEvent(metrics.WatchIgnored)
			return
		}
	}

	w.logger.Debug("File change detected", logfields.Path(ev.Name), logfields.Op(ev.Op.String()))
	select {
	case w.events <- ev.Name:
	default:
		w.logger.Warn("Change queue full; dropping event", logfields.Path(ev.Name))
		w.recorder.IncWatchEvent(metrics.WatchDropped)
	}
}

// process applies the cooldown and rebuilds. The check and the rebuild run
// under one lock so a burst of events yields a single build.
func (w *Watcher) process(ctx context.Context, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if ctx.Err() != nil {
		return
	}
	select {
	case <-w.done:
		return
	default:
	}
	if since := w.now().Sub(w.state.LastBuild()); since < w.cooldown {
		w.logger.Debug("Change within cooldown; skipping rebuild",
			logfields.Path(path),
			logfields.Duration(since))
		w.recorder.IncWatchEvent(metrics.WatchSuppressed)
		return
	}

	w.logger.Info("Change detected; rebuilding site", logfields.Path(path))
	if err := w.rebuild(ctx); err != nil {
		w.logger.Error("Rebuild failed", logfields.Path(path), logfields.Error(err))
		w.recorder.IncWatchEvent(metrics.WatchFailed)
		return
	}
	w.recorder.IncWatchEvent(metrics.WatchRebuilt)
}

// addDirsRecursive watches root and every non-hidden directory below it. It
// reports whether any file that would trigger a rebuild was found.
func (w *Watcher) addDirsRecursive(root string) bool {
	found := false
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			if !found && !w.shouldIgnore(path) {
				found = true
			}
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			w.logger.Warn("Watch add failed", logfields.Dir(path), logfields.Error(err))
		}
		return nil
	})
	return found
}

// shouldIgnore reports whether a change to path should not trigger a rebuild.
func (w *Watcher) shouldIgnore(path string) bool {
	rel := path
	for _, root := range w.roots {
		if r, err := filepath.Rel(root, path); err == nil && !strings.HasPrefix(r, "..") {
			rel = r
			break
		}
	}
	return ShouldIgnore(rel)
}

// ShouldIgnore reports whether rel, a path relative to a watched root, names a
// hidden entry or an editor temporary file.
func ShouldIgnore(rel string) bool {
	rel = filepath.ToSlash(filepath.Clean(rel))
	for _, part := range strings.Split(rel, "/") {
		if part == "." || part == "" {
			continue
		}
		if strings.HasPrefix(part, ".") {
			return true
		}
	}

	base := filepath.Base(rel)
	return strings.HasSuffix(base, "~") ||
		strings.HasSuffix(base, ".swp") ||
		strings.HasSuffix(base, ".swx") ||
		(len(base) > 1 && strings.HasPrefix(base, "#") && strings.HasSuffix(base, "#"))
}

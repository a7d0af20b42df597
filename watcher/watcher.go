// Package watcher triggers sync cycles from backend source file changes.
//
// File events are matched against configured globs, debounced so a burst of
// saves collapses into one cycle, and single-flighted so events arriving
// while a cycle runs are dropped rather than queued. After a successful
// cycle the trigger file is touched so dev servers can reload.
package watcher

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/stackforge/typesync/errors"
)

// SyncFunc runs one sync cycle on behalf of the watcher.
type SyncFunc func(ctx context.Context) error

// Options configures a Watcher.
type Options struct {
	// Globs select the files whose changes trigger a cycle, relative to Root
	Globs []string
	// Root anchors relative glob matching; defaults to the working directory
	Root string
	// Debounce collapses rapid event bursts into one cycle
	Debounce time.Duration
	// TriggerFile is touched after each successful cycle; empty disables it
	TriggerFile string
}

// Watcher drives debounced, single-flight sync cycles from fsnotify events.
type Watcher struct {
	opts   Options
	fs     *fsnotify.Watcher
	onSync SyncFunc
	log    *zap.SugaredLogger

	mu            sync.Mutex
	debounceTimer *time.Timer

	syncing atomic.Bool
	dropped atomic.Int64
}

// New creates a watcher over the directories spanned by the configured
// globs. Subdirectories existing at creation time are watched recursively;
// directories created later are added as their create events arrive.
func New(opts Options, onSync SyncFunc, log *zap.SugaredLogger) (*Watcher, error) {
	if len(opts.Globs) == 0 {
		return nil, errors.New("watch mode requires at least one glob")
	}
	if opts.Root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, errors.Wrap(err, "failed to resolve working directory")
		}
		opts.Root = wd
	}
	if opts.Debounce <= 0 {
		opts.Debounce = 300 * time.Millisecond
	}

	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create fsnotify watcher")
	}

	w := &Watcher{
		opts:   opts,
		fs:     fs,
		onSync: onSync,
		log:    log,
	}

	for _, glob := range opts.Globs {
		root := filepath.Join(opts.Root, globRoot(glob))
		if err := w.watchTree(root); err != nil {
			fs.Close()
			return nil, err
		}
	}

	return w, nil
}

// Start runs the event loop until the context is cancelled or the watcher is
// stopped.
func (w *Watcher) Start(ctx context.Context) {
	go w.watchLoop(ctx)
}

// Stop closes the underlying fsnotify watcher and cancels any pending
// debounce timer.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.mu.Unlock()
	return w.fs.Close()
}

// Dropped reports how many triggers were discarded because a cycle was
// already running.
func (w *Watcher) Dropped() int64 {
	return w.dropped.Load()
}

func (w *Watcher) watchLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			w.handleEvent(ctx, event)

		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.log.Warnw("File watcher error", "error", err)
		}
	}
}

func (w *Watcher) handleEvent(ctx context.Context, event fsnotify.Event) {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}

	// Pick up directories created after startup.
	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.watchTree(event.Name); err != nil {
				w.log.Warnw("Failed to watch new directory",
					"dir", event.Name,
					"error", err)
			}
			return
		}
	}

	if !w.matches(event.Name) {
		return
	}

	w.log.Debugw("Source change detected",
		"file", event.Name,
		"op", event.Op.String())
	w.scheduleSync(ctx)
}

// scheduleSync resets the debounce timer; the cycle runs once events go
// quiet for the debounce period.
func (w *Watcher) scheduleSync(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.debounceTimer = time.AfterFunc(w.opts.Debounce, func() {
		w.runCycle(ctx)
	})
}

// runCycle executes one sync under the single-flight guard. Triggers firing
// while a cycle runs are dropped, not queued.
func (w *Watcher) runCycle(ctx context.Context) {
	if !w.syncing.CompareAndSwap(false, true) {
		w.dropped.Add(1)
		w.log.Debugw("Sync already in flight, dropping trigger",
			"dropped_total", w.dropped.Load())
		return
	}
	defer w.syncing.Store(false)

	if err := w.onSync(ctx); err != nil {
		w.log.Errorw("Watch-triggered sync failed", "error", err)
		return
	}

	if w.opts.TriggerFile != "" {
		if err := touchTrigger(w.opts.TriggerFile); err != nil {
			w.log.Warnw("Failed to touch reload trigger file",
				"path", w.opts.TriggerFile,
				"error", err)
		}
	}
}

// matches reports whether a changed path is selected by any configured glob.
func (w *Watcher) matches(path string) bool {
	rel, err := filepath.Rel(w.opts.Root, path)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)

	for _, glob := range w.opts.Globs {
		if ok, err := doublestar.Match(glob, rel); err == nil && ok {
			return true
		}
	}
	return false
}

// watchTree adds a directory and all of its subdirectories to the watcher.
func (w *Watcher) watchTree(root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			// Glob roots are allowed to not exist yet.
			if path == root && errors.Is(err, os.ErrNotExist) {
				return filepath.SkipAll
			}
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if err := w.fs.Add(path); err != nil {
			return errors.Wrapf(err, "failed to watch %s", path)
		}
		return nil
	})
}

// globRoot returns the longest literal directory prefix of a glob, the
// point from which the filesystem walk starts. "backend/**/*.py" -> "backend".
func globRoot(glob string) string {
	segments := strings.Split(filepath.ToSlash(glob), "/")
	var literal []string
	for _, seg := range segments {
		if strings.ContainsAny(seg, "*?[{") {
			break
		}
		literal = append(literal, seg)
	}
	if len(literal) == len(segments) && len(segments) > 0 {
		// Fully literal glob names a file; watch its directory.
		literal = literal[:len(literal)-1]
	}
	return filepath.Join(literal...)
}

// touchTrigger writes the current time to the trigger file so file-watching
// dev servers see a change.
func touchTrigger(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(time.Now().Format(time.RFC3339)+"\n"), 0o644)
}

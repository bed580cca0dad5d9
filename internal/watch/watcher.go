// SPDX-License-Identifier: MPL-2.0

// Package watch re-runs a callback when manifest files change.
//
// The directories holding the watched files are monitored rather than the
// files themselves, so editors that save by renaming a temporary file are
// still seen. Events within the debounce window are coalesced into one
// callback with every changed path.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"path/filepath"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

const defaultDebounce = 300 * time.Millisecond

var (
	// ErrNothingToWatch is returned by New when neither files nor
	// directories are given.
	ErrNothingToWatch = errors.New("nothing to watch")
	// ErrAlreadyRunning is returned by a second call to Run.
	ErrAlreadyRunning = errors.New("watcher already running")
)

type (
	// Config holds the parameters for a Watcher.
	Config struct {
		// Files are watched for changes.
		Files []string
		// Dirs are additional directories whose entries trigger the callback
		// when their base name matches one of Patterns.
		Dirs []string
		// Patterns are doublestar globs matched against base names, e.g.
		// "nestcmd.{cue,yaml,yml,toml}".
		Patterns []string
		// Debounce is the quiet period after the last event. Zero or
		// negative values use the default.
		Debounce time.Duration
		// OnChange receives the sorted, deduplicated changed paths.
		OnChange func(ctx context.Context, changed []string) error
		Logger   *log.Logger
	}

	// Watcher monitors manifest files. Run must be called once.
	Watcher struct {
		fsw      *fsnotify.Watcher
		files    map[string]bool
		patterns []string
		debounce time.Duration
		onChange func(ctx context.Context, changed []string) error
		logger   *log.Logger
		started  atomic.Bool
	}
)

// New validates cfg and registers the directories to monitor.
func New(cfg Config) (*Watcher, error) {
	if len(cfg.Files) == 0 && len(cfg.Dirs) == 0 {
		return nil, ErrNothingToWatch
	}
	for _, pat := range cfg.Patterns {
		if !doublestar.ValidatePattern(pat) {
			return nil, fmt.Errorf("watch: invalid pattern %q", pat)
		}
	}

	w := &Watcher{
		files:    make(map[string]bool, len(cfg.Files)),
		patterns: slices.Clone(cfg.Patterns),
		debounce: cfg.Debounce,
		onChange: cfg.OnChange,
		logger:   cfg.Logger,
	}
	if w.debounce <= 0 {
		w.debounce = defaultDebounce
	}
	if w.logger == nil {
		w.logger = log.New(io.Discard)
	}

	dirs := make([]string, 0, len(cfg.Files)+len(cfg.Dirs))
	for _, f := range cfg.Files {
		abs, err := filepath.Abs(f)
		if err != nil {
			return nil, fmt.Errorf("watch: resolve %s: %w", f, err)
		}
		w.files[abs] = true
		dirs = append(dirs, filepath.Dir(abs))
	}
	for _, d := range cfg.Dirs {
		abs, err := filepath.Abs(d)
		if err != nil {
			return nil, fmt.Errorf("watch: resolve %s: %w", d, err)
		}
		dirs = append(dirs, abs)
	}
	slices.Sort(dirs)
	dirs = slices.Compact(dirs)

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: create fsnotify watcher: %w", err)
	}
	for _, d := range dirs {
		if err := fsw.Add(d); err != nil {
			fsw.Close() //nolint:errcheck // best-effort cleanup
			return nil, fmt.Errorf("watch: add directory %q: %w", d, err)
		}
	}
	w.fsw = fsw
	return w, nil
}

// Run blocks until ctx is canceled, dispatching debounced callbacks. It
// returns nil on cancellation and an error when the watcher breaks.
func (w *Watcher) Run(ctx context.Context) error {
	if !w.started.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}

	var (
		mu      sync.Mutex
		pending = make(map[string]struct{})
		timer   *time.Timer
		busy    atomic.Bool
	)

	// fire runs on the timer goroutine. A callback still running from the
	// previous batch defers this one by another debounce period.
	fire := func() {
		if ctx.Err() != nil {
			return
		}
		if !busy.CompareAndSwap(false, true) {
			mu.Lock()
			timer.Reset(w.debounce)
			mu.Unlock()
			return
		}
		defer busy.Store(false)

		mu.Lock()
		changed := slices.Sorted(maps.Keys(pending))
		clear(pending)
		mu.Unlock()
		if len(changed) == 0 || w.onChange == nil {
			return
		}
		if err := w.onChange(ctx, changed); err != nil {
			w.logger.Error("watch callback failed", "err", err)
		}
	}

	defer func() {
		mu.Lock()
		if timer != nil {
			timer.Stop()
		}
		mu.Unlock()
		if err := w.fsw.Close(); err != nil {
			w.logger.Warn("failed to close watcher", "err", err)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case evt, ok := <-w.fsw.Events:
			if !ok {
				return errors.New("watch: event channel closed")
			}
			if evt.Has(fsnotify.Chmod) || !w.matches(evt.Name) {
				continue
			}
			w.logger.Debug("manifest changed", "path", evt.Name, "op", evt.Op.String())

			mu.Lock()
			pending[evt.Name] = struct{}{}
			if timer == nil {
				timer = time.AfterFunc(w.debounce, fire)
			} else {
				timer.Reset(w.debounce)
			}
			mu.Unlock()

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return errors.New("watch: error channel closed")
			}
			if isFatalFsnotifyError(err) {
				return fmt.Errorf("watch: fatal fsnotify error: %w", err)
			}
			w.logger.Warn("fsnotify error", "err", err)
		}
	}
}

// matches reports whether path is a watched file or has a base name
// matching one of the patterns.
func (w *Watcher) matches(path string) bool {
	if w.files[filepath.Clean(path)] {
		return true
	}
	base := filepath.Base(path)
	for _, pat := range w.patterns {
		if ok, err := doublestar.Match(pat, base); err == nil && ok {
			return true
		}
	}
	return false
}

package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period before a batch is delivered.
const DefaultDebounce = 150 * time.Millisecond

// ErrNoRoots indicates there is nothing to watch.
var ErrNoRoots = errors.New("no roots configured for watching")

// Options configures a Watcher.
type Options struct {
	// Roots are directories watched recursively.
	Roots []string
	// Debounce is the quiet period before a batch is delivered.
	Debounce time.Duration
	// Accept filters changed files; nil accepts everything.
	Accept func(path string) bool
	// SkipDir reports directories that must not be watched.
	SkipDir func(path string) bool
	Logger  *slog.Logger
}

// Watcher delivers batches of changed paths.
type Watcher struct {
	opts  Options
	ready chan struct{}
}

// New creates a Watcher.
func New(opts Options) (*Watcher, error) {
	if len(opts.Roots) == 0 {
		return nil, ErrNoRoots
	}

	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}

	if opts.Accept == nil {
		opts.Accept = func(string) bool { return true }
	}

	if opts.SkipDir == nil {
		opts.SkipDir = func(string) bool { return false }
	}

	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}

	return &Watcher{opts: opts, ready: make(chan struct{})}, nil
}

// Ready is closed once every root is being watched.
func (w *Watcher) Ready() <-chan struct{} {
	return w.ready
}

// Run watches until ctx is cancelled, calling onChange with each debounced
// batch of changed paths in ascending order. An error from onChange is logged
// and watching continues.
func (w *Watcher) Run(ctx context.Context, onChange func(context.Context, []string) error) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer fw.Close()

	for _, root := range w.opts.Roots {
		if err := w.addRecursive(fw, root); err != nil {
			return err
		}
	}

	close(w.ready)

	pending := make(map[string]struct{})

	var (
		timer  *time.Timer
		timerC <-chan time.Time
	)

	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}

			if !w.handle(fw, event) {
				continue
			}

			pending[event.Name] = struct{}{}

			if timer == nil {
				timer = time.NewTimer(w.opts.Debounce)
			} else {
				timer.Reset(w.opts.Debounce)
			}

			timerC = timer.C

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}

			w.opts.Logger.Warn("watch error", slog.String("error", err.Error()))

		case <-timerC:
			timerC = nil

			batch := make([]string, 0, len(pending))
			for p := range pending {
				batch = append(batch, p)
			}

			clear(pending)
			slices.Sort(batch)

			w.opts.Logger.Debug("changes detected", slog.Int("files", len(batch)))

			if err := onChange(ctx, batch); err != nil {
				w.opts.Logger.Error("regeneration failed", slog.String("error", err.Error()))
			}
		}
	}
}

// handle updates watches for new directories and reports whether the event
// belongs in the next batch.
func (w *Watcher) handle(fw *fsnotify.Watcher, event fsnotify.Event) bool {
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.addRecursive(fw, event.Name); err != nil {
				w.opts.Logger.Warn("cannot watch new directory",
					slog.String("dir", event.Name), slog.String("error", err.Error()))
			}

			return false
		}
	}

	if event.Op == fsnotify.Chmod {
		return false
	}

	return w.opts.Accept(event.Name)
}

func (w *Watcher) addRecursive(fw *fsnotify.Watcher, root string) error {
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}

			return nil
		}

		if !d.IsDir() {
			return nil
		}

		if path != root && w.opts.SkipDir(path) {
			return filepath.SkipDir
		}

		return fw.Add(path)
	})
	if err != nil {
		return fmt.Errorf("watching %s: %w", root, err)
	}

	return nil
}

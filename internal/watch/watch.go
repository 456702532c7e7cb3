package watch

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period after the last change before the
// callback runs.
const DefaultDebounce = 300 * time.Millisecond

// Options configures a Watcher.
type Options struct {
	Debounce time.Duration
	// Ignore reports whether a path relative to the root is of no interest.
	Ignore func(rel string) bool
	Logger *slog.Logger
}

// Watcher calls back after files below a root directory change.
type Watcher struct {
	root     string
	fsw      *fsnotify.Watcher
	debounce time.Duration
	ignore   func(string) bool
	logger   *slog.Logger
}

// New watches root and every directory below it except hidden and vendor
// directories.
func New(root string, opts Options) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	w := &Watcher{
		root:     root,
		fsw:      fsw,
		debounce: opts.Debounce,
		ignore:   opts.Ignore,
		logger:   opts.Logger,
	}
	if w.debounce <= 0 {
		w.debounce = DefaultDebounce
	}
	if w.logger == nil {
		w.logger = slog.Default()
	}
	if err := w.addRecursive(root); err != nil {
		fsw.Close()
		return nil, err
	}
	return w, nil
}

// Close stops watching.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

// Run calls onChange once at start and then once per burst of changes, until
// ctx is done. An error of onChange ends Run.
func (w *Watcher) Run(ctx context.Context, onChange func(context.Context) error) error {
	if err := onChange(ctx); err != nil {
		return err
	}

	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if w.handle(event) {
				timer.Reset(w.debounce)
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("Watcher error", slog.String("error", err.Error()))

		case <-timer.C:
			if err := onChange(ctx); err != nil {
				return err
			}
		}
	}
}

// handle reports whether event should trigger a recomputation.
func (w *Watcher) handle(event fsnotify.Event) bool {
	if event.Has(fsnotify.Chmod) && !event.Has(fsnotify.Write) {
		return false
	}
	rel, err := filepath.Rel(w.root, event.Name)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	if skipDir(filepath.Base(event.Name)) || (w.ignore != nil && w.ignore(rel)) {
		return false
	}
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.addRecursive(event.Name); err != nil {
				w.logger.Warn("Failed to watch new directory", slog.String("path", rel), slog.String("error", err.Error()))
			}
		}
	}
	w.logger.Debug("File change detected", slog.String("path", rel), slog.String("op", event.Op.String()))
	return true
}

func (w *Watcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && skipDir(d.Name()) {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			return fmt.Errorf("watching %s: %w", path, err)
		}
		return nil
	})
}

func skipDir(name string) bool {
	return name == "vendor" || (strings.HasPrefix(name, ".") && name != "." && name != "..")
}

package watcher

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"codeberg.org/snonux/aitdocs/internal"
	"codeberg.org/snonux/aitdocs/internal/ignore"
)

// DefaultDebounce is the quiet period after the last relevant change
// before the callback runs.
const DefaultDebounce = 2 * time.Second

// Options controls which filesystem events count as relevant.
type Options struct {
	// Debounce is the quiet period before the callback fires.
	// DefaultDebounce when zero.
	Debounce time.Duration
	// Matcher excludes paths from the watch. Nil watches everything.
	Matcher *ignore.Matcher
	// TargetLang marks translation outputs so the callback's own writes
	// never retrigger it.
	TargetLang string
}

// Watch monitors root and its non-ignored subdirectories and calls fn
// once changes to translatable files have settled for the debounce
// interval. Directories created while watching join the watch set.
// Watch blocks until ctx is cancelled.
func Watch(ctx context.Context, root string, opts Options, fn func()) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer w.Close()

	if err := addDirs(w, root, root, opts.Matcher); err != nil {
		return fmt.Errorf("failed to watch %s: %w", root, err)
	}

	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	fmt.Printf("Watching %s for changes (press Ctrl+C to stop)\n", root)

	// The timer starts on the first relevant event and is pushed back by
	// every further one.
	var timer *time.Timer
	var timerCh <-chan time.Time

	schedule := func() {
		if timer == nil {
			timer = time.NewTimer(debounce)
			timerCh = timer.C
		} else {
			timer.Reset(debounce)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			fmt.Println("Stopped watching")
			return nil

		case <-timerCh:
			fn()

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}

			rel, relErr := filepath.Rel(root, ev.Name)
			if relErr != nil {
				continue
			}
			rel = filepath.ToSlash(rel)

			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(ev.Name); statErr == nil && info.IsDir() {
					if opts.Matcher != nil && opts.Matcher.Match(rel, true) {
						continue
					}
					if addErr := addDirs(w, root, ev.Name, opts.Matcher); addErr != nil {
						fmt.Fprintf(os.Stderr, "Warning: failed to watch %s: %v\n", ev.Name, addErr)
					}
					// The directory may already contain files to pick up
					schedule()
					continue
				}
			}

			if !relevantFile(rel, opts) {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) != 0 {
				schedule()
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(os.Stderr, "Warning: watch error: %v\n", watchErr)
		}
	}
}

// relevantFile reports whether a change to rel should trigger a run
func relevantFile(rel string, opts Options) bool {
	if !internal.IsSupportedFile(rel) {
		return false
	}
	if opts.TargetLang != "" && internal.IsOutputPath(rel, opts.TargetLang) {
		return false
	}
	if opts.Matcher != nil && opts.Matcher.Match(rel, false) {
		return false
	}
	return true
}

// addDirs adds start and all its non-ignored subdirectories to the
// watch set
func addDirs(w *fsnotify.Watcher, root, start string, matcher *ignore.Matcher) error {
	return filepath.WalkDir(start, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if rel != "." && matcher != nil && matcher.Match(rel, true) {
			return filepath.SkipDir
		}

		return w.Add(path)
	})
}

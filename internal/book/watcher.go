package book

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

const debounceWindow = 300 * time.Millisecond

// Watch starts an fsnotify watcher on the book src tree and invokes onChange
// after markdown content changes or structural removals, until ctx is
// cancelled. Because asset
// resolution is a whole-book, fail-fast pass, every relevant event collapses
// into a single debounced onChange call rather than per-file work.
//
// New directories created at runtime are added to the watch list.
func Watch(ctx context.Context, srcDir string, logger *slog.Logger, onChange func()) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := addDirsRecursive(w, srcDir); err != nil {
		return err
	}

	logger.Info("watcher: started", slog.String("root", srcDir))

	// debounceTimer coalesces bursts of events into one re-resolution.
	var debounceTimer *time.Timer
	var debounceCh <-chan time.Time

	schedule := func() {
		if debounceTimer == nil {
			debounceTimer = time.NewTimer(debounceWindow)
			debounceCh = debounceTimer.C
		} else {
			debounceTimer.Reset(debounceWindow)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-debounceCh:
			logger.Debug("watcher: change settled, re-resolving")
			if onChange != nil {
				onChange()
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}

			// Watch directories created at runtime; their contents may
			// hold chapters the next pass must see.
			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(ev.Name); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(w, ev.Name); addErr != nil {
						logger.Warn("watcher: add new dir failed",
							slog.String("path", ev.Name),
							slog.String("error", addErr.Error()))
					}
					schedule()
					continue
				}
			}

			// A removed or renamed directory takes its chapters with it
			// without emitting per-file .md events, and the path is gone so
			// it cannot be stat'ed. Schedule on any remove/rename.
			if !strings.HasSuffix(ev.Name, ".md") {
				if ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
					logger.Debug("watcher: path removed",
						slog.String("path", ev.Name),
						slog.String("op", ev.Op.String()))
					schedule()
				}
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) != 0 {
				logger.Debug("watcher: markdown event",
					slog.String("path", ev.Name),
					slog.String("op", ev.Op.String()))
				schedule()
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// addDirsRecursive adds root and all its subdirectories to the watcher.
func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.Add(path)
		}
		return nil
	})
}

package poller

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
)

// WatchFS starts a recursive fsnotify watcher on sourceDir and converts
// Write/Create events into early-tick nudges until ctx is cancelled. Nudges
// are best-effort: dropped while a session is running, and rate-limited by
// the controller's nudge spacing. The poll ticker remains the source of
// truth for coverage.
func (c *Controller) WatchFS(ctx context.Context, sourceDir string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := addTree(watcher, sourceDir); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if underGitDir(sourceDir, event.Name) {
				continue
			}
			select {
			case c.nudge <- struct{}{}:
			default: // a nudge is already pending
			}

			// Newly created directories need watching too.
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					_ = watcher.Add(event.Name)
				}
			}

		case _, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			// Watcher errors are non-fatal; continue watching.
		}
	}
}

// addTree walks dir and watches every subdirectory except .git.
func addTree(watcher *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil // skip unreadable entries
		}
		if !d.IsDir() {
			return nil
		}
		if d.Name() == ".git" {
			return filepath.SkipDir
		}
		return watcher.Add(path)
	})
}

// underGitDir reports whether path lies inside the repository's .git tree.
func underGitDir(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel == ".git" || strings.HasPrefix(rel, ".git"+string(filepath.Separator))
}

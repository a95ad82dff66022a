package control

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/jaywantadh/PrioStream/pkg/logging"
)

// Watcher blocks between rounds until the control file is edited, or until the
// poll interval elapses when no change notification arrives.
type Watcher struct {
	path     string
	interval time.Duration
	watcher  *fsnotify.Watcher
}

// NewWatcher watches the directory holding path, since editors commonly replace
// the file rather than write it in place. If notifications are unavailable the
// watcher degrades to polling the file's modification time.
func NewWatcher(path string, interval time.Duration) *Watcher {
	w := &Watcher{path: filepath.Clean(path), interval: interval}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		logging.Log.WithError(err).Warn("⚠️ File notifications unavailable, polling control file")
		return w
	}
	if err := fw.Add(filepath.Dir(w.path)); err != nil {
		logging.Log.WithError(err).Warn("⚠️ Cannot watch control file directory, polling control file")
		fw.Close()
		return w
	}
	w.watcher = fw
	return w
}

func (w *Watcher) Path() string {
	return w.path
}

func (w *Watcher) modTime() time.Time {
	info, err := os.Stat(w.path)
	if err != nil {
		return time.Time{}
	}
	return info.ModTime()
}

// Since reports whether the control file was modified after t.
func (w *Watcher) Since(t time.Time) bool {
	return w.modTime().After(t)
}

// Stamp returns the control file's current modification time.
func (w *Watcher) Stamp() time.Time {
	return w.modTime()
}

// Wait returns when the control file changes, when the poll interval elapses, or
// when ctx is done.
func (w *Watcher) Wait(ctx context.Context) error {
	timer := time.NewTimer(w.interval)
	defer timer.Stop()

	if w.watcher == nil {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			return nil
		}
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			return nil
		case event, ok := <-w.watcher.Events:
			if !ok {
				w.watcher = nil
				return nil
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				return nil
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				w.watcher = nil
				return nil
			}
			logging.Log.WithError(err).Warn("⚠️ Control file watcher error")
		}
	}
}

func (w *Watcher) Close() error {
	if w.watcher == nil {
		return nil
	}
	return w.watcher.Close()
}

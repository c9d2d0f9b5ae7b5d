package sharedfs

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/agenthub/agenthub/internal/common/logger"
	"github.com/agenthub/agenthub/internal/events"
	"github.com/agenthub/agenthub/internal/events/bus"
	"github.com/agenthub/agenthub/internal/hub/models"
)

// Change is the payload of a shared-filesystem event.
type Change struct {
	Path   string            `json:"path"` // root-relative, forward slashes
	Action models.FileAction `json:"action"`
}

// Watcher observes the shared root recursively and publishes one event per
// filesystem change. A single watcher serves all rooms; the hub fans each
// change out to every active room.
type Watcher struct {
	fs       *FS
	watcher  *fsnotify.Watcher
	eventBus bus.EventBus
	logger   *logger.Logger
}

// NewWatcher creates a watcher over the shared root, registering the root and
// every existing subdirectory.
func NewWatcher(fs *FS, eventBus bus.EventBus, log *logger.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		fs:       fs,
		watcher:  fw,
		eventBus: eventBus,
		logger:   log,
	}
	if err := w.addRecursive(fs.Root()); err != nil {
		_ = fw.Close()
		return nil, err
	}
	return w, nil
}

func (w *Watcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if hidden(w.fs.Rel(path)) {
			return filepath.SkipDir
		}
		return w.watcher.Add(path)
	})
}

// Run processes filesystem events until the context is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	defer func() {
		if err := w.watcher.Close(); err != nil {
			w.logger.Warn("Failed to close file watcher", zap.Error(err))
		}
	}()

	w.logger.Info("Watching shared directory", zap.String("root", w.fs.Root()))

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			w.handle(ctx, event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("File watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) handle(ctx context.Context, event fsnotify.Event) {
	rel := w.fs.Rel(event.Name)
	if rel == "." || hidden(rel) {
		return
	}

	var action models.FileAction
	switch {
	case event.Has(fsnotify.Create):
		action = models.FileActionAdd
		// New directories need their own watch for recursive coverage.
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.watcher.Add(event.Name); err != nil {
				w.logger.Warn("Failed to watch new directory",
					zap.String("path", rel),
					zap.Error(err))
			}
		}
	case event.Has(fsnotify.Write):
		action = models.FileActionChange
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		action = models.FileActionDelete
	default:
		return
	}

	change := &Change{Path: rel, Action: action}
	if err := w.eventBus.Publish(ctx, events.SharedFSSubject, bus.NewEvent(events.SharedFSChanged, "sharedfs", change)); err != nil {
		w.logger.Warn("Failed to publish file change",
			zap.String("path", rel),
			zap.Error(err))
	}
}

// hidden reports whether any path segment starts with a dot. Editor and VCS
// droppings under the shared root never reach the rooms.
func hidden(rel string) bool {
	for _, seg := range strings.Split(filepath.ToSlash(rel), "/") {
		if strings.HasPrefix(seg, ".") && seg != "." && seg != ".." {
			return true
		}
	}
	return false
}

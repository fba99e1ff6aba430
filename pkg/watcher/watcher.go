package watcher

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/ritzau/archmodel/pkg/logging"
)

// ChangeEvent represents one or more coalesced changes to the project file
type ChangeEvent struct {
	Path      string
	Op        fsnotify.Op // Union of the observed operations
	Count     int         // Number of raw events folded into this one
	Timestamp time.Time
}

// relevantOps are the operations that may leave new content at the path.
// Saving via temp file + rename shows up as Create on the target.
const relevantOps = fsnotify.Write | fsnotify.Create | fsnotify.Rename

// ProjectWatcher watches a single project file for external edits.
// The containing directory is watched since editors and atomic saves
// replace the file rather than writing it in place.
type ProjectWatcher struct {
	watcher *fsnotify.Watcher
	path    string
	events  chan ChangeEvent
}

// NewProjectWatcher creates a watcher for the project file at path
func NewProjectWatcher(path string) (*ProjectWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", path, err)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	return &ProjectWatcher{
		watcher: w,
		path:    abs,
		events:  make(chan ChangeEvent, 16),
	}, nil
}

// Path returns the absolute path being watched
func (pw *ProjectWatcher) Path() string {
	return pw.path
}

// Start begins watching. Events stop and the channel closes when ctx is done.
func (pw *ProjectWatcher) Start(ctx context.Context) error {
	dir := filepath.Dir(pw.path)
	if err := pw.watcher.Add(dir); err != nil {
		pw.watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	logging.Info("watching project file", "path", pw.path)
	go pw.processEvents(ctx)
	return nil
}

// Events returns the channel of raw change events
func (pw *ProjectWatcher) Events() <-chan ChangeEvent {
	return pw.events
}

func (pw *ProjectWatcher) processEvents(ctx context.Context) {
	defer close(pw.events)
	defer pw.watcher.Close()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-pw.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != pw.path || event.Op&relevantOps == 0 {
				continue
			}
			logging.Trace("project file event", "op", event.Op.String())

			select {
			case pw.events <- ChangeEvent{Path: pw.path, Op: event.Op, Count: 1, Timestamp: time.Now()}:
			default:
				logging.Debug("watcher channel full, dropping event", "path", pw.path)
			}

		case err, ok := <-pw.watcher.Errors:
			if !ok {
				return
			}
			logging.Error("watcher error", "error", err)
		}
	}
}

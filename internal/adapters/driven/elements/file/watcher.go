package file

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/nordvig-labs/byggqa-cli/internal/logger"
)

// Watcher reports documents whose parse output appears or changes in
// the elements directory, so they can be re-indexed.
type Watcher struct {
	watcher *fsnotify.Watcher
}

// NewWatcher creates a filesystem watcher backed by fsnotify.
func NewWatcher() (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{watcher: w}, nil
}

// Watch starts watching dir and returns a channel of document IDs
// whose JSONL files were created or rewritten. The channel closes when
// ctx is cancelled or the watcher is closed. Non-JSONL files and
// removals are ignored.
func (w *Watcher) Watch(ctx context.Context, dir string) (<-chan string, error) {
	if err := w.watcher.Add(dir); err != nil {
		return nil, err
	}

	out := make(chan string, 16)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-w.watcher.Events:
				if !ok {
					return
				}
				id, relevant := documentIDForEvent(event)
				if !relevant {
					continue
				}
				select {
				case out <- id:
				case <-ctx.Done():
					return
				}
			case err, ok := <-w.watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("Watcher error: %v", err)
			}
		}
	}()
	return out, nil
}

// Close stops the watcher. The event channel returned by Watch closes
// shortly after.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}

// documentIDForEvent maps a filesystem event to the affected document
// ID. Only creates and writes of .jsonl files count; editors and
// parsers finishing a file both surface as one of those.
func documentIDForEvent(event fsnotify.Event) (string, bool) {
	if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
		return "", false
	}
	name := filepath.Base(event.Name)
	if !strings.HasSuffix(name, ".jsonl") {
		return "", false
	}
	return strings.TrimSuffix(name, ".jsonl"), true
}

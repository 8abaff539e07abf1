package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocumentIDForEvent(t *testing.T) {
	tests := []struct {
		name     string
		event    fsnotify.Event
		wantID   string
		relevant bool
	}{
		{
			name:     "created jsonl file",
			event:    fsnotify.Event{Name: "/parsed/doc-1.jsonl", Op: fsnotify.Create},
			wantID:   "doc-1",
			relevant: true,
		},
		{
			name:     "rewritten jsonl file",
			event:    fsnotify.Event{Name: "/parsed/doc-2.jsonl", Op: fsnotify.Write},
			wantID:   "doc-2",
			relevant: true,
		},
		{
			name:  "removal is ignored",
			event: fsnotify.Event{Name: "/parsed/doc-1.jsonl", Op: fsnotify.Remove},
		},
		{
			name:  "chmod is ignored",
			event: fsnotify.Event{Name: "/parsed/doc-1.jsonl", Op: fsnotify.Chmod},
		},
		{
			name:  "non-jsonl file is ignored",
			event: fsnotify.Event{Name: "/parsed/doc-1.tmp", Op: fsnotify.Create},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, relevant := documentIDForEvent(tt.event)
			assert.Equal(t, tt.relevant, relevant)
			assert.Equal(t, tt.wantID, id)
		})
	}
}

func TestWatch_ReportsNewParseOutput(t *testing.T) {
	dir := t.TempDir()
	watcher, err := NewWatcher()
	require.NoError(t, err)
	defer watcher.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, err := watcher.Watch(ctx, dir)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "doc-1.jsonl"), []byte("{}\n"), 0o644))

	select {
	case id := <-events:
		assert.Equal(t, "doc-1", id)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for watch event")
	}
}

func TestWatch_ClosesChannelOnCancel(t *testing.T) {
	watcher, err := NewWatcher()
	require.NoError(t, err)
	defer watcher.Close()

	ctx, cancel := context.WithCancel(context.Background())
	events, err := watcher.Watch(ctx, t.TempDir())
	require.NoError(t, err)

	cancel()

	select {
	case _, open := <-events:
		assert.False(t, open)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for channel close")
	}
}

func TestWatch_MissingDirectory(t *testing.T) {
	watcher, err := NewWatcher()
	require.NoError(t, err)
	defer watcher.Close()

	_, err = watcher.Watch(context.Background(), filepath.Join(t.TempDir(), "absent"))
	assert.Error(t, err)
}

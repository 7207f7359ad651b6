package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/kgraph-dev/kgindex/internal/config"
	"github.com/kgraph-dev/kgindex/internal/queue"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestWatchWorkspace_FileChangeDispatchesReindexJob(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "go.mod"), []byte("module example.com/app\n\ngo 1.22\n"), 0o644))

	jobs := make(chan queue.Job, 4)
	dispatcher := queue.NewDispatcher(func(ctx context.Context, job queue.Job) error {
		jobs <- job
		return nil
	}, time.Second)
	defer dispatcher.Shutdown()

	cfg := &config.Config{
		Watch: config.Watch{DebounceMs: 50, MaxBatchEvents: 100},
	}
	w := New(cfg, dispatcher)
	require.NoError(t, w.WatchWorkspace(root))
	defer w.Stop()

	require.Eventually(t, func() bool { return w.WorkspaceCount() == 1 }, time.Second, 10*time.Millisecond)
	time.Sleep(150 * time.Millisecond) // let addWatches finish installing fsnotify watches

	require.NoError(t, os.WriteFile(filepath.Join(root, "new.go"), []byte("package app\n"), 0o644))

	select {
	case job := <-jobs:
		reindex, ok := job.(queue.ReindexWorkspaceFolderWithWatchedFiles)
		require.True(t, ok, "expected a ReindexWorkspaceFolderWithWatchedFiles job, got %T", job)
		assert.Equal(t, root, reindex.WorkspaceFolderPath)
		assert.Equal(t, queue.PriorityNormal, reindex.Pri)
		assert.NotEmpty(t, reindex.WorkspaceChanges)
	case <-time.After(5 * time.Second):
		t.Fatal("no reindex job dispatched after file change")
	}
}

func TestWatchWorkspace_DuplicateWorkspaceErrors(t *testing.T) {
	root := t.TempDir()

	dispatcher := queue.NewDispatcher(func(ctx context.Context, job queue.Job) error { return nil }, time.Second)
	defer dispatcher.Shutdown()

	cfg := &config.Config{Watch: config.Watch{DebounceMs: 50, MaxBatchEvents: 100}}
	w := New(cfg, dispatcher)
	require.NoError(t, w.WatchWorkspace(root))
	defer w.Stop()

	err := w.WatchWorkspace(root)
	assert.Error(t, err)
}

func TestStop_TornDownWorkspacesAreNoLongerWatched(t *testing.T) {
	root := t.TempDir()

	dispatcher := queue.NewDispatcher(func(ctx context.Context, job queue.Job) error { return nil }, time.Second)
	defer dispatcher.Shutdown()

	cfg := &config.Config{Watch: config.Watch{DebounceMs: 50, MaxBatchEvents: 100}}
	w := New(cfg, dispatcher)
	require.NoError(t, w.WatchWorkspace(root))
	require.Eventually(t, func() bool { return w.WorkspaceCount() == 1 }, time.Second, 10*time.Millisecond)

	w.Stop()
	assert.Equal(t, 0, w.WorkspaceCount())
}

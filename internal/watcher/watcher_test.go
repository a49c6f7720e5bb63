package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/dpshade/promptlib/internal/config"
	"github.com/dpshade/promptlib/internal/storage"
)

func startWatcher(t *testing.T, root string) *Watcher {
	t.Helper()
	cfg := config.Default()
	cfg.Root = root
	cfg.PromptDirs = []string{"analysis"}
	cfg.Watch.Debounce = "50ms"

	store, err := storage.NewStorage(root)
	require.NoError(t, err)

	w, err := New(cfg, store, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(func() {
		cancel()
		_ = w.Stop()
	})
	require.NoError(t, w.Start(ctx))

	// Give the watcher time to set up
	time.Sleep(100 * time.Millisecond)
	return w
}

func nextBatch(t *testing.T, w *Watcher) Batch {
	t.Helper()
	select {
	case b, ok := <-w.Batches():
		require.True(t, ok, "watcher stopped")
		return b
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for change batch")
		return Batch{}
	}
}

func noBatch(t *testing.T, w *Watcher) {
	t.Helper()
	select {
	case b := <-w.Batches():
		t.Fatalf("unexpected batch: %v", b.Paths())
	case <-time.After(300 * time.Millisecond):
	}
}

func TestWatcherReportsCreateAndModify(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "analysis"), 0755))
	existing := filepath.Join(root, "analysis", "existing.md")
	require.NoError(t, os.WriteFile(existing, []byte("v1"), 0644))

	w := startWatcher(t, root)

	require.NoError(t, os.WriteFile(filepath.Join(root, "analysis", "new.md"), []byte("hello"), 0644))
	b := nextBatch(t, w)
	assert.Equal(t, []Change{{Path: "analysis/new.md", Op: OpCreate}}, b.Changes)

	require.NoError(t, os.WriteFile(existing, []byte("v2"), 0644))
	b = nextBatch(t, w)
	assert.Equal(t, []Change{{Path: "analysis/existing.md", Op: OpModify}}, b.Changes)
}

func TestWatcherIgnoresUnchangedContentAndOverview(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "analysis"), 0755))
	existing := filepath.Join(root, "analysis", "existing.md")
	require.NoError(t, os.WriteFile(existing, []byte("same"), 0644))

	w := startWatcher(t, root)

	require.NoError(t, os.WriteFile(existing, []byte("same"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "analysis", "README.md"), []byte("# listing"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "analysis", "notes.txt"), []byte("x"), 0644))
	noBatch(t, w)
}

func TestWatcherIgnoresExemptFiles(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "analysis"), 0755))

	w := startWatcher(t, root)

	require.NoError(t, os.WriteFile(filepath.Join(root, "analysis", "changelog.md"), []byte("- fixed"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "analysis", "CHANGELOG.md"), []byte("- fixed"), 0644))
	noBatch(t, w)

	require.NoError(t, os.WriteFile(filepath.Join(root, "analysis", "real.md"), []byte("prompt"), 0644))
	b := nextBatch(t, w)
	assert.Equal(t, []string{"analysis/real.md"}, b.Paths())
}

func TestWatcherDebouncesBursts(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "analysis"), 0755))

	w := startWatcher(t, root)

	for _, name := range []string{"b.md", "a.md"} {
		require.NoError(t, os.WriteFile(filepath.Join(root, "analysis", name), []byte(name), 0644))
	}
	b := nextBatch(t, w)
	assert.Equal(t, []string{"analysis/a.md", "analysis/b.md"}, b.Paths())
}

func TestWatcherReportsDelete(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "analysis"), 0755))
	existing := filepath.Join(root, "analysis", "gone.md")
	require.NoError(t, os.WriteFile(existing, []byte("bye"), 0644))

	w := startWatcher(t, root)

	require.NoError(t, os.Remove(existing))
	b := nextBatch(t, w)
	assert.Equal(t, []Change{{Path: "analysis/gone.md", Op: OpDelete}}, b.Changes)
}

func TestWatcherStopsCleanly(t *testing.T) {
	ignore := goleak.IgnoreCurrent()

	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "analysis"), 0755))

	cfg := config.Default()
	cfg.Root = root
	cfg.PromptDirs = []string{"analysis", "missing"}

	store, err := storage.NewStorage(root)
	require.NoError(t, err)
	w, err := New(cfg, store, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, w.Start(ctx))

	cancel()
	select {
	case _, ok := <-w.Batches():
		assert.False(t, ok, "batches should close on cancel")
	case <-time.After(2 * time.Second):
		t.Fatal("batches not closed")
	}
	require.NoError(t, w.Stop())

	goleak.VerifyNone(t, ignore)
}

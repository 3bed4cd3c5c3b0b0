package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/mdlinkcheck/internal/discovery"
)

func TestShouldIgnoreEvent(t *testing.T) {
	ignored := []string{".hidden.md", "notes.md~", ".notes.md.swp", "x.swx", "#draft.md#", ".DS_Store", "Thumbs.db"}
	for _, p := range ignored {
		require.True(t, shouldIgnoreEvent(filepath.Join("docs", p)), p)
	}
	require.False(t, shouldIgnoreEvent("docs/guide.md"))
	require.False(t, shouldIgnoreEvent("docs/img/logo.png"))
}

func isMarkdown(t *testing.T) func(string) bool {
	t.Helper()
	w, err := discovery.New(discovery.Options{})
	require.NoError(t, err)
	return w.IsMarkdown
}

func TestSettle_SkipsUnchangedContent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.md")
	require.NoError(t, os.WriteFile(path, []byte("# A\n[b](b.md)\n"), 0o600))

	w := NewWatcher(dir, isMarkdown(t))
	w.snapshot()

	w.pending[path] = struct{}{}
	require.False(t, w.settle(), "same bytes must not trigger a run")

	require.NoError(t, os.WriteFile(path, []byte("# A\n[c](c.md)\n"), 0o600))
	w.pending[path] = struct{}{}
	require.True(t, w.settle())

	require.NoError(t, os.Remove(path))
	w.pending[path] = struct{}{}
	require.True(t, w.settle(), "deleted document must trigger a run")
	require.NotContains(t, w.fingerprints, path)

	w.force = true
	require.True(t, w.settle())
	require.False(t, w.settle())
}

func TestRun_RerunsOnChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.md")
	require.NoError(t, os.WriteFile(path, []byte("# A\n"), 0o600))

	w := NewWatcher(dir, isMarkdown(t))
	w.Debounce = 20 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var runs atomic.Int32
	ran := make(chan struct{}, 8)
	done := make(chan error, 1)
	go func() {
		done <- w.Run(ctx, func(context.Context) error {
			runs.Add(1)
			ran <- struct{}{}
			return nil
		})
	}()

	waitRun(t, ran)

	require.NoError(t, os.WriteFile(path, []byte("# A\n[x](x.md)\n"), 0o600))
	waitRun(t, ran)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop after cancel")
	}
	require.GreaterOrEqual(t, runs.Load(), int32(2))
}

func TestRun_SingleFileRoot(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "README.md")
	sibling := filepath.Join(dir, "other.md")
	require.NoError(t, os.WriteFile(path, []byte("# Readme\n"), 0o600))
	require.NoError(t, os.WriteFile(sibling, []byte("# Other\n"), 0o600))

	w := NewWatcher(path, isMarkdown(t))
	w.Debounce = 20 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ran := make(chan struct{}, 8)
	done := make(chan error, 1)
	go func() {
		done <- w.Run(ctx, func(context.Context) error {
			ran <- struct{}{}
			return nil
		})
	}()
	waitRun(t, ran)

	require.NoError(t, os.WriteFile(sibling, []byte("# Other\n[x](x.md)\n"), 0o600))
	select {
	case <-ran:
		t.Fatal("a sibling of a single-file root must not trigger a run")
	case <-time.After(200 * time.Millisecond):
	}

	require.NoError(t, os.WriteFile(path, []byte("# Readme\n[x](x.md)\n"), 0o600))
	waitRun(t, ran)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop after cancel")
	}
}

func TestRun_MissingRoot(t *testing.T) {
	w := NewWatcher(filepath.Join(t.TempDir(), "missing"), isMarkdown(t))
	err := w.Run(context.Background(), func(context.Context) error { return nil })
	require.Error(t, err)
}

func waitRun(t *testing.T, ran <-chan struct{}) {
	t.Helper()
	select {
	case <-ran:
	case <-time.After(3 * time.Second):
		t.Fatal("expected a run")
	}
}

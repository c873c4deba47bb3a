package watch

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_RequiresRoots(t *testing.T) {
	_, err := New(Options{})
	require.ErrorIs(t, err, ErrNoRoots)
}

func TestWatcher_DeliversDebouncedBatch(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "form"), 0o755))

	w, err := New(Options{
		Roots:    []string{root},
		Debounce: 200 * time.Millisecond,
		Accept:   func(p string) bool { return strings.HasSuffix(p, ".tsx") },
		SkipDir:  func(p string) bool { return filepath.Base(p) == "form" },
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	batches := make(chan []string, 4)
	done := make(chan error, 1)

	go func() {
		done <- w.Run(ctx, func(_ context.Context, paths []string) error {
			batches <- paths
			return nil
		})
	}()

	select {
	case <-w.Ready():
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not become ready")
	}

	require.NoError(t, os.WriteFile(filepath.Join(root, "B.tsx"), []byte("b"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "A.tsx"), []byte("a"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "notes.md"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "form", "index.tsx"), []byte("x"), 0o644))

	select {
	case batch := <-batches:
		assert.Equal(t, []string{filepath.Join(root, "A.tsx"), filepath.Join(root, "B.tsx")}, batch)
	case <-time.After(5 * time.Second):
		t.Fatal("no batch delivered")
	}

	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

package fswatch

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWatcher_DebouncesBurstIntoSingleTrigger(t *testing.T) {
	root := t.TempDir()

	var triggers int32
	w, err := New(root, []string{".git"}, 50*time.Millisecond, func() {
		atomic.AddInt32(&triggers, 1)
	})
	require.NoError(t, err)

	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("x"), 0o644))
		time.Sleep(5 * time.Millisecond)
	}

	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&triggers) == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestWatcher_SkipsExcludedDirectories(t *testing.T) {
	root := t.TempDir()
	excluded := filepath.Join(root, ".git")
	require.NoError(t, os.Mkdir(excluded, 0o755))

	var triggers int32
	w, err := New(root, []string{".git"}, 20*time.Millisecond, func() {
		atomic.AddInt32(&triggers, 1)
	})
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	require.NoError(t, os.WriteFile(filepath.Join(excluded, "HEAD"), []byte("ref"), 0o644))
	time.Sleep(150 * time.Millisecond)

	require.Equal(t, int32(0), atomic.LoadInt32(&triggers))
}

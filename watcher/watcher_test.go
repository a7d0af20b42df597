package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestGlobRoot(t *testing.T) {
	assert.Equal(t, "backend", globRoot("backend/**/*.py"))
	assert.Equal(t, filepath.Join("src", "api"), globRoot("src/api/*.py"))
	assert.Equal(t, "", globRoot("**/*.py"))
	assert.Equal(t, "backend", globRoot("backend/main.py"))
}

func TestMatches(t *testing.T) {
	w := &Watcher{opts: Options{
		Root:  "/project",
		Globs: []string{"backend/**/*.py", "api/schema.json"},
	}}

	assert.True(t, w.matches("/project/backend/app/models.py"))
	assert.True(t, w.matches("/project/api/schema.json"))
	assert.False(t, w.matches("/project/backend/app/models.pyc"))
	assert.False(t, w.matches("/project/frontend/index.ts"))
}

func TestWatcherTriggersSync(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "backend"), 0o755))

	var syncs atomic.Int32
	trigger := filepath.Join(root, ".typesync", "reload-trigger")

	w, err := New(Options{
		Globs:       []string{"backend/**/*.py"},
		Root:        root,
		Debounce:    50 * time.Millisecond,
		TriggerFile: trigger,
	}, func(ctx context.Context) error {
		syncs.Add(1)
		return nil
	}, zap.NewNop().Sugar())
	require.NoError(t, err)
	defer w.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w.Start(ctx)

	require.NoError(t, os.WriteFile(filepath.Join(root, "backend", "models.py"), []byte("x = 1\n"), 0o644))

	require.Eventually(t, func() bool {
		return syncs.Load() == 1
	}, 3*time.Second, 20*time.Millisecond)

	// Trigger file touched with a timestamp after the successful cycle.
	require.Eventually(t, func() bool {
		data, err := os.ReadFile(trigger)
		if err != nil {
			return false
		}
		_, err = time.Parse(time.RFC3339, string(data[:len(data)-1]))
		return err == nil
	}, 3*time.Second, 20*time.Millisecond)
}

func TestWatcherDebouncesBursts(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "backend"), 0o755))

	var syncs atomic.Int32
	w, err := New(Options{
		Globs:    []string{"backend/**/*.py"},
		Root:     root,
		Debounce: 150 * time.Millisecond,
	}, func(ctx context.Context) error {
		syncs.Add(1)
		return nil
	}, zap.NewNop().Sugar())
	require.NoError(t, err)
	defer w.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w.Start(ctx)

	// A burst of writes inside the debounce window yields one cycle.
	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(filepath.Join(root, "backend", "models.py"),
			[]byte("x = 1\n"), 0o644))
		time.Sleep(20 * time.Millisecond)
	}

	require.Eventually(t, func() bool {
		return syncs.Load() >= 1
	}, 3*time.Second, 20*time.Millisecond)

	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, int32(1), syncs.Load())
}

func TestWatcherSingleFlight(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "backend"), 0o755))

	var syncs atomic.Int32
	release := make(chan struct{})
	w, err := New(Options{
		Globs:    []string{"backend/**/*.py"},
		Root:     root,
		Debounce: 30 * time.Millisecond,
	}, func(ctx context.Context) error {
		syncs.Add(1)
		<-release
		return nil
	}, zap.NewNop().Sugar())
	require.NoError(t, err)
	defer w.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w.Start(ctx)

	require.NoError(t, os.WriteFile(filepath.Join(root, "backend", "a.py"), []byte("a\n"), 0o644))
	require.Eventually(t, func() bool {
		return syncs.Load() == 1
	}, 3*time.Second, 10*time.Millisecond)

	// While the first cycle blocks, new changes are dropped rather than queued.
	require.NoError(t, os.WriteFile(filepath.Join(root, "backend", "b.py"), []byte("b\n"), 0o644))
	require.Eventually(t, func() bool {
		return w.Dropped() >= 1
	}, 3*time.Second, 10*time.Millisecond)

	close(release)
	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, int32(1), syncs.Load())
}

func TestWatcherIgnoresUnmatchedFiles(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "backend"), 0o755))

	var syncs atomic.Int32
	w, err := New(Options{
		Globs:    []string{"backend/**/*.py"},
		Root:     root,
		Debounce: 30 * time.Millisecond,
	}, func(ctx context.Context) error {
		syncs.Add(1)
		return nil
	}, zap.NewNop().Sugar())
	require.NoError(t, err)
	defer w.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w.Start(ctx)

	require.NoError(t, os.WriteFile(filepath.Join(root, "backend", "notes.txt"), []byte("n\n"), 0o644))
	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, int32(0), syncs.Load())
}

func TestNewRequiresGlobs(t *testing.T) {
	_, err := New(Options{}, func(ctx context.Context) error { return nil }, zap.NewNop().Sugar())
	assert.Error(t, err)
}

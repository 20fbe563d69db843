package kbwatch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// start runs a watcher in the background and returns its result channel
// and a stop function that waits for Run to return.
func start(t *testing.T, w *Watcher) (<-chan error, func()) {
	t.Helper()
	results := make(chan error, 16)
	w.reloaded = results

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// Give the watcher time to register before the test writes.
	time.Sleep(50 * time.Millisecond)

	return results, func() {
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(2 * time.Second):
			t.Error("watcher did not stop")
		}
	}
}

func replace(t *testing.T, path, content string) {
	t.Helper()
	tmp := path + ".tmp"
	require.NoError(t, os.WriteFile(tmp, []byte(content), 0o644))
	require.NoError(t, os.Rename(tmp, path))
}

func waitResult(t *testing.T, results <-chan error) error {
	t.Helper()
	select {
	case err := <-results:
		return err
	case <-time.After(3 * time.Second):
		t.Fatal("no reload observed")
		return nil
	}
}

func TestWatcher_ReloadsOnPointerSwap(t *testing.T) {
	pointer := filepath.Join(t.TempDir(), "CURRENT")
	var calls atomic.Int32
	w := New(pointer, func(context.Context) error {
		calls.Add(1)
		return nil
	}, 20*time.Millisecond)

	results, stop := start(t, w)
	defer stop()

	replace(t, pointer, "v1\n")
	require.NoError(t, waitResult(t, results))

	replace(t, pointer, "v2\n")
	require.NoError(t, waitResult(t, results))

	assert.Equal(t, int32(2), calls.Load())
}

func TestWatcher_DebouncesBursts(t *testing.T) {
	pointer := filepath.Join(t.TempDir(), "CURRENT")
	var calls atomic.Int32
	w := New(pointer, func(context.Context) error {
		calls.Add(1)
		return nil
	}, 150*time.Millisecond)

	results, stop := start(t, w)
	defer stop()

	for i := 0; i < 5; i++ {
		replace(t, pointer, "v")
	}
	require.NoError(t, waitResult(t, results))

	select {
	case <-results:
		t.Error("expected a single reload for a burst")
	case <-time.After(300 * time.Millisecond):
	}
	assert.Equal(t, int32(1), calls.Load())
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	pointer := filepath.Join(dir, "CURRENT")
	w := New(pointer, func(context.Context) error { return nil }, 20*time.Millisecond)

	results, stop := start(t, w)
	defer stop()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "crawl_report.json"), []byte("[]"), 0o644))

	select {
	case <-results:
		t.Error("unexpected reload")
	case <-time.After(200 * time.Millisecond):
	}
}

func TestWatcher_ReloadErrorKeepsRunning(t *testing.T) {
	pointer := filepath.Join(t.TempDir(), "CURRENT")
	var calls atomic.Int32
	w := New(pointer, func(context.Context) error {
		if calls.Add(1) == 1 {
			return errors.New("model mismatch")
		}
		return nil
	}, 20*time.Millisecond)

	results, stop := start(t, w)
	defer stop()

	replace(t, pointer, "bad")
	assert.Error(t, waitResult(t, results))

	replace(t, pointer, "good")
	assert.NoError(t, waitResult(t, results))
}

func TestWatcher_CreatesMissingDirectory(t *testing.T) {
	pointer := filepath.Join(t.TempDir(), "kb", "CURRENT")
	w := New(pointer, func(context.Context) error { return nil }, 0)

	_, stop := start(t, w)
	stop()

	assert.DirExists(t, filepath.Dir(pointer))
	assert.Equal(t, DefaultDebounce, w.debounce)
}

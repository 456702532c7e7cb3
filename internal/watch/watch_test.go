package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSkipDir(t *testing.T) {
	assert.True(t, skipDir(".git"))
	assert.True(t, skipDir("vendor"))
	assert.False(t, skipDir("internal"))
	assert.False(t, skipDir("."))
}

func TestRun_InitialAndDebouncedCalls(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, "pkg"), 0o755))

	w, err := New(root, Options{Debounce: 50 * time.Millisecond})
	require.NoError(t, err)
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls atomic.Int32
	done := make(chan error, 1)
	go func() {
		done <- w.Run(ctx, func(context.Context) error {
			calls.Add(1)
			return nil
		})
	}()

	require.Eventually(t, func() bool { return calls.Load() == 1 }, 2*time.Second, 10*time.Millisecond)

	for i := 0; i < 3; i++ {
		require.NoError(t, os.WriteFile(filepath.Join(root, "pkg", "a.go"), []byte("package pkg\n"), 0o644))
	}
	require.Eventually(t, func() bool { return calls.Load() >= 2 }, 5*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestRun_IgnoredPaths(t *testing.T) {
	root := t.TempDir()
	w, err := New(root, Options{
		Debounce: 20 * time.Millisecond,
		Ignore:   func(rel string) bool { return filepath.Ext(rel) == ".log" },
	})
	require.NoError(t, err)
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls atomic.Int32
	go w.Run(ctx, func(context.Context) error {
		calls.Add(1)
		return nil
	})
	require.Eventually(t, func() bool { return calls.Load() == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(root, "run.log"), []byte("x"), 0o644))
	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())
}

func TestRun_CallbackErrorStops(t *testing.T) {
	w, err := New(t.TempDir(), Options{})
	require.NoError(t, err)
	defer w.Close()

	err = w.Run(context.Background(), func(context.Context) error { return assert.AnError })
	assert.ErrorIs(t, err, assert.AnError)
}

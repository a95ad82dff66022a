package control

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWaitReturnsAfterInterval(t *testing.T) {
	path := filepath.Join(t.TempDir(), "input.txt")
	w := NewWatcher(path, 50*time.Millisecond)
	defer w.Close()

	start := time.Now()
	require.NoError(t, w.Wait(context.Background()))
	assert.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond)
}

func TestWaitWakesOnEdit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "input.txt")
	w := NewWatcher(path, 10*time.Second)
	defer w.Close()

	go func() {
		time.Sleep(50 * time.Millisecond)
		os.WriteFile(path, []byte("a.txt HIGH\n"), 0644)
	}()

	done := make(chan error, 1)
	go func() { done <- w.Wait(context.Background()) }()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not wake on edit")
	}
}

func TestWaitHonoursContext(t *testing.T) {
	w := NewWatcher(filepath.Join(t.TempDir(), "input.txt"), 10*time.Second)
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, w.Wait(ctx), context.Canceled)
}

func TestSinceDetectsModification(t *testing.T) {
	path := filepath.Join(t.TempDir(), "input.txt")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0644))
	w := NewWatcher(path, time.Second)
	defer w.Close()

	stamp := w.Stamp()
	assert.False(t, w.Since(stamp))

	later := stamp.Add(2 * time.Second)
	require.NoError(t, os.Chtimes(path, later, later))
	assert.True(t, w.Since(stamp))
}

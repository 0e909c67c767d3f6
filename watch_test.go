package launchd

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// nextEvent waits for the first event matching path
func nextEvent(t *testing.T, events <-chan WatchEvent, path string) WatchEvent {
	t.Helper()
	deadline := time.After(3 * time.Second)
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				t.Fatalf("event channel closed while waiting for %s", path)
			}
			require.NoError(t, ev.Err)
			if ev.Path == path {
				return ev
			}
		case <-deadline:
			t.Fatalf("timeout waiting for event on %s", path)
		}
	}
}

func TestManagerWatch(t *testing.T) {
	m, roots := newTestManager(t, newFakeController())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	events, cleanup, err := m.Watch(ctx, 20*time.Millisecond)
	require.NoError(t, err)
	defer func() { _ = cleanup() }()

	t.Run("create", func(t *testing.T) {
		// Non-plist files are ignored
		require.NoError(t, os.WriteFile(filepath.Join(roots.UserAgents, "README"), []byte("x"), FileMode))

		p := writeJob(t, roots.UserAgents, "com.example.watched")
		ev := nextEvent(t, events, p)
		assert.Equal(t, SourceUserAgent, ev.Source)
		assert.False(t, ev.Removed)
	})

	t.Run("system daemon source", func(t *testing.T) {
		p := writeJob(t, roots.SystemDaemons, "com.example.d")
		ev := nextEvent(t, events, p)
		assert.Equal(t, SourceSystemDaemon, ev.Source)
	})

	t.Run("remove", func(t *testing.T) {
		p := filepath.Join(roots.UserAgents, "com.example.watched.plist")
		require.NoError(t, os.Remove(p))
		ev := nextEvent(t, events, p)
		assert.True(t, ev.Removed)
	})
}

func TestManagerWatchCleanup(t *testing.T) {
	m, _ := newTestManager(t, newFakeController())

	events, cleanup, err := m.Watch(context.Background(), 0)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		done <- cleanup()
	}()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("cleanup took too long")
	}

	select {
	case _, ok := <-events:
		assert.False(t, ok, "channel should be closed after cleanup")
	case <-time.After(time.Second):
		t.Fatal("channel not closed after cleanup")
	}
}

func TestManagerWatchIdempotentCleanup(t *testing.T) {
	m, _ := newTestManager(t, newFakeController())

	_, cleanup, err := m.Watch(context.Background(), 0)
	require.NoError(t, err)
	require.NoError(t, cleanup())

	done := make(chan error, 1)
	go func() {
		done <- cleanup()
	}()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("second cleanup took too long")
	}
}

func TestManagerWatchMissingUserRoot(t *testing.T) {
	m, err := NewManager(
		WithController(newFakeController()),
		WithRoots(Roots{UserAgents: filepath.Join(t.TempDir(), "missing")}),
	)
	require.NoError(t, err)

	_, _, err = m.Watch(context.Background(), 0)
	require.ErrorIs(t, err, ErrNotFound)
}

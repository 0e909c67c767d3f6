package launchd

import (
	"context"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/axondata/go-launchd/internal/logger"
	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
	"vawter.tech/stopper"
)

// WatchEvent reports that a job file under one of the roots changed
type WatchEvent struct {
	// Path is the plist file that changed
	Path string
	// Source is the root the file belongs to
	Source JobSource
	// Removed is set when the file was deleted or renamed away
	Removed bool
	Err     error
}

// WatchCleanupFunc stops a watch and waits for its goroutines to exit
type WatchCleanupFunc func() error

// watchState coalesces events for the debounce window
type watchState struct {
	mu        sync.Mutex
	pending   map[string]WatchEvent
	debouncer *time.Timer
}

// Watch monitors the existing roots for *.plist changes. Bursts of events
// are coalesced per path over debounce (DefaultWatchDebounce if zero). The
// channel is closed after cleanup.
func (m *Manager) Watch(ctx context.Context, debounce time.Duration) (<-chan WatchEvent, WatchCleanupFunc, error) {
	if debounce <= 0 {
		debounce = DefaultWatchDebounce
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, nil, newOpError(OpWatch, "", ErrIO, err)
	}

	sources := make(map[string]JobSource)
	for _, root := range m.Roots.dirs() {
		if err := watcher.Add(root.Path); err != nil {
			_ = watcher.Close()
			return nil, nil, newOpError(OpWatch, root.Path, ioKind(err), err)
		}
		sources[filepath.Clean(root.Path)] = root.Source
	}

	ch := make(chan WatchEvent, 10)

	state := &watchState{pending: make(map[string]WatchEvent)}

	// sendMu keeps a late debounced flush from sending on a closed channel
	var (
		sendMu sync.RWMutex
		closed bool
	)

	sctx := stopper.WithContext(ctx)
	sctx.Defer(func() {
		_ = watcher.Close()
		sendMu.Lock()
		closed = true
		close(ch)
		sendMu.Unlock()
	})

	cleanup := func() error {
		sctx.Stop(100 * time.Millisecond)
		return sctx.Wait()
	}

	send := func(ev WatchEvent) {
		sendMu.RLock()
		defer sendMu.RUnlock()
		if closed || sctx.IsStopping() {
			return
		}
		select {
		case ch <- ev:
		case <-sctx.Stopping():
		}
	}

	flush := func() {
		state.mu.Lock()
		batch := make([]WatchEvent, 0, len(state.pending))
		for _, ev := range state.pending {
			batch = append(batch, ev)
		}
		state.pending = make(map[string]WatchEvent)
		state.mu.Unlock()

		sort.Slice(batch, func(i, j int) bool { return batch[i].Path < batch[j].Path })
		for _, ev := range batch {
			send(ev)
		}
	}

	sctx.Go(func(sctx *stopper.Context) error {
		sctx.Defer(func() {
			state.mu.Lock()
			if state.debouncer != nil {
				state.debouncer.Stop()
			}
			state.mu.Unlock()
		})

		for !sctx.IsStopping() {
			select {
			case <-sctx.Stopping():
				return nil

			case <-sctx.Done():
				return nil

			case event, ok := <-watcher.Events:
				if !ok {
					return nil
				}
				if filepath.Ext(event.Name) != PlistExt || event.Op == fsnotify.Chmod {
					continue
				}

				ev := WatchEvent{
					Path:    event.Name,
					Source:  sources[filepath.Dir(event.Name)],
					Removed: event.Op&(fsnotify.Remove|fsnotify.Rename) != 0,
				}
				m.logger.Debug("job file changed",
					zap.String(logger.FieldPath, ev.Path),
					zap.Stringer(logger.FieldSource, ev.Source),
					zap.Stringer(logger.FieldOperation, event.Op),
				)

				state.mu.Lock()
				state.pending[event.Name] = ev
				if state.debouncer != nil {
					state.debouncer.Stop()
				}
				state.debouncer = time.AfterFunc(debounce, flush)
				state.mu.Unlock()

			case err, ok := <-watcher.Errors:
				if !ok {
					return nil
				}
				if err != nil {
					send(WatchEvent{Err: newOpError(OpWatch, "", ErrIO, err)})
				}
			}
		}
		return nil
	})

	return ch, cleanup, nil
}

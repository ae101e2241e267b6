package persistence

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"careerflow/domain/workspace"
)

// debounceDuration collapses the burst of events one save produces
const debounceDuration = 100 * time.Millisecond

// Watcher reloads the state file when another process rewrites it
type Watcher struct {
	store    *StateStore
	watcher  *fsnotify.Watcher
	logger   *zap.Logger
	onChange func(workspace.State)

	stopOnce sync.Once
	stopCh   chan struct{}
	done     chan struct{}
}

// NewWatcher watches the directory of the store's file so atomic renames
// are seen as well as in-place writes.
func NewWatcher(store *StateStore, onChange func(workspace.State), logger *zap.Logger) (*Watcher, error) {
	if !store.Enabled() {
		return nil, fmt.Errorf("state file watcher needs a state file")
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	dir := filepath.Dir(store.Path())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("create state directory: %w", err)
	}
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("failed to watch state directory: %w", err)
	}
	return &Watcher{
		store:    store,
		watcher:  fsw,
		logger:   logger,
		onChange: onChange,
		stopCh:   make(chan struct{}),
		done:     make(chan struct{}),
	}, nil
}

// Start begins watching for changes
func (w *Watcher) Start() {
	go w.watchLoop()
	w.logger.Info("State file watcher started", zap.String("path", w.store.Path()))
}

// Stop stops watching and waits for the loop to exit
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
		w.watcher.Close()
	})
	<-w.done
	w.logger.Info("State file watcher stopped")
}

func (w *Watcher) watchLoop() {
	defer close(w.done)

	var debounceTimer *time.Timer
	defer func() {
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
	}()
	name := filepath.Base(w.store.Path())

	for {
		select {
		case <-w.stopCh:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != name {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(debounceDuration, w.handleChange)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("File watcher error", zap.Error(err))
		}
	}
}

// handleChange loads the new document unless it is the one this process
// wrote, and hands it to the callback when it decodes cleanly.
func (w *Watcher) handleChange() {
	data, err := os.ReadFile(w.store.Path())
	if err != nil {
		w.logger.Warn("Failed to read changed state file", zap.Error(err))
		return
	}
	if w.store.isOwn(data) {
		return
	}

	state, err := workspace.Decode(w.store.cfg, data)
	if err != nil {
		w.logger.Error("Invalid state file, keeping current workspace", zap.Error(err))
		return
	}
	w.store.remember(data)

	w.logger.Info("State file changed, reloading workspace",
		zap.String("path", w.store.Path()),
		zap.Int("nodes", len(state.Tree.Nodes())),
	)
	w.onChange(state)
}

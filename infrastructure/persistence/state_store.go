// Package persistence keeps the workspace in a local JSON file between
// restarts and picks up edits made to that file by other processes.
package persistence

import (
	"bytes"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	domainconfig "careerflow/domain/config"
	"careerflow/domain/workspace"
)

// StateStore reads and writes the workspace file. Writes go through a
// temporary file and a rename so readers never see a partial document.
type StateStore struct {
	path   string
	cfg    *domainconfig.DomainConfig
	logger *zap.Logger

	mu        sync.Mutex
	lastWrite [sha256.Size]byte
}

// NewStateStore creates a store for path. An empty path disables it.
func NewStateStore(path string, cfg *domainconfig.DomainConfig, logger *zap.Logger) *StateStore {
	return &StateStore{path: path, cfg: cfg, logger: logger}
}

// Enabled reports whether a state file is configured
func (s *StateStore) Enabled() bool {
	return s != nil && s.path != ""
}

// Path returns the state file location
func (s *StateStore) Path() string {
	return s.path
}

// Load reads the saved workspace. ok is false when no file exists yet.
func (s *StateStore) Load() (state workspace.State, ok bool, err error) {
	if !s.Enabled() {
		return workspace.State{}, false, nil
	}
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return workspace.State{}, false, nil
	}
	if err != nil {
		return workspace.State{}, false, fmt.Errorf("read state file: %w", err)
	}
	state, err = workspace.Decode(s.cfg, data)
	if err != nil {
		return workspace.State{}, false, fmt.Errorf("load %s: %w", s.path, err)
	}
	s.remember(data)
	return state, true, nil
}

// Save writes the workspace atomically
func (s *StateStore) Save(state workspace.State) error {
	if !s.Enabled() {
		return nil
	}
	data, err := state.MarshalJSON()
	if err != nil {
		return fmt.Errorf("encode workspace: %w", err)
	}
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, data, "", "  "); err != nil {
		return fmt.Errorf("format workspace: %w", err)
	}
	data = pretty.Bytes()

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp state file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp state file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp state file: %w", err)
	}

	s.remember(data)
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace state file: %w", err)
	}
	s.logger.Debug("Workspace saved", zap.String("path", s.path), zap.Int("bytes", len(data)))
	return nil
}

// remember records the digest of the last document read or written so the
// watcher can skip change events caused by this process.
func (s *StateStore) remember(data []byte) {
	s.mu.Lock()
	s.lastWrite = sha256.Sum256(data)
	s.mu.Unlock()
}

// isOwn reports whether data is what this store last read or wrote
func (s *StateStore) isOwn(data []byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastWrite == sha256.Sum256(data)
}

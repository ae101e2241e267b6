package persistence

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	domainconfig "careerflow/domain/config"
	"careerflow/domain/core/entities"
	"careerflow/domain/workspace"
	"careerflow/tests/fixtures"
)

func sampleState() workspace.State {
	return fixtures.NewWorkspaceBuilder().
		WithCV(entities.BaseDetails{CVID: 3, Filename: "cv.pdf", Text: "Go engineer"}).
		WithCompany("Acme", 10).
		WithRole("Acme", "SWE", 20, entities.RoleDetails{JobType: "full-time"}).
		WithTailored("Acme/SWE", 30, "tailored").
		MustBuild()
}

func newStore(t *testing.T) *StateStore {
	t.Helper()
	path := filepath.Join(t.TempDir(), "state", "workspace.json")
	return NewStateStore(path, domainconfig.DefaultDomainConfig(), zap.NewNop())
}

func TestSaveAndLoad(t *testing.T) {
	store := newStore(t)
	state := sampleState()

	require.NoError(t, store.Save(state))
	loaded, ok, err := store.Load()
	require.NoError(t, err)
	require.True(t, ok)

	assert.Equal(t, state.Tree.Snapshot(), loaded.Tree.Snapshot())
	require.NoError(t, loaded.Validate())
}

func TestLoadMissingFile(t *testing.T) {
	store := newStore(t)
	_, ok, err := store.Load()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLoadRejectsCorruptFile(t *testing.T) {
	store := newStore(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(store.Path()), 0o755))
	require.NoError(t, os.WriteFile(store.Path(), []byte(`{"tree":`), 0o644))

	_, _, err := store.Load()
	assert.Error(t, err)
}

func TestDisabledStore(t *testing.T) {
	store := NewStateStore("", domainconfig.DefaultDomainConfig(), zap.NewNop())
	assert.False(t, store.Enabled())
	require.NoError(t, store.Save(sampleState()))
	_, ok, err := store.Load()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestWatcherPicksUpExternalWrites(t *testing.T) {
	store := newStore(t)
	require.NoError(t, store.Save(workspace.New(domainconfig.DefaultDomainConfig())))

	changes := make(chan workspace.State, 4)
	w, err := NewWatcher(store, func(s workspace.State) { changes <- s }, zap.NewNop())
	require.NoError(t, err)
	w.Start()
	defer w.Stop()

	// A write by this store is not reported back
	require.NoError(t, store.Save(sampleState()))
	select {
	case <-changes:
		t.Fatal("own write was reported as a change")
	case <-time.After(4 * debounceDuration):
	}

	other := NewStateStore(store.Path(), domainconfig.DefaultDomainConfig(), zap.NewNop())
	external := fixtures.NewWorkspaceBuilder().WithCompany("Globex", 11).MustBuild()
	require.NoError(t, other.Save(external))

	select {
	case got := <-changes:
		assert.Len(t, got.Tree.Nodes(), 2)
	case <-time.After(3 * time.Second):
		t.Fatal("external write was not picked up")
	}
}

func TestWatcherIgnoresInvalidDocuments(t *testing.T) {
	store := newStore(t)
	require.NoError(t, store.Save(sampleState()))

	changes := make(chan workspace.State, 1)
	w, err := NewWatcher(store, func(s workspace.State) { changes <- s }, zap.NewNop())
	require.NoError(t, err)
	w.Start()
	defer w.Stop()

	require.NoError(t, os.WriteFile(store.Path(), []byte(`not json`), 0o644))
	select {
	case <-changes:
		t.Fatal("invalid document was applied")
	case <-time.After(4 * debounceDuration):
	}
}

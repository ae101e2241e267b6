package workspace

import (
	"encoding/json"
	"testing"

	"careerflow/domain/config"
	"careerflow/domain/core/entities"
	"careerflow/domain/core/valueobjects"
	pkgerrors "careerflow/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dispatch(t *testing.T, s State, a Action) (State, Result) {
	t.Helper()
	next, res, err := Reduce(s, a)
	require.NoError(t, err, "%T", a)
	require.NoError(t, next.Validate())
	return next, res
}

func TestReduceAddAndSelect(t *testing.T) {
	s := New(config.DefaultDomainConfig())

	s, acme := dispatch(t, s, AddChild{ParentID: valueobjects.RootID, Label: "Acme"})
	s, beta := dispatch(t, s, AddChild{ParentID: valueobjects.RootID, Label: "Beta"})
	s, role := dispatch(t, s, AddChild{ParentID: acme.Node.ID(), Label: "SWE"})

	s, _ = dispatch(t, s, Click{ID: acme.Node.ID()})
	s, _ = dispatch(t, s, ToggleSelect{ID: beta.Node.ID()})
	assert.Equal(t, []valueobjects.NodeID{acme.Node.ID(), beta.Node.ID()}, s.Selection.Multi)

	s, _ = dispatch(t, s, ToggleSelect{ID: role.Node.ID()})
	assert.Equal(t, []valueobjects.NodeID{role.Node.ID()}, s.Selection.Multi)

	s, _ = dispatch(t, s, DeselectAll{})
	assert.Empty(t, s.Selection.Multi)
}

func TestReduceFailureLeavesStateUntouched(t *testing.T) {
	s := New(nil)
	s, _ = dispatch(t, s, AddChild{ParentID: valueobjects.RootID, Label: "Acme"})
	before, err := json.Marshal(s)
	require.NoError(t, err)

	next, _, err := Reduce(s, AddChild{ParentID: valueobjects.RootID, Label: "ACME"})
	assert.ErrorIs(t, err, pkgerrors.ErrDuplicateName)
	assert.Equal(t, 2, next.Tree.Len())

	_, _, err = Reduce(s, Delete{ID: valueobjects.RootID})
	assert.ErrorIs(t, err, pkgerrors.ErrProtectedNode)

	_, _, err = Reduce(s, ToggleSelect{ID: valueobjects.RootID})
	assert.ErrorIs(t, err, pkgerrors.ErrProtectedNode)

	after, err := json.Marshal(s)
	require.NoError(t, err)
	assert.JSONEq(t, string(before), string(after))
}

func TestReduceDeletePrunesSelection(t *testing.T) {
	s := New(nil)
	s, acme := dispatch(t, s, AddChild{ParentID: valueobjects.RootID, Label: "Acme"})
	s, role := dispatch(t, s, AddChild{ParentID: acme.Node.ID(), Label: "SWE"})
	s, _ = dispatch(t, s, Click{ID: role.Node.ID()})
	require.Equal(t, role.Node.ID(), s.Selection.ExpandedRole)

	s, res := dispatch(t, s, Delete{ID: acme.Node.ID()})
	assert.ElementsMatch(t, []valueobjects.NodeID{acme.Node.ID(), role.Node.ID()}, res.Removal.IDs)
	assert.Zero(t, s.Selection.Selected)
	assert.Zero(t, s.Selection.ExpandedRole)
	assert.Equal(t, 1, s.Tree.Len())
}

func TestReduceDeleteSelection(t *testing.T) {
	s := New(nil)
	s, acme := dispatch(t, s, AddChild{ParentID: valueobjects.RootID, Label: "Acme"})
	s, beta := dispatch(t, s, AddChild{ParentID: valueobjects.RootID, Label: "Beta"})
	s, gamma := dispatch(t, s, AddChild{ParentID: valueobjects.RootID, Label: "Gamma"})
	s, _ = dispatch(t, s, AddChild{ParentID: acme.Node.ID(), Label: "SWE"})

	_, _, err := Reduce(s, DeleteSelection{})
	assert.ErrorIs(t, err, pkgerrors.ErrEmptySelection)

	s, _ = dispatch(t, s, ToggleSelect{ID: acme.Node.ID()})
	s, _ = dispatch(t, s, ToggleSelect{ID: gamma.Node.ID()})
	s, res := dispatch(t, s, DeleteSelection{})

	assert.Len(t, res.Removal.IDs, 3)
	assert.Empty(t, s.Selection.Multi)
	remaining, err := s.Tree.Get(beta.Node.ID())
	require.NoError(t, err)
	assert.Equal(t, 100.0, remaining.Position().Y())
}

func TestReduceDeleteSelectionFallsBackToSingle(t *testing.T) {
	s := New(nil)
	s, acme := dispatch(t, s, AddChild{ParentID: valueobjects.RootID, Label: "Acme"})
	s, _ = dispatch(t, s, Click{ID: acme.Node.ID()})

	s, res := dispatch(t, s, DeleteSelection{})
	assert.Equal(t, []valueobjects.NodeID{acme.Node.ID()}, res.Removal.IDs)
	assert.Zero(t, s.Selection.ExpandedCompany)
}

func TestReduceRestore(t *testing.T) {
	s := New(nil)
	s, acme := dispatch(t, s, AddChild{ParentID: valueobjects.RootID, Label: "Acme"})
	s, _ = dispatch(t, s, AddChild{ParentID: acme.Node.ID(), Label: "SWE"})
	s, del := dispatch(t, s, Delete{ID: acme.Node.ID()})

	s, _ = dispatch(t, s, Restore{Nodes: del.Removal.Nodes})
	assert.Equal(t, 3, s.Tree.Len())
}

func TestReduceTailoredAndDetails(t *testing.T) {
	s := New(nil)
	s, acme := dispatch(t, s, AddChild{ParentID: valueobjects.RootID, Label: "Acme",
		Details: entities.CompanyDetails{Industry: "Retail"}, BackendID: 3})
	assert.EqualValues(t, 3, acme.Node.BackendID())

	s, role := dispatch(t, s, AddChild{ParentID: acme.Node.ID(), Label: "SWE"})
	s, v1 := dispatch(t, s, AddTailoredVersion{RoleID: role.Node.ID(), Details: entities.TailoredDetails{Content: "a"}})
	assert.Equal(t, "Version 1", v1.Node.Label())

	s, linked := dispatch(t, s, LinkBackend{ID: role.Node.ID(), BackendID: 8})
	assert.EqualValues(t, 8, linked.Node.BackendID())

	s, updated := dispatch(t, s, UpdateDetails{ID: role.Node.ID(), Details: entities.RoleDetails{JobType: "contract"}})
	assert.Equal(t, "contract", updated.Node.Details().(entities.RoleDetails).JobType)

	_, renamed := dispatch(t, s, Rename{ID: acme.Node.ID(), Label: "Acme Corp"})
	assert.Equal(t, "Acme Corp", renamed.Node.Label())
}

func TestSelectAllOfTypeAction(t *testing.T) {
	s := New(nil)
	s, acme := dispatch(t, s, AddChild{ParentID: valueobjects.RootID, Label: "Acme"})
	s, _ = dispatch(t, s, AddChild{ParentID: valueobjects.RootID, Label: "Beta"})
	s, _ = dispatch(t, s, ToggleSelect{ID: acme.Node.ID()})

	s, _ = dispatch(t, s, SelectAllOfType{Kind: entities.KindCompany})
	assert.Len(t, s.Selection.Multi, 2)
}

func TestStateDecodeRoundTrip(t *testing.T) {
	s := New(nil)
	s, acme := dispatch(t, s, AddChild{ParentID: valueobjects.RootID, Label: "Acme"})
	s, _ = dispatch(t, s, Click{ID: acme.Node.ID()})

	data, err := json.Marshal(s)
	require.NoError(t, err)

	back, err := Decode(config.DefaultDomainConfig(), data)
	require.NoError(t, err)
	assert.Equal(t, s.Selection, back.Selection)
	assert.Equal(t, s.Tree.Snapshot(), back.Tree.Snapshot())

	_, err = Decode(nil, []byte(`{"tree":{"nodes":[]}}`))
	assert.Error(t, err)
}

func TestView(t *testing.T) {
	s := New(nil)
	s, acme := dispatch(t, s, AddChild{ParentID: valueobjects.RootID, Label: "Acme"})
	s, role := dispatch(t, s, AddChild{ParentID: acme.Node.ID(), Label: "SWE"})
	s, _ = dispatch(t, s, AddTailoredVersion{RoleID: role.Node.ID()})

	v := s.View()
	assert.Len(t, v.Nodes, 2, "roles hidden while nothing is expanded")
	assert.Len(t, v.Edges, 1)

	s, _ = dispatch(t, s, Click{ID: acme.Node.ID()})
	v = s.View()
	require.Len(t, v.Nodes, 3)
	for _, n := range v.Nodes {
		if n.ID == acme.Node.ID() {
			assert.True(t, n.Selected)
			assert.True(t, n.Expanded)
		} else {
			assert.False(t, n.Selected)
		}
	}
	assert.Len(t, v.Edges, 2)
}

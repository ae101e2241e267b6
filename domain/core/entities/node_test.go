package entities

import (
	"encoding/json"
	"testing"
	"time"

	"careerflow/domain/core/valueobjects"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewChildNode(t *testing.T) {
	tests := []struct {
		name     string
		id       valueobjects.NodeID
		kind     Kind
		parentID valueobjects.NodeID
		details  Details
		wantErr  string
	}{
		{name: "company with details", id: 2, kind: KindCompany, parentID: 1, details: CompanyDetails{Industry: "Retail"}},
		{name: "role with nil details gets empty details", id: 3, kind: KindRole, parentID: 2},
		{name: "base kind rejected", id: 2, kind: KindBase, parentID: 1, wantErr: "cannot create a child node"},
		{name: "root id rejected", id: 1, kind: KindCompany, parentID: 1, wantErr: "invalid child node id"},
		{name: "missing parent", id: 2, kind: KindCompany, wantErr: "requires a parent"},
		{name: "mismatched details", id: 2, kind: KindCompany, parentID: 1, details: RoleDetails{}, wantErr: "do not match"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := NewChildNode(tt.id, tt.kind, tt.parentID, "Acme", tt.details)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.kind, n.Kind())
			assert.Equal(t, tt.parentID, n.ParentID())
			require.NotNil(t, n.Details())
			assert.Equal(t, tt.kind, n.Details().Kind())
			assert.False(t, n.IsSynced())
		})
	}
}

func TestNodeCopyOnWrite(t *testing.T) {
	n, err := NewChildNode(5, KindTailored, 4, "Version 1", nil)
	require.NoError(t, err)

	moved := n.MoveTo(valueobjects.At(800, 20)).Renumber(2).Link(99)
	assert.Equal(t, "Version 1", n.Label())
	assert.Equal(t, 0, n.Version())
	assert.EqualValues(t, 0, n.BackendID())

	assert.Equal(t, "Version 2", moved.Label())
	assert.Equal(t, 2, moved.Version())
	assert.EqualValues(t, 99, moved.BackendID())
	assert.True(t, moved.Position().Equals(valueobjects.At(800, 20)))
}

func TestRenumberIgnoresOtherKinds(t *testing.T) {
	n, err := NewChildNode(2, KindCompany, 1, "Acme", nil)
	require.NoError(t, err)
	assert.Equal(t, n, n.Renumber(4))
}

func TestWithDetails(t *testing.T) {
	n, err := NewChildNode(3, KindRole, 2, "SWE", nil)
	require.NoError(t, err)

	updated, err := n.WithDetails(RoleDetails{JobType: "full-time", Location: "Berlin"})
	require.NoError(t, err)
	assert.Equal(t, "Berlin", updated.Details().(RoleDetails).Location)

	_, err = n.WithDetails(CompanyDetails{})
	assert.Error(t, err)
}

func TestNodeJSONRoundTrip(t *testing.T) {
	created := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	n, err := NewChildNode(7, KindTailored, 4, "Version 1", TailoredDetails{Content: "tailored", CreatedAt: created})
	require.NoError(t, err)
	n = n.Renumber(1).Link(12).MoveTo(valueobjects.At(800, 100))

	data, err := json.Marshal(n)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"type":"tailored"`)
	assert.Contains(t, string(data), `"backendData"`)

	var back Node
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, n.ID(), back.ID())
	assert.Equal(t, n.Version(), back.Version())
	assert.Equal(t, n.BackendID(), back.BackendID())
	assert.True(t, n.Position().Equals(back.Position()))
	details, ok := back.Details().(TailoredDetails)
	require.True(t, ok)
	assert.Equal(t, "tailored", details.Content)
	assert.True(t, created.Equal(details.CreatedAt))
}

func TestNodeUnmarshalRejectsUnknownType(t *testing.T) {
	var n Node
	err := json.Unmarshal([]byte(`{"id":3,"type":"department","label":"x"}`), &n)
	assert.Error(t, err)
}

func TestKindHierarchy(t *testing.T) {
	child, ok := KindBase.ChildKind()
	assert.True(t, ok)
	assert.Equal(t, KindCompany, child)

	child, ok = KindCompany.ChildKind()
	assert.True(t, ok)
	assert.Equal(t, KindRole, child)

	_, ok = KindTailored.ChildKind()
	assert.False(t, ok)

	parent, ok := KindTailored.ParentKind()
	assert.True(t, ok)
	assert.Equal(t, KindRole, parent)

	_, err := ParseKind("company")
	assert.NoError(t, err)
	_, err = ParseKind("boss")
	assert.Error(t, err)
}

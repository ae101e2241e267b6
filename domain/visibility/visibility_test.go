package visibility

import (
	"testing"

	"careerflow/domain/core/entities"
	"careerflow/domain/core/valueobjects"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// base(1) -> Acme(2) -> SWE(4) -> Version 1(6)
//         -> Beta(3) -> PM(5)
func fixture(t *testing.T) ([]entities.Node, []entities.Edge) {
	t.Helper()
	mk := func(id valueobjects.NodeID, kind entities.Kind, parent valueobjects.NodeID, label string) entities.Node {
		n, err := entities.NewChildNode(id, kind, parent, label, nil)
		require.NoError(t, err)
		return n
	}
	nodes := []entities.Node{
		entities.NewBaseNode("cv", valueobjects.At(100, 400)),
		mk(2, entities.KindCompany, 1, "Acme"),
		mk(3, entities.KindCompany, 1, "Beta"),
		mk(4, entities.KindRole, 2, "SWE"),
		mk(5, entities.KindRole, 3, "PM"),
		mk(6, entities.KindTailored, 4, "Version 1"),
	}
	var edges []entities.Edge
	for _, n := range nodes[1:] {
		edges = append(edges, entities.Edge{From: n.ParentID(), To: n.ID()})
	}
	return nodes, edges
}

func ids(nodes []entities.Node) []valueobjects.NodeID {
	out := make([]valueobjects.NodeID, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.ID())
	}
	return out
}

func TestFilter(t *testing.T) {
	nodes, edges := fixture(t)

	tests := []struct {
		name      string
		exp       Expansion
		wantNodes []valueobjects.NodeID
		wantEdges int
	}{
		{name: "collapsed", exp: Expansion{}, wantNodes: []valueobjects.NodeID{1, 2, 3}, wantEdges: 2},
		{name: "company expanded", exp: Expansion{CompanyID: 2}, wantNodes: []valueobjects.NodeID{1, 2, 3, 4}, wantEdges: 3},
		{name: "company and role expanded", exp: Expansion{CompanyID: 2, RoleID: 4}, wantNodes: []valueobjects.NodeID{1, 2, 3, 4, 6}, wantEdges: 4},
		{name: "selected company reveals roles", exp: Expansion{SelectedID: 3}, wantNodes: []valueobjects.NodeID{1, 2, 3, 5}, wantEdges: 3},
		{name: "selected role reveals versions", exp: Expansion{CompanyID: 2, SelectedID: 4}, wantNodes: []valueobjects.NodeID{1, 2, 3, 4, 6}, wantEdges: 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotNodes, gotEdges := Filter(nodes, edges, tt.exp)
			assert.Equal(t, tt.wantNodes, ids(gotNodes))
			assert.Len(t, gotEdges, tt.wantEdges)
			visible := map[valueobjects.NodeID]bool{}
			for _, id := range ids(gotNodes) {
				visible[id] = true
			}
			for _, e := range gotEdges {
				assert.True(t, visible[e.From] && visible[e.To])
			}
		})
	}
}

func TestRoleVisibleOnlyUnderOpenCompany(t *testing.T) {
	nodes, _ := fixture(t)
	role := nodes[3]
	assert.True(t, IsVisible(role, Expansion{CompanyID: 2}))
	assert.True(t, IsVisible(role, Expansion{SelectedID: 2}))
	assert.False(t, IsVisible(role, Expansion{CompanyID: 3}))
	assert.False(t, IsVisible(role, Expansion{RoleID: 4}))
}

func TestTailoredVisibleWithoutRoleIsHiddenEdge(t *testing.T) {
	nodes, edges := fixture(t)
	// role expanded but its company collapsed: the version shows, its edge does not
	gotNodes, gotEdges := Filter(nodes, edges, Expansion{RoleID: 4})
	assert.Equal(t, []valueobjects.NodeID{1, 2, 3, 6}, ids(gotNodes))
	assert.Len(t, gotEdges, 2)
}

package workspace

import (
	"careerflow/domain/core/entities"
	"careerflow/domain/core/valueobjects"
	"careerflow/domain/selection"
	"careerflow/domain/visibility"
)

// NodeView is a visible node with the flags a renderer needs
type NodeView struct {
	ID        valueobjects.NodeID `json:"id"`
	Type      entities.Kind       `json:"type"`
	Label     string              `json:"label"`
	ParentID  valueobjects.NodeID `json:"parentId,omitempty"`
	X         float64             `json:"x"`
	Y         float64             `json:"y"`
	BackendID int64               `json:"backendId"`
	Version   int                 `json:"version,omitempty"`
	Selected  bool                `json:"selected"`
	Expanded  bool                `json:"expanded"`
	Details   entities.Details    `json:"backendData,omitempty"`
}

// View is the visible part of the workspace
type View struct {
	Nodes     []NodeView      `json:"nodes"`
	Edges     []entities.Edge `json:"edges"`
	Selection selection.State `json:"selection"`
}

// View derives the visible nodes and edges from the current expansion
func (s State) View() View {
	nodes, edges := visibility.Filter(s.Tree.Nodes(), s.Tree.Edges(), s.Selection.Expansion())
	out := View{
		Nodes:     make([]NodeView, 0, len(nodes)),
		Edges:     edges,
		Selection: s.Selection.Clone(),
	}
	for _, n := range nodes {
		out.Nodes = append(out.Nodes, NodeView{
			ID:        n.ID(),
			Type:      n.Kind(),
			Label:     n.Label(),
			ParentID:  n.ParentID(),
			X:         n.Position().X(),
			Y:         n.Position().Y(),
			BackendID: n.BackendID(),
			Version:   n.Version(),
			Selected:  s.Selection.IsSelected(n.ID()),
			Expanded:  s.Selection.IsExpanded(n.ID()),
			Details:   n.Details(),
		})
	}
	return out
}

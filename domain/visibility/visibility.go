// Package visibility derives which part of the tree is shown for a given
// expansion state. Nothing here is stored; the view is recomputed on every read.
package visibility

import (
	"careerflow/domain/core/entities"
	"careerflow/domain/core/valueobjects"
)

// Expansion is the part of the selection state that controls disclosure
type Expansion struct {
	CompanyID  valueobjects.NodeID
	RoleID     valueobjects.NodeID
	SelectedID valueobjects.NodeID
}

// IsVisible reports whether n is shown. Base and company nodes always are;
// roles and tailored versions only below an expanded or selected parent.
func IsVisible(n entities.Node, exp Expansion) bool {
	switch n.Kind() {
	case entities.KindBase, entities.KindCompany:
		return true
	case entities.KindRole:
		return isOpen(n.ParentID(), exp.CompanyID, exp.SelectedID)
	case entities.KindTailored:
		return isOpen(n.ParentID(), exp.RoleID, exp.SelectedID)
	default:
		return false
	}
}

func isOpen(parent, expanded, selected valueobjects.NodeID) bool {
	if parent.IsZero() {
		return false
	}
	return parent == expanded || parent == selected
}

// Filter returns the visible nodes and the edges whose two ends are visible.
// Input order is preserved.
func Filter(nodes []entities.Node, edges []entities.Edge, exp Expansion) ([]entities.Node, []entities.Edge) {
	visible := make(map[valueobjects.NodeID]bool, len(nodes))
	outNodes := make([]entities.Node, 0, len(nodes))
	for _, n := range nodes {
		if IsVisible(n, exp) {
			visible[n.ID()] = true
			outNodes = append(outNodes, n)
		}
	}
	outEdges := make([]entities.Edge, 0, len(edges))
	for _, e := range edges {
		if visible[e.From] && visible[e.To] {
			outEdges = append(outEdges, e)
		}
	}
	return outNodes, outEdges
}

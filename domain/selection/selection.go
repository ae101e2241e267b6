// Package selection implements the click state machine over single
// selection, homogeneous multi-selection and expansion. Every transition is
// a pure function returning a new State.
package selection

import (
	"fmt"

	"careerflow/domain/core/entities"
	"careerflow/domain/core/valueobjects"
	"careerflow/domain/visibility"
	pkgerrors "careerflow/pkg/errors"
)

// State is the selection and expansion state of a workspace. Multi keeps
// insertion order; its first member decides the selection type.
type State struct {
	Selected        valueobjects.NodeID   `json:"selectedNode,omitempty"`
	Multi           []valueobjects.NodeID `json:"selectedNodes"`
	ExpandedCompany valueobjects.NodeID   `json:"expandedCompanyId,omitempty"`
	ExpandedRole    valueobjects.NodeID   `json:"expandedRoleId,omitempty"`
}

// Lookup is the read access to the tree the transitions need
type Lookup interface {
	Get(id valueobjects.NodeID) (entities.Node, error)
	Children(id valueobjects.NodeID) []entities.Node
}

// Clone returns a copy that shares no memory with s
func (s State) Clone() State {
	s.Multi = append([]valueobjects.NodeID(nil), s.Multi...)
	return s
}

// Expansion projects the state onto what the visibility filter needs
func (s State) Expansion() visibility.Expansion {
	return visibility.Expansion{
		CompanyID:  s.ExpandedCompany,
		RoleID:     s.ExpandedRole,
		SelectedID: s.Selected,
	}
}

// IsSelected reports whether id is the single selection or in the multi-selection
func (s State) IsSelected(id valueobjects.NodeID) bool {
	return s.Selected == id || s.InMulti(id)
}

// InMulti reports whether id is part of the multi-selection
func (s State) InMulti(id valueobjects.NodeID) bool {
	for _, m := range s.Multi {
		if m == id {
			return true
		}
	}
	return false
}

// IsExpanded reports whether id is the expanded company or role
func (s State) IsExpanded(id valueobjects.NodeID) bool {
	return !id.IsZero() && (s.ExpandedCompany == id || s.ExpandedRole == id)
}

// Click handles a plain click: n becomes the single selection and drives expansion.
func Click(s State, n entities.Node) State {
	s = s.Clone()
	s.Multi = nil
	s.Selected = n.ID()
	switch n.Kind() {
	case entities.KindBase:
		s.ExpandedCompany = 0
	case entities.KindCompany:
		s.ExpandedCompany = n.ID()
		s.ExpandedRole = 0
	case entities.KindRole:
		s.ExpandedRole = n.ID()
	}
	return s
}

// ToggleClick handles a modifier click. Nodes of the current selection type
// are toggled in or out; a node of another type starts a new selection. A
// pending single selection of the same type is carried into the set.
func ToggleClick(s State, n entities.Node, lookup Lookup) (State, error) {
	if n.IsRoot() {
		return s, pkgerrors.ErrProtectedNode.Clone().WithMessage("the base node cannot be multi-selected")
	}
	s = s.Clone()

	if len(s.Multi) == 0 && !s.Selected.IsZero() && s.Selected != n.ID() {
		if cur, err := lookup.Get(s.Selected); err == nil && !cur.IsRoot() && cur.Kind() == n.Kind() {
			s.Multi = []valueobjects.NodeID{cur.ID()}
		}
	}
	s.Selected = 0

	kind, ok := selectionKind(s, lookup)
	if !ok || kind == n.Kind() {
		s.Multi = toggle(s.Multi, n.ID())
		return s, nil
	}
	s.Multi = []valueobjects.NodeID{n.ID()}
	return s, nil
}

// SelectAllOfType replaces the selection with every node of the given type
// that shares the first selected node's parent. The result is empty when
// that parent has no children of the type.
func SelectAllOfType(s State, kind entities.Kind, lookup Lookup) (State, error) {
	if kind == entities.KindBase {
		return s, pkgerrors.ErrProtectedNode.Clone().WithMessage("the base node cannot be multi-selected")
	}
	if len(s.Multi) == 0 {
		return s, pkgerrors.ErrEmptySelection.Clone()
	}
	first, err := lookup.Get(s.Multi[0])
	if err != nil {
		return s, err
	}
	s = s.Clone()
	s.Selected = 0
	s.Multi = nil
	for _, c := range lookup.Children(first.ParentID()) {
		if c.Kind() == kind {
			s.Multi = append(s.Multi, c.ID())
		}
	}
	return s, nil
}

// DeselectAll clears both selections and keeps the expansion
func DeselectAll(s State) State {
	s = s.Clone()
	s.Selected = 0
	s.Multi = nil
	return s
}

// Prune drops removed nodes from every slot of the state
func Prune(s State, removed []valueobjects.NodeID) State {
	if len(removed) == 0 {
		return s
	}
	gone := make(map[valueobjects.NodeID]bool, len(removed))
	for _, id := range removed {
		gone[id] = true
	}
	s = s.Clone()
	if gone[s.Selected] {
		s.Selected = 0
	}
	if gone[s.ExpandedCompany] {
		s.ExpandedCompany = 0
	}
	if gone[s.ExpandedRole] {
		s.ExpandedRole = 0
	}
	kept := s.Multi[:0]
	for _, id := range s.Multi {
		if !gone[id] {
			kept = append(kept, id)
		}
	}
	if len(kept) == 0 {
		kept = nil
	}
	s.Multi = kept
	return s
}

// PruneMissing drops every id the lookup no longer knows
func PruneMissing(s State, lookup Lookup) State {
	var missing []valueobjects.NodeID
	check := func(id valueobjects.NodeID) {
		if id.IsZero() {
			return
		}
		if _, err := lookup.Get(id); err != nil {
			missing = append(missing, id)
		}
	}
	check(s.Selected)
	check(s.ExpandedCompany)
	check(s.ExpandedRole)
	for _, id := range s.Multi {
		check(id)
	}
	return Prune(s, missing)
}

// Validate checks that every referenced node exists and that the
// multi-selection is homogeneous and free of the base node.
func Validate(s State, lookup Lookup) error {
	for _, id := range []valueobjects.NodeID{s.Selected, s.ExpandedCompany, s.ExpandedRole} {
		if id.IsZero() {
			continue
		}
		if _, err := lookup.Get(id); err != nil {
			return err
		}
	}
	var kind entities.Kind
	seen := make(map[valueobjects.NodeID]bool, len(s.Multi))
	for i, id := range s.Multi {
		if seen[id] {
			return pkgerrors.NewValidationError(fmt.Sprintf("node %s is selected twice", id))
		}
		seen[id] = true
		n, err := lookup.Get(id)
		if err != nil {
			return err
		}
		if n.IsRoot() {
			return pkgerrors.ErrProtectedNode.Clone().WithMessage("the base node cannot be multi-selected")
		}
		if i == 0 {
			kind = n.Kind()
		} else if n.Kind() != kind {
			return pkgerrors.NewValidationError(
				fmt.Sprintf("selection mixes %s and %s nodes", kind, n.Kind()))
		}
	}
	return nil
}

func selectionKind(s State, lookup Lookup) (entities.Kind, bool) {
	if len(s.Multi) == 0 {
		return "", false
	}
	first, err := lookup.Get(s.Multi[0])
	if err != nil {
		return "", false
	}
	return first.Kind(), true
}

func toggle(ids []valueobjects.NodeID, id valueobjects.NodeID) []valueobjects.NodeID {
	for i, v := range ids {
		if v == id {
			out := append(ids[:i:i], ids[i+1:]...)
			if len(out) == 0 {
				return nil
			}
			return out
		}
	}
	return append(ids, id)
}

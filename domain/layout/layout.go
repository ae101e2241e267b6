// Package layout computes deterministic canvas coordinates for the career tree.
// Every function here is pure: callers pass nodes in and apply the returned copies.
package layout

import (
	"sort"

	"careerflow/domain/core/entities"
	"careerflow/domain/core/valueobjects"
)

// Rule is the column spacing applied to the children of one parent kind
type Rule struct {
	XOffset  float64 `json:"x_offset" yaml:"x_offset"`
	YSpacing float64 `json:"y_spacing" yaml:"y_spacing"`
	// BaseY is absolute, or an offset from the parent's y when RelativeToParent is set
	BaseY            float64 `json:"base_y" yaml:"base_y"`
	RelativeToParent bool    `json:"relative_to_parent" yaml:"relative_to_parent"`
}

// Rules maps a parent kind to the rule placing its children
type Rules map[entities.Kind]Rule

// DefaultRules returns the stock spacing
func DefaultRules() Rules {
	return Rules{
		entities.KindBase:    {XOffset: 350, YSpacing: 80, BaseY: 100},
		entities.KindCompany: {XOffset: 350, YSpacing: 80, BaseY: -100, RelativeToParent: true},
		entities.KindRole:    {XOffset: 350, YSpacing: 60, BaseY: 0, RelativeToParent: true},
	}
}

// For returns the rule for children of the given parent kind, falling back
// to the defaults when the kind is not configured.
func (r Rules) For(parent entities.Kind) Rule {
	if rule, ok := r[parent]; ok {
		return rule
	}
	return DefaultRules()[parent]
}

// Slot returns the position of the child at index under parent
func Slot(parent entities.Node, index int, rules Rules) valueobjects.Position {
	rule := rules.For(parent.Kind())
	baseY := rule.BaseY
	if rule.RelativeToParent {
		baseY += parent.Position().Y()
	}
	return valueobjects.At(
		parent.Position().X()+rule.XOffset,
		baseY+float64(index)*rule.YSpacing,
	)
}

// NextSlot returns the slot a new last sibling takes when siblingCount
// children already exist. No existing sibling moves.
func NextSlot(parent entities.Node, siblingCount int, rules Rules) valueobjects.Position {
	return Slot(parent, siblingCount, rules)
}

// Less is the sibling order. Tailored versions keep their relative creation
// order so "Version 10" never sorts before "Version 2"; everything else is
// alphabetical, case-insensitive, ties broken by id.
func Less(a, b entities.Node) bool {
	if a.Kind() == entities.KindTailored && b.Kind() == entities.KindTailored {
		if a.Version() != b.Version() {
			return a.Version() < b.Version()
		}
		return a.ID() < b.ID()
	}
	if ak, bk := a.LabelKey(), b.LabelKey(); ak != bk {
		return ak < bk
	}
	if a.Label() != b.Label() {
		return a.Label() < b.Label()
	}
	return a.ID() < b.ID()
}

// SortSiblings orders children in place
func SortSiblings(children []entities.Node) {
	sort.SliceStable(children, func(i, j int) bool {
		return Less(children[i], children[j])
	})
}

// Arrange sorts the children of parent, renumbers tailored versions to 1..N
// and assigns each child its slot. The input slice is not modified.
func Arrange(parent entities.Node, children []entities.Node, rules Rules) []entities.Node {
	out := make([]entities.Node, len(children))
	copy(out, children)
	SortSiblings(out)
	for i, child := range out {
		if child.Kind() == entities.KindTailored {
			child = child.Renumber(i + 1)
		}
		out[i] = child.MoveTo(Slot(parent, i, rules))
	}
	return out
}

// Hierarchy gives Cascade read access to the current tree
type Hierarchy interface {
	Children(id valueobjects.NodeID) []entities.Node
}

// Cascade re-arranges the children of parent and recurses into every child
// whose position changed. It returns each node that differs from what the
// hierarchy holds, parents before their descendants.
func Cascade(h Hierarchy, parent entities.Node, rules Rules) []entities.Node {
	current := h.Children(parent.ID())
	if len(current) == 0 {
		return nil
	}
	before := make(map[valueobjects.NodeID]entities.Node, len(current))
	for _, c := range current {
		before[c.ID()] = c
	}

	var changed []entities.Node
	var moved []entities.Node
	for _, c := range Arrange(parent, current, rules) {
		old := before[c.ID()]
		posChanged := !old.Position().Equals(c.Position())
		if posChanged || old.Version() != c.Version() || old.Label() != c.Label() {
			changed = append(changed, c)
		}
		if posChanged {
			moved = append(moved, c)
		}
	}
	for _, c := range moved {
		changed = append(changed, Cascade(h, c, rules)...)
	}
	return changed
}

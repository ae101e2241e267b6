package entities

import (
	"encoding/json"
	"fmt"

	"careerflow/domain/core/valueobjects"
	pkgerrors "careerflow/pkg/errors"
)

// Node is one box in the career tree. It is an immutable value: every
// mutator returns a modified copy and leaves the receiver untouched, so the
// aggregate can hand nodes out without exposing its internals.
type Node struct {
	id        valueobjects.NodeID
	kind      Kind
	label     string
	parentID  valueobjects.NodeID
	position  valueobjects.Position
	backendID int64
	version   int
	details   Details
}

// Edge is the parent to child connection derived from a node's parent link
type Edge struct {
	From valueobjects.NodeID `json:"from"`
	To   valueobjects.NodeID `json:"to"`
}

// NewBaseNode creates the root node of a tree
func NewBaseNode(label string, position valueobjects.Position) Node {
	return Node{
		id:       valueobjects.RootID,
		kind:     KindBase,
		label:    label,
		position: position,
		details:  BaseDetails{},
	}
}

// NewChildNode creates a non-root node. A nil details value is replaced by
// the empty details of the kind; details of another kind are rejected.
func NewChildNode(id valueobjects.NodeID, kind Kind, parentID valueobjects.NodeID, label string, details Details) (Node, error) {
	if id.IsZero() || id.IsRoot() {
		return Node{}, pkgerrors.NewValidationError(fmt.Sprintf("invalid child node id %s", id))
	}
	if kind == KindBase || !kind.Valid() {
		return Node{}, pkgerrors.NewValidationError(fmt.Sprintf("cannot create a child node of type %q", kind))
	}
	if parentID.IsZero() {
		return Node{}, pkgerrors.NewValidationError("child node requires a parent")
	}
	if details == nil {
		details = EmptyDetails(kind)
	}
	if details.Kind() != kind {
		return Node{}, pkgerrors.NewValidationError(
			fmt.Sprintf("details of type %q do not match node type %q", details.Kind(), kind))
	}
	return Node{
		id:       id,
		kind:     kind,
		label:    label,
		parentID: parentID,
		details:  details,
	}, nil
}

func (n Node) ID() valueobjects.NodeID         { return n.id }
func (n Node) Kind() Kind                      { return n.kind }
func (n Node) Label() string                   { return n.label }
func (n Node) ParentID() valueobjects.NodeID   { return n.parentID }
func (n Node) Position() valueobjects.Position { return n.position }
func (n Node) BackendID() int64                { return n.backendID }
func (n Node) Version() int                    { return n.version }
func (n Node) Details() Details                { return n.details }
func (n Node) IsRoot() bool                    { return n.kind == KindBase }
func (n Node) IsSynced() bool                  { return n.backendID != 0 }
func (n Node) LabelKey() string                { return valueobjects.LabelKey(n.label) }

// Relabel returns a copy with a new display label
func (n Node) Relabel(label string) Node {
	n.label = label
	return n
}

// MoveTo returns a copy placed at p
func (n Node) MoveTo(p valueobjects.Position) Node {
	n.position = p
	return n
}

// Renumber sets the version of a tailored node and re-derives its label
func (n Node) Renumber(version int) Node {
	if n.kind != KindTailored {
		return n
	}
	n.version = version
	n.label = valueobjects.VersionLabel(version)
	return n
}

// Link records the id of the backend entity this node mirrors
func (n Node) Link(backendID int64) Node {
	n.backendID = backendID
	return n
}

// WithDetails replaces the mirrored backend data
func (n Node) WithDetails(d Details) (Node, error) {
	if d == nil {
		d = EmptyDetails(n.kind)
	}
	if d.Kind() != n.kind {
		return n, pkgerrors.NewValidationError(
			fmt.Sprintf("details of type %q do not match node type %q", d.Kind(), n.kind))
	}
	n.details = d
	return n, nil
}

// Snapshot is the serialized form of a node
type Snapshot struct {
	ID        valueobjects.NodeID   `json:"id"`
	Type      Kind                  `json:"type"`
	Label     string                `json:"label"`
	ParentID  valueobjects.NodeID   `json:"parentId,omitempty"`
	Position  valueobjects.Position `json:"position"`
	BackendID int64                 `json:"backendId"`
	Version   int                   `json:"version,omitempty"`
	Details   json.RawMessage       `json:"backendData,omitempty"`
}

// MarshalJSON implements json.Marshaler
func (n Node) MarshalJSON() ([]byte, error) {
	details, err := json.Marshal(n.details)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Snapshot{
		ID:        n.id,
		Type:      n.kind,
		Label:     n.label,
		ParentID:  n.parentID,
		Position:  n.position,
		BackendID: n.backendID,
		Version:   n.version,
		Details:   details,
	})
}

// UnmarshalJSON implements json.Unmarshaler. Structural checks across nodes
// are left to the aggregate.
func (n *Node) UnmarshalJSON(data []byte) error {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if !s.Type.Valid() {
		return pkgerrors.NewValidationError(fmt.Sprintf("unknown node type %q", s.Type))
	}
	if s.ID.IsZero() {
		return pkgerrors.NewValidationError("node id is required")
	}
	d, err := decodeDetails(s.Type, s.Details)
	if err != nil {
		return err
	}
	*n = Node{
		id:        s.ID,
		kind:      s.Type,
		label:     s.Label,
		parentID:  s.ParentID,
		position:  s.Position,
		backendID: s.BackendID,
		version:   s.Version,
		details:   d,
	}
	return nil
}

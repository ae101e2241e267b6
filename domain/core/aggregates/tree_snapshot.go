package aggregates

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"careerflow/domain/config"
	"careerflow/domain/core/entities"
	"careerflow/domain/core/valueobjects"
	"careerflow/domain/layout"
	pkgerrors "careerflow/pkg/errors"
)

// TreeSnapshot is the serializable form of a tree
type TreeSnapshot struct {
	Nodes  []entities.Node     `json:"nodes"`
	Edges  []entities.Edge     `json:"edges"`
	NextID valueobjects.NodeID `json:"nextId"`
}

// Snapshot captures the current nodes and edges
func (t *Tree) Snapshot() TreeSnapshot {
	return TreeSnapshot{
		Nodes:  t.Nodes(),
		Edges:  t.Edges(),
		NextID: t.nextID,
	}
}

// MarshalJSON implements json.Marshaler
func (t *Tree) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Snapshot())
}

// ReconstructTree rebuilds a tree from a snapshot and checks every invariant
func ReconstructTree(cfg *config.DomainConfig, s TreeSnapshot) (*Tree, error) {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	t := &Tree{
		nodes:    make(map[valueobjects.NodeID]entities.Node, len(s.Nodes)),
		children: make(map[valueobjects.NodeID][]valueobjects.NodeID),
		nextID:   s.NextID,
		config:   cfg,
		now:      time.Now,
	}
	for _, n := range s.Nodes {
		if _, dup := t.nodes[n.ID()]; dup {
			return nil, pkgerrors.ErrNodeExists.Clone().WithDetail("node_id", n.ID().String())
		}
		t.nodes[n.ID()] = n
		if !n.IsRoot() {
			t.children[n.ParentID()] = append(t.children[n.ParentID()], n.ID())
		}
		if n.ID() >= t.nextID {
			t.nextID = n.ID() + 1
		}
	}

	if s.Edges != nil {
		if len(s.Edges) != len(s.Nodes)-1 {
			return nil, pkgerrors.ErrInvariantViolation.Clone().
				WithMessage(fmt.Sprintf("snapshot has %d edges for %d nodes", len(s.Edges), len(s.Nodes)))
		}
		for _, e := range s.Edges {
			child, ok := t.nodes[e.To]
			if !ok || child.IsRoot() || child.ParentID() != e.From {
				return nil, pkgerrors.ErrInvariantViolation.Clone().
					WithMessage(fmt.Sprintf("edge %s->%s does not match any parent link", e.From, e.To))
			}
		}
	}

	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// Validate checks every structural invariant of the tree and reports all
// violations found.
func (t *Tree) Validate() error {
	var errs []error
	violation := func(format string, args ...interface{}) {
		errs = append(errs, pkgerrors.ErrInvariantViolation.Clone().WithMessage(fmt.Sprintf(format, args...)))
	}

	if root, ok := t.nodes[valueobjects.RootID]; !ok || root.Kind() != entities.KindBase {
		violation("base node %s is missing", valueobjects.RootID)
	}

	for _, n := range t.Nodes() {
		if n.ID() >= t.nextID {
			violation("node %s is not below the next id %s", n.ID(), t.nextID)
		}
		if n.IsRoot() {
			if n.ID() != valueobjects.RootID {
				violation("base node has id %s", n.ID())
			}
			continue
		}
		parent, ok := t.nodes[n.ParentID()]
		if !ok {
			errs = append(errs, pkgerrors.ErrDanglingReference.Clone().
				WithDetail("node_id", n.ID().String()).
				WithDetail("parent_id", n.ParentID().String()))
			continue
		}
		if want, _ := parent.Kind().ChildKind(); want != n.Kind() {
			violation("%s node %s cannot be a child of %s node %s", n.Kind(), n.ID(), parent.Kind(), parent.ID())
		}
		if !containsID(t.children[n.ParentID()], n.ID()) {
			violation("node %s is missing from the child index of %s", n.ID(), n.ParentID())
		}
	}

	for parentID, ids := range t.children {
		for _, id := range ids {
			n, ok := t.nodes[id]
			if !ok || n.ParentID() != parentID {
				violation("child index of %s holds stale entry %s", parentID, id)
			}
		}
	}

	for _, parent := range t.Nodes() {
		kids := t.Children(parent.ID())
		if len(kids) == 0 {
			continue
		}
		seen := make(map[string]valueobjects.NodeID, len(kids))
		for _, k := range kids {
			key := string(k.Kind()) + "\x00" + k.LabelKey()
			if other, dup := seen[key]; dup {
				violation("nodes %s and %s share the label %q", other, k.ID(), k.Label())
			}
			seen[key] = k.ID()
		}
		for i, want := range layout.Arrange(parent, kids, t.config.Layout) {
			got := kids[i]
			if want.Kind() == entities.KindTailored && got.Version() != i+1 {
				violation("tailored node %s has version %d, expected %d", got.ID(), got.Version(), i+1)
			}
			if !got.Position().Equals(want.Position()) {
				violation("node %s is at (%g,%g), layout expects (%g,%g)", got.ID(),
					got.Position().X(), got.Position().Y(), want.Position().X(), want.Position().Y())
			}
		}
	}

	return errors.Join(errs...)
}

func containsID(ids []valueobjects.NodeID, id valueobjects.NodeID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

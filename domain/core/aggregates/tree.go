package aggregates

import (
	"fmt"
	"sort"
	"time"

	"careerflow/domain/config"
	"careerflow/domain/core/entities"
	"careerflow/domain/core/valueobjects"
	"careerflow/domain/events"
	"careerflow/domain/layout"
	pkgerrors "careerflow/pkg/errors"
)

// Tree is the aggregate root for the career tree. It owns every node, keeps
// the parent to children index in lock-step with the parent links and
// re-runs the layout after each structural change.
type Tree struct {
	nodes    map[valueobjects.NodeID]entities.Node
	children map[valueobjects.NodeID][]valueobjects.NodeID
	nextID   valueobjects.NodeID
	config   *config.DomainConfig
	now      func() time.Time
	events   []events.DomainEvent
}

// Removal describes the subtree taken out by Delete. Nodes are ordered
// parents first so they can be handed straight back to Restore.
type Removal struct {
	IDs   []valueobjects.NodeID `json:"ids"`
	Nodes []entities.Node       `json:"nodes"`
}

// ChildOption customises a node created by AddChild or AddTailoredVersion
type ChildOption func(*childOptions)

type childOptions struct {
	details   entities.Details
	backendID int64
}

// WithDetails attaches mirrored backend data to the new node
func WithDetails(d entities.Details) ChildOption {
	return func(o *childOptions) { o.details = d }
}

// WithBackendID links the new node to an existing backend entity
func WithBackendID(id int64) ChildOption {
	return func(o *childOptions) { o.backendID = id }
}

// NewTree creates a tree holding only the base node
func NewTree(cfg *config.DomainConfig) *Tree {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	base := entities.NewBaseNode(cfg.BaseLabel, cfg.BasePosition())
	return &Tree{
		nodes:    map[valueobjects.NodeID]entities.Node{base.ID(): base},
		children: make(map[valueobjects.NodeID][]valueobjects.NodeID),
		nextID:   base.ID() + 1,
		config:   cfg,
		now:      time.Now,
	}
}

// Config returns the rules the tree was created with
func (t *Tree) Config() *config.DomainConfig {
	return t.config
}

// Root returns the base node
func (t *Tree) Root() entities.Node {
	return t.nodes[valueobjects.RootID]
}

// Get returns the node with the given id
func (t *Tree) Get(id valueobjects.NodeID) (entities.Node, error) {
	n, ok := t.nodes[id]
	if !ok {
		return entities.Node{}, pkgerrors.NewNodeNotFoundError(id)
	}
	return n, nil
}

// Has reports whether the node exists
func (t *Tree) Has(id valueobjects.NodeID) bool {
	_, ok := t.nodes[id]
	return ok
}

// Len returns the number of nodes including the base
func (t *Tree) Len() int {
	return len(t.nodes)
}

// NextID is the id the next created node will receive
func (t *Tree) NextID() valueobjects.NodeID {
	return t.nextID
}

// Children returns the children of id in layout order
func (t *Tree) Children(id valueobjects.NodeID) []entities.Node {
	ids := t.children[id]
	if len(ids) == 0 {
		return nil
	}
	out := make([]entities.Node, 0, len(ids))
	for _, cid := range ids {
		out = append(out, t.nodes[cid])
	}
	layout.SortSiblings(out)
	return out
}

// Nodes returns every node ordered by id
func (t *Tree) Nodes() []entities.Node {
	out := make([]entities.Node, 0, len(t.nodes))
	for _, n := range t.nodes {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}

// Edges returns one edge per non-root node, ordered by child id
func (t *Tree) Edges() []entities.Edge {
	out := make([]entities.Edge, 0, len(t.nodes))
	for _, n := range t.Nodes() {
		if n.IsRoot() {
			continue
		}
		out = append(out, entities.Edge{From: n.ParentID(), To: n.ID()})
	}
	return out
}

// Descendants returns the ids below id, breadth first
func (t *Tree) Descendants(id valueobjects.NodeID) []valueobjects.NodeID {
	var out []valueobjects.NodeID
	queue := append([]valueobjects.NodeID(nil), t.children[id]...)
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		out = append(out, cur)
		queue = append(queue, t.children[cur]...)
	}
	return out
}

// FindByBackendID returns the node of the given kind mirroring backendID
func (t *Tree) FindByBackendID(kind entities.Kind, backendID int64) (entities.Node, bool) {
	if backendID == 0 {
		return entities.Node{}, false
	}
	for _, n := range t.nodes {
		if n.Kind() == kind && n.BackendID() == backendID {
			return n, true
		}
	}
	return entities.Node{}, false
}

// FindChildByLabel looks up a sibling by case-insensitive label
func (t *Tree) FindChildByLabel(parentID valueobjects.NodeID, kind entities.Kind, label string) (entities.Node, bool) {
	key := valueobjects.LabelKey(label)
	for _, cid := range t.children[parentID] {
		c := t.nodes[cid]
		if c.Kind() == kind && c.LabelKey() == key {
			return c, true
		}
	}
	return entities.Node{}, false
}

// AddChild creates a company under the base node or a role under a company.
// Tailored versions go through AddTailoredVersion.
func (t *Tree) AddChild(parentID valueobjects.NodeID, label string, opts ...ChildOption) (entities.Node, error) {
	parent, err := t.Get(parentID)
	if err != nil {
		return entities.Node{}, err
	}
	kind, ok := parent.Kind().ChildKind()
	if !ok || kind == entities.KindTailored {
		return entities.Node{}, pkgerrors.ErrUnsupportedChild.Clone().
			WithMessage(fmt.Sprintf("%s nodes cannot receive children here", parent.Kind())).
			WithDetail("parent_id", parentID.String())
	}

	label, err = valueobjects.NormalizeLabel(label, t.config.MaxLabelLength)
	if err != nil {
		return entities.Node{}, err
	}
	if err := t.checkCapacity(1); err != nil {
		return entities.Node{}, err
	}
	if _, exists := t.FindChildByLabel(parentID, kind, label); exists {
		return entities.Node{}, pkgerrors.NewDuplicateNameError(label)
	}

	o := applyOptions(opts)
	node, err := entities.NewChildNode(t.nextID, kind, parentID, label, o.details)
	if err != nil {
		return entities.Node{}, err
	}
	node = node.Link(o.backendID)

	t.place(parent, node)
	added := t.nodes[node.ID()]
	t.addEvent(events.NewNodeAdded(added, t.now()))
	return added, nil
}

// AddTailoredVersion appends the next resume version under a role
func (t *Tree) AddTailoredVersion(roleID valueobjects.NodeID, details entities.TailoredDetails, opts ...ChildOption) (entities.Node, error) {
	role, err := t.Get(roleID)
	if err != nil {
		return entities.Node{}, err
	}
	if role.Kind() != entities.KindRole {
		return entities.Node{}, pkgerrors.ErrUnsupportedChild.Clone().
			WithMessage("tailored resumes can only be added to a role").
			WithDetail("parent_id", roleID.String())
	}
	if err := t.checkCapacity(1); err != nil {
		return entities.Node{}, err
	}

	o := applyOptions(opts)
	version := len(t.children[roleID]) + 1
	node, err := entities.NewChildNode(t.nextID, entities.KindTailored, roleID, valueobjects.VersionLabel(version), details)
	if err != nil {
		return entities.Node{}, err
	}
	node = node.Renumber(version).Link(o.backendID)

	t.place(role, node)
	added := t.nodes[node.ID()]
	t.addEvent(events.NewNodeAdded(added, t.now()))
	return added, nil
}

// place inserts a validated node under parent and lays it out. A node that
// sorts after every sibling takes the next free slot; anything else triggers
// a full pass over the siblings.
func (t *Tree) place(parent, node entities.Node) {
	siblings := t.Children(parent.ID())
	appendOnly := len(siblings) == 0 || layout.Less(siblings[len(siblings)-1], node)
	if appendOnly {
		node = node.MoveTo(layout.NextSlot(parent, len(siblings), t.config.Layout))
	}

	t.insert(node)
	t.nextID = node.ID() + 1

	if !appendOnly {
		t.relayout(parent.ID())
	}
}

// Delete removes a node and all of its descendants, then re-lays out the
// surviving siblings.
func (t *Tree) Delete(id valueobjects.NodeID) (Removal, error) {
	if id.IsRoot() {
		return Removal{}, pkgerrors.ErrProtectedNode.Clone().WithDetail("node_id", id.String())
	}
	node, err := t.Get(id)
	if err != nil {
		return Removal{}, err
	}

	closure := append([]valueobjects.NodeID{id}, t.Descendants(id)...)
	removed := make([]entities.Node, 0, len(closure))
	for _, rid := range closure {
		removed = append(removed, t.nodes[rid])
	}
	for _, rid := range closure {
		delete(t.nodes, rid)
		delete(t.children, rid)
	}
	t.unlink(node.ParentID(), id)
	t.relayout(node.ParentID())

	ids := append([]valueobjects.NodeID(nil), closure...)
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	t.addEvent(events.NewNodesDeleted(id, ids, t.now()))
	return Removal{IDs: ids, Nodes: removed}, nil
}

// Rename changes the label of a company, role or the base node. Tailored
// labels follow their version and cannot be renamed.
func (t *Tree) Rename(id valueobjects.NodeID, label string) (entities.Node, error) {
	node, err := t.Get(id)
	if err != nil {
		return entities.Node{}, err
	}
	if node.Kind() == entities.KindTailored {
		return entities.Node{}, pkgerrors.NewInvalidLabelError("tailored resume labels follow their version and cannot be renamed")
	}
	label, err = valueobjects.NormalizeLabel(label, t.config.MaxLabelLength)
	if err != nil {
		return entities.Node{}, err
	}
	if label == node.Label() {
		return node, nil
	}
	if !node.IsRoot() {
		if other, exists := t.FindChildByLabel(node.ParentID(), node.Kind(), label); exists && other.ID() != id {
			return entities.Node{}, pkgerrors.NewDuplicateNameError(label)
		}
	}

	old := node.Label()
	t.nodes[id] = node.Relabel(label)
	if !node.IsRoot() {
		t.relayout(node.ParentID())
	}
	t.addEvent(events.NewNodeRenamed(id, old, label, t.now()))
	return t.nodes[id], nil
}

// UpdateDetails replaces the mirrored backend data of a node
func (t *Tree) UpdateDetails(id valueobjects.NodeID, details entities.Details) (entities.Node, error) {
	node, err := t.Get(id)
	if err != nil {
		return entities.Node{}, err
	}
	updated, err := node.WithDetails(details)
	if err != nil {
		return entities.Node{}, err
	}
	t.nodes[id] = updated
	t.addEvent(events.NewNodeUpdated(updated, t.now()))
	return updated, nil
}

// LinkBackend records the backend entity id of a node. Zero unlinks.
func (t *Tree) LinkBackend(id valueobjects.NodeID, backendID int64) (entities.Node, error) {
	node, err := t.Get(id)
	if err != nil {
		return entities.Node{}, err
	}
	if backendID < 0 {
		return entities.Node{}, pkgerrors.NewValidationError("backend id cannot be negative")
	}
	updated := node.Link(backendID)
	t.nodes[id] = updated
	t.addEvent(events.NewNodeUpdated(updated, t.now()))
	return updated, nil
}

// Restore puts previously deleted nodes back with their original ids. Every
// node must hang off an existing node or another restored node. Nothing
// changes unless the whole set is valid.
func (t *Tree) Restore(nodes []entities.Node) error {
	if len(nodes) == 0 {
		return nil
	}
	incoming := make(map[valueobjects.NodeID]entities.Node, len(nodes))
	for _, n := range nodes {
		if n.IsRoot() {
			return pkgerrors.ErrProtectedNode.Clone().WithMessage("the base node cannot be restored")
		}
		if t.Has(n.ID()) {
			return pkgerrors.ErrNodeExists.Clone().WithDetail("node_id", n.ID().String())
		}
		if _, dup := incoming[n.ID()]; dup {
			return pkgerrors.ErrNodeExists.Clone().WithDetail("node_id", n.ID().String())
		}
		incoming[n.ID()] = n
	}
	if err := t.checkCapacity(len(nodes)); err != nil {
		return err
	}
	for _, n := range nodes {
		parent, ok := t.nodes[n.ParentID()]
		if !ok {
			parent, ok = incoming[n.ParentID()]
		}
		if !ok {
			return pkgerrors.ErrDanglingReference.Clone().
				WithDetail("node_id", n.ID().String()).
				WithDetail("parent_id", n.ParentID().String())
		}
		if want, _ := parent.Kind().ChildKind(); want != n.Kind() {
			return pkgerrors.ErrUnsupportedChild.Clone().WithDetail("node_id", n.ID().String())
		}
		if n.Kind() == entities.KindTailored || !t.Has(n.ParentID()) {
			continue
		}
		if _, exists := t.FindChildByLabel(n.ParentID(), n.Kind(), n.Label()); exists {
			return pkgerrors.NewDuplicateNameError(n.Label())
		}
	}

	// Insert parents before children
	ordered := make([]entities.Node, 0, len(nodes))
	pending := append([]entities.Node(nil), nodes...)
	placed := make(map[valueobjects.NodeID]bool, len(nodes))
	for len(pending) > 0 {
		var next []entities.Node
		for _, n := range pending {
			if t.Has(n.ParentID()) || placed[n.ParentID()] {
				ordered = append(ordered, n)
				placed[n.ID()] = true
			} else {
				next = append(next, n)
			}
		}
		if len(next) == len(pending) {
			return pkgerrors.ErrDanglingReference.Clone().WithMessage("restored nodes form a cycle")
		}
		pending = next
	}

	var roots []valueobjects.NodeID
	for _, n := range ordered {
		if !placed[n.ParentID()] {
			roots = append(roots, n.ParentID())
		}
	}
	ids := make([]valueobjects.NodeID, 0, len(ordered))
	for _, n := range ordered {
		t.insert(n)
		if n.ID() >= t.nextID {
			t.nextID = n.ID() + 1
		}
		ids = append(ids, n.ID())
	}

	for _, parentID := range roots {
		t.relayout(parentID)
	}
	for _, n := range ordered {
		t.relayout(n.ID())
	}

	t.addEvent(events.NewNodesRestored(ids, t.now()))
	return nil
}

// Clone returns a deep copy without pending events
func (t *Tree) Clone() *Tree {
	c := &Tree{
		nodes:    make(map[valueobjects.NodeID]entities.Node, len(t.nodes)),
		children: make(map[valueobjects.NodeID][]valueobjects.NodeID, len(t.children)),
		nextID:   t.nextID,
		config:   t.config,
		now:      t.now,
	}
	for id, n := range t.nodes {
		c.nodes[id] = n
	}
	for id, ids := range t.children {
		c.children[id] = append([]valueobjects.NodeID(nil), ids...)
	}
	return c
}

// SetClock replaces the time source used for event timestamps
func (t *Tree) SetClock(now func() time.Time) {
	t.now = now
}

// GetUncommittedEvents returns events raised since the last commit
func (t *Tree) GetUncommittedEvents() []events.DomainEvent {
	return t.events
}

// MarkEventsAsCommitted clears pending events
func (t *Tree) MarkEventsAsCommitted() {
	t.events = nil
}

func (t *Tree) addEvent(e events.DomainEvent) {
	t.events = append(t.events, e)
}

func (t *Tree) insert(n entities.Node) {
	t.nodes[n.ID()] = n
	t.children[n.ParentID()] = append(t.children[n.ParentID()], n.ID())
}

func (t *Tree) unlink(parentID, childID valueobjects.NodeID) {
	ids := t.children[parentID]
	for i, id := range ids {
		if id == childID {
			t.children[parentID] = append(ids[:i:i], ids[i+1:]...)
			break
		}
	}
	if len(t.children[parentID]) == 0 {
		delete(t.children, parentID)
	}
}

// relayout runs a full layout pass below parentID and applies the result
func (t *Tree) relayout(parentID valueobjects.NodeID) {
	parent, ok := t.nodes[parentID]
	if !ok {
		return
	}
	changed := layout.Cascade(t, parent, t.config.Layout)
	if len(changed) == 0 {
		return
	}
	ids := make([]valueobjects.NodeID, 0, len(changed))
	for _, n := range changed {
		t.nodes[n.ID()] = n
		ids = append(ids, n.ID())
	}
	t.addEvent(events.NewNodesRepositioned(parentID, ids, t.now()))
}

func (t *Tree) checkCapacity(extra int) error {
	if t.config.MaxNodesPerTree > 0 && len(t.nodes)+extra > t.config.MaxNodesPerTree {
		return pkgerrors.ErrTreeLimitExceeded.Clone().WithDetail("limit", t.config.MaxNodesPerTree)
	}
	return nil
}

func applyOptions(opts []ChildOption) childOptions {
	var o childOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

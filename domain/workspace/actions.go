package workspace

import (
	"time"

	"careerflow/domain/core/entities"
	"careerflow/domain/core/valueobjects"
)

// Action is a user or sync intent applied by Reduce
type Action interface {
	actionName() string
}

// AddChild creates a company under the base node or a role under a company
type AddChild struct {
	ParentID  valueobjects.NodeID
	Label     string
	Details   entities.Details
	BackendID int64
}

// AddTailoredVersion appends a generated resume to a role
type AddTailoredVersion struct {
	RoleID    valueobjects.NodeID
	Details   entities.TailoredDetails
	BackendID int64
}

// Rename relabels a node
type Rename struct {
	ID    valueobjects.NodeID
	Label string
}

// Delete removes a node and its subtree
type Delete struct {
	ID valueobjects.NodeID
}

// DeleteSelection removes every multi-selected node, or the single
// selection when nothing is multi-selected.
type DeleteSelection struct{}

// Click is a plain click on a node
type Click struct {
	ID valueobjects.NodeID
}

// ToggleSelect is a modifier click on a node
type ToggleSelect struct {
	ID valueobjects.NodeID
}

// SelectAllOfType extends the multi-selection to all same-type siblings
type SelectAllOfType struct {
	Kind entities.Kind
}

// DeselectAll clears the selection
type DeselectAll struct{}

// UpdateDetails replaces the backend data mirrored on a node
type UpdateDetails struct {
	ID      valueobjects.NodeID
	Details entities.Details
}

// LinkBackend links a node to its backend record
type LinkBackend struct {
	ID        valueobjects.NodeID
	BackendID int64
}

// Restore re-inserts nodes removed by an earlier delete
type Restore struct {
	Nodes []entities.Node
}

// RemoteEntity is one backend record fed to Reconcile. ParentBackendID is
// the company of a role or the job of a tailored resume.
type RemoteEntity struct {
	Kind            entities.Kind
	BackendID       int64
	ParentBackendID int64
	Label           string
	Details         entities.Details
	CreatedAt       time.Time
}

// Reconcile merges the authoritative backend records into the tree
type Reconcile struct {
	Entities []RemoteEntity
	// CV is the latest base CV; nil leaves the base node untouched
	CV *entities.BaseDetails
}

func (AddChild) actionName() string           { return "add_child" }
func (AddTailoredVersion) actionName() string { return "add_tailored_version" }
func (Rename) actionName() string             { return "rename" }
func (Delete) actionName() string             { return "delete" }
func (DeleteSelection) actionName() string    { return "delete_selection" }
func (Click) actionName() string              { return "click" }
func (ToggleSelect) actionName() string       { return "toggle_select" }
func (SelectAllOfType) actionName() string    { return "select_all_of_type" }
func (DeselectAll) actionName() string        { return "deselect_all" }
func (UpdateDetails) actionName() string      { return "update_details" }
func (LinkBackend) actionName() string        { return "link_backend" }
func (Restore) actionName() string            { return "restore" }
func (Reconcile) actionName() string          { return "reconcile" }

// Name returns a stable identifier for logs and metrics
func Name(a Action) string {
	return a.actionName()
}

package events

import (
	"time"

	"careerflow/domain/core/entities"
	"careerflow/domain/core/valueobjects"
)

// DomainEvent is the base interface for all domain events
// Events represent something that has happened in the past
type DomainEvent interface {
	GetAggregateID() string
	GetEventType() string
	GetTimestamp() time.Time
}

// BaseEvent provides common event fields
type BaseEvent struct {
	AggregateID string    `json:"aggregate_id"`
	EventType   string    `json:"event_type"`
	Timestamp   time.Time `json:"timestamp"`
}

func (e BaseEvent) GetAggregateID() string  { return e.AggregateID }
func (e BaseEvent) GetEventType() string    { return e.EventType }
func (e BaseEvent) GetTimestamp() time.Time { return e.Timestamp }

const (
	TypeNodeAdded         = "node.added"
	TypeNodeRenamed       = "node.renamed"
	TypeNodeUpdated       = "node.updated"
	TypeNodesDeleted      = "nodes.deleted"
	TypeNodesRestored     = "nodes.restored"
	TypeNodesRepositioned = "nodes.repositioned"
)

// NodeAdded is raised when a company, role or tailored version is created
type NodeAdded struct {
	BaseEvent
	NodeID   valueobjects.NodeID `json:"node_id"`
	ParentID valueobjects.NodeID `json:"parent_id"`
	Kind     entities.Kind       `json:"kind"`
	Label    string              `json:"label"`
}

// NewNodeAdded creates a NodeAdded event
func NewNodeAdded(n entities.Node, timestamp time.Time) NodeAdded {
	return NodeAdded{
		BaseEvent: BaseEvent{
			AggregateID: n.ID().String(),
			EventType:   TypeNodeAdded,
			Timestamp:   timestamp,
		},
		NodeID:   n.ID(),
		ParentID: n.ParentID(),
		Kind:     n.Kind(),
		Label:    n.Label(),
	}
}

// NodeRenamed is raised when a node label changes
type NodeRenamed struct {
	BaseEvent
	NodeID   valueobjects.NodeID `json:"node_id"`
	OldLabel string              `json:"old_label"`
	NewLabel string              `json:"new_label"`
}

// NewNodeRenamed creates a NodeRenamed event
func NewNodeRenamed(id valueobjects.NodeID, oldLabel, newLabel string, timestamp time.Time) NodeRenamed {
	return NodeRenamed{
		BaseEvent: BaseEvent{
			AggregateID: id.String(),
			EventType:   TypeNodeRenamed,
			Timestamp:   timestamp,
		},
		NodeID:   id,
		OldLabel: oldLabel,
		NewLabel: newLabel,
	}
}

// NodeUpdated is raised when backend data or the backend link of a node changes
type NodeUpdated struct {
	BaseEvent
	NodeID    valueobjects.NodeID `json:"node_id"`
	BackendID int64               `json:"backend_id"`
}

// NewNodeUpdated creates a NodeUpdated event
func NewNodeUpdated(n entities.Node, timestamp time.Time) NodeUpdated {
	return NodeUpdated{
		BaseEvent: BaseEvent{
			AggregateID: n.ID().String(),
			EventType:   TypeNodeUpdated,
			Timestamp:   timestamp,
		},
		NodeID:    n.ID(),
		BackendID: n.BackendID(),
	}
}

// NodesDeleted is raised once per delete with the whole removed subtree
type NodesDeleted struct {
	BaseEvent
	RootID  valueobjects.NodeID   `json:"root_id"`
	NodeIDs []valueobjects.NodeID `json:"node_ids"`
}

// NewNodesDeleted creates a NodesDeleted event
func NewNodesDeleted(root valueobjects.NodeID, ids []valueobjects.NodeID, timestamp time.Time) NodesDeleted {
	return NodesDeleted{
		BaseEvent: BaseEvent{
			AggregateID: root.String(),
			EventType:   TypeNodesDeleted,
			Timestamp:   timestamp,
		},
		RootID:  root,
		NodeIDs: ids,
	}
}

// NodesRestored is raised when previously deleted nodes are put back
type NodesRestored struct {
	BaseEvent
	NodeIDs []valueobjects.NodeID `json:"node_ids"`
}

// NewNodesRestored creates a NodesRestored event
func NewNodesRestored(ids []valueobjects.NodeID, timestamp time.Time) NodesRestored {
	aggregate := ""
	if len(ids) > 0 {
		aggregate = ids[0].String()
	}
	return NodesRestored{
		BaseEvent: BaseEvent{
			AggregateID: aggregate,
			EventType:   TypeNodesRestored,
			Timestamp:   timestamp,
		},
		NodeIDs: ids,
	}
}

// NodesRepositioned is raised when a layout pass moved existing nodes
type NodesRepositioned struct {
	BaseEvent
	ParentID valueobjects.NodeID   `json:"parent_id"`
	NodeIDs  []valueobjects.NodeID `json:"node_ids"`
}

// NewNodesRepositioned creates a NodesRepositioned event
func NewNodesRepositioned(parent valueobjects.NodeID, ids []valueobjects.NodeID, timestamp time.Time) NodesRepositioned {
	return NodesRepositioned{
		BaseEvent: BaseEvent{
			AggregateID: parent.String(),
			EventType:   TypeNodesRepositioned,
			Timestamp:   timestamp,
		},
		ParentID: parent,
		NodeIDs:  ids,
	}
}

package valueobjects

import (
	"errors"
	"strconv"
)

// RootID is reserved for the base node of every tree
const RootID NodeID = 1

// NodeID identifies a node inside one tree. Ids are positive, assigned
// monotonically and never reused.
type NodeID int64

// ParseNodeID parses a decimal node id
func ParseNodeID(s string) (NodeID, error) {
	if s == "" {
		return 0, errors.New("node ID cannot be empty")
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, errors.New("node ID must be a positive integer")
	}
	if v <= 0 {
		return 0, errors.New("node ID must be a positive integer")
	}
	return NodeID(v), nil
}

// String returns the string representation of the NodeID
func (id NodeID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// IsZero checks if the NodeID is the zero value
func (id NodeID) IsZero() bool {
	return id == 0
}

// IsRoot reports whether the id is the reserved base id
func (id NodeID) IsRoot() bool {
	return id == RootID
}

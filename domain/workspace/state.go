// Package workspace combines the tree and the selection into one
// serializable state and applies every user action through a single reducer.
package workspace

import (
	"encoding/json"
	"fmt"

	"careerflow/domain/config"
	"careerflow/domain/core/aggregates"
	"careerflow/domain/selection"
)

// State is the whole diagram: the node tree plus selection and expansion
type State struct {
	Tree      *aggregates.Tree
	Selection selection.State
}

// New returns a state holding only the base node
func New(cfg *config.DomainConfig) State {
	return State{Tree: aggregates.NewTree(cfg)}
}

// Clone deep copies the state
func (s State) Clone() State {
	return State{
		Tree:      s.Tree.Clone(),
		Selection: s.Selection.Clone(),
	}
}

// Validate checks the tree invariants and the selection against the tree
func (s State) Validate() error {
	if err := s.Tree.Validate(); err != nil {
		return err
	}
	return selection.Validate(s.Selection, s.Tree)
}

type stateJSON struct {
	Tree      aggregates.TreeSnapshot `json:"tree"`
	Selection selection.State         `json:"selection"`
}

// MarshalJSON implements json.Marshaler
func (s State) MarshalJSON() ([]byte, error) {
	return json.Marshal(stateJSON{
		Tree:      s.Tree.Snapshot(),
		Selection: s.Selection,
	})
}

// Decode rebuilds a state produced by MarshalJSON and validates it
func Decode(cfg *config.DomainConfig, data []byte) (State, error) {
	var raw stateJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return State{}, fmt.Errorf("decode workspace: %w", err)
	}
	tree, err := aggregates.ReconstructTree(cfg, raw.Tree)
	if err != nil {
		return State{}, fmt.Errorf("decode workspace tree: %w", err)
	}
	s := State{Tree: tree, Selection: raw.Selection}
	if err := selection.Validate(s.Selection, s.Tree); err != nil {
		return State{}, fmt.Errorf("decode workspace selection: %w", err)
	}
	return s, nil
}

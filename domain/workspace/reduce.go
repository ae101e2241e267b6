package workspace

import (
	"fmt"
	"sort"

	"careerflow/domain/core/aggregates"
	"careerflow/domain/core/entities"
	"careerflow/domain/core/valueobjects"
	"careerflow/domain/selection"
	pkgerrors "careerflow/pkg/errors"
)

// Result describes what an action changed
type Result struct {
	// Node is the created or updated node, when the action targets one
	Node    entities.Node
	Removal aggregates.Removal
	Report  *ReconcileReport
}

// Reduce applies action to a copy of state. On error the returned state is
// the input state and nothing the caller holds has been modified.
func Reduce(state State, action Action) (State, Result, error) {
	next := state.Clone()
	res, err := apply(&next, action)
	if err != nil {
		return state, Result{}, err
	}
	return next, res, nil
}

func apply(s *State, action Action) (Result, error) {
	t := s.Tree
	switch a := action.(type) {
	case AddChild:
		n, err := t.AddChild(a.ParentID, a.Label,
			aggregates.WithDetails(a.Details), aggregates.WithBackendID(a.BackendID))
		return Result{Node: n}, err

	case AddTailoredVersion:
		n, err := t.AddTailoredVersion(a.RoleID, a.Details, aggregates.WithBackendID(a.BackendID))
		return Result{Node: n}, err

	case Rename:
		n, err := t.Rename(a.ID, a.Label)
		return Result{Node: n}, err

	case Delete:
		removal, err := t.Delete(a.ID)
		if err != nil {
			return Result{}, err
		}
		s.Selection = selection.Prune(s.Selection, removal.IDs)
		return Result{Removal: removal}, nil

	case DeleteSelection:
		targets := s.Selection.Multi
		if len(targets) == 0 && !s.Selection.Selected.IsZero() {
			targets = []valueobjects.NodeID{s.Selection.Selected}
		}
		if len(targets) == 0 {
			return Result{}, pkgerrors.ErrEmptySelection.Clone()
		}
		removal, err := deleteAll(t, targets)
		if err != nil {
			return Result{}, err
		}
		s.Selection = selection.Prune(s.Selection, removal.IDs)
		return Result{Removal: removal}, nil

	case Click:
		n, err := t.Get(a.ID)
		if err != nil {
			return Result{}, err
		}
		s.Selection = selection.Click(s.Selection, n)
		return Result{Node: n}, nil

	case ToggleSelect:
		n, err := t.Get(a.ID)
		if err != nil {
			return Result{}, err
		}
		sel, err := selection.ToggleClick(s.Selection, n, t)
		if err != nil {
			return Result{}, err
		}
		s.Selection = sel
		return Result{Node: n}, nil

	case SelectAllOfType:
		sel, err := selection.SelectAllOfType(s.Selection, a.Kind, t)
		if err != nil {
			return Result{}, err
		}
		s.Selection = sel
		return Result{}, nil

	case DeselectAll:
		s.Selection = selection.DeselectAll(s.Selection)
		return Result{}, nil

	case UpdateDetails:
		n, err := t.UpdateDetails(a.ID, a.Details)
		return Result{Node: n}, err

	case LinkBackend:
		n, err := t.LinkBackend(a.ID, a.BackendID)
		return Result{Node: n}, err

	case Restore:
		return Result{}, t.Restore(a.Nodes)

	case Reconcile:
		report, err := reconcile(s, a)
		if err != nil {
			return Result{}, err
		}
		return Result{Report: report}, nil

	default:
		return Result{}, pkgerrors.NewValidationError(fmt.Sprintf("unsupported action %T", action))
	}
}

// deleteAll removes each target, skipping targets already taken out with
// an ancestor. The base node is rejected before anything is removed.
func deleteAll(t *aggregates.Tree, targets []valueobjects.NodeID) (aggregates.Removal, error) {
	for _, id := range targets {
		if id.IsRoot() {
			return aggregates.Removal{}, pkgerrors.ErrProtectedNode.Clone().WithDetail("node_id", id.String())
		}
		if !t.Has(id) {
			return aggregates.Removal{}, pkgerrors.NewNodeNotFoundError(id)
		}
	}
	var all aggregates.Removal
	for _, id := range targets {
		if !t.Has(id) {
			continue
		}
		r, err := t.Delete(id)
		if err != nil {
			return aggregates.Removal{}, err
		}
		all.IDs = append(all.IDs, r.IDs...)
		all.Nodes = append(all.Nodes, r.Nodes...)
	}
	sort.Slice(all.IDs, func(i, j int) bool { return all.IDs[i] < all.IDs[j] })
	return all, nil
}

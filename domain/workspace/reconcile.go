package workspace

import (
	"errors"
	"fmt"
	"sort"

	"careerflow/domain/core/aggregates"
	"careerflow/domain/core/entities"
	"careerflow/domain/core/valueobjects"
	"careerflow/domain/selection"
	pkgerrors "careerflow/pkg/errors"
)

// ReconcileReport counts what a reconcile pass changed
type ReconcileReport struct {
	Added   int      `json:"added"`
	Updated int      `json:"updated"`
	Adopted int      `json:"adopted"`
	Removed int      `json:"removed"`
	Skipped []string `json:"skipped,omitempty"`
}

type remoteKey struct {
	kind entities.Kind
	id   int64
}

// reconcile makes the tree mirror the backend records. Synced nodes that
// disappeared are removed, matching nodes are updated, an unsynced local
// node with the same label is adopted, and everything else is created.
// Unsynced local nodes without a match are kept.
func reconcile(s *State, a Reconcile) (*ReconcileReport, error) {
	t := s.Tree
	report := &ReconcileReport{}

	remote := make(map[remoteKey]RemoteEntity, len(a.Entities))
	var companies, roles, tailored []RemoteEntity
	for _, e := range a.Entities {
		if e.BackendID <= 0 {
			report.Skipped = append(report.Skipped, fmt.Sprintf("%s %q has no backend id", e.Kind, e.Label))
			continue
		}
		remote[remoteKey{e.Kind, e.BackendID}] = e
		switch e.Kind {
		case entities.KindCompany:
			companies = append(companies, e)
		case entities.KindRole:
			roles = append(roles, e)
		case entities.KindTailored:
			tailored = append(tailored, e)
		default:
			report.Skipped = append(report.Skipped, fmt.Sprintf("unsupported remote type %q", e.Kind))
		}
	}

	if err := dropVanished(t, remote, report); err != nil {
		return nil, err
	}

	sort.SliceStable(companies, func(i, j int) bool { return lessRemote(companies[i], companies[j]) })
	for _, c := range companies {
		if err := upsert(t, t.Root(), c, report); err != nil {
			return nil, err
		}
	}

	companyLabel := make(map[int64]string, len(companies))
	for _, c := range companies {
		companyLabel[c.BackendID] = valueobjects.LabelKey(c.Label)
	}
	sort.SliceStable(roles, func(i, j int) bool {
		ci, cj := companyLabel[roles[i].ParentBackendID], companyLabel[roles[j].ParentBackendID]
		if ci != cj {
			return ci < cj
		}
		return lessRemote(roles[i], roles[j])
	})
	for _, r := range roles {
		parent, ok := t.FindByBackendID(entities.KindCompany, r.ParentBackendID)
		if !ok {
			report.Skipped = append(report.Skipped,
				fmt.Sprintf("role %q references unknown company %d", r.Label, r.ParentBackendID))
			continue
		}
		if err := upsert(t, parent, r, report); err != nil {
			return nil, err
		}
	}

	sort.SliceStable(tailored, func(i, j int) bool {
		a, b := tailored[i], tailored[j]
		if a.ParentBackendID != b.ParentBackendID {
			return a.ParentBackendID < b.ParentBackendID
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.BackendID < b.BackendID
	})
	for _, r := range tailored {
		if err := upsertTailored(t, r, report); err != nil {
			return nil, err
		}
	}

	if a.CV != nil {
		if _, err := t.UpdateDetails(valueobjects.RootID, *a.CV); err != nil {
			return nil, err
		}
	}

	s.Selection = selection.PruneMissing(s.Selection, t)
	return report, nil
}

// dropVanished deletes synced nodes whose record is gone or whose record
// now hangs under a different parent.
func dropVanished(t *aggregates.Tree, remote map[remoteKey]RemoteEntity, report *ReconcileReport) error {
	for _, n := range t.Nodes() {
		if n.IsRoot() || !n.IsSynced() || !t.Has(n.ID()) {
			continue
		}
		e, ok := remote[remoteKey{n.Kind(), n.BackendID()}]
		if ok && parentMatches(t, n, e) {
			continue
		}
		removal, err := t.Delete(n.ID())
		if err != nil {
			return err
		}
		report.Removed += len(removal.IDs)
	}
	return nil
}

func parentMatches(t *aggregates.Tree, n entities.Node, e RemoteEntity) bool {
	if n.Kind() == entities.KindCompany {
		return true
	}
	parent, err := t.Get(n.ParentID())
	if err != nil {
		return false
	}
	return parent.BackendID() == e.ParentBackendID
}

func upsert(t *aggregates.Tree, parent entities.Node, e RemoteEntity, report *ReconcileReport) error {
	label, err := valueobjects.NormalizeLabel(e.Label, t.Config().MaxLabelLength)
	if err != nil {
		report.Skipped = append(report.Skipped, fmt.Sprintf("%s %d: %v", e.Kind, e.BackendID, err))
		return nil
	}

	if n, ok := t.FindByBackendID(e.Kind, e.BackendID); ok {
		if n.Label() != label {
			// The rename waits for the next reload once the clash is resolved
			if clash, exists := t.FindChildByLabel(parent.ID(), e.Kind, label); exists && clash.ID() != n.ID() {
				if clash.IsSynced() {
					report.Skipped = append(report.Skipped, fmt.Sprintf("%s %q clashes with record %d", e.Kind, label, clash.BackendID()))
				} else {
					report.Skipped = append(report.Skipped, fmt.Sprintf("%s %q clashes with local node %s", e.Kind, label, clash.ID()))
				}
				return updateDetails(t, n, e)
			}
			if _, err := t.Rename(n.ID(), label); err != nil {
				return err
			}
		}
		report.Updated++
		return updateDetails(t, n, e)
	}

	if local, ok := t.FindChildByLabel(parent.ID(), e.Kind, label); ok {
		if local.IsSynced() {
			report.Skipped = append(report.Skipped, fmt.Sprintf("%s %q clashes with record %d", e.Kind, label, local.BackendID()))
			return nil
		}
		if _, err := t.LinkBackend(local.ID(), e.BackendID); err != nil {
			return err
		}
		report.Adopted++
		return updateDetails(t, local, e)
	}

	_, err = t.AddChild(parent.ID(), label,
		aggregates.WithDetails(e.Details), aggregates.WithBackendID(e.BackendID))
	if err != nil {
		if errors.Is(err, pkgerrors.ErrTreeLimitExceeded) {
			report.Skipped = append(report.Skipped, fmt.Sprintf("%s %q: tree is full", e.Kind, label))
			return nil
		}
		return err
	}
	report.Added++
	return nil
}

func upsertTailored(t *aggregates.Tree, e RemoteEntity, report *ReconcileReport) error {
	details, _ := e.Details.(entities.TailoredDetails)
	if details.CreatedAt.IsZero() {
		details.CreatedAt = e.CreatedAt
	}
	if n, ok := t.FindByBackendID(entities.KindTailored, e.BackendID); ok {
		report.Updated++
		_, err := t.UpdateDetails(n.ID(), details)
		return err
	}
	role, ok := t.FindByBackendID(entities.KindRole, e.ParentBackendID)
	if !ok {
		report.Skipped = append(report.Skipped,
			fmt.Sprintf("tailored resume %d references unknown job %d", e.BackendID, e.ParentBackendID))
		return nil
	}
	if _, err := t.AddTailoredVersion(role.ID(), details, aggregates.WithBackendID(e.BackendID)); err != nil {
		if errors.Is(err, pkgerrors.ErrTreeLimitExceeded) {
			report.Skipped = append(report.Skipped, fmt.Sprintf("tailored resume %d: tree is full", e.BackendID))
			return nil
		}
		return err
	}
	report.Added++
	return nil
}

func updateDetails(t *aggregates.Tree, n entities.Node, e RemoteEntity) error {
	if e.Details == nil {
		return nil
	}
	_, err := t.UpdateDetails(n.ID(), e.Details)
	return err
}

func lessRemote(a, b RemoteEntity) bool {
	ak, bk := valueobjects.LabelKey(a.Label), valueobjects.LabelKey(b.Label)
	if ak != bk {
		return ak < bk
	}
	return a.BackendID < b.BackendID
}

package workspace

import (
	"testing"
	"time"

	"careerflow/domain/core/entities"
	"careerflow/domain/core/valueobjects"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func company(id int64, name string) RemoteEntity {
	return RemoteEntity{Kind: entities.KindCompany, BackendID: id, Label: name,
		Details: entities.CompanyDetails{Industry: "Tech"}}
}

func job(id, companyID int64, title string) RemoteEntity {
	return RemoteEntity{Kind: entities.KindRole, BackendID: id, ParentBackendID: companyID, Label: title,
		Details: entities.RoleDetails{JobType: "full-time"}}
}

func resume(id, jobID int64, at time.Time) RemoteEntity {
	return RemoteEntity{Kind: entities.KindTailored, BackendID: id, ParentBackendID: jobID,
		Details: entities.TailoredDetails{Content: "resume"}, CreatedAt: at}
}

func TestReconcileBuildsTreeFromBackend(t *testing.T) {
	t0 := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	s := New(nil)

	s, res := dispatch(t, s, Reconcile{
		Entities: []RemoteEntity{
			company(2, "Zeta"),
			company(1, "Acme"),
			job(10, 1, "SWE"),
			job(11, 2, "PM"),
			resume(101, 10, t0.Add(time.Hour)),
			resume(100, 10, t0),
		},
		CV: &entities.BaseDetails{CVID: 4, Filename: "cv.pdf"},
	})
	assert.Equal(t, 6, res.Report.Added)
	assert.Equal(t, 7, s.Tree.Len())

	companies := s.Tree.Children(valueobjects.RootID)
	require.Len(t, companies, 2)
	assert.Equal(t, "Acme", companies[0].Label())
	assert.Equal(t, 100.0, companies[0].Position().Y())

	swe, ok := s.Tree.FindByBackendID(entities.KindRole, 10)
	require.True(t, ok)
	versions := s.Tree.Children(swe.ID())
	require.Len(t, versions, 2)
	assert.EqualValues(t, 100, versions[0].BackendID(), "older resume is version 1")
	assert.EqualValues(t, 101, versions[1].BackendID())

	assert.Equal(t, "cv.pdf", s.Tree.Root().Details().(entities.BaseDetails).Filename)
}

func TestReconcileMergesWithLocalState(t *testing.T) {
	s := New(nil)
	s, synced := dispatch(t, s, AddChild{ParentID: valueobjects.RootID, Label: "Old Name", BackendID: 1})
	s, gone := dispatch(t, s, AddChild{ParentID: valueobjects.RootID, Label: "Gone", BackendID: 2})
	s, local := dispatch(t, s, AddChild{ParentID: valueobjects.RootID, Label: "Drafty"})
	s, pending := dispatch(t, s, AddChild{ParentID: valueobjects.RootID, Label: "Beta"})
	s, _ = dispatch(t, s, Click{ID: gone.Node.ID()})

	s, res := dispatch(t, s, Reconcile{Entities: []RemoteEntity{
		company(1, "Acme"),
		company(3, "beta"),
	}})

	renamed, err := s.Tree.Get(synced.Node.ID())
	require.NoError(t, err)
	assert.Equal(t, "Acme", renamed.Label())

	assert.False(t, s.Tree.Has(gone.Node.ID()), "synced node missing from backend is removed")
	assert.True(t, s.Tree.Has(local.Node.ID()), "unsynced local node is kept")

	adopted, err := s.Tree.Get(pending.Node.ID())
	require.NoError(t, err)
	assert.EqualValues(t, 3, adopted.BackendID(), "local node with the same label is adopted")

	assert.Equal(t, 1, res.Report.Removed)
	assert.Equal(t, 1, res.Report.Adopted)
	assert.Equal(t, 1, res.Report.Updated)
	assert.Zero(t, s.Selection.Selected, "selection pruned")
	assert.Zero(t, s.Selection.ExpandedCompany)
}

func TestReconcileKeepsLocalNodeOnRenameClash(t *testing.T) {
	s := New(nil)
	s, synced := dispatch(t, s, AddChild{ParentID: valueobjects.RootID, Label: "Acme", BackendID: 1})
	s, local := dispatch(t, s, AddChild{ParentID: valueobjects.RootID, Label: "Globex"})
	s, draft := dispatch(t, s, AddChild{ParentID: local.Node.ID(), Label: "SWE", Details: entities.RoleDetails{}})

	s, res := dispatch(t, s, Reconcile{Entities: []RemoteEntity{company(1, "globex")}})

	kept, err := s.Tree.Get(synced.Node.ID())
	require.NoError(t, err)
	assert.Equal(t, "Acme", kept.Label(), "rename is skipped while the label is taken")
	assert.Equal(t, "Tech", kept.Details().(entities.CompanyDetails).Industry)

	assert.True(t, s.Tree.Has(local.Node.ID()))
	assert.True(t, s.Tree.Has(draft.Node.ID()), "unsynced subtree survives")
	assert.Zero(t, res.Report.Removed)
	require.Len(t, res.Report.Skipped, 1)
	assert.Contains(t, res.Report.Skipped[0], "local node")
}

func TestReconcileIsIdempotent(t *testing.T) {
	remote := Reconcile{Entities: []RemoteEntity{
		company(1, "Acme"),
		job(10, 1, "SWE"),
		resume(100, 10, time.Now()),
	}}
	s := New(nil)
	s, _ = dispatch(t, s, remote)
	first := s.Tree.Snapshot()

	s, res := dispatch(t, s, remote)
	assert.Zero(t, res.Report.Added)
	assert.Zero(t, res.Report.Removed)
	assert.Equal(t, first, s.Tree.Snapshot())
}

func TestReconcileMovedJobIsRecreated(t *testing.T) {
	s := New(nil)
	s, _ = dispatch(t, s, Reconcile{Entities: []RemoteEntity{
		company(1, "Acme"), company(2, "Beta"), job(10, 1, "SWE"),
	}})

	s, _ = dispatch(t, s, Reconcile{Entities: []RemoteEntity{
		company(1, "Acme"), company(2, "Beta"), job(10, 2, "SWE"),
	}})

	role, ok := s.Tree.FindByBackendID(entities.KindRole, 10)
	require.True(t, ok)
	beta, ok := s.Tree.FindByBackendID(entities.KindCompany, 2)
	require.True(t, ok)
	assert.Equal(t, beta.ID(), role.ParentID())
}

func TestReconcileSkipsOrphans(t *testing.T) {
	s := New(nil)
	s, res := dispatch(t, s, Reconcile{Entities: []RemoteEntity{
		job(10, 99, "SWE"),
		resume(100, 98, time.Now()),
		{Kind: entities.KindCompany, Label: "No id"},
	}})
	assert.Len(t, res.Report.Skipped, 3)
	assert.Equal(t, 1, s.Tree.Len())
}

package services

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"careerflow/domain/config"
	"careerflow/domain/core/entities"
	"careerflow/domain/core/valueobjects"
	"careerflow/domain/events"
	"careerflow/domain/workspace"
	pkgerrors "careerflow/pkg/errors"
)

type capturePublisher struct {
	mu     sync.Mutex
	events []events.DomainEvent
}

func (p *capturePublisher) Publish(evts []events.DomainEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evts...)
}

func (p *capturePublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.GetEventType())
	}
	return out
}

func newService(pub EventPublisher) *WorkspaceService {
	return NewWorkspaceService(config.DefaultDomainConfig(), pub, zap.NewNop())
}

func TestDispatchPublishesEventsOnce(t *testing.T) {
	pub := &capturePublisher{}
	svc := newService(pub)

	res, err := svc.Dispatch(workspace.AddChild{ParentID: valueobjects.RootID, Label: "Acme"})
	require.NoError(t, err)
	_, err = svc.Dispatch(workspace.Rename{ID: res.Node.ID(), Label: "Acme Corp"})
	require.NoError(t, err)

	assert.Equal(t, []string{events.TypeNodeAdded, events.TypeNodeRenamed}, pub.types())
	assert.Empty(t, svc.Snapshot().Tree.GetUncommittedEvents())
}

func TestDispatchFailureKeepsState(t *testing.T) {
	pub := &capturePublisher{}
	svc := newService(pub)
	_, err := svc.Dispatch(workspace.AddChild{ParentID: valueobjects.RootID, Label: "Acme"})
	require.NoError(t, err)

	_, err = svc.Dispatch(workspace.AddChild{ParentID: valueobjects.RootID, Label: "ACME"})
	assert.ErrorIs(t, err, pkgerrors.ErrDuplicateName)
	assert.Equal(t, 2, svc.Snapshot().Tree.Len())
	assert.Len(t, pub.types(), 1)
}

func TestSnapshotIsIsolated(t *testing.T) {
	svc := newService(nil)
	snap := svc.Snapshot()
	_, err := snap.Tree.AddChild(valueobjects.RootID, "Acme")
	require.NoError(t, err)
	assert.Equal(t, 1, svc.Snapshot().Tree.Len())
}

func TestViewHidesCollapsedRoles(t *testing.T) {
	svc := newService(nil)
	company, err := svc.Dispatch(workspace.AddChild{ParentID: valueobjects.RootID, Label: "Acme"})
	require.NoError(t, err)
	_, err = svc.Dispatch(workspace.AddChild{ParentID: company.Node.ID(), Label: "SWE", Details: entities.RoleDetails{}})
	require.NoError(t, err)

	assert.Len(t, svc.View().Nodes, 2)

	_, err = svc.Dispatch(workspace.Click{ID: company.Node.ID()})
	require.NoError(t, err)
	assert.Len(t, svc.View().Nodes, 3)
}

func TestReplaceRejectsInvalidState(t *testing.T) {
	svc := newService(nil)
	other := workspace.New(config.DefaultDomainConfig())
	_, err := other.Tree.AddChild(valueobjects.RootID, "Acme")
	require.NoError(t, err)
	require.NoError(t, svc.Replace(other))
	assert.Equal(t, 2, svc.Snapshot().Tree.Len())

	other.Selection.Selected = valueobjects.NodeID(99)
	assert.Error(t, svc.Replace(other))
	assert.Equal(t, 2, svc.Snapshot().Tree.Len())
}

func TestConcurrentDispatch(t *testing.T) {
	svc := newService(&capturePublisher{})
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _ = svc.Dispatch(workspace.AddChild{
				ParentID: valueobjects.RootID,
				Label:    "Company " + valueobjects.NodeID(i).String(),
			})
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 21, svc.Snapshot().Tree.Len())
	require.NoError(t, svc.Snapshot().Validate())
}

func TestDispatchAndClaimErrorDiscardsAction(t *testing.T) {
	pub := &capturePublisher{}
	svc := newService(pub)

	var claimed valueobjects.NodeID
	_, err := svc.DispatchAndClaim(workspace.AddChild{ParentID: valueobjects.RootID, Label: "Acme"}, func(res workspace.Result) error {
		claimed = res.Node.ID()
		return pkgerrors.ErrOperationInFlight
	})
	assert.ErrorIs(t, err, pkgerrors.ErrOperationInFlight)
	assert.Equal(t, valueobjects.NodeID(2), claimed)
	assert.Len(t, svc.Snapshot().Tree.Nodes(), 1)
	assert.Empty(t, pub.types())

	res, err := svc.DispatchAndClaim(workspace.AddChild{ParentID: valueobjects.RootID, Label: "Acme"}, func(workspace.Result) error {
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "Acme", res.Node.Label())
}

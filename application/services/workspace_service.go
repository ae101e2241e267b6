package services

import (
	"sync"

	"go.uber.org/zap"

	"careerflow/domain/config"
	"careerflow/domain/events"
	"careerflow/domain/workspace"
)

// EventPublisher receives the domain events raised by each applied action
type EventPublisher interface {
	Publish(evts []events.DomainEvent)
}

// WorkspaceService owns the single workspace state. Every action runs to
// completion under the lock; callers never see a half-applied action.
type WorkspaceService struct {
	mu        sync.RWMutex
	state     workspace.State
	publisher EventPublisher
	logger    *zap.Logger
}

// NewWorkspaceService creates a service holding a fresh tree
func NewWorkspaceService(cfg *config.DomainConfig, publisher EventPublisher, logger *zap.Logger) *WorkspaceService {
	return &WorkspaceService{
		state:     workspace.New(cfg),
		publisher: publisher,
		logger:    logger,
	}
}

// Dispatch applies an action and publishes the events it raised
func (s *WorkspaceService) Dispatch(action workspace.Action) (workspace.Result, error) {
	return s.DispatchAndClaim(action, nil)
}

// DispatchAndClaim applies an action and calls claim with the result before
// the new state becomes visible to other callers. A claim error discards
// the action.
func (s *WorkspaceService) DispatchAndClaim(action workspace.Action, claim func(workspace.Result) error) (workspace.Result, error) {
	s.mu.Lock()
	next, res, err := workspace.Reduce(s.state, action)
	if err == nil && claim != nil {
		err = claim(res)
	}
	if err != nil {
		s.mu.Unlock()
		s.logger.Debug("Workspace action rejected",
			zap.String("action", workspace.Name(action)),
			zap.Error(err),
		)
		return workspace.Result{}, err
	}
	evts := next.Tree.GetUncommittedEvents()
	next.Tree.MarkEventsAsCommitted()
	s.state = next
	s.mu.Unlock()

	if s.publisher != nil && len(evts) > 0 {
		s.publisher.Publish(evts)
	}
	return res, nil
}

// Snapshot returns a deep copy of the current state
func (s *WorkspaceService) Snapshot() workspace.State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Clone()
}

// View returns the visible part of the workspace
func (s *WorkspaceService) View() workspace.View {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.View()
}

// Replace swaps in a previously saved state after validating it
func (s *WorkspaceService) Replace(state workspace.State) error {
	if err := state.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	s.state = state.Clone()
	s.mu.Unlock()
	return nil
}

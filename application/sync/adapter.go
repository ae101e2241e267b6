// Package sync keeps the workspace tree and the backend records in step.
// Mutations are applied to the tree first, mirrored to the backend outside
// the workspace lock, then committed or rolled back.
package sync

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"careerflow/application/commands"
	"careerflow/application/commands/bus"
	"careerflow/application/ports"
	"careerflow/application/services"
	"careerflow/domain/workspace"
	pkgerrors "careerflow/pkg/errors"
)

// Adapter maps backend records to tree nodes and mirrors tree mutations.
// A nil backend runs the workspace in local-only mode.
type Adapter struct {
	workspace *services.WorkspaceService
	backend   ports.Backend
	guard     *bus.InFlight
	logger    *zap.Logger
	tracer    trace.Tracer
}

// NewAdapter creates a sync adapter. guard is the bus's in-flight guard;
// nodes created by a mirrored command are held in it until the backend
// call settles.
func NewAdapter(ws *services.WorkspaceService, backend ports.Backend, guard *bus.InFlight, logger *zap.Logger) *Adapter {
	return &Adapter{
		workspace: ws,
		backend:   backend,
		guard:     guard,
		logger:    logger,
		tracer:    otel.Tracer("careerflow/sync"),
	}
}

// LocalOnly reports whether mutations stay in the tree
func (a *Adapter) LocalOnly() bool {
	return a.backend == nil
}

// Register wires a handler for every mirrored command into the bus
func (a *Adapter) Register(b *bus.CommandBus) error {
	handlers := []struct {
		cmd     bus.Command
		handler bus.CommandHandlerFunc
	}{
		{commands.CreateCompanyCommand{}, a.handleCreateCompany},
		{commands.CreateRoleCommand{}, a.handleCreateRole},
		{commands.RenameNodeCommand{}, a.handleRenameNode},
		{commands.DeleteNodeCommand{}, a.handleDeleteNode},
		{commands.DeleteSelectionCommand{}, a.handleDeleteSelection},
		{commands.GenerateTailoredResumeCommand{}, a.handleGenerateTailoredResume},
		{commands.UploadCVCommand{}, a.handleUploadCV},
		{commands.UpdateCVTextCommand{}, a.handleUpdateCVText},
	}
	for _, h := range handlers {
		if err := b.Register(h.cmd, h.handler); err != nil {
			return fmt.Errorf("register %s: %w", bus.CommandName(h.cmd), err)
		}
	}
	return nil
}

// mirror is one locally applied mutation and its backend counterpart.
// remote returns the actions that commit the backend outcome; revert builds
// the action that undoes apply. creates marks an apply that adds a node.
type mirror struct {
	op      string
	apply   workspace.Action
	creates bool
	remote  func(ctx context.Context, applied workspace.Result) ([]workspace.Action, error)
	revert  func(applied workspace.Result) workspace.Action
}

func (a *Adapter) run(ctx context.Context, m mirror) (workspace.Result, error) {
	mirrored := a.backend != nil && m.remote != nil

	// The created node is claimed before other commands can see it, so a
	// rename or delete of it waits for the backend outcome.
	var held []string
	claim := func(res workspace.Result) error {
		if !mirrored || !m.creates || a.guard == nil {
			return nil
		}
		key := commands.NodeKey(res.Node.ID())
		if err := a.guard.Acquire(bus.CommandIDFromContext(ctx), key); err != nil {
			return err
		}
		held = append(held, key)
		return nil
	}
	applied, err := a.workspace.DispatchAndClaim(m.apply, claim)
	if err != nil {
		return workspace.Result{}, err
	}
	if len(held) > 0 {
		defer a.guard.Release(held...)
	}
	if !mirrored {
		return applied, nil
	}

	commit, err := m.remote(ctx, applied)
	if err != nil {
		if m.revert != nil {
			a.rollback(m.op, m.revert(applied))
		}
		return workspace.Result{}, backendError(m.op, err)
	}

	result := applied
	for _, action := range commit {
		res, err := a.workspace.Dispatch(action)
		if err != nil {
			a.logger.Warn("Backend change could not be committed to the tree; reload to recover",
				zap.String("operation", m.op),
				zap.String("action", workspace.Name(action)),
				zap.Error(err),
			)
			return applied, fmt.Errorf("commit %s: %w", m.op, err)
		}
		if res.Node.ID() != 0 {
			result.Node = res.Node
		}
	}
	return result, nil
}

func (a *Adapter) rollback(op string, action workspace.Action) {
	if action == nil {
		return
	}
	if _, err := a.workspace.Dispatch(action); err != nil {
		a.logger.Error("Rollback failed; reload to recover",
			zap.String("operation", op),
			zap.String("action", workspace.Name(action)),
			zap.Error(err),
		)
		return
	}
	a.logger.Info("Rolled back local change after backend failure",
		zap.String("operation", op),
		zap.String("action", workspace.Name(action)),
	)
}

func (a *Adapter) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return a.tracer.Start(ctx, "sync."+name, trace.WithAttributes(attrs...))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// backendError keeps duplicate-name conflicts and already classified
// backend errors as they are and wraps everything else.
func backendError(op string, err error) error {
	switch {
	case errors.Is(err, pkgerrors.ErrDuplicateName):
		return err
	case pkgerrors.IsDomainType(err, pkgerrors.DomainExternalError):
		return err
	case errors.Is(err, context.DeadlineExceeded):
		return pkgerrors.NewBackendError(op, "the backend did not answer in time", err)
	case errors.Is(err, context.Canceled):
		return pkgerrors.NewBackendError(op, "the request was cancelled", err)
	default:
		return pkgerrors.NewBackendError(op, "", err)
	}
}

package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"careerflow/application/commands"
	"careerflow/application/commands/bus"
	"careerflow/application/services"
	"careerflow/domain/core/entities"
	"careerflow/domain/core/valueobjects"
	"careerflow/domain/workspace"
	pkgerrors "careerflow/pkg/errors"
)

// SelectionHandler drives clicks, multi-selection and bulk delete
type SelectionHandler struct {
	responder
	commandBus *bus.CommandBus
	workspace  *services.WorkspaceService
}

// NewSelectionHandler creates a new selection handler
func NewSelectionHandler(commandBus *bus.CommandBus, ws *services.WorkspaceService, errs *pkgerrors.ErrorHandler, logger *zap.Logger) *SelectionHandler {
	return &SelectionHandler{
		responder:  responder{errors: errs, logger: logger},
		commandBus: commandBus,
		workspace:  ws,
	}
}

// ClickRequest targets one node
type ClickRequest struct {
	ID valueobjects.NodeID `json:"id" validate:"required"`
}

// SelectAllRequest names the node type to select
type SelectAllRequest struct {
	Type string `json:"type"`
}

// Click handles POST /selection/click
func (h *SelectionHandler) Click(w http.ResponseWriter, r *http.Request) {
	var req ClickRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}
	h.dispatch(w, r, workspace.Click{ID: req.ID})
}

// Toggle handles POST /selection/toggle
func (h *SelectionHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	var req ClickRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}
	h.dispatch(w, r, workspace.ToggleSelect{ID: req.ID})
}

// SelectAll handles POST /selection/select-all. Without a type the type of
// the current multi-selection is used.
func (h *SelectionHandler) SelectAll(w http.ResponseWriter, r *http.Request) {
	var req SelectAllRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	var kind entities.Kind
	if req.Type == "" {
		state := h.workspace.Snapshot()
		if len(state.Selection.Multi) == 0 {
			h.respondError(w, r, pkgerrors.ErrEmptySelection.Clone())
			return
		}
		first, err := state.Tree.Get(state.Selection.Multi[0])
		if err != nil {
			h.respondError(w, r, err)
			return
		}
		kind = first.Kind()
	} else {
		k, err := entities.ParseKind(req.Type)
		if err != nil {
			h.respondError(w, r, err)
			return
		}
		kind = k
	}
	h.dispatch(w, r, workspace.SelectAllOfType{Kind: kind})
}

// Clear handles POST /selection/clear
func (h *SelectionHandler) Clear(w http.ResponseWriter, r *http.Request) {
	h.dispatch(w, r, workspace.DeselectAll{})
}

// DeleteSelected handles POST /selection/delete. Every selected node is
// mirrored on its own; failures are reported together.
func (h *SelectionHandler) DeleteSelected(w http.ResponseWriter, r *http.Request) {
	sel := h.workspace.Snapshot().Selection
	ids := sel.Multi
	if len(ids) == 0 && !sel.Selected.IsZero() {
		ids = []valueobjects.NodeID{sel.Selected}
	}

	res, err := h.commandBus.Send(r.Context(), commands.DeleteSelectionCommand{NodeIDs: ids})
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondMutation(w, http.StatusOK, res, h.workspace.View())
}

func (h *SelectionHandler) dispatch(w http.ResponseWriter, r *http.Request, action workspace.Action) {
	if _, err := h.workspace.Dispatch(action); err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, h.workspace.View())
}

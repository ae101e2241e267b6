package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"careerflow/application/commands"
	"careerflow/application/commands/bus"
	"careerflow/application/services"
	"careerflow/domain/core/entities"
	pkgerrors "careerflow/pkg/errors"
)

// NodeHandler handles node-related HTTP requests
type NodeHandler struct {
	responder
	commandBus *bus.CommandBus
	workspace  *services.WorkspaceService
}

// NewNodeHandler creates a new node handler
func NewNodeHandler(commandBus *bus.CommandBus, ws *services.WorkspaceService, errs *pkgerrors.ErrorHandler, logger *zap.Logger) *NodeHandler {
	return &NodeHandler{
		responder:  responder{errors: errs, logger: logger},
		commandBus: commandBus,
		workspace:  ws,
	}
}

// CreateChildRequest creates a company under the base node or a role under
// a company. Company fields apply to the former, job fields to the latter.
type CreateChildRequest struct {
	Label        string `json:"label"`
	Description  string `json:"description,omitempty"`
	Website      string `json:"website,omitempty"`
	Industry     string `json:"industry,omitempty"`
	Requirements string `json:"requirements,omitempty"`
	Location     string `json:"location,omitempty"`
	SalaryRange  string `json:"salary_range,omitempty"`
	JobType      string `json:"job_type,omitempty"`
}

// RenameRequest relabels a node
type RenameRequest struct {
	Label string `json:"label"`
}

// GenerateTailoredRequest asks for a new resume version
type GenerateTailoredRequest struct {
	Feedback string `json:"feedback,omitempty"`
}

// CreateChild handles POST /nodes/{nodeID}/children
func (h *NodeHandler) CreateChild(w http.ResponseWriter, r *http.Request) {
	parentID, err := nodeIDParam(r, "nodeID")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	var req CreateChildRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	parent, err := h.workspace.Snapshot().Tree.Get(parentID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	var cmd bus.Command
	switch parent.Kind() {
	case entities.KindBase:
		cmd = commands.CreateCompanyCommand{
			Name:        req.Label,
			Description: req.Description,
			Website:     req.Website,
			Industry:    req.Industry,
		}
	case entities.KindCompany:
		cmd = commands.CreateRoleCommand{
			CompanyNodeID: parentID,
			Title:         req.Label,
			Description:   req.Description,
			Requirements:  req.Requirements,
			Location:      req.Location,
			SalaryRange:   req.SalaryRange,
			JobType:       req.JobType,
		}
	default:
		h.respondError(w, r, pkgerrors.ErrUnsupportedChild.Clone().
			WithDetail("parent_id", parentID.String()).
			WithDetail("parent_type", string(parent.Kind())))
		return
	}

	res, err := h.commandBus.Send(r.Context(), cmd)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondMutation(w, http.StatusCreated, res, h.workspace.View())
}

// GenerateTailored handles POST /roles/{nodeID}/tailored
func (h *NodeHandler) GenerateTailored(w http.ResponseWriter, r *http.Request) {
	roleID, err := nodeIDParam(r, "nodeID")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	var req GenerateTailoredRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	res, err := h.commandBus.Send(r.Context(), commands.GenerateTailoredResumeCommand{
		RoleNodeID: roleID,
		Feedback:   req.Feedback,
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondMutation(w, http.StatusCreated, res, h.workspace.View())
}

// Rename handles PUT /nodes/{nodeID}
func (h *NodeHandler) Rename(w http.ResponseWriter, r *http.Request) {
	id, err := nodeIDParam(r, "nodeID")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	var req RenameRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	res, err := h.commandBus.Send(r.Context(), commands.RenameNodeCommand{NodeID: id, Label: req.Label})
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondMutation(w, http.StatusOK, res, h.workspace.View())
}

// Delete handles DELETE /nodes/{nodeID}
func (h *NodeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := nodeIDParam(r, "nodeID")
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	res, err := h.commandBus.Send(r.Context(), commands.DeleteNodeCommand{NodeID: id})
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondMutation(w, http.StatusOK, res, h.workspace.View())
}

package handlers

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"careerflow/application/services"
	"careerflow/domain/workspace"
	pkgerrors "careerflow/pkg/errors"
)

// Reloader reconciles the workspace with the backend
type Reloader interface {
	Reload(ctx context.Context) (*workspace.ReconcileReport, error)
	LocalOnly() bool
}

// WorkspaceHandler serves reads of the workspace and the reload trigger
type WorkspaceHandler struct {
	responder
	workspace *services.WorkspaceService
	reloader  Reloader
}

// NewWorkspaceHandler creates a new workspace handler
func NewWorkspaceHandler(ws *services.WorkspaceService, reloader Reloader, errs *pkgerrors.ErrorHandler, logger *zap.Logger) *WorkspaceHandler {
	return &WorkspaceHandler{
		responder: responder{errors: errs, logger: logger},
		workspace: ws,
		reloader:  reloader,
	}
}

// ReloadResponse reports what a reload changed
type ReloadResponse struct {
	LocalOnly bool                       `json:"localOnly"`
	Report    *workspace.ReconcileReport `json:"report"`
	View      workspace.View             `json:"view"`
}

// GetView handles GET /workspace
func (h *WorkspaceHandler) GetView(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, h.workspace.View())
}

// GetState handles GET /workspace/state
func (h *WorkspaceHandler) GetState(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, h.workspace.Snapshot())
}

// Reload handles POST /sync/reload
func (h *WorkspaceHandler) Reload(w http.ResponseWriter, r *http.Request) {
	report, err := h.reloader.Reload(r.Context())
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.logger.Info("Workspace reloaded",
		zap.Int("added", report.Added),
		zap.Int("updated", report.Updated),
		zap.Int("removed", report.Removed),
	)
	h.respondJSON(w, http.StatusOK, ReloadResponse{
		LocalOnly: h.reloader.LocalOnly(),
		Report:    report,
		View:      h.workspace.View(),
	})
}

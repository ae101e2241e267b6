// Package handlers holds the HTTP handlers of the workspace API.
package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"careerflow/application/commands/bus"
	"careerflow/domain/core/valueobjects"
	"careerflow/domain/workspace"
	pkgerrors "careerflow/pkg/errors"
)

// maxBodySize bounds JSON request bodies
const maxBodySize = 1 << 20

// MutationResponse is returned by every endpoint that changes the workspace
type MutationResponse struct {
	CommandID string         `json:"commandId,omitempty"`
	Result    interface{}    `json:"result,omitempty"`
	View      workspace.View `json:"view"`
}

// responder is embedded by every handler
type responder struct {
	errors *pkgerrors.ErrorHandler
	logger *zap.Logger
}

func (h responder) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("Failed to encode response", zap.Error(err))
	}
}

func (h responder) respondError(w http.ResponseWriter, r *http.Request, err error) {
	h.errors.Handle(w, r, err)
}

func (h responder) respondMutation(w http.ResponseWriter, status int, res *bus.Result, view workspace.View) {
	out := MutationResponse{View: view}
	if res != nil {
		out.CommandID = res.CommandID
		out.Result = res.Data
	}
	h.respondJSON(w, status, out)
}

// decodeJSON reads a JSON body into v. An empty body leaves v untouched.
func decodeJSON(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodySize))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return pkgerrors.NewValidationError("invalid request body: " + err.Error()).WithCause(err)
	}
	return nil
}

// nodeIDParam parses a node id URL parameter
func nodeIDParam(r *http.Request, name string) (valueobjects.NodeID, error) {
	id, err := valueobjects.ParseNodeID(chi.URLParam(r, name))
	if err != nil {
		return 0, pkgerrors.NewValidationError("invalid node id").WithCause(err)
	}
	return id, nil
}

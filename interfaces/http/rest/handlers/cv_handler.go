package handlers

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"careerflow/application/commands"
	"careerflow/application/commands/bus"
	"careerflow/application/services"
	pkgerrors "careerflow/pkg/errors"
	"careerflow/pkg/utils"
)

// multipartOverhead leaves room for form boundaries and headers
const multipartOverhead = 1 << 20

// CVHandler handles uploads and edits of the base CV
type CVHandler struct {
	responder
	commandBus *bus.CommandBus
	workspace  *services.WorkspaceService
}

// NewCVHandler creates a new CV handler
func NewCVHandler(commandBus *bus.CommandBus, ws *services.WorkspaceService, errs *pkgerrors.ErrorHandler, logger *zap.Logger) *CVHandler {
	return &CVHandler{
		responder:  responder{errors: errs, logger: logger},
		commandBus: commandBus,
		workspace:  ws,
	}
}

// UpdateTextRequest carries an edited CV text
type UpdateTextRequest struct {
	Text string `json:"text"`
}

// Upload handles POST /cv with the file in multipart field "file"
func (h *CVHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, utils.MaxCVSize+multipartOverhead)
	if err := r.ParseMultipartForm(utils.MaxCVSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.errors.HandleStatus(w, r, http.StatusRequestEntityTooLarge, "CV file exceeds 10 MB")
			return
		}
		h.respondError(w, r, pkgerrors.NewValidationError("expected a multipart form with a file field").WithCause(err))
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, header, err := r.FormFile("file")
	if err != nil {
		h.respondError(w, r, pkgerrors.NewValidationError("file is required").WithCause(err))
		return
	}
	defer file.Close()

	res, err := h.commandBus.Send(r.Context(), commands.UploadCVCommand{
		Filename: header.Filename,
		Size:     header.Size,
		Content:  file,
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondMutation(w, http.StatusCreated, res, h.workspace.View())
}

// UpdateText handles PUT /cv/text
func (h *CVHandler) UpdateText(w http.ResponseWriter, r *http.Request) {
	var req UpdateTextRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	res, err := h.commandBus.Send(r.Context(), commands.UpdateCVTextCommand{Text: req.Text})
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondMutation(w, http.StatusOK, res, h.workspace.View())
}

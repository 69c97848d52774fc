package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apperrors "hsecli/internal/errors"
	"hsecli/internal/operations"
)

// OperationsHandler serves the refresh control endpoints.
type OperationsHandler struct {
	service OperationsService
	logger  *slog.Logger
}

func NewOperationsHandler(service OperationsService, logger *slog.Logger) *OperationsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &OperationsHandler{
		service: service,
		logger:  logger.With(slog.String("component", "operations_handler")),
	}
}

// Routes mounts the operation endpoints.
func (h *OperationsHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Post("/refresh", h.StartRefresh)
	r.Get("/", h.ListOperations)
	r.Get("/{id}", h.GetOperation)
	r.Delete("/{id}", h.CancelOperation)

	return r
}

// StartRefresh handles POST /api/operations/refresh.
func (h *OperationsHandler) StartRefresh(w http.ResponseWriter, r *http.Request) {
	op, err := h.service.StartRefresh(r.Context())
	if err != nil {
		if errors.Is(err, operations.ErrAlreadyRunning) {
			writeAPIError(w, r, apperrors.New(http.StatusConflict, "ALREADY_RUNNING", err.Error()))
			return
		}
		respondError(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "refresh requested",
		slog.String("operation_id", op.ID))

	render.Status(r, http.StatusAccepted)
	respond(w, r, op)
}

// ListOperations handles GET /api/operations/.
func (h *OperationsHandler) ListOperations(w http.ResponseWriter, r *http.Request) {
	respond(w, r, h.service.List(r.Context()))
}

// GetOperation handles GET /api/operations/{id}.
func (h *OperationsHandler) GetOperation(w http.ResponseWriter, r *http.Request) {
	op, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, r, op)
}

// CancelOperation handles DELETE /api/operations/{id}.
func (h *OperationsHandler) CancelOperation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.service.Cancel(r.Context(), id); err != nil {
		respondError(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "operation cancelled",
		slog.String("operation_id", id))

	respond(w, r, map[string]string{"id": id, "status": "cancelling"})
}

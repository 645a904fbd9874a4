package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"supportops/internal/triage"
	"supportops/pkg/platform/httputil"
	"supportops/pkg/requestcontext"
)

// Service defines the triage operations the handler exposes.
type Service interface {
	Triage(ctx context.Context, req *triage.Request) (*triage.Outcome, error)
	Execute(ctx context.Context, in triage.ExecuteInput) (*triage.ExecuteOutcome, error)
}

// Handler wires triage endpoints to the triage service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a triage handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts triage endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/support/triage", h.HandleTriage)
	r.Post("/actions/execute", h.HandleExecute)
}

// HandleTriage handles POST /support/triage requests.
func (h *Handler) HandleTriage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[triage.Request](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	outcome, err := h.service.Triage(ctx, &req)
	if err != nil {
		h.logger.ErrorContext(ctx, "triage failed",
			"request_id", requestID,
			"triage_request_id", req.RequestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, outcome)
}

// HandleExecute handles POST /actions/execute requests.
func (h *Handler) HandleExecute(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	in, ok := httputil.DecodeAndPrepare[triage.ExecuteInput](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	outcome, err := h.service.Execute(ctx, in)
	if err != nil {
		h.logger.ErrorContext(ctx, "action execution failed",
			"request_id", requestID,
			"action_type", in.Action.Type,
			"executor_id", in.ExecutorID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, outcome)
}

package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"supportops/internal/audit"
	"supportops/internal/platform/middleware"
	id "supportops/pkg/domain"
	dErrors "supportops/pkg/domain-errors"
	"supportops/pkg/platform/httputil"
	"supportops/pkg/platform/sentinel"
	"supportops/pkg/requestcontext"
)

// Handler exposes read access to the audit trail for reviewers.
type Handler struct {
	store     audit.Store
	validator middleware.JWTValidator
	logger    *slog.Logger
}

// New constructs an audit handler with its dependencies.
func New(store audit.Store, validator middleware.JWTValidator, logger *slog.Logger) *Handler {
	return &Handler{store: store, validator: validator, logger: logger}
}

// Register mounts audit endpoints on the router. Review access requires a
// valid bearer token; the trail is evidence, not public data.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(h.validator, h.logger))
		r.Get("/audits/{auditID}", h.HandleGet)
	})
}

// HandleGet handles GET /audits/{auditID} requests.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	auditID, err := id.ParseAuditID(chi.URLParam(r, "auditID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid audit id"))
		return
	}

	rec, err := h.store.Get(ctx, auditID)
	if errors.Is(err, sentinel.ErrNotFound) {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "audit record not found"))
		return
	}
	if err != nil {
		h.logger.ErrorContext(ctx, "audit lookup failed",
			"request_id", requestID,
			"audit_id", auditID.String(),
			"error", err,
		)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "audit lookup failed"))
		return
	}

	h.logger.InfoContext(ctx, "audit record reviewed",
		"request_id", requestID,
		"audit_id", auditID.String(),
		"reviewer", middleware.GetSubject(ctx),
	)
	httputil.WriteJSON(w, http.StatusOK, rec)
}

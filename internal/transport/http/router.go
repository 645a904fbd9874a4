// Package http assembles the service router: middleware chain, operational
// endpoints, and the per-subsystem handlers.
package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"supportops/internal/platform/metrics"
	"supportops/internal/platform/middleware"
	"supportops/pkg/platform/httputil"
)

// Registrar mounts a subsystem's routes on the shared router.
type Registrar interface {
	Register(r chi.Router)
}

// NewRouter builds the chi router with the standard middleware chain and
// mounts each handler. Order matters: request id first so every later stage
// logs with it.
func NewRouter(logger *slog.Logger, m *metrics.Metrics, handlers ...Registrar) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.ClientMetadata)
	r.Use(middleware.Logger(logger, m))

	r.Get("/health", handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	for _, h := range handlers {
		h.Register(r)
	}
	return r
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// MountRoutes attaches the engine's API routes to r. Callers are expected
// to have already mounted tenant/principal/rate-limit middleware ahead of
// this call for everything under /api.
func MountRoutes(r chi.Router, h *Handlers) {
	r.Route("/api", func(api chi.Router) {
		api.Post("/dependencies", h.createDependency)
		api.Get("/dependencies/{id}", h.getDependency)
		api.Put("/dependencies/{id}", h.updateDependency)
		api.Delete("/dependencies/{id}", h.deleteDependency)

		api.Get("/graph", h.getGraph)
		api.Get("/critical-path", h.getCriticalPath)
		api.Get("/cycles", h.getCycles)
	})
}

// HealthHandler reports basic liveness plus the state of the engine's
// external dependencies.
func HealthHandler(natsConnected func() bool) http.HandlerFunc {
	type status struct {
		Status string `json:"status"`
		NATS   string `json:"nats"`
	}
	return func(w http.ResponseWriter, _ *http.Request) {
		natsStatus := "down"
		if natsConnected() {
			natsStatus = "up"
		}
		writeJSON(w, http.StatusOK, status{Status: "ok", NATS: natsStatus})
	}
}

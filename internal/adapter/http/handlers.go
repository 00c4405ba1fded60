package http

import (
	"net/http"
	"strings"

	"github.com/depgraph-io/engine/internal/domain/dependency"
	"github.com/depgraph-io/engine/internal/middleware"
	"github.com/depgraph-io/engine/internal/service"
)

// Handlers holds the services the HTTP surface dispatches to.
type Handlers struct {
	Edges *service.EdgeService
	Graph *service.GraphService
}

func (h *Handlers) createDependency(w http.ResponseWriter, r *http.Request) {
	req, err := readJSON[dependency.CreateRequest](r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}
	if !requireField(w, "from_id", req.FromID) || !requireField(w, "to_id", req.ToID) || !requireField(w, "dependency_type", string(req.Type)) {
		return
	}
	if !requireUUID(w, "from_id", req.FromID) || !requireUUID(w, "to_id", req.ToID) {
		return
	}
	if !isValidDependencyType(req.Type) {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "unknown dependency_type: "+string(req.Type))
		return
	}

	principal := middleware.PrincipalFromContext(r.Context())
	edge, err := h.Edges.Create(r.Context(), principal.TenantID, principal.ID, req)
	if err != nil {
		writeDomainError(w, err, "DEPENDENCY_NOT_FOUND")
		return
	}
	writeJSON(w, http.StatusCreated, edge)
}

func (h *Handlers) getDependency(w http.ResponseWriter, r *http.Request) {
	tenantID := middleware.TenantIDFromContext(r.Context())
	id := urlParam(r, "id")
	if !requireUUID(w, "id", id) {
		return
	}

	edge, err := h.Edges.Get(r.Context(), tenantID, id)
	if err != nil {
		writeDomainError(w, err, "DEPENDENCY_NOT_FOUND")
		return
	}
	writeJSON(w, http.StatusOK, edge)
}

func (h *Handlers) updateDependency(w http.ResponseWriter, r *http.Request) {
	tenantID := middleware.TenantIDFromContext(r.Context())
	id := urlParam(r, "id")
	if !requireUUID(w, "id", id) {
		return
	}

	req, err := readJSON[dependency.UpdateRequest](r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}
	if req.Type != nil && !isValidDependencyType(*req.Type) {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "unknown dependency_type: "+string(*req.Type))
		return
	}

	edge, err := h.Edges.Update(r.Context(), tenantID, id, req)
	if err != nil {
		writeDomainError(w, err, "DEPENDENCY_NOT_FOUND")
		return
	}
	writeJSON(w, http.StatusOK, edge)
}

func (h *Handlers) deleteDependency(w http.ResponseWriter, r *http.Request) {
	tenantID := middleware.TenantIDFromContext(r.Context())
	id := urlParam(r, "id")
	if !requireUUID(w, "id", id) {
		return
	}

	if err := h.Edges.Delete(r.Context(), tenantID, id); err != nil {
		writeDomainError(w, err, "DEPENDENCY_NOT_FOUND")
		return
	}
	writeMessage(w, http.StatusOK, "dependency deleted")
}

func (h *Handlers) getGraph(w http.ResponseWriter, r *http.Request) {
	tenantID := middleware.TenantIDFromContext(r.Context())
	var ids []string
	if raw := r.URL.Query().Get("work_item_ids"); raw != "" {
		ids = strings.Split(raw, ",")
	}

	g, err := h.Graph.Graph(r.Context(), tenantID, ids)
	if err != nil {
		writeDomainError(w, err, "NOT_FOUND")
		return
	}
	writeJSON(w, http.StatusOK, g)
}

func (h *Handlers) getCriticalPath(w http.ResponseWriter, r *http.Request) {
	tenantID := middleware.TenantIDFromContext(r.Context())

	analysis, err := h.Graph.CriticalPath(r.Context(), tenantID)
	if err != nil {
		writeDomainError(w, err, "NOT_FOUND")
		return
	}
	writeJSON(w, http.StatusOK, analysis)
}

func (h *Handlers) getCycles(w http.ResponseWriter, r *http.Request) {
	tenantID := middleware.TenantIDFromContext(r.Context())

	result, err := h.Graph.Cycles(r.Context(), tenantID)
	if err != nil {
		writeDomainError(w, err, "NOT_FOUND")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func isValidDependencyType(t dependency.Type) bool {
	switch t {
	case dependency.TypeFinishToStart, dependency.TypeStartToStart, dependency.TypeFinishToFinish, dependency.TypeStartToFinish:
		return true
	}
	return false
}

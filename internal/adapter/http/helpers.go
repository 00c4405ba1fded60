// Package http wires the dependency graph engine's services to a chi
// router: request decoding, response envelopes, and route mounting.
package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/depgraph-io/engine/internal/domain"
)

// envelope is the response shape for every JSON response the engine sends.
type envelope struct {
	Success   bool        `json:"success"`
	Data      interface{} `json:"data,omitempty"`
	Error     string      `json:"error,omitempty"`
	Message   string      `json:"message,omitempty"`
	Timestamp time.Time   `json:"timestamp,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(envelope{Success: status < 400, Data: data, Timestamp: time.Now()}); err != nil {
		slog.Error("write json response failed", "error", err)
	}
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(envelope{Success: status < 400, Message: message, Timestamp: time.Now()}); err != nil {
		slog.Error("write json response failed", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(envelope{Success: false, Error: code, Message: message, Timestamp: time.Now()}); err != nil {
		slog.Error("write json error response failed", "error", err)
	}
}

// writeDomainError classifies a domain-layer error into one of the stable
// surface codes and the HTTP status defined for it, and writes the
// response. notFoundCode names the resource-specific 404 code to use when
// err is a plain domain.ErrNotFound (as opposed to a WorkItemsNotFoundError,
// which is always a 400).
func writeDomainError(w http.ResponseWriter, err error, notFoundCode string) {
	var cycleErr *domain.CycleError
	var missingErr *domain.WorkItemsNotFoundError

	switch {
	case errors.As(err, &missingErr):
		writeError(w, http.StatusBadRequest, "WORK_ITEMS_NOT_FOUND", missingErr.Error())
	case errors.As(err, &cycleErr):
		writeError(w, http.StatusConflict, "CYCLE_DETECTED", cycleErr.Error())
	case errors.Is(err, domain.ErrDuplicate):
		writeError(w, http.StatusConflict, "DUPLICATE_DEPENDENCY", err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, notFoundCode, err.Error())
	case errors.Is(err, domain.ErrValidation):
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
	case errors.Is(err, domain.ErrConflict):
		writeError(w, http.StatusConflict, "CONFLICT", err.Error())
	default:
		slog.Error("internal error", "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "an internal error occurred")
	}
}

// readJSON decodes the request body into T, rejecting unknown fields so
// typos in a request body surface immediately rather than being silently
// ignored.
func readJSON[T any](r *http.Request) (T, error) {
	var v T
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&v); err != nil {
		return v, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	return v, nil
}

// urlParam reads a chi URL parameter.
func urlParam(r *http.Request, name string) string {
	return chi.URLParam(r, name)
}

// requireField reports whether a required string field is present. When it
// is empty, it writes a MISSING_REQUIRED_FIELDS response and returns false.
func requireField(w http.ResponseWriter, name, value string) bool {
	if value != "" {
		return true
	}
	writeError(w, http.StatusBadRequest, "MISSING_REQUIRED_FIELDS", name+" is required")
	return false
}

// requireUUID reports whether value parses as a UUID, writing an
// INVALID_REQUEST response and returning false otherwise. Work item and
// edge ids are minted with gen_random_uuid() at the store, so a
// malformed id can never resolve; rejecting it here avoids a wasted
// round trip to the database.
func requireUUID(w http.ResponseWriter, name, value string) bool {
	if _, err := uuid.Parse(value); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", name+" must be a valid UUID")
		return false
	}
	return true
}

// Package domain provides shared domain-level types and sentinel errors
// used across service and adapter layers.
package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound indicates the requested entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrConflict indicates a concurrent modification conflict (optimistic locking).
var ErrConflict = errors.New("conflict: resource was modified by another request")

// ErrValidation indicates the request failed structural or semantic validation.
var ErrValidation = errors.New("validation failed")

// ErrDuplicate indicates a uniqueness constraint would be violated.
var ErrDuplicate = errors.New("duplicate: resource already exists")

// WorkItemsNotFoundError reports one or more work item ids that could not be
// resolved within a tenant, e.g. while validating an edge endpoint.
type WorkItemsNotFoundError struct {
	IDs []string
}

func (e *WorkItemsNotFoundError) Error() string {
	return fmt.Sprintf("work items not found: %s", strings.Join(e.IDs, ", "))
}

func (e *WorkItemsNotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// CycleError reports that an edge mutation was rejected because it would
// introduce a cycle into the tenant's dependency graph.
type CycleError struct {
	From  string
	To    string
	Cycle []string
}

func (e *CycleError) Error() string {
	if len(e.Cycle) == 0 {
		return fmt.Sprintf("edge %s -> %s would create a cycle", e.From, e.To)
	}
	return fmt.Sprintf("edge %s -> %s would create a cycle: %s", e.From, e.To, strings.Join(e.Cycle, " -> "))
}

func (e *CycleError) Is(target error) bool {
	return target == ErrValidation
}

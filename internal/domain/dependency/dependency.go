// Package dependency defines the DependencyEdge domain entity: the edges of
// a tenant's dependency graph, and the events emitted around their lifecycle.
package dependency

import (
	"encoding/json"
	"time"
)

// Type classifies the scheduling semantics a dependency edge nominally
// carries. The critical path engine currently treats every edge as
// finish-to-start regardless of Type; see the graph package for details.
type Type string

const (
	TypeFinishToStart  Type = "finish_to_start"
	TypeStartToStart   Type = "start_to_start"
	TypeFinishToFinish Type = "finish_to_finish"
	TypeStartToFinish  Type = "start_to_finish"
)

// Edge represents a directed dependency: From must precede To.
type Edge struct {
	ID         string          `json:"id"`
	TenantID   string          `json:"tenant_id"`
	FromID     string          `json:"from_id"`
	ToID       string          `json:"to_id"`
	Type       Type            `json:"dependency_type"`
	LagDays    int             `json:"lag_days"`
	CreatedAt  time.Time       `json:"created_at"`
	CreatedBy  string          `json:"created_by,omitempty"`
	UpdatedAt  time.Time       `json:"updated_at"`
	Metadata   json.RawMessage `json:"metadata,omitempty"`
}

// CreateRequest carries the fields a caller supplies when creating an edge.
type CreateRequest struct {
	FromID   string          `json:"from_id"`
	ToID     string          `json:"to_id"`
	Type     Type            `json:"dependency_type"`
	LagDays  int             `json:"lag_days"`
	Metadata json.RawMessage `json:"metadata,omitempty"`
}

// UpdateRequest carries the fields a caller may change on an existing edge.
// FromID and ToID are immutable after creation: changing an edge's
// endpoints is a delete-then-create in this model, so cycle safety only
// ever needs to be checked at creation time.
type UpdateRequest struct {
	Type     *Type           `json:"dependency_type,omitempty"`
	LagDays  *int            `json:"lag_days,omitempty"`
	Metadata json.RawMessage `json:"metadata,omitempty"`
}

// EventKind identifies the kind of lifecycle event emitted for an edge.
type EventKind string

const (
	EventCreated EventKind = "dependency.created"
	EventUpdated EventKind = "dependency.updated"
	EventDeleted EventKind = "dependency.deleted"
)

// Event is the immutable record published to the event bus whenever an
// edge mutation commits successfully. Emission happens best-effort after
// the database transaction commits, so a publish failure never rolls back
// the mutation; see the eventbus port for delivery semantics.
type Event struct {
	ID        string          `json:"id"`
	TenantID  string          `json:"tenant_id"`
	Kind      EventKind       `json:"kind"`
	EdgeID    string          `json:"edge_id"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	ActorID   string          `json:"actor_id,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

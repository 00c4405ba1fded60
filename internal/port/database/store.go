// Package database defines the persistence port the dependency graph
// engine depends on. Adapters implement Store against a concrete backend;
// services depend only on this interface.
package database

import (
	"context"

	"github.com/depgraph-io/engine/internal/domain/dependency"
	"github.com/depgraph-io/engine/internal/domain/workitem"
)

// WorkItemStore manages the nodes of a tenant's dependency graph.
type WorkItemStore interface {
	List(ctx context.Context, tenantID string) ([]workitem.WorkItem, error)
	Get(ctx context.Context, tenantID, id string) (*workitem.WorkItem, error)
	Create(ctx context.Context, tenantID string, req workitem.CreateRequest) (*workitem.WorkItem, error)
	Update(ctx context.Context, tenantID, id string, req workitem.UpdateRequest) (*workitem.WorkItem, error)
	Delete(ctx context.Context, tenantID, id string) error
}

// EdgeStore manages the edges of a tenant's dependency graph. Create,
// Update, and Delete each run inside their own transaction so the
// cycle-safety probe and the write are atomic with respect to concurrent
// mutations; see the postgres adapter for the isolation level used.
type EdgeStore interface {
	List(ctx context.Context, tenantID string) ([]dependency.Edge, error)
	Get(ctx context.Context, tenantID, id string) (*dependency.Edge, error)
	Create(ctx context.Context, tenantID, actorID string, req dependency.CreateRequest) (*dependency.Edge, error)
	Update(ctx context.Context, tenantID, id string, req dependency.UpdateRequest) (*dependency.Edge, error)
	Delete(ctx context.Context, tenantID, id string) error
}

// Store aggregates the ports the engine needs from a backend.
type Store interface {
	WorkItems() WorkItemStore
	Edges() EdgeStore
}

// Package service implements the business logic layer on top of the
// database and eventbus ports: edge lifecycle orchestration and
// graph-read orchestration.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/depgraph-io/engine/internal/domain/dependency"
	"github.com/depgraph-io/engine/internal/port/database"
	"github.com/depgraph-io/engine/internal/port/eventbus"
	"github.com/depgraph-io/engine/internal/resilience"
)

// EdgeService orchestrates dependency-edge mutations: the store commits
// first, then the mutation and recalculation events are published
// best-effort. A circuit breaker protects the bus from a sustained outage
// turning every mutation request into a slow timeout.
type EdgeService struct {
	store   database.EdgeStore
	bus     eventbus.Bus
	breaker *resilience.Breaker
}

// NewEdgeService creates an EdgeService.
func NewEdgeService(store database.EdgeStore, bus eventbus.Bus, breaker *resilience.Breaker) *EdgeService {
	return &EdgeService{store: store, bus: bus, breaker: breaker}
}

// List returns every dependency edge in the tenant.
func (s *EdgeService) List(ctx context.Context, tenantID string) ([]dependency.Edge, error) {
	return s.store.List(ctx, tenantID)
}

// Get returns a single edge by id, scoped to the tenant.
func (s *EdgeService) Get(ctx context.Context, tenantID, id string) (*dependency.Edge, error) {
	return s.store.Get(ctx, tenantID, id)
}

// Create validates and inserts a new dependency edge. The store is
// responsible for the transactional work-item-existence check, the
// cycle-safety probe, and the uniqueness check (see the postgres
// adapter); this method's job is to commit and then announce the change.
func (s *EdgeService) Create(ctx context.Context, tenantID, actorID string, req dependency.CreateRequest) (*dependency.Edge, error) {
	edge, err := s.store.Create(ctx, tenantID, actorID, req)
	if err != nil {
		return nil, err
	}
	s.publishMutation(ctx, dependency.EventCreated, tenantID, actorID, edge, nil)
	s.publishRecalc(ctx, tenantID, "dependency_created")
	return edge, nil
}

// Update applies a partial patch to an existing edge. If patch carries no
// fields, the edge is returned unchanged and no event is emitted.
func (s *EdgeService) Update(ctx context.Context, tenantID, id string, req dependency.UpdateRequest) (*dependency.Edge, error) {
	if req.Type == nil && req.LagDays == nil && req.Metadata == nil {
		return s.store.Get(ctx, tenantID, id)
	}
	before, err := s.store.Get(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	after, err := s.store.Update(ctx, tenantID, id, req)
	if err != nil {
		return nil, err
	}
	s.publishMutation(ctx, dependency.EventUpdated, tenantID, "", after, before)
	s.publishRecalc(ctx, tenantID, "dependency_updated")
	return after, nil
}

// Delete removes an edge. The prior snapshot is fetched first so the
// deletion event can carry it.
func (s *EdgeService) Delete(ctx context.Context, tenantID, id string) error {
	before, err := s.store.Get(ctx, tenantID, id)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, tenantID, id); err != nil {
		return err
	}
	s.publishMutation(ctx, dependency.EventDeleted, tenantID, "", nil, before)
	s.publishRecalc(ctx, tenantID, "dependency_deleted")
	return nil
}

type mutationPayload struct {
	Before *dependency.Edge `json:"before,omitempty"`
	After  *dependency.Edge `json:"after,omitempty"`
}

func (s *EdgeService) publishMutation(ctx context.Context, kind dependency.EventKind, tenantID, actorID string, after, before *dependency.Edge) {
	edgeID := ""
	switch {
	case after != nil:
		edgeID = after.ID
	case before != nil:
		edgeID = before.ID
	}

	payload, err := json.Marshal(mutationPayload{Before: before, After: after})
	if err != nil {
		slog.Error("marshal mutation event payload failed", "error", err)
		return
	}
	evt := dependency.Event{
		ID:       edgeID,
		TenantID: tenantID,
		Kind:     kind,
		EdgeID:   edgeID,
		Payload:  payload,
		ActorID:  actorID,
	}
	data, err := json.Marshal(evt)
	if err != nil {
		slog.Error("marshal mutation event failed", "error", err)
		return
	}

	subject := subjectForKind(kind)
	s.publish(ctx, subject, data)
}

func (s *EdgeService) publishRecalc(ctx context.Context, tenantID, reason string) {
	data, err := json.Marshal(eventbus.CriticalPathRecalculatePayload{TenantID: tenantID, Reason: reason})
	if err != nil {
		slog.Error("marshal recalc payload failed", "error", err)
		return
	}
	s.publish(ctx, eventbus.SubjectCriticalPathRecalculate, data)
}

// publish is fire-and-forget: a publish failure is logged, never returned
// to the caller, since the mutation itself already committed.
func (s *EdgeService) publish(ctx context.Context, subject string, data []byte) {
	err := s.breaker.Execute(func() error {
		return s.bus.Publish(ctx, subject, data)
	})
	if err != nil {
		slog.Error("event publish failed", "subject", subject, "error", err)
	}
}

func subjectForKind(kind dependency.EventKind) string {
	switch kind {
	case dependency.EventCreated:
		return eventbus.SubjectDependencyCreated
	case dependency.EventUpdated:
		return eventbus.SubjectDependencyUpdated
	case dependency.EventDeleted:
		return eventbus.SubjectDependencyDeleted
	default:
		return fmt.Sprintf("dependencies.dependency.%s", kind)
	}
}

package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/depgraph-io/engine/internal/domain"
	"github.com/depgraph-io/engine/internal/domain/workitem"
	"github.com/depgraph-io/engine/internal/port/database"
)

// Store is the postgres-backed implementation of database.Store.
type Store struct {
	pool          *pgxpool.Pool
	cycleMaxDepth int
}

// NewStore wraps pool as a database.Store. cycleMaxDepth bounds the
// reachability probe run by EdgeStore.Create before accepting a new edge.
func NewStore(pool *pgxpool.Pool, cycleMaxDepth int) *Store {
	return &Store{pool: pool, cycleMaxDepth: cycleMaxDepth}
}

func (s *Store) WorkItems() database.WorkItemStore { return workItemStore{pool: s.pool} }
func (s *Store) Edges() database.EdgeStore {
	return edgeStore{pool: s.pool, maxDepth: s.cycleMaxDepth}
}

type workItemStore struct {
	pool *pgxpool.Pool
}

func (w workItemStore) List(ctx context.Context, tenantID string) ([]workitem.WorkItem, error) {
	rows, err := w.pool.Query(ctx,
		`SELECT id, tenant_id, type, title, status, estimated_duration_days, created_at, updated_at
		 FROM work_items WHERE tenant_id = $1 ORDER BY created_at ASC`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list work items: %w", err)
	}
	defer rows.Close()

	var items []workitem.WorkItem
	for rows.Next() {
		var it workitem.WorkItem
		if err := rows.Scan(&it.ID, &it.TenantID, &it.Type, &it.Title, &it.Status, &it.EstimatedDurationDays, &it.CreatedAt, &it.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan work item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (w workItemStore) Get(ctx context.Context, tenantID, id string) (*workitem.WorkItem, error) {
	var it workitem.WorkItem
	err := w.pool.QueryRow(ctx,
		`SELECT id, tenant_id, type, title, status, estimated_duration_days, created_at, updated_at
		 FROM work_items WHERE id = $1 AND tenant_id = $2`, id, tenantID,
	).Scan(&it.ID, &it.TenantID, &it.Type, &it.Title, &it.Status, &it.EstimatedDurationDays, &it.CreatedAt, &it.UpdatedAt)
	if err != nil {
		return nil, notFoundWrap(err, "get work item %s", id)
	}
	return &it, nil
}

func (w workItemStore) Create(ctx context.Context, tenantID string, req workitem.CreateRequest) (*workitem.WorkItem, error) {
	if req.Title == "" {
		return nil, fmt.Errorf("title is required: %w", domain.ErrValidation)
	}
	typ := req.Type
	if typ == "" {
		typ = workitem.TypeTask
	}

	var it workitem.WorkItem
	err := w.pool.QueryRow(ctx,
		`INSERT INTO work_items (tenant_id, type, title, estimated_duration_days)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, tenant_id, type, title, status, estimated_duration_days, created_at, updated_at`,
		tenantID, string(typ), req.Title, req.EstimatedDurationDays,
	).Scan(&it.ID, &it.TenantID, &it.Type, &it.Title, &it.Status, &it.EstimatedDurationDays, &it.CreatedAt, &it.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert work item: %w", err)
	}
	return &it, nil
}

func (w workItemStore) Update(ctx context.Context, tenantID, id string, req workitem.UpdateRequest) (*workitem.WorkItem, error) {
	var it workitem.WorkItem
	err := w.pool.QueryRow(ctx,
		`UPDATE work_items SET
			title = COALESCE($3, title),
			status = COALESCE($4, status),
			estimated_duration_days = COALESCE($5, estimated_duration_days),
			updated_at = now()
		 WHERE id = $1 AND tenant_id = $2
		 RETURNING id, tenant_id, type, title, status, estimated_duration_days, created_at, updated_at`,
		id, tenantID, req.Title, statusPtr(req.Status), req.EstimatedDurationDays,
	).Scan(&it.ID, &it.TenantID, &it.Type, &it.Title, &it.Status, &it.EstimatedDurationDays, &it.CreatedAt, &it.UpdatedAt)
	if err != nil {
		return nil, notFoundWrap(err, "update work item %s", id)
	}
	return &it, nil
}

func statusPtr(s *workitem.Status) *string {
	if s == nil {
		return nil
	}
	v := string(*s)
	return &v
}

func (w workItemStore) Delete(ctx context.Context, tenantID, id string) error {
	tag, err := w.pool.Exec(ctx, `DELETE FROM work_items WHERE id = $1 AND tenant_id = $2`, id, tenantID)
	return execExpectOne(tag, err, "delete work item %s", id)
}

package postgres

import (
	"context"
	"fmt"

	"github.com/cenkalti/backoff/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/depgraph-io/engine/internal/domain"
	"github.com/depgraph-io/engine/internal/domain/dependency"
	"github.com/depgraph-io/engine/internal/domain/graph"
)

type edgeStore struct {
	pool     *pgxpool.Pool
	maxDepth int
}

func (e edgeStore) List(ctx context.Context, tenantID string) ([]dependency.Edge, error) {
	rows, err := e.pool.Query(ctx,
		`SELECT id, tenant_id, from_id, to_id, dependency_type, lag_days, created_at, COALESCE(created_by::text, ''), updated_at, metadata
		 FROM dependency_edges WHERE tenant_id = $1 ORDER BY created_at ASC`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list edges: %w", err)
	}
	defer rows.Close()

	var edges []dependency.Edge
	for rows.Next() {
		var ed dependency.Edge
		if err := rows.Scan(&ed.ID, &ed.TenantID, &ed.FromID, &ed.ToID, &ed.Type, &ed.LagDays, &ed.CreatedAt, &ed.CreatedBy, &ed.UpdatedAt, &ed.Metadata); err != nil {
			return nil, fmt.Errorf("scan edge: %w", err)
		}
		edges = append(edges, ed)
	}
	return edges, rows.Err()
}

func (e edgeStore) Get(ctx context.Context, tenantID, id string) (*dependency.Edge, error) {
	var ed dependency.Edge
	err := e.pool.QueryRow(ctx,
		`SELECT id, tenant_id, from_id, to_id, dependency_type, lag_days, created_at, COALESCE(created_by::text, ''), updated_at, metadata
		 FROM dependency_edges WHERE id = $1 AND tenant_id = $2`, id, tenantID,
	).Scan(&ed.ID, &ed.TenantID, &ed.FromID, &ed.ToID, &ed.Type, &ed.LagDays, &ed.CreatedAt, &ed.CreatedBy, &ed.UpdatedAt, &ed.Metadata)
	if err != nil {
		return nil, notFoundWrap(err, "get edge %s", id)
	}
	return &ed, nil
}

// Create runs the entire cycle-safety check and insert inside one
// serializable transaction, retrying on SQLSTATE 40001 (serialization
// failure) with exponential backoff. Validation and cycle-rejection
// errors are wrapped with backoff.Permanent so they abort immediately
// instead of being retried.
func (e edgeStore) Create(ctx context.Context, tenantID, actorID string, req dependency.CreateRequest) (*dependency.Edge, error) {
	operation := func() (*dependency.Edge, error) {
		tx, err := e.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
		if err != nil {
			return nil, fmt.Errorf("begin tx: %w", err)
		}
		defer func() { _ = tx.Rollback(ctx) }()

		if err := requireWorkItemsExist(ctx, tx, tenantID, req.FromID, req.ToID); err != nil {
			return nil, backoff.Permanent(err)
		}

		neighbors := func(id string) ([]string, error) {
			rows, err := tx.Query(ctx,
				`SELECT to_id FROM dependency_edges WHERE tenant_id = $1 AND from_id = $2`, tenantID, id)
			if err != nil {
				return nil, err
			}
			defer rows.Close()
			var out []string
			for rows.Next() {
				var to string
				if err := rows.Scan(&to); err != nil {
					return nil, err
				}
				out = append(out, to)
			}
			return out, rows.Err()
		}

		would, cycle, err := graph.WouldCreateCycle(neighbors, req.FromID, req.ToID, e.maxDepth)
		if err != nil {
			return nil, fmt.Errorf("cycle probe: %w", err)
		}
		if would {
			return nil, backoff.Permanent(&domain.CycleError{From: req.FromID, To: req.ToID, Cycle: cycle})
		}

		depType := req.Type
		if depType == "" {
			depType = dependency.TypeFinishToStart
		}

		var ed dependency.Edge
		var createdBy string
		err = tx.QueryRow(ctx,
			`INSERT INTO dependency_edges (tenant_id, from_id, to_id, dependency_type, lag_days, created_by, metadata)
			 VALUES ($1, $2, $3, $4, $5, $6, COALESCE($7, '{}'::jsonb))
			 RETURNING id, tenant_id, from_id, to_id, dependency_type, lag_days, created_at, COALESCE(created_by::text, ''), updated_at, metadata`,
			tenantID, req.FromID, req.ToID, string(depType), req.LagDays, nullIfEmpty(actorID), nullJSON(req.Metadata),
		).Scan(&ed.ID, &ed.TenantID, &ed.FromID, &ed.ToID, &ed.Type, &ed.LagDays, &ed.CreatedAt, &createdBy, &ed.UpdatedAt, &ed.Metadata)
		if err != nil {
			if isUniqueViolation(err) {
				return nil, backoff.Permanent(fmt.Errorf("edge %s -> %s already exists: %w", req.FromID, req.ToID, domain.ErrDuplicate))
			}
			return nil, fmt.Errorf("insert edge: %w", err)
		}
		ed.CreatedBy = createdBy

		if err := tx.Commit(ctx); err != nil {
			if isSerializationFailure(err) {
				return nil, err // retryable
			}
			return nil, backoff.Permanent(fmt.Errorf("commit tx: %w", err))
		}
		return &ed, nil
	}

	return backoff.Retry(ctx, operation,
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxTries(5),
	)
}

func (e edgeStore) Update(ctx context.Context, tenantID, id string, req dependency.UpdateRequest) (*dependency.Edge, error) {
	var ed dependency.Edge
	var createdBy string
	err := e.pool.QueryRow(ctx,
		`UPDATE dependency_edges SET
			dependency_type = COALESCE($3, dependency_type),
			lag_days = COALESCE($4, lag_days),
			metadata = COALESCE($5, metadata),
			updated_at = now()
		 WHERE id = $1 AND tenant_id = $2
		 RETURNING id, tenant_id, from_id, to_id, dependency_type, lag_days, created_at, COALESCE(created_by::text, ''), updated_at, metadata`,
		id, tenantID, typePtr(req.Type), req.LagDays, nullJSON(req.Metadata),
	).Scan(&ed.ID, &ed.TenantID, &ed.FromID, &ed.ToID, &ed.Type, &ed.LagDays, &ed.CreatedAt, &createdBy, &ed.UpdatedAt, &ed.Metadata)
	if err != nil {
		return nil, notFoundWrap(err, "update edge %s", id)
	}
	ed.CreatedBy = createdBy
	return &ed, nil
}

func (e edgeStore) Delete(ctx context.Context, tenantID, id string) error {
	tag, err := e.pool.Exec(ctx, `DELETE FROM dependency_edges WHERE id = $1 AND tenant_id = $2`, id, tenantID)
	return execExpectOne(tag, err, "delete edge %s", id)
}

func typePtr(t *dependency.Type) *string {
	if t == nil {
		return nil
	}
	v := string(*t)
	return &v
}

func nullJSON(raw []byte) []byte {
	if len(raw) == 0 {
		return nil
	}
	return raw
}

// requireWorkItemsExist checks that both endpoints of a proposed edge
// belong to the tenant, returning a WorkItemsNotFoundError naming every
// id that did not resolve.
func requireWorkItemsExist(ctx context.Context, tx pgx.Tx, tenantID, fromID, toID string) error {
	rows, err := tx.Query(ctx,
		`SELECT id FROM work_items WHERE tenant_id = $1 AND id = ANY($2)`,
		tenantID, []string{fromID, toID})
	if err != nil {
		return fmt.Errorf("validate work items: %w", err)
	}
	defer rows.Close()

	found := make(map[string]bool, 2)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return fmt.Errorf("scan work item id: %w", err)
		}
		found[id] = true
	}
	if err := rows.Err(); err != nil {
		return err
	}

	var missing []string
	if !found[fromID] {
		missing = append(missing, fromID)
	}
	if fromID != toID && !found[toID] {
		missing = append(missing, toID)
	}
	if len(missing) > 0 {
		return &domain.WorkItemsNotFoundError{IDs: missing}
	}
	return nil
}

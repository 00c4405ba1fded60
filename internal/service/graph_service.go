package service

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/depgraph-io/engine/internal/domain/dependency"
	"github.com/depgraph-io/engine/internal/domain/graph"
	"github.com/depgraph-io/engine/internal/domain/workitem"
	"github.com/depgraph-io/engine/internal/port/database"
	otel "github.com/depgraph-io/engine/internal/telemetry"
)

// GraphNode is the API-facing representation of a work item annotated
// with its CPM outputs.
type GraphNode struct {
	ID             string          `json:"id"`
	Title          string          `json:"title"`
	Type           workitem.Type   `json:"type"`
	Status         workitem.Status `json:"status"`
	DurationDays   int             `json:"duration_days"`
	EarliestStart  time.Time       `json:"earliest_start"`
	EarliestFinish time.Time       `json:"earliest_finish"`
	LatestStart    time.Time       `json:"latest_start"`
	LatestFinish   time.Time       `json:"latest_finish"`
	SlackDays      int             `json:"slack_days"`
	IsCritical     bool            `json:"is_critical"`
}

// GraphEdge is the API-facing representation of a dependency edge
// annotated with whether it lies on the critical path.
type GraphEdge struct {
	dependency.Edge
	IsCritical bool `json:"is_critical"`
}

// Graph is the full response for a graph read: nodes, edges, and the
// project-level CPM summary.
type Graph struct {
	Nodes           []GraphNode `json:"nodes"`
	Edges           []GraphEdge `json:"edges"`
	ProjectDuration int         `json:"project_duration_days"`
	CriticalPath    []string    `json:"critical_path"`
}

// Analysis is the response for the critical-path analysis endpoint:
// the graph plus bottleneck and risk figures.
type Analysis struct {
	Graph                 Graph              `json:"graph"`
	Bottlenecks           []graph.Bottleneck `json:"bottlenecks"`
	RiskScore             float64            `json:"risk_score"`
	CompletionProbability float64            `json:"completion_probability"`
}

// CycleResult is the response for the cycle-check endpoint.
type CycleResult struct {
	HasCycles     bool       `json:"has_cycles"`
	Cycles        [][]string `json:"cycles"`
	AffectedNodes []string   `json:"affected_nodes"`
	Suggestions   []string   `json:"suggestions"`
}

// GraphService orchestrates read-only queries over a tenant's dependency
// graph: building it from the store, running CPM, and deriving analysis.
// It is a pure consumer of the store; it performs no mutations.
type GraphService struct {
	items   database.WorkItemStore
	edges   database.EdgeStore
	group   singleflight.Group
	metrics *otel.Metrics
}

// NewGraphService creates a GraphService. metrics may be nil, in which
// case CPM/graph metrics are simply not recorded.
func NewGraphService(items database.WorkItemStore, edges database.EdgeStore, metrics *otel.Metrics) *GraphService {
	return &GraphService{items: items, edges: edges, metrics: metrics}
}

// build materializes a tenant's graph, filtered to workItemIDs when
// non-empty. Concurrent identical reads for the same tenant collapse into
// a single store round-trip via singleflight, since the graph and every
// derived computation are pure functions of the same input.
func (s *GraphService) build(ctx context.Context, tenantID string, workItemIDs []string) (*graph.Graph, []dependency.Edge, error) {
	ctx, span := otel.StartGraphBuildSpan(ctx, tenantID, len(workItemIDs))
	defer span.End()

	key := tenantID + "|" + fmt.Sprint(workItemIDs)
	v, err, _ := s.group.Do(key, func() (interface{}, error) {
		items, err := s.items.List(ctx, tenantID)
		if err != nil {
			return nil, fmt.Errorf("list work items: %w", err)
		}
		edges, err := s.edges.List(ctx, tenantID)
		if err != nil {
			return nil, fmt.Errorf("list edges: %w", err)
		}

		if len(workItemIDs) > 0 {
			items = filterItems(items, workItemIDs)
			edges = filterEdges(edges, workItemIDs)
		}

		g, _ := graph.New(items, edges)
		return graphBuildResult{g: g, edges: edges}, nil
	})
	if err != nil {
		return nil, nil, err
	}
	res := v.(graphBuildResult)
	return res.g, res.edges, nil
}

type graphBuildResult struct {
	g     *graph.Graph
	edges []dependency.Edge
}

func filterItems(items []workitem.WorkItem, ids []string) []workitem.WorkItem {
	set := toSet(ids)
	out := make([]workitem.WorkItem, 0, len(items))
	for _, it := range items {
		if set[it.ID] {
			out = append(out, it)
		}
	}
	return out
}

// filterEdges keeps edges where either endpoint is in ids, even though
// the far endpoint may not survive filterItems: New() drops the resulting
// dangling edges before CPM runs.
func filterEdges(edges []dependency.Edge, ids []string) []dependency.Edge {
	set := toSet(ids)
	out := make([]dependency.Edge, 0, len(edges))
	for _, e := range edges {
		if set[e.FromID] || set[e.ToID] {
			out = append(out, e)
		}
	}
	return out
}

func toSet(ids []string) map[string]bool {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}

// Graph returns the tenant's dependency graph annotated with CPM results,
// optionally filtered to workItemIDs.
func (s *GraphService) Graph(ctx context.Context, tenantID string, workItemIDs []string) (Graph, error) {
	g, edges, err := s.build(ctx, tenantID, workItemIDs)
	if err != nil {
		return Graph{}, err
	}
	summary := s.runCPM(ctx, tenantID, g)
	return toGraphResponse(g, edges, summary), nil
}

// CriticalPath returns the full critical-path analysis for a tenant:
// graph, bottlenecks, risk score, and completion probability.
func (s *GraphService) CriticalPath(ctx context.Context, tenantID string) (Analysis, error) {
	g, edges, err := s.build(ctx, tenantID, nil)
	if err != nil {
		return Analysis{}, err
	}
	summary := s.runCPM(ctx, tenantID, g)
	graphResp := toGraphResponse(g, edges, summary)

	return Analysis{
		Graph:                 graphResp,
		Bottlenecks:           graph.Bottlenecks(g, summary),
		RiskScore:             graph.RiskScore(g, summary),
		CompletionProbability: graph.CompletionProbability(graph.RiskScore(g, summary)),
	}, nil
}

// Cycles reports whether the tenant's stored graph has any cycle, with the
// cycles graph.DetectCycles lists for it. A healthy graph always returns HasCycles=false since createEdge
// prevents cycles from ever being persisted; this endpoint exists as a
// diagnostic and for graphs mutated outside the normal lifecycle.
func (s *GraphService) Cycles(ctx context.Context, tenantID string) (CycleResult, error) {
	g, _, err := s.build(ctx, tenantID, nil)
	if err != nil {
		return CycleResult{}, err
	}
	result := graph.DetectCycles(g)

	affected := affectedNodes(result.Cycles)
	return CycleResult{
		HasCycles:     result.HasCycle,
		Cycles:        result.Cycles,
		AffectedNodes: affected,
		Suggestions:   suggestionsFor(result.Cycles),
	}, nil
}

func (s *GraphService) runCPM(ctx context.Context, tenantID string, g *graph.Graph) graph.Summary {
	_, span := otel.StartCPMSpan(ctx, tenantID, len(g.Nodes))
	defer span.End()
	start := time.Now()
	summary := graph.RunCPM(g)
	if s.metrics != nil {
		s.metrics.CPMDuration.Record(ctx, time.Since(start).Seconds())
		s.metrics.GraphNodeCount.Record(ctx, int64(len(g.Nodes)))
	}
	return summary
}

func affectedNodes(cycles [][]string) []string {
	seen := map[string]bool{}
	var out []string
	for _, cycle := range cycles {
		for _, id := range cycle {
			if !seen[id] {
				seen[id] = true
				out = append(out, id)
			}
		}
	}
	return out
}

// suggestionsFor derives human-readable remediation strings mechanically
// from each cycle's node sequence.
func suggestionsFor(cycles [][]string) []string {
	out := make([]string, 0, len(cycles))
	for _, cycle := range cycles {
		if len(cycle) < 2 {
			continue
		}
		last := cycle[len(cycle)-2]
		first := cycle[0]
		out = append(out, fmt.Sprintf("Remove or reverse the dependency from %s to %s to break the cycle", last, first))
	}
	return out
}

func toGraphResponse(g *graph.Graph, rawEdges []dependency.Edge, summary graph.Summary) Graph {
	now := time.Now()
	nodes := make([]GraphNode, 0, len(g.Nodes))
	for id, n := range g.Nodes {
		r := summary.Nodes[id]
		nodes = append(nodes, GraphNode{
			ID:             id,
			Title:          n.Title,
			Type:           n.Type,
			Status:         n.Status,
			DurationDays:   n.Duration,
			EarliestStart:  now.Add(time.Duration(r.EarlyStart) * 24 * time.Hour),
			EarliestFinish: now.Add(time.Duration(r.EarlyFinish) * 24 * time.Hour),
			LatestStart:    now.Add(time.Duration(r.LateStart) * 24 * time.Hour),
			LatestFinish:   now.Add(time.Duration(r.LateFinish) * 24 * time.Hour),
			SlackDays:      r.Slack,
			IsCritical:     r.Critical,
		})
	}

	// Only edges that survived graph.New (both endpoints present in the
	// final node set) are returned; dangling edges are dropped silently
	// here, matching the graph builder's own contract.
	edges := make([]GraphEdge, 0, len(rawEdges))
	for _, e := range rawEdges {
		if _, ok := g.Nodes[e.FromID]; !ok {
			continue
		}
		if _, ok := g.Nodes[e.ToID]; !ok {
			continue
		}
		edges = append(edges, GraphEdge{
			Edge:       e,
			IsCritical: summary.Nodes[e.FromID].Critical && summary.Nodes[e.ToID].Critical,
		})
	}

	return Graph{
		Nodes:           nodes,
		Edges:           edges,
		ProjectDuration: summary.ProjectDuration,
		CriticalPath:    summary.CriticalPath,
	}
}

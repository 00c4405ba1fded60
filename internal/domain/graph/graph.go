// Package graph implements the pure, storage-independent dependency graph
// engine: graph construction, cycle detection, and the Critical Path
// Method (CPM). Every traversal here is iterative (explicit stack or
// queue) rather than recursive, so a graph as deep as a tenant's edge
// count allows does not risk a stack overflow.
package graph

import (
	"github.com/depgraph-io/engine/internal/domain/dependency"
	"github.com/depgraph-io/engine/internal/domain/workitem"
)

// Node is a graph-local view of a work item: only the fields the engine
// needs to run CPM and cycle analysis.
type Node struct {
	ID       string
	Title    string
	Type     workitem.Type
	Duration int
	Status   workitem.Status
}

// Edge is a graph-local view of a dependency edge.
type Edge struct {
	From    string
	To      string
	LagDays int
	Type    dependency.Type
}

// Graph is an adjacency-list representation of one tenant's dependency
// graph, built once per read and discarded: no CPM result is persisted,
// so every read recomputes from the current edge set.
type Graph struct {
	Nodes map[string]*Node
	edges []Edge

	successors   map[string][]Edge
	predecessors map[string][]Edge
}

// New builds a Graph from a tenant's work items and dependency edges.
// Edges referencing a work item id absent from items are dropped rather
// than rejected; their ids are returned so callers can log or surface
// the inconsistency without failing the read.
func New(items []workitem.WorkItem, edges []dependency.Edge) (*Graph, []string) {
	g := &Graph{
		Nodes:        make(map[string]*Node, len(items)),
		successors:   make(map[string][]Edge, len(items)),
		predecessors: make(map[string][]Edge, len(items)),
	}
	for i := range items {
		g.Nodes[items[i].ID] = &Node{
			ID:       items[i].ID,
			Title:    items[i].Title,
			Type:     items[i].Type,
			Duration: items[i].Duration(),
			Status:   items[i].Status,
		}
	}

	var dangling []string
	for _, e := range edges {
		if _, ok := g.Nodes[e.FromID]; !ok {
			dangling = append(dangling, e.ID)
			continue
		}
		if _, ok := g.Nodes[e.ToID]; !ok {
			dangling = append(dangling, e.ID)
			continue
		}
		ge := Edge{From: e.FromID, To: e.ToID, LagDays: e.LagDays, Type: e.Type}
		g.edges = append(g.edges, ge)
		g.successors[e.FromID] = append(g.successors[e.FromID], ge)
		g.predecessors[e.ToID] = append(g.predecessors[e.ToID], ge)
	}
	return g, dangling
}

// Successors returns the outgoing edges of id in insertion order.
func (g *Graph) Successors(id string) []Edge {
	return g.successors[id]
}

// Predecessors returns the incoming edges of id in insertion order.
func (g *Graph) Predecessors(id string) []Edge {
	return g.predecessors[id]
}

// Edges returns every edge in the graph.
func (g *Graph) Edges() []Edge {
	return g.edges
}

// Sources returns node ids with no predecessors.
func (g *Graph) Sources() []string {
	var out []string
	for id := range g.Nodes {
		if len(g.predecessors[id]) == 0 {
			out = append(out, id)
		}
	}
	return out
}

// Sinks returns node ids with no successors.
func (g *Graph) Sinks() []string {
	var out []string
	for id := range g.Nodes {
		if len(g.successors[id]) == 0 {
			out = append(out, id)
		}
	}
	return out
}

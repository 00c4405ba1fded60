package graph_test

import (
	"testing"

	"github.com/depgraph-io/engine/internal/domain/dependency"
	"github.com/depgraph-io/engine/internal/domain/graph"
	"github.com/depgraph-io/engine/internal/domain/workitem"
)

func TestDetectCycles_NoCycle(t *testing.T) {
	items := []workitem.WorkItem{item("a", 1), item("b", 1), item("c", 1)}
	edges := []dependency.Edge{edge("a", "b", 0), edge("b", "c", 0)}
	g, _ := graph.New(items, edges)

	result := graph.DetectCycles(g)
	if result.HasCycle {
		t.Fatalf("expected no cycle, got %v", result.Cycles)
	}
}

func TestDetectCycles_DirectCycle(t *testing.T) {
	items := []workitem.WorkItem{item("a", 1), item("b", 1), item("c", 1)}
	edges := []dependency.Edge{edge("a", "b", 0), edge("b", "c", 0), edge("c", "a", 0)}
	g, _ := graph.New(items, edges)

	result := graph.DetectCycles(g)
	if !result.HasCycle {
		t.Fatal("expected a cycle to be detected")
	}
	if len(result.Cycles) != 1 {
		t.Fatalf("expected exactly one distinct cycle, got %d: %v", len(result.Cycles), result.Cycles)
	}
}

func TestWouldCreateCycle_DirectBack(t *testing.T) {
	neighbors := func(id string) ([]string, error) {
		switch id {
		case "a":
			return []string{"b"}, nil
		case "b":
			return []string{"c"}, nil
		}
		return nil, nil
	}

	// Graph is a -> b -> c. Proposing c -> a would close the loop.
	would, cycle, err := graph.WouldCreateCycle(neighbors, "c", "a", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !would {
		t.Fatal("expected cycle detection to fire")
	}
	if len(cycle) == 0 {
		t.Fatal("expected a non-empty cycle path")
	}
}

func TestWouldCreateCycle_NoCycle(t *testing.T) {
	neighbors := func(id string) ([]string, error) {
		switch id {
		case "a":
			return []string{"b"}, nil
		}
		return nil, nil
	}

	// a -> b. Proposing a -> c introduces no cycle since c cannot reach a.
	would, _, err := graph.WouldCreateCycle(neighbors, "a", "c", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if would {
		t.Fatal("expected no cycle")
	}
}

func TestWouldCreateCycle_SelfLoop(t *testing.T) {
	neighbors := func(id string) ([]string, error) { return nil, nil }
	would, _, err := graph.WouldCreateCycle(neighbors, "a", "a", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !would {
		t.Fatal("expected a self-loop to be rejected as a cycle")
	}
}

func TestWouldCreateCycle_RespectsMaxDepth(t *testing.T) {
	// A long chain a1 -> a2 -> ... -> a20, proposing a20 -> a1. With a
	// shallow max depth the probe, which starts at a1, should give up
	// before reaching a20 and
	// report no cycle, matching the documented bounded-reachability
	// tradeoff.
	adj := map[string][]string{}
	for i := 1; i < 20; i++ {
		from := idx(i)
		to := idx(i + 1)
		adj[from] = append(adj[from], to)
	}
	neighbors := func(id string) ([]string, error) { return adj[id], nil }

	would, _, err := graph.WouldCreateCycle(neighbors, idx(20), idx(1), 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if would {
		t.Fatal("expected the bounded probe to miss a cycle beyond max depth")
	}

	would, _, err = graph.WouldCreateCycle(neighbors, idx(20), idx(1), 25)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !would {
		t.Fatal("expected an unbounded-enough probe to find the cycle")
	}
}

func idx(i int) string {
	return "a" + string(rune('0'+i/10)) + string(rune('0'+i%10))
}

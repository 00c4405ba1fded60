package graph

import "sort"

// NodeResult holds the CPM outputs for a single work item.
type NodeResult struct {
	EarlyStart  int
	EarlyFinish int
	LateStart   int
	LateFinish  int
	Slack       int
	Critical    bool
}

// Summary is the full CPM result for a graph.
type Summary struct {
	Nodes           map[string]NodeResult
	ProjectDuration int
	CriticalPath    []string
	// Acyclic is false when the graph could not be topologically ordered;
	// callers should treat Nodes and ProjectDuration as undefined in that
	// case. CPM itself never detects a specific cycle location — use
	// DetectCycles for diagnostics.
	Acyclic bool
}

// RunCPM computes early/late start/finish, slack, and criticality for every
// node using the Critical Path Method. Every edge is treated as
// finish-to-start with LagDays added to the predecessor's early finish,
// regardless of its recorded dependency Type: the engine does not branch
// on start-to-start, finish-to-finish, or start-to-finish semantics. This
// is a known simplification carried forward intentionally rather than an
// oversight; honoring those semantics is tracked as a future enhancement
// and would change ProjectDuration for graphs that use non-default types.
//
// The backward pass is sink-anchored at each sink's own EarlyFinish
// rather than at the overall ProjectDuration: LateFinish(sink) =
// EarlyFinish(sink), not ProjectDuration. For graphs with a single sink
// these are identical; for graphs with multiple sinks of differing early
// finish times, every sink ends up with zero slack even when only the
// sink with the largest EarlyFinish genuinely constrains the project.
// This is preserved rather than "fixed" to avoid changing which nodes
// report zero slack for existing graphs.
func RunCPM(g *Graph) Summary {
	order, ok := topologicalOrder(g)
	if !ok {
		return Summary{Acyclic: false}
	}

	nodes := make(map[string]NodeResult, len(g.Nodes))
	for _, id := range order {
		var earlyStart int
		for _, e := range g.predecessors[id] {
			pred := nodes[e.From]
			candidate := pred.EarlyFinish + e.LagDays
			if candidate > earlyStart {
				earlyStart = candidate
			}
		}
		dur := g.Nodes[id].Duration
		nodes[id] = NodeResult{
			EarlyStart:  earlyStart,
			EarlyFinish: earlyStart + dur,
		}
	}

	projectDuration := 0
	for _, id := range order {
		if r := nodes[id]; r.EarlyFinish > projectDuration {
			projectDuration = r.EarlyFinish
		}
	}

	// Backward pass, iterating the topological order in reverse: no
	// recursion, no revisiting a node before all of its successors have
	// been finalized.
	for i := len(order) - 1; i >= 0; i-- {
		id := order[i]
		r := nodes[id]
		succs := g.successors[id]
		if len(succs) == 0 {
			r.LateFinish = r.EarlyFinish
		} else {
			lateFinish := -1
			for _, e := range succs {
				succ := nodes[e.To]
				candidate := succ.LateStart - e.LagDays
				if lateFinish == -1 || candidate < lateFinish {
					lateFinish = candidate
				}
			}
			r.LateFinish = lateFinish
		}
		dur := g.Nodes[id].Duration
		r.LateStart = r.LateFinish - dur
		r.Slack = r.LateStart - r.EarlyStart
		r.Critical = r.Slack == 0
		nodes[id] = r
	}

	return Summary{
		Nodes:           nodes,
		ProjectDuration: projectDuration,
		CriticalPath:    criticalPath(g, nodes),
		Acyclic:         true,
	}
}

// topologicalOrder computes a topological order of the graph using Kahn's
// algorithm, which is naturally iterative (a work queue, no recursion).
// The second return value is false if the graph contains a cycle, in
// which case the returned order is a partial, unusable ordering.
func topologicalOrder(g *Graph) ([]string, bool) {
	inDegree := make(map[string]int, len(g.Nodes))
	ids := make([]string, 0, len(g.Nodes))
	for id := range g.Nodes {
		inDegree[id] = len(g.predecessors[id])
		ids = append(ids, id)
	}
	// Deterministic seed order so CPM output is stable across runs given
	// the same graph, independent of Go's randomized map iteration.
	sort.Strings(ids)

	queue := make([]string, 0, len(ids))
	for _, id := range ids {
		if inDegree[id] == 0 {
			queue = append(queue, id)
		}
	}

	order := make([]string, 0, len(g.Nodes))
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		order = append(order, id)

		successors := g.successors[id]
		nextReady := make([]string, 0, len(successors))
		for _, e := range successors {
			inDegree[e.To]--
			if inDegree[e.To] == 0 {
				nextReady = append(nextReady, e.To)
			}
		}
		sort.Strings(nextReady)
		queue = append(queue, nextReady...)
	}

	return order, len(order) == len(g.Nodes)
}

// criticalPath walks from a source with zero slack to a sink with zero
// slack, always stepping to a critical successor. When more than one
// critical successor exists, the lexicographically smallest id is chosen
// so the result is deterministic.
func criticalPath(g *Graph, nodes map[string]NodeResult) []string {
	var start string
	for id, r := range nodes {
		if r.Critical && len(g.predecessors[id]) == 0 {
			if start == "" || id < start {
				start = id
			}
		}
	}
	if start == "" {
		return nil
	}

	path := []string{start}
	cur := start
	for {
		var next string
		for _, e := range g.successors[cur] {
			if !nodes[e.To].Critical {
				continue
			}
			if next == "" || e.To < next {
				next = e.To
			}
		}
		if next == "" {
			break
		}
		path = append(path, next)
		cur = next
	}
	return path
}

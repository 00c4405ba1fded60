package graph

import "sort"

const longDurationThresholdDays = 30
const highDegreeThreshold = 3

// Bottleneck identifies a critical work item whose delay would ripple
// through the schedule, along with the reasons it was flagged and
// mechanically-derived suggestions for mitigating it.
type Bottleneck struct {
	WorkItemID            string
	Title                 string
	DelayImpactDays       int
	RiskFactors           []string
	MitigationSuggestions []string
}

// mitigationByReason maps each bottleneck reason to its mitigation
// suggestion.
var mitigationByReason = map[string]string{
	"High dependency count": "Consider splitting this work item or parallelizing its dependencies",
	"Blocks many items":     "Prioritize this item since many others depend on it",
	"Currently blocked":     "Resolve the blocking condition to unblock downstream work",
	"Long duration":         "Break this work item into smaller increments to reduce schedule risk",
}

// Bottlenecks reports every critical node that also exhibits at least one
// of: indegree > 3, outdegree > 3, blocked status, or duration > 30 days.
// Results are sorted by DelayImpactDays descending.
func Bottlenecks(g *Graph, summary Summary) []Bottleneck {
	var out []Bottleneck
	for id, r := range summary.Nodes {
		if !r.Critical {
			continue
		}
		node := g.Nodes[id]
		var reasons []string
		if len(g.predecessors[id]) > highDegreeThreshold {
			reasons = append(reasons, "High dependency count")
		}
		if len(g.successors[id]) > highDegreeThreshold {
			reasons = append(reasons, "Blocks many items")
		}
		if node.Status == "blocked" {
			reasons = append(reasons, "Currently blocked")
		}
		if node.Duration > longDurationThresholdDays {
			reasons = append(reasons, "Long duration")
		}
		if len(reasons) == 0 {
			continue
		}
		suggestions := make([]string, 0, len(reasons))
		for _, reason := range reasons {
			suggestions = append(suggestions, mitigationByReason[reason])
		}
		out = append(out, Bottleneck{
			WorkItemID:            id,
			Title:                 node.Title,
			DelayImpactDays:       node.Duration,
			RiskFactors:           reasons,
			MitigationSuggestions: suggestions,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DelayImpactDays != out[j].DelayImpactDays {
			return out[i].DelayImpactDays > out[j].DelayImpactDays
		}
		return out[i].WorkItemID < out[j].WorkItemID
	})
	return out
}

// RiskScore weighs the fraction of critical, blocked, and long-duration
// nodes in the graph: min(1, (0.3*critical + 0.5*blocked + 0.2*long) / N).
func RiskScore(g *Graph, summary Summary) float64 {
	n := len(g.Nodes)
	if n == 0 {
		return 0
	}
	var critical, blocked, long int
	for id, node := range g.Nodes {
		if summary.Nodes[id].Critical {
			critical++
		}
		if node.Status == "blocked" {
			blocked++
		}
		if node.Duration > longDurationThresholdDays {
			long++
		}
	}
	risk := (0.3*float64(critical) + 0.5*float64(blocked) + 0.2*float64(long)) / float64(n)
	if risk > 1 {
		risk = 1
	}
	return risk
}

// CompletionProbability maps a risk score to a floor-bounded estimate of
// on-time completion: max(0.1, 1 - risk).
func CompletionProbability(risk float64) float64 {
	p := 1 - risk
	if p < 0.1 {
		return 0.1
	}
	return p
}

package otel

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "depgraph-engine"

// Metrics holds the engine's metric instruments.
type Metrics struct {
	EdgesCreated    metric.Int64Counter
	EdgesUpdated    metric.Int64Counter
	EdgesDeleted    metric.Int64Counter
	CyclesRejected  metric.Int64Counter
	DuplicatesRejected metric.Int64Counter
	CPMDuration     metric.Float64Histogram
	GraphNodeCount  metric.Int64Histogram
}

// NewMetrics creates all metric instruments.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)
	m := &Metrics{}
	var err error

	m.EdgesCreated, err = meter.Int64Counter("depgraph.edges.created",
		metric.WithDescription("Number of dependency edges created"))
	if err != nil {
		return nil, err
	}

	m.EdgesUpdated, err = meter.Int64Counter("depgraph.edges.updated",
		metric.WithDescription("Number of dependency edges updated"))
	if err != nil {
		return nil, err
	}

	m.EdgesDeleted, err = meter.Int64Counter("depgraph.edges.deleted",
		metric.WithDescription("Number of dependency edges deleted"))
	if err != nil {
		return nil, err
	}

	m.CyclesRejected, err = meter.Int64Counter("depgraph.edges.cycle_rejected",
		metric.WithDescription("Number of edge creations rejected for introducing a cycle"))
	if err != nil {
		return nil, err
	}

	m.DuplicatesRejected, err = meter.Int64Counter("depgraph.edges.duplicate_rejected",
		metric.WithDescription("Number of edge creations rejected as duplicates"))
	if err != nil {
		return nil, err
	}

	m.CPMDuration, err = meter.Float64Histogram("depgraph.cpm.duration_seconds",
		metric.WithDescription("Wall time spent running the critical path method"))
	if err != nil {
		return nil, err
	}

	m.GraphNodeCount, err = meter.Int64Histogram("depgraph.graph.node_count",
		metric.WithDescription("Number of nodes in a materialized graph"))
	if err != nil {
		return nil, err
	}

	return m, nil
}

package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "depgraph-engine"

// StartEdgeMutationSpan starts a span around a createEdge/updateEdge/
// deleteEdge call.
func StartEdgeMutationSpan(ctx context.Context, op, tenantID string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "edge."+op,
		trace.WithAttributes(
			attribute.String("tenant.id", tenantID),
		),
	)
}

// StartGraphBuildSpan starts a span around materializing a tenant's graph.
func StartGraphBuildSpan(ctx context.Context, tenantID string, nodeFilterSize int) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "graph.build",
		trace.WithAttributes(
			attribute.String("tenant.id", tenantID),
			attribute.Int("node_filter.size", nodeFilterSize),
		),
	)
}

// StartCPMSpan starts a span around running the critical path method.
func StartCPMSpan(ctx context.Context, tenantID string, nodeCount int) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "graph.cpm",
		trace.WithAttributes(
			attribute.String("tenant.id", tenantID),
			attribute.Int("node.count", nodeCount),
		),
	)
}

// StartCycleProbeSpan starts a span around a would-create-cycle probe.
func StartCycleProbeSpan(ctx context.Context, tenantID, from, to string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "graph.cycle_probe",
		trace.WithAttributes(
			attribute.String("tenant.id", tenantID),
			attribute.String("edge.from", from),
			attribute.String("edge.to", to),
		),
	)
}

// Package eventbus defines the message bus port (interface) the
// dependency graph engine uses to publish lifecycle events and to relay
// recalculation notices to interested subscribers.
package eventbus

import "context"

// Handler processes a message received from the bus. The context carries
// request-scoped values such as the request ID.
type Handler func(ctx context.Context, subject string, data []byte) error

// Bus is the port interface for publishing and subscribing to messages.
// Publish is best-effort: a mutation that already committed to the store
// is not rolled back if Publish fails, and a failed publish is not
// retried, so an event is delivered at most once from the publisher's
// side. A consumer whose handler fails gets the message again.
type Bus interface {
	Publish(ctx context.Context, subject string, data []byte) error
	Subscribe(ctx context.Context, subject string, handler Handler) (cancel func(), err error)
	Drain() error
	Close() error
	IsConnected() bool
}

// Subject constants mirror the exchange/routing-key model of an AMQP-style
// bus onto NATS subject hierarchies: "dependencies.dependency.*" stands in
// for the dependencies exchange, "system.*" for the system exchange.
const (
	SubjectDependencyCreated = "dependencies.dependency.created"
	SubjectDependencyUpdated = "dependencies.dependency.updated"
	SubjectDependencyDeleted = "dependencies.dependency.deleted"

	SubjectCriticalPathRecalculate = "system.critical_path.recalculate"
)

// DependencyEventPayload is a flat summary of a dependency lifecycle event.
// EdgeService does not publish this type: the messages it sends on the
// dependency lifecycle subjects are JSON-encoded dependency.Event values.
type DependencyEventPayload struct {
	EdgeID   string `json:"edge_id"`
	TenantID string `json:"tenant_id"`
	FromID   string `json:"from_id"`
	ToID     string `json:"to_id"`
	ActorID  string `json:"actor_id,omitempty"`
}

// CriticalPathRecalculatePayload is the schema published whenever an edge
// mutation may have changed a tenant's critical path, prompting
// subscribers (such as the websocket relay) to recompute and push updates.
type CriticalPathRecalculatePayload struct {
	TenantID string `json:"tenant_id"`
	Reason   string `json:"reason"`
}

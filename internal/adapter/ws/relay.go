package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/depgraph-io/engine/internal/port/eventbus"
)

// RecalculateMessageType is the WebSocket message Type sent to clients
// when a tenant's critical path may have changed.
const RecalculateMessageType = "critical_path.recalculate"

// RelayRecalculations subscribes to the critical-path recalculation
// subject and forwards each notice to the tenant's connected clients. The
// returned cancel function stops the subscription.
func RelayRecalculations(ctx context.Context, bus eventbus.Bus, hub *Hub) (func(), error) {
	cancel, err := bus.Subscribe(ctx, eventbus.SubjectCriticalPathRecalculate, func(ctx context.Context, _ string, data []byte) error {
		var payload eventbus.CriticalPathRecalculatePayload
		if err := json.Unmarshal(data, &payload); err != nil {
			return fmt.Errorf("unmarshal recalculate payload: %w", err)
		}
		msgPayload, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal relay payload: %w", err)
		}
		hub.BroadcastToTenant(ctx, payload.TenantID, Message{Type: RecalculateMessageType, Payload: msgPayload})
		slog.Debug("relayed critical path recalculation", "tenant_id", payload.TenantID, "reason", payload.Reason)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("subscribe recalculate relay: %w", err)
	}
	return cancel, nil
}

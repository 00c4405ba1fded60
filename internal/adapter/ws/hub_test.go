package ws

import (
	"context"
	"testing"
)

func TestHub_ConnectionCountStartsZero(t *testing.T) {
	h := NewHub()
	if got := h.ConnectionCount(); got != 0 {
		t.Fatalf("expected 0 connections, got %d", got)
	}
}

func TestHub_BroadcastToTenant_NoConnections(t *testing.T) {
	h := NewHub()
	// Broadcasting with no connections must not panic.
	h.BroadcastToTenant(context.Background(), "tenant-a", Message{Type: "test"})
}

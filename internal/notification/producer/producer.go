// Package producer defines the interface for emitting notification events
// (e.g. to Kafka).
package producer

import (
	"context"

	"clubqueue/backend/internal/notification/domain"
)

// Producer emits notification events. Callers use it best-effort: log and
// ignore errors.
type Producer interface {
	// Emit sends a single notification event. Implementations may block
	// briefly; call from a goroutine if needed.
	Emit(ctx context.Context, event *domain.Event) error
	// Close releases resources (e.g. the Kafka writer). Safe to call if already closed.
	Close() error
}

// Package notification provides fire-and-forget emission of notification
// events from request paths.
package notification

import (
	"context"
	"log"
	"time"

	"clubqueue/backend/internal/notification/domain"
	"clubqueue/backend/internal/notification/producer"
)

// emitTimeout is the max time allowed for a single async emit.
const emitTimeout = 5 * time.Second

// ShutdownDrainDuration is how long to wait after server stop before closing
// the producer, so in-flight async emits have time to complete. Must be
// >= emitTimeout.
const ShutdownDrainDuration = emitTimeout

// EmitAsync runs Emit in a goroutine with a short timeout so the caller is
// not blocked. Best-effort: errors are logged. p and event may be nil;
// EmitAsync then returns immediately without starting a goroutine.
//
// The goroutine uses context.Background() with emitTimeout so request
// cancellation does not abort an in-flight emit.
func EmitAsync(p producer.Producer, event *domain.Event) {
	if p == nil || event == nil {
		return
	}
	go func() {
		emitCtx, cancel := context.WithTimeout(context.Background(), emitTimeout)
		defer cancel()
		if err := p.Emit(emitCtx, event); err != nil {
			log.Printf("notification: async emit failed: %v", err)
		}
	}()
}

// Package telemetry defines auth events and their best-effort emission.
package telemetry

import (
	"context"
	"log"
	"time"
)

// Event types emitted by the auth core. Infrastructure faults are deliberately
// distinct from authorization outcomes so operators can tell a broken store from
// a denied caller.
const (
	EventSessionStoreError   = "session_store_error"
	EventIdentityLookupError = "identity_lookup_error"
	EventGRPCRequest         = "grpc_request"
)

// Event is a single telemetry event. Fields left empty are omitted on emission.
type Event struct {
	PrincipalID string
	EventType   string
	Source      string
	Metadata    map[string]string
	CreatedAt   time.Time
}

// EventEmitter emits telemetry events (e.g. as OTel log records). Best-effort;
// callers log and ignore errors.
type EventEmitter interface {
	Emit(ctx context.Context, event *Event) error
}

// emitTimeout is the max time allowed for a single async emit.
const emitTimeout = 5 * time.Second

// ShutdownDrainDuration is how long to wait after the server stops before
// shutting down OTel providers, so in-flight async emits complete.
const ShutdownDrainDuration = emitTimeout

// EmitAsync runs Emit in a goroutine with a short timeout so the caller is not
// blocked. emitter and event may be nil; then EmitAsync returns immediately.
// The goroutine uses context.Background() so request cancellation does not abort
// an in-flight emit.
func EmitAsync(emitter EventEmitter, event *Event) {
	if emitter == nil || event == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), emitTimeout)
		defer cancel()
		if err := emitter.Emit(ctx, event); err != nil {
			log.Printf("telemetry: async emit failed: %v", err)
		}
	}()
}

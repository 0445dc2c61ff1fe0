package otel

import (
	"context"
	"testing"
	"time"

	otellog "go.opentelemetry.io/otel/log"
	sdklog "go.opentelemetry.io/otel/sdk/log"

	"authplane/internal/telemetry"
)

// memProcessor captures emitted log records in memory.
type memProcessor struct {
	records []sdklog.Record
}

func (p *memProcessor) OnEmit(ctx context.Context, r *sdklog.Record) error {
	p.records = append(p.records, *r)
	return nil
}

func (p *memProcessor) Enabled(ctx context.Context, param sdklog.EnabledParameters) bool {
	return true
}

func (p *memProcessor) Shutdown(ctx context.Context) error   { return nil }
func (p *memProcessor) ForceFlush(ctx context.Context) error { return nil }

func TestNewEventEmitter_NilProviderIsNoop(t *testing.T) {
	emitter := NewEventEmitter(nil)
	if err := emitter.Emit(context.Background(), &telemetry.Event{EventType: "x"}); err != nil {
		t.Errorf("noop emit: %v", err)
	}
}

func TestEmit_ProducesLogRecord(t *testing.T) {
	proc := &memProcessor{}
	provider := sdklog.NewLoggerProvider(sdklog.WithProcessor(proc))
	defer provider.Shutdown(context.Background())

	emitter := NewEventEmitter(provider)
	err := emitter.Emit(context.Background(), &telemetry.Event{
		PrincipalID: "u1",
		EventType:   telemetry.EventSessionStoreError,
		Source:      "auth_service",
		Metadata:    map[string]string{"error": "connection refused"},
		CreatedAt:   time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("Emit: %v", err)
	}

	if len(proc.records) != 1 {
		t.Fatalf("records = %d, want 1", len(proc.records))
	}
	rec := proc.records[0]
	if got := rec.Body().AsString(); got != telemetry.EventSessionStoreError {
		t.Errorf("body = %q", got)
	}

	attrs := map[string]string{}
	rec.WalkAttributes(func(kv otellog.KeyValue) bool {
		attrs[kv.Key] = kv.Value.AsString()
		return true
	})
	if attrs["principal_id"] != "u1" || attrs["source"] != "auth_service" || attrs["error"] != "connection refused" {
		t.Errorf("attributes = %v", attrs)
	}
}

func TestEmit_NilEvent(t *testing.T) {
	proc := &memProcessor{}
	provider := sdklog.NewLoggerProvider(sdklog.WithProcessor(proc))
	defer provider.Shutdown(context.Background())

	emitter := NewEventEmitter(provider)
	if err := emitter.Emit(context.Background(), nil); err != nil {
		t.Errorf("Emit(nil): %v", err)
	}
	if len(proc.records) != 0 {
		t.Errorf("records = %d, want 0", len(proc.records))
	}
}

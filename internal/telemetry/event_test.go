package telemetry

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type captureEmitter struct {
	mu     sync.Mutex
	events []*Event
	err    error
	done   chan struct{}
}

func newCaptureEmitter(err error) *captureEmitter {
	return &captureEmitter{err: err, done: make(chan struct{}, 8)}
}

func (c *captureEmitter) Emit(ctx context.Context, event *Event) error {
	c.mu.Lock()
	c.events = append(c.events, event)
	c.mu.Unlock()
	c.done <- struct{}{}
	return c.err
}

func (c *captureEmitter) wait(t *testing.T) {
	t.Helper()
	select {
	case <-c.done:
	case <-time.After(2 * time.Second):
		t.Fatal("emit did not complete")
	}
}

func TestEmitAsync_DeliversEvent(t *testing.T) {
	emitter := newCaptureEmitter(nil)
	EmitAsync(emitter, &Event{PrincipalID: "u1", EventType: EventGRPCRequest})
	emitter.wait(t)

	emitter.mu.Lock()
	defer emitter.mu.Unlock()
	if len(emitter.events) != 1 || emitter.events[0].PrincipalID != "u1" {
		t.Errorf("events = %+v", emitter.events)
	}
}

func TestEmitAsync_NilEmitterAndEvent(t *testing.T) {
	// Must not panic.
	EmitAsync(nil, &Event{EventType: EventSessionStoreError})
	EmitAsync(newCaptureEmitter(nil), nil)
}

func TestEmitAsync_EmitterErrorIsSwallowed(t *testing.T) {
	emitter := newCaptureEmitter(errors.New("collector down"))
	EmitAsync(emitter, &Event{EventType: EventIdentityLookupError})
	emitter.wait(t)
}

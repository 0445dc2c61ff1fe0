package interceptors

import (
	"context"
	"strconv"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"

	"authplane/internal/telemetry"
)

// TelemetryUnary returns a unary server interceptor that emits an event after
// each RPC. Best-effort: emission runs asynchronously and never fails the RPC.
// If emitter is nil, the interceptor no-ops. skipMethods lists full method names
// to not emit (e.g. health checks).
func TelemetryUnary(emitter telemetry.EventEmitter, skipMethods map[string]bool) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		if emitter == nil || skipMethods[info.FullMethod] {
			return resp, err
		}
		principalID, _ := GetPrincipalID(ctx)
		telemetry.EmitAsync(emitter, &telemetry.Event{
			PrincipalID: principalID,
			EventType:   telemetry.EventGRPCRequest,
			Source:      "grpc_interceptor",
			Metadata: map[string]string{
				"full_method": info.FullMethod,
				"status_code": status.Code(err).String(),
				"duration_ms": strconv.FormatInt(time.Since(start).Milliseconds(), 10),
				"client_ip":   ClientIP(ctx),
			},
			CreatedAt: time.Now().UTC(),
		})
		return resp, err
	}
}

// ClientIP returns the caller's address from the gRPC peer, or "" if unknown.
func ClientIP(ctx context.Context) string {
	p, ok := peer.FromContext(ctx)
	if !ok || p.Addr == nil {
		return ""
	}
	return p.Addr.String()
}

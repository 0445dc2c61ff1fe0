// Package server builds the gRPC server with its interceptor chain.
package server

import (
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"authplane/internal/gate"
	"authplane/internal/server/interceptors"
	"authplane/internal/telemetry"
)

// Deps holds the server's dependencies.
type Deps struct {
	// Gate guards every non-public RPC. Required.
	Gate *gate.Gate
	// Emitter receives per-RPC telemetry events. If nil, RPCs are not recorded.
	Emitter telemetry.EventEmitter
}

// healthMethods are exempt from both auth and telemetry.
var healthMethods = map[string]bool{
	healthpb.Health_Check_FullMethodName: true,
	healthpb.Health_Watch_FullMethodName: true,
}

// New builds a gRPC server with the auth and telemetry interceptors and the
// standard health service registered. The returned health server starts in
// SERVING state; callers flip it to NOT_SERVING during shutdown so load
// balancers drain before GracefulStop.
func New(deps Deps) (*grpc.Server, *health.Server) {
	s := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(
			interceptors.AuthUnary(deps.Gate, healthMethods),
			interceptors.TelemetryUnary(deps.Emitter, healthMethods),
		),
	)

	hs := health.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(s, hs)

	return s, hs
}

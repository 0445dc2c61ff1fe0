package interceptors

import (
	"context"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"authplane/internal/gate"
)

const bearerPrefix = "bearer "

// RefreshedTokenHeader is the response metadata key carrying a replacement
// access token after a transparent rotation. The transport in front of this
// server persists it client-side (the cookie analogue for gRPC callers).
const RefreshedTokenHeader = "x-access-token"

// AuthUnary returns a unary server interceptor that gates each RPC on the
// presented access token. A valid token passes; an expired token is rotated in
// place and the replacement is emitted via response metadata; everything else is
// rejected with a constant Unauthenticated error that does not reveal whether a
// session exists. publicMethods lists full method names served without a token.
func AuthUnary(g *gate.Gate, publicMethods map[string]bool) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		token := extractBearer(ctx)
		public := publicMethods[info.FullMethod]

		grant, err := g.Check(ctx, token)
		if err != nil {
			if public {
				return handler(ctx, req)
			}
			return nil, status.Error(codes.Unauthenticated, "missing or invalid authorization")
		}

		if grant.Refreshed() {
			_ = grpc.SetHeader(ctx, metadata.Pairs(RefreshedTokenHeader, grant.RefreshedToken))
		}
		ctx = WithPrincipal(ctx, grant.Claims.Subject, grant.Claims.Email, grant.Claims.Role)
		return handler(ctx, req)
	}
}

// extractBearer returns the Bearer token from ctx metadata, or "" if missing or malformed.
func extractBearer(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	vals := md.Get("authorization")
	if len(vals) == 0 {
		return ""
	}
	v := strings.TrimSpace(vals[0])
	if len(v) < len(bearerPrefix) {
		return ""
	}
	if !strings.EqualFold(v[:len(bearerPrefix)], bearerPrefix) {
		return ""
	}
	return strings.TrimSpace(v[len(bearerPrefix):])
}

package interceptors

import (
	"context"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"authplane/internal/auth"
	"authplane/internal/gate"
	"authplane/internal/security"
	userdomain "authplane/internal/user/domain"
)

type stubRotator struct {
	result *auth.Result
	err    error
}

func (r *stubRotator) Rotate(ctx context.Context, token string) (*auth.Result, error) {
	return r.result, r.err
}

// fakeServerStream captures headers set via grpc.SetHeader.
type fakeServerStream struct {
	header metadata.MD
}

func (s *fakeServerStream) Method() string                  { return "/auth.v1.TestService/Call" }
func (s *fakeServerStream) SetHeader(md metadata.MD) error  { s.header = metadata.Join(s.header, md); return nil }
func (s *fakeServerStream) SendHeader(md metadata.MD) error { return nil }
func (s *fakeServerStream) SetTrailer(md metadata.MD) error { return nil }

func testInfo() *grpc.UnaryServerInfo {
	return &grpc.UnaryServerInfo{FullMethod: "/auth.v1.TestService/Call"}
}

func callCtx(token string) context.Context {
	ctx := context.Background()
	if token != "" {
		ctx = metadata.NewIncomingContext(ctx, metadata.Pairs("authorization", "Bearer "+token))
	}
	return ctx
}

func TestAuthUnary_ValidToken(t *testing.T) {
	signer := security.NewTokenSigner([]byte("test-secret"))
	interceptor := AuthUnary(gate.New(signer, &stubRotator{err: auth.ErrRotationDenied}), nil)

	token, _, err := signer.Issue("u1", "a@x.com", "admin", 15*time.Minute)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	called := false
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		called = true
		if id, _ := GetPrincipalID(ctx); id != "u1" {
			t.Errorf("principal in handler ctx: got %q", id)
		}
		return "ok", nil
	}

	if _, err := interceptor(callCtx(token), nil, testInfo(), handler); err != nil {
		t.Fatalf("interceptor: %v", err)
	}
	if !called {
		t.Fatal("handler not called")
	}
}

func TestAuthUnary_MissingToken(t *testing.T) {
	signer := security.NewTokenSigner([]byte("test-secret"))
	interceptor := AuthUnary(gate.New(signer, &stubRotator{err: auth.ErrRotationDenied}), nil)

	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		t.Fatal("handler must not be called")
		return nil, nil
	}

	_, err := interceptor(callCtx(""), nil, testInfo(), handler)
	if status.Code(err) != codes.Unauthenticated {
		t.Errorf("want Unauthenticated, got %v", err)
	}
}

func TestAuthUnary_PublicMethodBypass(t *testing.T) {
	signer := security.NewTokenSigner([]byte("test-secret"))
	public := map[string]bool{"/auth.v1.TestService/Call": true}
	interceptor := AuthUnary(gate.New(signer, &stubRotator{err: auth.ErrRotationDenied}), public)

	called := false
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		called = true
		return "ok", nil
	}

	if _, err := interceptor(callCtx(""), nil, testInfo(), handler); err != nil {
		t.Fatalf("interceptor: %v", err)
	}
	if !called {
		t.Fatal("handler not called for public method")
	}
}

func TestAuthUnary_ExpiredTokenRotates(t *testing.T) {
	signer := security.NewTokenSigner([]byte("test-secret"))
	rotator := &stubRotator{result: &auth.Result{
		AccessToken:     "fresh-access-token",
		AccessExpiresAt: time.Now().UTC().Add(15 * time.Minute),
		User:            &userdomain.User{ID: "u1", Email: "a@x.com"},
	}}
	interceptor := AuthUnary(gate.New(signer, rotator), nil)

	expired, _, err := signer.Issue("u1", "a@x.com", "", -time.Minute)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	stream := &fakeServerStream{}
	ctx := grpc.NewContextWithServerTransportStream(callCtx(expired), stream)

	called := false
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		called = true
		if id, _ := GetPrincipalID(ctx); id != "u1" {
			t.Errorf("principal in handler ctx: got %q", id)
		}
		return "ok", nil
	}

	if _, err := interceptor(ctx, nil, testInfo(), handler); err != nil {
		t.Fatalf("interceptor: %v", err)
	}
	if !called {
		t.Fatal("handler not called")
	}
	if got := stream.header.Get(RefreshedTokenHeader); len(got) != 1 || got[0] != "fresh-access-token" {
		t.Errorf("refreshed token header: got %v", got)
	}
}

func TestAuthUnary_ExpiredTokenRotationDenied(t *testing.T) {
	signer := security.NewTokenSigner([]byte("test-secret"))
	interceptor := AuthUnary(gate.New(signer, &stubRotator{err: auth.ErrRotationDenied}), nil)

	expired, _, err := signer.Issue("u1", "a@x.com", "", -time.Minute)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		t.Fatal("handler must not be called")
		return nil, nil
	}

	_, err = interceptor(callCtx(expired), nil, testInfo(), handler)
	if status.Code(err) != codes.Unauthenticated {
		t.Errorf("want Unauthenticated, got %v", err)
	}
}

func TestExtractBearer(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  string
	}{
		{"standard", "Bearer tok123", "tok123"},
		{"lowercase", "bearer tok123", "tok123"},
		{"padded", "  Bearer   tok123  ", "tok123"},
		{"no prefix", "tok123", ""},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs("authorization", tt.value))
			if got := extractBearer(ctx); got != tt.want {
				t.Errorf("extractBearer(%q): want %q, got %q", tt.value, tt.want, got)
			}
		})
	}

	if got := extractBearer(context.Background()); got != "" {
		t.Errorf("extractBearer without metadata: got %q", got)
	}
}

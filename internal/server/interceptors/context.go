package interceptors

import "context"

type contextKey struct{ name string }

var (
	principalIDKey = contextKey{"principal_id"}
	emailKey       = contextKey{"email"}
	roleKey        = contextKey{"role"}
)

// WithPrincipal returns a context carrying the authenticated principal's id,
// email, and role. Handlers read them via the Get accessors.
func WithPrincipal(ctx context.Context, principalID, email, role string) context.Context {
	ctx = context.WithValue(ctx, principalIDKey, principalID)
	ctx = context.WithValue(ctx, emailKey, email)
	ctx = context.WithValue(ctx, roleKey, role)
	return ctx
}

// GetPrincipalID returns the principal id from context and true if set.
func GetPrincipalID(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(principalIDKey).(string)
	return v, ok
}

// GetEmail returns the principal's email from context and true if set.
func GetEmail(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(emailKey).(string)
	return v, ok
}

// GetRole returns the principal's role from context and true if set. The role
// may be empty even when set.
func GetRole(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(roleKey).(string)
	return v, ok
}

package middleware

import (
	"context"

	"identity-service/internal/security"
)

type contextKey struct{ name string }

var identityKey = contextKey{"identity"}

// WithIdentity returns a context carrying the authenticated principal.
// Handlers read it via IdentityFrom.
func WithIdentity(ctx context.Context, id *security.AccessIdentity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFrom returns the authenticated principal from context and true if
// set; otherwise nil, false.
func IdentityFrom(ctx context.Context) (*security.AccessIdentity, bool) {
	v, ok := ctx.Value(identityKey).(*security.AccessIdentity)
	return v, ok
}

var clientIPKey = contextKey{"client_ip"}

// WithClientIP returns a context carrying the originating client address.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPKey, ip)
}

// ClientIPFrom returns the client address from context, or "" if unset. The
// audit logger uses it as its IP extractor.
func ClientIPFrom(ctx context.Context) string {
	v, _ := ctx.Value(clientIPKey).(string)
	return v
}

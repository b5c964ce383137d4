package auth

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"
)

type sessionKey struct{}

// WithSession stores a session in the context
func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// SessionFromContext returns the session set by the interceptor, if any
func SessionFromContext(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(sessionKey{}).(Session)
	return s, ok
}

// BearerToken extracts the token from an Authorization header
func BearerToken(h http.Header) string {
	v := h.Get("Authorization")
	const prefix = "Bearer "
	if len(v) < len(prefix) || !strings.EqualFold(v[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(v[len(prefix):])
}

// NewInterceptor attaches the caller's session to the context and rejects
// calls to protected procedures without one
func NewInterceptor(a *Authenticator, protected func(procedure string) bool) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			if s, ok := a.Session(BearerToken(req.Header())); ok {
				ctx = WithSession(ctx, s)
			} else if protected(req.Spec().Procedure) {
				return nil, connect.NewError(connect.CodeUnauthenticated, ErrNotAuthenticated)
			}
			return next(ctx, req)
		}
	}
}

package httpx

import (
	"context"

	"github.com/DarwinOsingo/Afrigene/internal/navigation"
	"github.com/DarwinOsingo/Afrigene/internal/session"
)

// sessionKey is an unexported context key type to avoid collisions across packages.
type sessionKey struct{}

// sessionIDKey carries the browser session id alongside the store.
type sessionIDKey struct{}

// SetSessionInContext returns a child context that carries the session store and its id.
// If store is nil, the original ctx is returned unchanged.
func SetSessionInContext(ctx context.Context, id string, store *session.Store) context.Context {
	if store == nil {
		return ctx
	}
	ctx = context.WithValue(ctx, sessionIDKey{}, id)
	return context.WithValue(ctx, sessionKey{}, store)
}

// GetSessionFromContext returns the session store for the request, if any.
func GetSessionFromContext(ctx context.Context) (*session.Store, bool) {
	if s, ok := ctx.Value(sessionKey{}).(*session.Store); ok && s != nil {
		return s, true
	}
	return nil, false
}

// GetSessionIDFromContext returns the browser session id, or "".
func GetSessionIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(sessionIDKey{}).(string)
	return id
}

// sessionView adapts the context session to the guard. It returns a nil
// interface, not a typed nil, when there is no session.
func sessionView(ctx context.Context) navigation.SessionView {
	if s, ok := GetSessionFromContext(ctx); ok {
		return s
	}
	return nil
}

// IsAuthenticated reports whether the request carries an authenticated session.
func IsAuthenticated(ctx context.Context) bool {
	s, ok := GetSessionFromContext(ctx)
	return ok && s.IsAuthenticated()
}

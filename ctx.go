package session

import (
	"context"

	"github.com/goliatone/go-router"
)

var snapshotCtxKey = &contextKey{"session.snapshot"}

type contextKey struct {
	name string
}

// WithContext sets the settled Snapshot in the given context
func WithContext(r context.Context, snap Snapshot) context.Context {
	return context.WithValue(r, snapshotCtxKey, snap)
}

// FromContext finds the snapshot from the context.
func FromContext(ctx context.Context) (Snapshot, bool) {
	raw, ok := ctx.Value(snapshotCtxKey).(Snapshot)
	return raw, ok
}

// FromRouterContext extracts the snapshot stored in router locals
func FromRouterContext(ctx router.Context, key string) (Snapshot, bool) {
	if key == "" {
		key = "session"
	}
	raw := ctx.Locals(key)
	if raw == nil {
		return Snapshot{}, false
	}
	snap, ok := raw.(Snapshot)
	return snap, ok
}

// Can is a convenience check against the snapshot in the standard context:
// authenticated and holding at least minRole.
func Can(ctx context.Context, minRole UserRole) bool {
	snap, ok := FromContext(ctx)
	if !ok {
		return false
	}
	return snap.IsAuthenticated() && RoleIsAtLeast(snap.Role, minRole)
}

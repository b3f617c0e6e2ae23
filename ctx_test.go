package session_test

import (
	"context"
	"testing"

	"github.com/goliatone/go-session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotContextRoundTrip(t *testing.T) {
	snap := session.Snapshot{
		Status:   session.StatusAuthenticated,
		Identity: session.IdentityRef{UserID: "ctx-1", EmailAddress: "ctx@example.com"},
		Role:     session.RoleMentor,
	}

	ctx := session.WithContext(context.Background(), snap)

	got, ok := session.FromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, session.RoleMentor, got.Role)
	assert.Equal(t, "ctx-1", got.Identity.ID())
}

func TestFromContextMissing(t *testing.T) {
	_, ok := session.FromContext(context.Background())
	assert.False(t, ok)
}

func TestFromRouterContext(t *testing.T) {
	snap := session.Snapshot{
		Status:   session.StatusAuthenticated,
		Identity: session.IdentityRef{UserID: "ctx-2", EmailAddress: "locals@example.com"},
		Role:     session.RoleStudent,
	}

	mc := &MockContext{}
	mc.On("Locals", "session").Return(snap)

	got, ok := session.FromRouterContext(mc, "")
	require.True(t, ok)
	assert.Equal(t, session.RoleStudent, got.Role)
}

func TestFromRouterContextMissing(t *testing.T) {
	mc := &MockContext{}
	mc.On("Locals", "session").Return(nil)

	_, ok := session.FromRouterContext(mc, "session")
	assert.False(t, ok)
}

func TestCan(t *testing.T) {
	student := session.Snapshot{
		Status:   session.StatusAuthenticated,
		Identity: session.IdentityRef{UserID: "ctx-3", EmailAddress: "can@example.com"},
		Role:     session.RoleStudent,
	}
	mentor := student
	mentor.Role = session.RoleMentor

	assert.False(t, session.Can(context.Background(), session.RoleStudent), "no snapshot in context")

	ctx := session.WithContext(context.Background(), student)
	assert.True(t, session.Can(ctx, session.RoleStudent))
	assert.False(t, session.Can(ctx, session.RoleMentor))

	ctx = session.WithContext(context.Background(), mentor)
	assert.True(t, session.Can(ctx, session.RoleStudent), "mentors satisfy the student minimum")
	assert.True(t, session.Can(ctx, session.RoleMentor))

	unauth := session.Snapshot{Status: session.StatusUnauthenticated}
	ctx = session.WithContext(context.Background(), unauth)
	assert.False(t, session.Can(ctx, session.RoleStudent))
}

package session_test

import (
	"testing"

	"github.com/goliatone/go-session"
	"github.com/stretchr/testify/assert"
)

func TestValidRole(t *testing.T) {
	assert.True(t, session.ValidRole(session.RoleStudent))
	assert.True(t, session.ValidRole(session.RoleMentor))
	assert.False(t, session.ValidRole("admin"))
	assert.False(t, session.ValidRole(""))
}

func TestRoleIsAtLeast(t *testing.T) {
	tests := []struct {
		name     string
		role     session.UserRole
		minRole  session.UserRole
		expected bool
	}{
		{"student meets student", session.RoleStudent, session.RoleStudent, true},
		{"mentor meets student", session.RoleMentor, session.RoleStudent, true},
		{"mentor meets mentor", session.RoleMentor, session.RoleMentor, true},
		{"student does not meet mentor", session.RoleStudent, session.RoleMentor, false},
		{"unknown role never qualifies", "admin", session.RoleStudent, false},
		{"unknown minimum never matches", session.RoleMentor, "admin", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, session.RoleIsAtLeast(tt.role, tt.minRole))
		})
	}
}

func TestParseRole(t *testing.T) {
	role, ok := session.ParseRole("mentor")
	assert.True(t, ok)
	assert.Equal(t, session.RoleMentor, role)

	_, ok = session.ParseRole("superuser")
	assert.False(t, ok)
}

func TestGetAllRoles(t *testing.T) {
	roles := session.GetAllRoles()
	assert.Equal(t, []session.UserRole{session.RoleStudent, session.RoleMentor}, roles)
}

func TestDefaultRole(t *testing.T) {
	assert.Equal(t, session.RoleStudent, session.DefaultRole())
}

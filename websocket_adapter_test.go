package session_test

import (
	"context"
	"testing"

	"github.com/goliatone/go-session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWSTokenValidatorValidate(t *testing.T) {
	ts := newTestTokenService(1)
	validator := session.NewWSTokenValidator(ts)

	identity := session.IdentityRef{UserID: "ws-1", EmailAddress: "ws@example.com"}
	token, err := ts.Generate(context.Background(), identity, session.RoleMentor)
	require.NoError(t, err)

	claims, err := validator.Validate(token)
	require.NoError(t, err)

	assert.Equal(t, "ws-1", claims.UserID())
	assert.Equal(t, "ws-1", claims.Subject())
	assert.Equal(t, string(session.RoleMentor), claims.Role())
}

func TestWSTokenValidatorRejectsBadToken(t *testing.T) {
	ts := newTestTokenService(1)
	validator := session.NewWSTokenValidator(ts)

	claims, err := validator.Validate("not-a-token")
	require.Error(t, err)
	assert.Nil(t, claims)
}

func TestWSAuthClaimsPermissions(t *testing.T) {
	ts := newTestTokenService(1)
	validator := session.NewWSTokenValidator(ts)

	mentorToken, err := ts.Generate(context.Background(),
		session.IdentityRef{UserID: "ws-2", EmailAddress: "mentor@example.com"},
		session.RoleMentor)
	require.NoError(t, err)

	studentToken, err := ts.Generate(context.Background(),
		session.IdentityRef{UserID: "ws-3", EmailAddress: "student@example.com"},
		session.RoleStudent)
	require.NoError(t, err)

	mentor, err := validator.Validate(mentorToken)
	require.NoError(t, err)
	student, err := validator.Validate(studentToken)
	require.NoError(t, err)

	assert.True(t, mentor.CanRead("teams"))
	assert.True(t, mentor.CanEdit("teams"))
	assert.True(t, mentor.CanCreate("teams"))
	assert.True(t, mentor.CanDelete("teams"))
	assert.True(t, mentor.HasRole(string(session.RoleMentor)))
	assert.True(t, mentor.IsAtLeast(string(session.RoleStudent)))

	assert.True(t, student.CanRead("tasks"))
	assert.False(t, student.CanEdit("tasks"))
	assert.False(t, student.CanCreate("tasks"))
	assert.False(t, student.CanDelete("tasks"))
	assert.False(t, student.HasRole(string(session.RoleMentor)))
	assert.False(t, student.IsAtLeast(string(session.RoleMentor)))
}

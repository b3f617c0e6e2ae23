package session_test

import (
	"testing"

	"github.com/goliatone/go-session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateCredentials(t *testing.T) {
	tests := []struct {
		name     string
		email    string
		password string
		wantErr  bool
	}{
		{"valid", "user@example.com", "password123", false},
		{"missing email", "", "password123", true},
		{"not an email", "user-at-example", "password123", true},
		{"missing password", "user@example.com", "", true},
		{"short password", "user@example.com", "short", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := session.ValidateCredentials(tt.email, tt.password)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, session.ErrInvalidCredentialsFormat)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestValidateSignup(t *testing.T) {
	tests := []struct {
		name     string
		payload  [3]string // display name, email, password
		role     session.UserRole
		wantErr  bool
	}{
		{"valid student", [3]string{"Ada", "ada@example.com", "password123"}, session.RoleStudent, false},
		{"valid mentor", [3]string{"Grace", "grace@example.com", "password123"}, session.RoleMentor, false},
		{"missing name", [3]string{"", "ada@example.com", "password123"}, session.RoleStudent, true},
		{"bad email", [3]string{"Ada", "nope", "password123"}, session.RoleStudent, true},
		{"unknown role", [3]string{"Ada", "ada@example.com", "password123"}, "admin", true},
		{"empty role", [3]string{"Ada", "ada@example.com", "password123"}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := session.ValidateSignup(tt.payload[0], tt.payload[1], tt.payload[2], tt.role)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, session.ErrInvalidCredentialsFormat)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestValidatePhone(t *testing.T) {
	assert.NoError(t, session.ValidatePhone(""), "phone is optional")
	assert.NoError(t, session.ValidatePhone("+1 650-253-0000"))
	assert.NoError(t, session.ValidatePhone("(650) 253-0000"))
	assert.Error(t, session.ValidatePhone("123"))
	assert.Error(t, session.ValidatePhone("not a number"))
}

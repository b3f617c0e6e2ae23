package session_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/goliatone/go-featuregate/gate"
	"github.com/goliatone/go-session"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

type stubFeatureGate struct {
	enabled map[string]bool
	calls   []string
	err     error
}

func (s *stubFeatureGate) Enabled(ctx context.Context, key string, opts ...gate.ResolveOption) (bool, error) {
	s.calls = append(s.calls, key)
	if s.err != nil {
		return false, s.err
	}
	if s.enabled == nil {
		return true, nil
	}
	enabled, ok := s.enabled[key]
	if !ok {
		return true, nil
	}
	return enabled, nil
}

func setupRepositoryManager(t *testing.T) session.RepositoryManager {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)
	t.Cleanup(func() { sqldb.Close() })

	db := bun.NewDB(sqldb, sqlitedialect.New())
	_, err = db.ExecContext(context.Background(), sqliteCreateUsers)
	require.NoError(t, err)

	return session.NewRepositoryManager(db)
}

func TestSignupHandlerCreatesAccount(t *testing.T) {
	repo := setupRepositoryManager(t)

	handler := session.NewSignupHandler(repo)
	err := handler.Execute(context.Background(), session.SignupMessage{
		DisplayName: "Rosa Diaz",
		Email:       "rosa@example.com",
		Password:    "sup3r-secret",
		Role:        session.RoleMentor,
		UseHashid:   true,
	})
	require.NoError(t, err)

	user, err := repo.Users().GetByIdentifier(context.Background(), "rosa@example.com")
	require.NoError(t, err)
	require.Equal(t, "Rosa Diaz", user.DisplayName)
	require.Equal(t, session.RoleMentor, user.Role)
	require.NotEmpty(t, user.PasswordHash)
	require.NotEqual(t, "sup3r-secret", user.PasswordHash)
}

func TestSignupHandlerDefaultsRole(t *testing.T) {
	repo := setupRepositoryManager(t)

	handler := session.NewSignupHandler(repo)
	err := handler.Execute(context.Background(), session.SignupMessage{
		DisplayName: "Terry Jeffords",
		Email:       "terry@example.com",
		Password:    "sup3r-secret",
		UseHashid:   true,
	})
	require.NoError(t, err)

	user, err := repo.Users().GetByIdentifier(context.Background(), "terry@example.com")
	require.NoError(t, err)
	require.Equal(t, session.RoleStudent, user.Role)
}

func TestSignupHandlerValidatesBeforePersisting(t *testing.T) {
	handler := session.NewSignupHandler(nil)

	err := handler.Execute(context.Background(), session.SignupMessage{
		DisplayName: "No Password",
		Email:       "nope@example.com",
	})
	require.ErrorIs(t, err, session.ErrInvalidCredentialsFormat)
}

func TestSignupHandlerFeatureGateDeniesSignup(t *testing.T) {
	stubGate := &stubFeatureGate{
		enabled: map[string]bool{
			gate.FeatureUsersSignup: false,
		},
	}

	handler := session.NewSignupHandler(nil).WithFeatureGate(stubGate)

	err := handler.Execute(context.Background(), session.SignupMessage{})
	require.ErrorIs(t, err, session.ErrSignupDisabled)
	require.Equal(t, []string{gate.FeatureUsersSignup}, stubGate.calls)
}

package session

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Logger accepts a message followed by alternating key/value attributes,
// slog style.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Identity is the provider's opaque reference to a signed-in user.
// Credentials have been verified; the application profile may not exist yet.
type Identity interface {
	ID() string
	Email() string
}

// AuthEventType enumerates events pushed by the authentication provider.
type AuthEventType string

const (
	// EventSignedIn is pushed when a session is established, including
	// sessions established outside this instance (another tab, token refresh).
	EventSignedIn AuthEventType = "signed-in"
	// EventSignedOut is pushed when the provider ends the session.
	EventSignedOut AuthEventType = "signed-out"
)

// AuthEventHandler receives provider-pushed events. The identity is nil for
// signed-out events.
type AuthEventHandler func(event AuthEventType, identity Identity)

// Subscription is the handle returned by Service.Subscribe.
type Subscription interface {
	Unsubscribe()
}

// ProfileUpdate carries the mutable profile fields for UpdateProfile.
// Nil fields are left untouched.
type ProfileUpdate struct {
	DisplayName *string
	Phone       *string
	Role        *UserRole
}

// Service is the contract the state machine consumes. It wraps an external
// identity provider: sign-up, sign-in, sign-out, session and profile access,
// plus a subscription for provider-pushed auth events.
//
// SignOut is a best-effort notification; callers reset local state whether or
// not it succeeds. GetSession returns (nil, nil) when no session exists, and
// GetProfile returns ErrProfileNotFound when the identity has no profile yet.
type Service interface {
	SignUp(ctx context.Context, email, password string) (Identity, error)
	SignIn(ctx context.Context, email, password string) (Identity, error)
	SignOut(ctx context.Context) error
	GetSession(ctx context.Context) (Identity, error)
	GetProfile(ctx context.Context, identityID string) (*Profile, error)
	UpdateProfile(ctx context.Context, identityID string, fields ProfileUpdate) (*Profile, error)
	Subscribe(handler AuthEventHandler) Subscription
}

// Config holds options for the local reference service.
type Config interface {
	GetSigningKey() string
	GetTokenExpiration() int
	GetIssuer() string
	GetAudience() []string
}

// IdentityRef is the plain Identity implementation used across the package.
type IdentityRef struct {
	UserID       string
	EmailAddress string
}

func (i IdentityRef) ID() string    { return i.UserID }
func (i IdentityRef) Email() string { return i.EmailAddress }

// UUID parses the identity ID as a UUID.
func (i IdentityRef) UUID() (uuid.UUID, error) {
	return uuid.Parse(i.UserID)
}

var _ Identity = IdentityRef{}

type defLogger struct{}

func (d defLogger) Error(msg string, args ...any) { logLine("ERR", msg, args) }
func (d defLogger) Warn(msg string, args ...any)  { logLine("WRN", msg, args) }
func (d defLogger) Info(msg string, args ...any)  { logLine("INF", msg, args) }
func (d defLogger) Debug(msg string, args ...any) { logLine("DBG", msg, args) }

func logLine(level, msg string, args []any) {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] SESSION %s", level, msg)
	for i := 0; i < len(args); i += 2 {
		if i+1 < len(args) {
			fmt.Fprintf(&b, " %v=%v", args[i], args[i+1])
		} else {
			fmt.Fprintf(&b, " %v=", args[i])
		}
	}
	fmt.Println(b.String())
}

package session

import (
	"context"
	"time"
)

// ActivityEventType enumerates supported activity categories.
type ActivityEventType string

const (
	ActivityEventRestoreSettled    ActivityEventType = "session.restore.settled"
	ActivityEventLoginSuccess      ActivityEventType = "session.login.success"
	ActivityEventLoginFailure      ActivityEventType = "session.login.failure"
	ActivityEventSignupSubmitted   ActivityEventType = "session.signup.submitted"
	ActivityEventSignupFailure     ActivityEventType = "session.signup.failure"
	ActivityEventLogout            ActivityEventType = "session.logout"
	ActivityEventProviderSignedIn  ActivityEventType = "session.provider.signed_in"
	ActivityEventProviderSignedOut ActivityEventType = "session.provider.signed_out"
)

// ActivityEvent captures audit-friendly information about a lifecycle change.
type ActivityEvent struct {
	EventType  ActivityEventType
	UserID     string
	FromStatus AuthStatus
	ToStatus   AuthStatus
	Metadata   map[string]any
	OccurredAt time.Time
}

// ActivitySink consumes activity events for auditing/telemetry purposes.
type ActivitySink interface {
	Record(ctx context.Context, event ActivityEvent) error
}

// ActivitySinkFunc adapts a function to the ActivitySink interface.
type ActivitySinkFunc func(ctx context.Context, event ActivityEvent) error

// Record implements ActivitySink.
func (f ActivitySinkFunc) Record(ctx context.Context, event ActivityEvent) error {
	if f == nil {
		return nil
	}
	return f(ctx, event)
}

type noopActivitySink struct{}

func (noopActivitySink) Record(context.Context, ActivityEvent) error {
	return nil
}

func normalizeActivitySink(s ActivitySink) ActivitySink {
	if s == nil {
		return noopActivitySink{}
	}
	return s
}

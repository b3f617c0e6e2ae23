package activitymap_test

import (
	"testing"
	"time"

	session "github.com/goliatone/go-session"
	"github.com/goliatone/go-session/activitymap"
)

func TestNormalizeDefaults(t *testing.T) {
	t.Parallel()

	ts := time.Date(2026, 1, 10, 9, 30, 0, 0, time.UTC)
	event := session.ActivityEvent{
		EventType:  session.ActivityEventLoginSuccess,
		UserID:     "user-100",
		FromStatus: session.StatusUnauthenticated,
		ToStatus:   session.StatusAuthenticated,
		Metadata: map[string]any{
			"team": "robotics",
		},
		OccurredAt: ts,
	}

	out := activitymap.Normalize(event)

	if out.ActorID != "user-100" {
		t.Fatalf("expected actor_id user-100, got %q", out.ActorID)
	}
	if out.Verb != string(session.ActivityEventLoginSuccess) {
		t.Fatalf("expected verb %q, got %q", session.ActivityEventLoginSuccess, out.Verb)
	}
	if out.ObjectType != "user" {
		t.Fatalf("expected object_type user, got %q", out.ObjectType)
	}
	if out.ObjectID != "user-100" {
		t.Fatalf("expected object_id user-100, got %q", out.ObjectID)
	}
	if out.Channel != "session" {
		t.Fatalf("expected channel session, got %q", out.Channel)
	}
	if !out.OccurredAt.Equal(ts) {
		t.Fatalf("expected occurred_at %v, got %v", ts, out.OccurredAt)
	}

	if out.Metadata["team"] != "robotics" {
		t.Fatalf("expected metadata team robotics, got %#v", out.Metadata["team"])
	}
	if out.Metadata[activitymap.MetadataKeyFromStatus] != string(session.StatusUnauthenticated) {
		t.Fatalf("expected metadata from_status, got %#v", out.Metadata[activitymap.MetadataKeyFromStatus])
	}
	if out.Metadata[activitymap.MetadataKeyToStatus] != string(session.StatusAuthenticated) {
		t.Fatalf("expected metadata to_status, got %#v", out.Metadata[activitymap.MetadataKeyToStatus])
	}
}

func TestNormalizeFallbacks(t *testing.T) {
	t.Parallel()

	event := session.ActivityEvent{
		EventType: session.ActivityEventRestoreSettled,
	}

	out := activitymap.Normalize(event)

	if out.ActorID != "system" {
		t.Fatalf("expected actor_id system, got %q", out.ActorID)
	}
	if out.ObjectID != "" {
		t.Fatalf("expected empty object_id, got %q", out.ObjectID)
	}
	if out.OccurredAt.IsZero() {
		t.Fatal("expected occurred_at to be filled in")
	}
}

func TestNormalizeOptions(t *testing.T) {
	t.Parallel()

	event := session.ActivityEvent{
		EventType: session.ActivityEventLogout,
		UserID:    "user-7",
	}

	out := activitymap.Normalize(event,
		activitymap.WithDefaultChannel("audit"),
		activitymap.WithDefaultObjectType("account"),
		activitymap.WithObjectIDResolver(func(e session.ActivityEvent) string {
			return "account:" + e.UserID
		}),
	)

	if out.Channel != "audit" {
		t.Fatalf("expected channel audit, got %q", out.Channel)
	}
	if out.ObjectType != "account" {
		t.Fatalf("expected object_type account, got %q", out.ObjectType)
	}
	if out.ObjectID != "account:user-7" {
		t.Fatalf("expected resolved object_id, got %q", out.ObjectID)
	}
}

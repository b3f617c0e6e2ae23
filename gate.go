package session

import (
	"context"

	goerrors "github.com/goliatone/go-errors"
)

// SnapshotSource is the read side of the state machine the gate consumes.
type SnapshotSource interface {
	Snapshot() Snapshot
	Settled() <-chan struct{}
}

// Gate suspends consumers until the state machine has settled once. It makes
// partially loaded auth unobservable: nothing role-sensitive runs before the
// machine has produced a definitive authenticated-or-not answer. Once open,
// the gate never closes again for the lifetime of the process.
type Gate struct {
	source SnapshotSource
}

// NewGate returns a gate over the given source.
func NewGate(source SnapshotSource) *Gate {
	return &Gate{source: source}
}

// Wait blocks until the source settles, then returns the settled snapshot.
// It returns an error only when ctx is done first.
func (g *Gate) Wait(ctx context.Context) (Snapshot, error) {
	select {
	case <-g.source.Settled():
		return g.source.Snapshot(), nil
	default:
	}

	select {
	case <-g.source.Settled():
		return g.source.Snapshot(), nil
	case <-ctx.Done():
		return Snapshot{Status: StatusInitializing}, goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"cancelled while waiting for session to settle",
		)
	}
}

// IsSettled reports whether the gate is open without blocking.
func (g *Gate) IsSettled() bool {
	select {
	case <-g.source.Settled():
		return true
	default:
		return false
	}
}

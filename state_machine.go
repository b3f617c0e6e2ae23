package session

import (
	"context"
	"sync"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

// StateMachine owns the single SessionState for a running application
// instance. It is the only writer; consumers read Snapshot copies and gate
// rendering on the Settled channel.
type StateMachine interface {
	Restore(ctx context.Context) (Snapshot, error)
	Login(ctx context.Context, email, password string, opts ...LoginOption) (Snapshot, error)
	Signup(ctx context.Context, name, email, password string, role UserRole) error
	Logout(ctx context.Context) error
	Snapshot() Snapshot
	OnChange(fn func(Snapshot)) func()
	Settled() <-chan struct{}
	Close()
}

// StateMachineOption customizes state machine construction.
type StateMachineOption func(*sessionStateMachine)

// WithStateMachineClock injects a custom clock (useful for tests).
func WithStateMachineClock(clock func() time.Time) StateMachineOption {
	return func(sm *sessionStateMachine) {
		if clock != nil {
			sm.now = clock
		}
	}
}

// WithStateMachineLogger overrides the logger used for sink and provider
// failures.
func WithStateMachineLogger(logger Logger) StateMachineOption {
	return func(sm *sessionStateMachine) {
		if logger != nil {
			sm.logger = logger
		}
	}
}

// WithStateMachineActivitySink sets the ActivitySink used to publish
// lifecycle events.
func WithStateMachineActivitySink(sink ActivitySink) StateMachineOption {
	return func(sm *sessionStateMachine) {
		sm.activitySink = normalizeActivitySink(sink)
	}
}

// WithDefaultRole overrides the role applied when an identity is confirmed
// but no profile could be read.
func WithDefaultRole(role UserRole) StateMachineOption {
	return func(sm *sessionStateMachine) {
		if ValidRole(role) {
			sm.defaultRole = role
		}
	}
}

// WithProfileFetchTimeout bounds the profile fetch that follows identity
// confirmation.
func WithProfileFetchTimeout(d time.Duration) StateMachineOption {
	return func(sm *sessionStateMachine) {
		if d > 0 {
			sm.profileTimeout = d
		}
	}
}

// LoginOption customizes a single Login call.
type LoginOption func(*loginOptions)

type loginOptions struct {
	pendingName string
	pendingRole UserRole
	hasPending  bool
}

// WithPendingProfile carries the display name and role collected during a
// prior signup step into the login that follows it. The machine pushes the
// profile update before settling, so Login never resolves with a stale
// profile.
func WithPendingProfile(name string, role UserRole) LoginOption {
	return func(opts *loginOptions) {
		opts.pendingName = name
		opts.pendingRole = role
		opts.hasPending = true
	}
}

// NewStateMachine returns a state machine bound to the provided service. The
// machine immediately subscribes to provider-pushed events; call Close to
// release the subscription.
func NewStateMachine(svc Service, opts ...StateMachineOption) StateMachine {
	sm := &sessionStateMachine{
		svc:            svc,
		state:          Snapshot{Status: StatusInitializing},
		settled:        make(chan struct{}),
		subscribers:    map[int]func(Snapshot){},
		now:            time.Now,
		logger:         defLogger{},
		activitySink:   noopActivitySink{},
		defaultRole:    DefaultRole(),
		profileTimeout: 10 * time.Second,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(sm)
		}
	}

	sm.sub = svc.Subscribe(sm.handleProviderEvent)

	return sm
}

type sessionStateMachine struct {
	svc Service

	mu       sync.Mutex
	notifyMu sync.Mutex
	state    Snapshot
	gen      uint64
	nextSub  int

	subscribers map[int]func(Snapshot)
	settled     chan struct{}
	settleOnce  sync.Once
	sub         Subscription

	now            func() time.Time
	logger         Logger
	activitySink   ActivitySink
	defaultRole    UserRole
	profileTimeout time.Duration
}

// begin opens a new generation. Any async result tagged with an older
// generation is stale and must not be applied.
func (sm *sessionStateMachine) begin() uint64 {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.gen++
	return sm.gen
}

// stale reports whether gen has been superseded by a newer generation.
func (sm *sessionStateMachine) stale(gen uint64) bool {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return gen != sm.gen
}

// commit applies mutate if gen is still current. It returns the resulting
// snapshot and whether the mutation was applied.
func (sm *sessionStateMachine) commit(gen uint64, mutate func(*Snapshot)) (Snapshot, bool) {
	sm.mu.Lock()
	if gen != sm.gen {
		snap := copySnapshot(sm.state)
		sm.mu.Unlock()
		return snap, false
	}

	mutate(&sm.state)
	snap := copySnapshot(sm.state)

	subs := make([]func(Snapshot), 0, len(sm.subscribers))
	for _, fn := range sm.subscribers {
		subs = append(subs, fn)
	}

	// Take the notify lock before releasing the state lock so racing
	// commits cannot deliver their snapshots out of commit order.
	sm.notifyMu.Lock()
	sm.mu.Unlock()

	if snap.IsSettled() {
		sm.settleOnce.Do(func() { close(sm.settled) })
	}

	for _, fn := range subs {
		fn(snap)
	}
	sm.notifyMu.Unlock()

	return snap, true
}

// Restore attempts to recover an existing session. It settles the machine on
// every path except caller cancellation: no session or a transport failure
// settles unauthenticated, a confirmed identity settles authenticated even
// when the profile fetch fails.
func (sm *sessionStateMachine) Restore(ctx context.Context) (Snapshot, error) {
	gen := sm.begin()

	identity, err := sm.svc.GetSession(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return sm.Snapshot(), goerrors.Wrap(ctx.Err(), goerrors.CategoryOperation, "restore cancelled")
		}

		lastErr := goerrors.Wrap(err, goerrors.CategoryOperation, "session restore failed")
		snap, applied := sm.commit(gen, func(s *Snapshot) {
			resetState(s)
			s.LastError = lastErr
		})
		if applied {
			sm.recordActivity(ctx, ActivityEvent{
				EventType: ActivityEventRestoreSettled,
				ToStatus:  StatusUnauthenticated,
				Metadata:  map[string]any{"error": err.Error()},
			})
		}
		return snap, nil
	}

	if identity == nil {
		snap, applied := sm.commit(gen, resetState)
		if applied {
			sm.recordActivity(ctx, ActivityEvent{
				EventType: ActivityEventRestoreSettled,
				ToStatus:  StatusUnauthenticated,
			})
		}
		return snap, nil
	}

	snap, applied := sm.settleAuthenticated(ctx, gen, identity)
	if applied {
		sm.recordActivity(ctx, ActivityEvent{
			EventType: ActivityEventRestoreSettled,
			UserID:    identity.ID(),
			ToStatus:  StatusAuthenticated,
		})
	}
	return snap, nil
}

// Login signs in and resolves only once the state has reached its final
// post-login shape: identity, profile, and role consistent.
func (sm *sessionStateMachine) Login(ctx context.Context, email, password string, opts ...LoginOption) (Snapshot, error) {
	options := &loginOptions{}
	for _, opt := range opts {
		if opt != nil {
			opt(options)
		}
	}

	gen := sm.begin()

	identity, err := sm.svc.SignIn(ctx, email, password)
	if err != nil {
		snap, _ := sm.commit(gen, func(s *Snapshot) {
			resetState(s)
			s.LastError = err
		})
		sm.recordActivity(ctx, ActivityEvent{
			EventType: ActivityEventLoginFailure,
			ToStatus:  snap.Status,
			Metadata:  map[string]any{"identifier": email, "error": err.Error()},
		})
		return snap, err
	}

	if identity == nil {
		snap, _ := sm.commit(gen, func(s *Snapshot) {
			resetState(s)
			s.LastError = ErrAccountNotFound
		})
		sm.recordActivity(ctx, ActivityEvent{
			EventType: ActivityEventLoginFailure,
			ToStatus:  snap.Status,
			Metadata:  map[string]any{"identifier": email, "error": ErrAccountNotFound.Error()},
		})
		return snap, ErrAccountNotFound
	}

	if options.hasPending {
		update := ProfileUpdate{}
		if options.pendingName != "" {
			update.DisplayName = &options.pendingName
		}
		if ValidRole(options.pendingRole) {
			update.Role = &options.pendingRole
		}
		if _, err := sm.svc.UpdateProfile(ctx, identity.ID(), update); err != nil {
			sm.logger.Warn("pending profile update failed", "user_id", identity.ID(), "error", err)
		}
	}

	// sign-in may have pushed a signed-in event that advanced the
	// generation; reopen so this login's settle is the newest outcome
	gen = sm.begin()

	snap, applied := sm.settleAuthenticated(ctx, gen, identity)
	if applied {
		sm.recordActivity(ctx, ActivityEvent{
			EventType: ActivityEventLoginSuccess,
			UserID:    identity.ID(),
			ToStatus:  StatusAuthenticated,
			Metadata:  map[string]any{"identifier": email},
		})
	}
	return snap, nil
}

// Signup submits an account request. It never authenticates: the provider may
// require confirmation before a session exists, so callers invoke Login
// separately, carrying name and role via WithPendingProfile.
func (sm *sessionStateMachine) Signup(ctx context.Context, name, email, password string, role UserRole) error {
	if err := ValidateSignup(name, email, password, role); err != nil {
		sm.recordActivity(ctx, ActivityEvent{
			EventType: ActivityEventSignupFailure,
			Metadata:  map[string]any{"identifier": email, "error": err.Error()},
		})
		return err
	}

	if _, err := sm.svc.SignUp(ctx, email, password); err != nil {
		sm.recordActivity(ctx, ActivityEvent{
			EventType: ActivityEventSignupFailure,
			Metadata:  map[string]any{"identifier": email, "error": err.Error()},
		})
		return err
	}

	sm.recordActivity(ctx, ActivityEvent{
		EventType: ActivityEventSignupSubmitted,
		Metadata:  map[string]any{"identifier": email, "role": role},
	})

	return nil
}

// Logout resets local state first and notifies the provider best-effort: the
// local session ends whether or not the remote call succeeds. Calling Logout
// while already unauthenticated is a no-op.
func (sm *sessionStateMachine) Logout(ctx context.Context) error {
	gen := sm.begin()

	var from AuthStatus
	var userID string
	snap, _ := sm.commit(gen, func(s *Snapshot) {
		from = s.Status
		if s.Identity != nil {
			userID = s.Identity.ID()
		}
		resetState(s)
	})

	// No session means nothing to end on the provider side; repeated
	// logouts stay local.
	if from != StatusUnauthenticated {
		if err := sm.svc.SignOut(ctx); err != nil {
			sm.logger.Warn("provider sign-out failed, local session already ended", "error", err)
		}
	}

	if from == StatusAuthenticated {
		sm.recordActivity(ctx, ActivityEvent{
			EventType:  ActivityEventLogout,
			UserID:     userID,
			FromStatus: from,
			ToStatus:   snap.Status,
		})
	}

	return nil
}

// Snapshot returns a read-only copy of the current state.
func (sm *sessionStateMachine) Snapshot() Snapshot {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return copySnapshot(sm.state)
}

// OnChange registers a callback invoked after every applied state change.
// Callbacks run synchronously in commit order on the mutating goroutine and
// must not call back into the machine. The returned function cancels the
// registration.
func (sm *sessionStateMachine) OnChange(fn func(Snapshot)) func() {
	if fn == nil {
		return func() {}
	}

	sm.mu.Lock()
	sm.nextSub++
	id := sm.nextSub
	sm.subscribers[id] = fn
	sm.mu.Unlock()

	return func() {
		sm.mu.Lock()
		delete(sm.subscribers, id)
		sm.mu.Unlock()
	}
}

// Settled is closed once the machine first leaves StatusInitializing. It is
// never re-opened.
func (sm *sessionStateMachine) Settled() <-chan struct{} {
	return sm.settled
}

// Close releases the provider event subscription.
func (sm *sessionStateMachine) Close() {
	if sm.sub != nil {
		sm.sub.Unsubscribe()
	}
}

// handleProviderEvent applies session changes that originate outside this
// instance. Event outcomes are authoritative: opening a new generation here
// invalidates any in-flight restore or login.
func (sm *sessionStateMachine) handleProviderEvent(event AuthEventType, identity Identity) {
	ctx := context.Background()

	switch event {
	case EventSignedIn:
		if identity == nil {
			sm.logger.Warn("ignoring signed-in event without identity")
			return
		}
		gen := sm.begin()
		snap, applied := sm.settleAuthenticated(ctx, gen, identity)
		if applied {
			sm.recordActivity(ctx, ActivityEvent{
				EventType: ActivityEventProviderSignedIn,
				UserID:    identity.ID(),
				ToStatus:  snap.Status,
			})
		}
	case EventSignedOut:
		gen := sm.begin()
		var from AuthStatus
		snap, applied := sm.commit(gen, func(s *Snapshot) {
			from = s.Status
			resetState(s)
		})
		if applied {
			sm.recordActivity(ctx, ActivityEvent{
				EventType:  ActivityEventProviderSignedOut,
				FromStatus: from,
				ToStatus:   snap.Status,
			})
		}
	default:
		sm.logger.Debug("ignoring unknown provider event", "event", event)
	}
}

// settleAuthenticated fetches the profile for a confirmed identity and
// settles. A failed fetch still settles authenticated with the default role;
// remaining stuck in initializing is not an acceptable failure mode.
func (sm *sessionStateMachine) settleAuthenticated(ctx context.Context, gen uint64, identity Identity) (Snapshot, bool) {
	// A superseded generation can never commit; skip the profile fetch so a
	// dead restore does not hit the provider for a session that ended.
	if sm.stale(gen) {
		return sm.Snapshot(), false
	}

	profile, err := sm.fetchProfile(ctx, identity.ID())

	return sm.commit(gen, func(s *Snapshot) {
		s.Status = StatusAuthenticated
		s.Identity = identity
		s.Profile = profile
		s.LastError = nil

		if profile != nil && ValidRole(profile.Role) {
			s.Role = profile.Role
		} else {
			s.Role = sm.defaultRole
		}

		if err != nil {
			s.LastError = err
			sm.logger.Warn("profile fetch failed, settling with default role",
				"user_id", identity.ID(), "role", s.Role, "error", err)
		}
	})
}

func (sm *sessionStateMachine) fetchProfile(ctx context.Context, identityID string) (*Profile, error) {
	ctx, cancel := context.WithTimeout(ctx, sm.profileTimeout)
	defer cancel()

	profile, err := sm.svc.GetProfile(ctx, identityID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, ErrProfileNotFound
	}
	return profile, nil
}

func (sm *sessionStateMachine) recordActivity(ctx context.Context, event ActivityEvent) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = sm.now()
	}

	sink := normalizeActivitySink(sm.activitySink)
	if err := sink.Record(ctx, event); err != nil {
		sm.logger.Warn("activity sink record failed", "error", err)
	}
}

func resetState(s *Snapshot) {
	s.Status = StatusUnauthenticated
	s.Identity = nil
	s.Profile = nil
	s.Role = ""
	s.LastError = nil
}

func copySnapshot(s Snapshot) Snapshot {
	out := s
	if s.Profile != nil {
		profile := *s.Profile
		out.Profile = &profile
	}
	return out
}

package session

import (
	"context"
	"sync"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
)

// MaxLoginAttempts is the maximum number of attempts a user gets
// in a period
var MaxLoginAttempts = 5

// CoolDownPeriod is the period in which we enforce a cool down
var CoolDownPeriod = 24 * time.Hour

// ErrTooManyLoginAttempts is returned while an account is cooling down.
var ErrTooManyLoginAttempts = goerrors.New("too many login attempts", goerrors.CategoryRateLimit).
	WithTextCode("TOO_MANY_LOGIN_ATTEMPTS")

// LocalService is the in-process reference implementation of Service: a
// bun-backed account store, bcrypt credential checks, and JWT session
// tokens. Signed-in/signed-out events fan out to subscribers the way a
// hosted provider pushes cross-tab session changes.
type LocalService struct {
	users  Users
	tokens TokenService
	logger Logger

	mu           sync.Mutex
	currentToken string
	handlers     map[int]AuthEventHandler
	nextSub      int
}

// LocalServiceOption customizes the local service.
type LocalServiceOption func(*LocalService)

// WithLocalServiceLogger overrides the default logger.
func WithLocalServiceLogger(logger Logger) LocalServiceOption {
	return func(s *LocalService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithLocalServiceTokenService injects a custom token service.
func WithLocalServiceTokenService(tokens TokenService) LocalServiceOption {
	return func(s *LocalService) {
		if tokens != nil {
			s.tokens = tokens
		}
	}
}

// NewLocalService builds a local service over the given store.
func NewLocalService(users Users, cfg Config, opts ...LocalServiceOption) *LocalService {
	s := &LocalService{
		users:    users,
		logger:   defLogger{},
		handlers: map[int]AuthEventHandler{},
	}

	s.tokens = NewTokenService(
		[]byte(cfg.GetSigningKey()),
		cfg.GetTokenExpiration(),
		cfg.GetIssuer(),
		cfg.GetAudience(),
		s.logger,
	)

	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}

	return s
}

var _ Service = (*LocalService)(nil)

// SignUp registers a new account. It does not establish a session: the
// account exists but the caller still has to sign in.
func (s *LocalService) SignUp(ctx context.Context, email, password string) (Identity, error) {
	if err := ValidateCredentials(email, password); err != nil {
		return nil, err
	}

	if _, err := s.users.GetByIdentifier(ctx, email); err == nil {
		return nil, ErrAccountExists.WithMetadata(map[string]any{"email": email})
	} else if !repository.IsRecordNotFound(err) {
		return nil, serviceUnavailable(err)
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
	}

	user := &User{
		Email:        email,
		PasswordHash: hash,
	}
	if id, err := hashid.NewUUID(email); err == nil {
		user.ID = id
	}

	if user, err = s.users.Register(ctx, user); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryConflict, "could not create account")
	}

	return NewIdentityFromUser(user), nil
}

// SignIn verifies credentials, mints a session token, and notifies
// subscribers.
func (s *LocalService) SignIn(ctx context.Context, email, password string) (Identity, error) {
	user, err := s.users.GetByIdentifier(ctx, email)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrAccountNotFound.WithMetadata(map[string]any{"email": email})
		}
		return nil, serviceUnavailable(err)
	}

	if user.LoginAttemptAt != nil && time.Since(*user.LoginAttemptAt) > CoolDownPeriod {
		user.LoginAttempts = 0
	}

	if user.LoginAttempts > MaxLoginAttempts {
		return nil, ErrTooManyLoginAttempts
	}

	if err := ComparePasswordAndHash(password, user.PasswordHash); err != nil {
		if err2 := s.users.TrackAttemptedLogin(ctx, user); err2 != nil {
			return nil, goerrors.Wrap(err2, goerrors.CategoryInternal, "failed to track login attempt")
		}
		return nil, ErrInvalidCredentials
	}

	if err := s.users.TrackSuccessfulLogin(ctx, user); err != nil {
		s.logger.Error("failed to track successful login", "error", err)
	}

	identity := NewIdentityFromUser(user)

	token, err := s.tokens.Generate(ctx, identity, user.Role)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to mint session token")
	}

	s.mu.Lock()
	s.currentToken = token
	s.mu.Unlock()

	s.broadcast(EventSignedIn, identity)

	return identity, nil
}

// SignOut ends the local session and notifies subscribers. It never fails:
// there is no remote party to refuse.
func (s *LocalService) SignOut(ctx context.Context) error {
	s.mu.Lock()
	had := s.currentToken != ""
	s.currentToken = ""
	s.mu.Unlock()

	if had {
		s.broadcast(EventSignedOut, nil)
	}

	return nil
}

// GetSession returns the identity behind the current session token, or
// (nil, nil) when there is none. Expired or unreadable tokens count as no
// session.
func (s *LocalService) GetSession(ctx context.Context) (Identity, error) {
	s.mu.Lock()
	token := s.currentToken
	s.mu.Unlock()

	if token == "" {
		return nil, nil
	}

	claims, err := s.tokens.Validate(token)
	if err != nil {
		s.logger.Debug("discarding unusable session token", "error", err)
		s.mu.Lock()
		if s.currentToken == token {
			s.currentToken = ""
		}
		s.mu.Unlock()
		return nil, nil
	}

	return IdentityFromClaims(claims), nil
}

// GetProfile resolves the application profile for an identity.
func (s *LocalService) GetProfile(ctx context.Context, identityID string) (*Profile, error) {
	user, err := s.users.GetByIdentifier(ctx, identityID)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrProfileNotFound.WithMetadata(map[string]any{"identity_id": identityID})
		}
		return nil, serviceUnavailable(err)
	}

	return user.AsProfile(), nil
}

// UpdateProfile applies the given fields and returns the fresh profile.
func (s *LocalService) UpdateProfile(ctx context.Context, identityID string, fields ProfileUpdate) (*Profile, error) {
	id, err := uuid.Parse(identityID)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryBadInput, "identity id is not a UUID")
	}

	if fields.Role != nil && !ValidRole(*fields.Role) {
		return nil, goerrors.New("unknown role", goerrors.CategoryValidation).
			WithMetadata(map[string]any{"role": *fields.Role})
	}

	if fields.Phone != nil {
		if err := ValidatePhone(*fields.Phone); err != nil {
			return nil, err
		}
	}

	user, err := s.users.UpdateProfileFields(ctx, id, fields)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrProfileNotFound.WithMetadata(map[string]any{"identity_id": identityID})
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to update profile")
	}

	return user.AsProfile(), nil
}

// Subscribe registers a handler for signed-in/signed-out events.
func (s *LocalService) Subscribe(handler AuthEventHandler) Subscription {
	if handler == nil {
		return subscriptionFunc(func() {})
	}

	s.mu.Lock()
	s.nextSub++
	id := s.nextSub
	s.handlers[id] = handler
	s.mu.Unlock()

	return subscriptionFunc(func() {
		s.mu.Lock()
		delete(s.handlers, id)
		s.mu.Unlock()
	})
}

// broadcast delivers synchronously, outside the service lock. Handlers (the
// state machine included) may re-enter the service.
func (s *LocalService) broadcast(event AuthEventType, identity Identity) {
	s.mu.Lock()
	handlers := make([]AuthEventHandler, 0, len(s.handlers))
	for _, h := range s.handlers {
		handlers = append(handlers, h)
	}
	s.mu.Unlock()

	for _, h := range handlers {
		h(event, identity)
	}
}

type subscriptionFunc func()

func (f subscriptionFunc) Unsubscribe() {
	if f != nil {
		f()
	}
}

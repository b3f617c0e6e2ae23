package session

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-featuregate/gate"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/uptrace/bun"
)

// SignupMessage registers a new account record through the command bus.
type SignupMessage struct {
	DisplayName string   `json:"display_name"`
	Email       string   `json:"email"`
	Phone       string   `json:"phone_number"`
	Role        UserRole `json:"user_role"`
	Password    string   `json:"password"`
	UseHashid   bool
}

func (e SignupMessage) Type() string { return "session.signup" }

// SignupHandler persists new accounts inside a transaction. An optional
// feature gate can turn signups off without redeploying.
type SignupHandler struct {
	repo        RepositoryManager
	featureGate gate.FeatureGate
}

func NewSignupHandler(repo RepositoryManager) *SignupHandler {
	return &SignupHandler{repo: repo}
}

func (h *SignupHandler) WithFeatureGate(featureGate gate.FeatureGate) *SignupHandler {
	h.featureGate = featureGate
	return h
}

func (h *SignupHandler) Execute(ctx context.Context, event SignupMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during signup",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *SignupHandler) execute(ctx context.Context, event SignupMessage) error {
	if h.featureGate != nil {
		if err := requireSignupGate(ctx, h.featureGate); err != nil {
			return err
		}
	}

	role := event.Role
	if role == "" {
		role = DefaultRole()
	}

	if err := ValidateSignup(event.DisplayName, event.Email, event.Password, role); err != nil {
		return err
	}

	user := &User{}
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		hash, err := HashPassword(event.Password)
		if err != nil {
			var richErr *goerrors.Error
			if goerrors.As(err, &richErr) {
				return goerrors.Wrap(richErr, goerrors.CategoryValidation, "invalid password provided")
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
		}

		user.PasswordHash = hash
		user.Email = event.Email
		user.Phone = event.Phone
		user.DisplayName = event.DisplayName
		user.Role = role
		if event.UseHashid {
			if id, err := hashid.NewUUID(event.Email); err == nil {
				user.ID = id
			}
		}

		if user, err = h.repo.Users().CreateTx(ctx, tx, user); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryConflict, "could not create user")
		}

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}

		return goerrors.Wrap(err, goerrors.CategoryInternal, "signup transaction failed")
	}

	return nil
}

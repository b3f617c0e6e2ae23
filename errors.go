package session

import (
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	textCodeInvalidCredentials = "INVALID_CREDENTIALS"
	textCodeCredentialsFormat  = "INVALID_CREDENTIALS_FORMAT"
	textCodeAccountExists      = "ACCOUNT_EXISTS"
	textCodeAccountNotFound    = "ACCOUNT_NOT_FOUND"
	textCodeServiceUnavailable = "SERVICE_UNAVAILABLE"
	textCodeProfileNotFound    = "PROFILE_NOT_FOUND"
	textCodeSignupDisabled     = "SIGNUP_DISABLED"
	textCodeImmutableClaim     = "IMMUTABLE_CLAIM_MUTATION"
)

// ErrInvalidCredentials is returned when the provider rejects an
// email/password pair.
var ErrInvalidCredentials = goerrors.New("invalid email or password", goerrors.CategoryAuth).
	WithTextCode(textCodeInvalidCredentials)

// ErrInvalidCredentialsFormat is returned before any provider round trip when
// the submitted credentials are not even well formed.
var ErrInvalidCredentialsFormat = goerrors.New("credentials are malformed", goerrors.CategoryValidation).
	WithTextCode(textCodeCredentialsFormat).
	WithCode(goerrors.CodeBadRequest)

// ErrAccountExists is returned on signup for an already registered email.
var ErrAccountExists = goerrors.New("an account already exists for this email", goerrors.CategoryConflict).
	WithTextCode(textCodeAccountExists).
	WithCode(goerrors.CodeConflict)

// ErrAccountNotFound is returned when no account matches the identifier.
var ErrAccountNotFound = goerrors.New("account not found", goerrors.CategoryNotFound).
	WithTextCode(textCodeAccountNotFound).
	WithCode(goerrors.CodeNotFound)

// ErrServiceUnavailable wraps transient provider failures. The state machine
// absorbs these into a settled (possibly degraded) state instead of
// surfacing them to views.
var ErrServiceUnavailable = goerrors.New("authentication service unavailable", goerrors.CategoryOperation).
	WithTextCode(textCodeServiceUnavailable)

// ErrImmutableClaimMutation is returned when a claims decorator touches a
// registered or identity claim.
var ErrImmutableClaimMutation = goerrors.New("immutable claim mutated", goerrors.CategoryInternal).
	WithTextCode(textCodeImmutableClaim)

// ErrSignupDisabled is returned when the signup feature flag is off.
var ErrSignupDisabled = goerrors.New("signup is disabled", goerrors.CategoryAuthz).
	WithTextCode(textCodeSignupDisabled).
	WithCode(goerrors.CodeForbidden)

// ErrProfileNotFound is returned when an identity exists but no application
// profile has been stored for it.
var ErrProfileNotFound = goerrors.New("profile not found", goerrors.CategoryNotFound).
	WithTextCode(textCodeProfileNotFound).
	WithCode(goerrors.CodeNotFound)

// IsCredentialError reports whether err is one of the failures a login or
// signup form should display to the user.
func IsCredentialError(err error) bool {
	if err == nil {
		return false
	}
	return goerrors.Is(err, ErrInvalidCredentials) ||
		goerrors.Is(err, ErrInvalidCredentialsFormat) ||
		goerrors.Is(err, ErrAccountExists) ||
		goerrors.Is(err, ErrAccountNotFound)
}

// IsExpiredError will check for error message
func IsExpiredError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError will check for error message
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed JWT")
}

// IsServiceUnavailable reports whether err is a transient provider failure.
func IsServiceUnavailable(err error) bool {
	if err == nil {
		return false
	}
	return goerrors.Is(err, ErrServiceUnavailable)
}

func serviceUnavailable(cause error) error {
	clone := ErrServiceUnavailable.Clone()
	if clone == nil {
		return ErrServiceUnavailable
	}
	clone.Source = ErrServiceUnavailable
	return clone.WithMetadata(map[string]any{"cause": cause.Error()})
}

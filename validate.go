package session

import (
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/nyaruka/phonenumbers"
)

// DefaultPhoneRegion is the region used to parse phone numbers submitted
// without a country prefix.
var DefaultPhoneRegion = "US"

type credentialsPayload struct {
	Email    string
	Password string
}

func (c credentialsPayload) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Email, validation.Required, validation.Length(6, 100), is.Email),
		validation.Field(&c.Password, validation.Required, validation.Length(8, 100)),
	)
}

// ValidateCredentials checks email/password shape before any provider round
// trip. Failures map to ErrInvalidCredentialsFormat.
func ValidateCredentials(email, password string) error {
	if err := (credentialsPayload{Email: email, Password: password}).Validate(); err != nil {
		return credentialsFormatViolation(err)
	}
	return nil
}

type signupPayload struct {
	Name     string
	Email    string
	Password string
	Role     string
}

func (s signupPayload) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&s.Email, validation.Required, validation.Length(6, 100), is.Email),
		validation.Field(&s.Password, validation.Required, validation.Length(8, 100)),
		validation.Field(&s.Role, validation.Required, validation.By(validateRole)),
	)
}

// ValidateSignup checks the whole signup payload, role included.
func ValidateSignup(name, email, password string, role UserRole) error {
	payload := signupPayload{Name: name, Email: email, Password: password, Role: string(role)}
	if err := payload.Validate(); err != nil {
		return credentialsFormatViolation(err)
	}
	return nil
}

func credentialsFormatViolation(cause error) error {
	clone := ErrInvalidCredentialsFormat.Clone()
	if clone == nil {
		return ErrInvalidCredentialsFormat
	}
	clone.Source = ErrInvalidCredentialsFormat
	return clone.WithMetadata(map[string]any{"validation": cause.Error()})
}

func validateRole(value any) error {
	role, _ := value.(string)
	if !ValidRole(UserRole(role)) {
		return goerrors.New("unknown role", goerrors.CategoryValidation).
			WithMetadata(map[string]any{"role": role})
	}
	return nil
}

// ValidatePhone parses the number and rejects anything that is not valid for
// its region. Empty numbers are allowed; phone is an optional profile field.
func ValidatePhone(phone string) error {
	if phone == "" {
		return nil
	}

	parsed, err := phonenumbers.Parse(phone, DefaultPhoneRegion)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "could not parse phone number").
			WithMetadata(map[string]any{"phone": phone})
	}

	if !phonenumbers.IsValidNumber(parsed) {
		return goerrors.New("invalid phone number", goerrors.CategoryValidation).
			WithMetadata(map[string]any{"phone": phone})
	}

	return nil
}

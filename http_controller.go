package session

import (
	"errors"
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
	"github.com/goliatone/go-router/flash"
)

// RegisterSessionRoutes mounts the login, logout, and signup routes on the
// given router.
func RegisterSessionRoutes[T any](app router.Router[T], opts ...SessionControllerOption) {

	controller := NewSessionController(opts...)

	app.
		Get(controller.Routes.Login,
			controller.LoginShow,
		).
		SetName("sign-in.get")

	app.
		Post(
			controller.Routes.Login,
			controller.LoginPost,
		).
		SetName("sign-in.post")

	app.Get(controller.Routes.Logout, controller.Logout).SetName("sign-out.get")

	app.Get(controller.Routes.Signup, controller.SignupShow).
		SetName("sign-up.get")
	app.Post(controller.Routes.Signup, controller.SignupCreate).
		SetName("sign-up.post")
}

type SessionControllerRoutes struct {
	Login  string
	Logout string
	Signup string
}

type SessionControllerViews struct {
	Login  string
	Signup string
}

// SessionController serves the browser-facing login, logout, and signup
// views. All session transitions go through the state machine so rendered
// pages only ever observe settled snapshots.
type SessionController struct {
	Debug        bool
	Logger       Logger
	Machine      StateMachine
	Guard        *RouteGuard
	Routes       *SessionControllerRoutes
	Views        *SessionControllerViews
	ErrorHandler router.ErrorHandler
}

type SessionControllerOption func(*SessionController) *SessionController

// WithControllerMachine sets the state machine driving session transitions.
func WithControllerMachine(machine StateMachine) SessionControllerOption {
	return func(c *SessionController) *SessionController {
		c.Machine = machine
		return c
	}
}

// WithControllerGuard sets the route guard used to resolve post-login
// destinations.
func WithControllerGuard(guard *RouteGuard) SessionControllerOption {
	return func(c *SessionController) *SessionController {
		c.Guard = guard
		return c
	}
}

// WithControllerLogger overrides the default logger.
func WithControllerLogger(logger Logger) SessionControllerOption {
	return func(c *SessionController) *SessionController {
		if logger != nil {
			c.Logger = logger
		}
		return c
	}
}

// WithControllerRoutes overrides the default route paths.
func WithControllerRoutes(routes *SessionControllerRoutes) SessionControllerOption {
	return func(c *SessionController) *SessionController {
		if routes != nil {
			c.Routes = routes
		}
		return c
	}
}

// WithControllerViews overrides the default view names.
func WithControllerViews(views *SessionControllerViews) SessionControllerOption {
	return func(c *SessionController) *SessionController {
		if views != nil {
			c.Views = views
		}
		return c
	}
}

func NewSessionController(opts ...SessionControllerOption) *SessionController {
	c := &SessionController{
		Logger:       defLogger{},
		ErrorHandler: defaultControllerErrHandler,
		Routes: &SessionControllerRoutes{
			Login:  "/login",
			Logout: "/logout",
			Signup: "/signup",
		},
		Views: &SessionControllerViews{
			Login:  "login",
			Signup: "signup",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Machine == nil {
		panic("Missing StateMachine in session controller...")
	}

	if c.Guard == nil {
		panic("Missing RouteGuard in session controller...")
	}

	return c
}

func (a *SessionController) LoginShow(ctx router.Context) error {
	return ctx.Render(a.Views.Login, router.ViewContext{
		"errors": nil,
		"record": nil,
	})
}

// LoginRequest payload. DisplayName and Role are optional: a signup flow
// carries them through hidden fields so the first login can apply the
// pending profile.
type LoginRequest struct {
	Identifier  string `form:"identifier" json:"identifier"`
	Password    string `form:"password" json:"password"`
	DisplayName string `form:"display_name" json:"display_name"`
	Role        string `form:"user_role" json:"user_role"`
	RememberMe  bool   `form:"remember_me" json:"remember_me"`
}

// GetIdentifier returns the identifier
func (r LoginRequest) GetIdentifier() string {
	return r.Identifier
}

// GetPassword will return the password
func (r LoginRequest) GetPassword() string {
	return r.Password
}

// GetExtendedSession will return the remember-me flag
func (r LoginRequest) GetExtendedSession() bool {
	return r.RememberMe
}

// Validate will run validation rules
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Identifier,
			validation.Required,
			is.Email,
		),
		validation.Field(
			&r.Password,
			validation.Required,
		),
	)
}

func (a *SessionController) LoginPost(ctx router.Context) error {
	payload := new(LoginRequest)
	errs := map[string]string{}

	if err := ctx.Bind(payload); err != nil {
		return a.ErrorHandler(ctx, err)
	}

	if err := payload.Validate(); err != nil {
		return ctx.Render(a.Views.Login, router.ViewContext{
			"record":     payload,
			"validation": FormatValidationErrorToMap(err),
		})
	}

	if a.Debug {
		fmt.Println("======= SESSION LOGIN ======")
		fmt.Println(print.MaybePrettyJSON(payload))
		fmt.Println("============================")
	}

	var opts []LoginOption
	if payload.DisplayName != "" || ValidRole(payload.Role) {
		opts = append(opts, WithPendingProfile(payload.DisplayName, payload.Role))
	}

	if _, err := a.Machine.Login(ctx.Context(), payload.Identifier, payload.Password, opts...); err != nil {
		if !IsCredentialError(err) {
			a.Logger.Error("login failed", "identifier", payload.Identifier, "error", err)
		}
		errs["authentication"] = "Authentication Error"
		return ctx.Render(a.Views.Login, router.ViewContext{
			"errors":  errs,
			"payload": payload,
		})
	}

	redirect := a.Guard.GetRedirectOrDefault(ctx)

	return ctx.Redirect(redirect, router.StatusSeeOther)
}

func (a *SessionController) Logout(ctx router.Context) error {
	if err := a.Machine.Logout(ctx.Context()); err != nil {
		a.Logger.Warn("logout error", "error", err)
	}
	return ctx.Redirect("/", router.StatusTemporaryRedirect)
}

func (a *SessionController) SignupShow(ctx router.Context) error {
	return ctx.Render(a.Views.Signup, router.ViewContext{
		"errors": map[string]string{},
		"record": SignupCreatePayload{},
	})
}

// SignupCreatePayload is the form payload
type SignupCreatePayload struct {
	DisplayName     string `form:"display_name" json:"display_name"`
	Email           string `form:"email" json:"email"`
	Phone           string `form:"phone_number" json:"phone_number"`
	Role            string `form:"user_role" json:"user_role"`
	Password        string `form:"password" json:"password"`
	ConfirmPassword string `form:"confirm_password" json:"confirm_password"`
}

// Validate will validate the payload
func (r SignupCreatePayload) Validate() error {

	return validation.ValidateStruct(&r,
		validation.Field(&r.DisplayName, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Email, validation.Required, validation.Length(6, 100), is.Email),
		validation.Field(&r.Role, validation.In(RoleStudent, RoleMentor)),
		validation.Field(&r.Password, validation.Required, validation.Length(10, 100)),
		validation.Field(
			&r.ConfirmPassword,
			validation.Required,
			validation.Length(10, 100),
			validation.By(ValidateStringEquals(r.Password)),
		),
	)
}

func (a *SessionController) SignupCreate(ctx router.Context) error {
	payload := new(SignupCreatePayload)

	if err := ctx.Bind(payload); err != nil {
		errs := map[string]string{}
		errs["form"] = "Failed to parse form"
		a.Logger.Error("signup payload parse failed", "error", err)
		return flash.WithError(ctx, router.ViewContext{
			"error_message":  err.Error(),
			"system_message": "Error parsing body",
		}).Status(fiber.StatusBadRequest).Render(a.Views.Signup, router.ViewContext{
			"errors": errs,
			"record": payload,
		})
	}

	if err := payload.Validate(); err != nil {
		errs := FormatValidationErrorToMap(err)
		a.Logger.Error("signup payload validation failed", "error", err)

		return flash.WithError(ctx, router.ViewContext{
			"error_message":  err.Error(),
			"system_message": "Error validating payload",
		}).Render(a.Views.Signup, router.ViewContext{
			"record":     payload,
			"validation": errs,
		})
	}

	role := UserRole(payload.Role)
	if role == "" {
		role = DefaultRole()
	}

	if err := a.Machine.Signup(ctx.Context(), payload.DisplayName, payload.Email, payload.Password, role); err != nil {
		a.Logger.Error("signup failed", "error", err)

		return flash.WithError(ctx, router.ViewContext{
			"error_message":  err.Error(),
			"system_message": "Error creating account",
		}).Render(a.Views.Signup, router.ViewContext{
			"record": payload,
			"errors": []string{err.Error()},
		})
	}

	return flash.WithSuccess(ctx, router.ViewContext{
		"system_message": "Account created, sign in to continue",
	}).Redirect(a.Routes.Login, fiber.StatusSeeOther)
}

// ValidateStringEquals will check that both values match
func ValidateStringEquals(str string) validation.RuleFunc {
	return func(value any) error {
		s, _ := value.(string)
		if s != str {
			return errors.New("values must match")
		}
		return nil
	}
}

// FormatValidationErrorToMap flattens ozzo validation errors into a
// field-to-message map for templates.
func FormatValidationErrorToMap(err error) map[string]string {
	out := map[string]string{}
	if err == nil {
		return out
	}

	var verrs validation.Errors
	if errors.As(err, &verrs) {
		for field, ferr := range verrs {
			if ferr != nil {
				out[field] = ferr.Error()
			}
		}
		return out
	}

	out["error"] = err.Error()
	return out
}

func defaultControllerErrHandler(c router.Context, err error) error {
	return c.Render("errors/500", router.ViewContext{
		"message": err.Error(),
	})
}

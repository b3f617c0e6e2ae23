package session

import (
	"net/http"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
)

// RouteGuardConfig holds the routes and keys the guard works with.
type RouteGuardConfig struct {
	// LoginRoute receives unauthenticated visitors.
	LoginRoute string
	// HomeRoute receives authenticated users with the wrong role.
	HomeRoute string
	// ContextKey is the router locals key the settled snapshot is stored
	// under.
	ContextKey string
	// RejectedRouteKey is the cookie used to send visitors back to the view
	// they originally requested after login.
	RejectedRouteKey string
}

func (c RouteGuardConfig) withDefaults() RouteGuardConfig {
	if c.LoginRoute == "" {
		c.LoginRoute = "/login"
	}
	if c.HomeRoute == "" {
		c.HomeRoute = "/"
	}
	if c.ContextKey == "" {
		c.ContextKey = "session"
	}
	if c.RejectedRouteKey == "" {
		c.RejectedRouteKey = "rejected_route"
	}
	return c
}

// RouteGuard enforces the access policy on router routes. It waits on the
// gate so no handler ever sees an unsettled session, then maps Authorize
// decisions to redirects. All redirects happen here; the policy itself stays
// pure.
type RouteGuard struct {
	gate         *Gate
	cfg          RouteGuardConfig
	Logger       Logger
	ErrorHandler func(c router.Context, err error) error
}

// NewRouteGuard builds a guard over the given gate.
func NewRouteGuard(gate *Gate, cfg RouteGuardConfig) *RouteGuard {
	g := &RouteGuard{
		gate:   gate,
		cfg:    cfg.withDefaults(),
		Logger: defLogger{},
	}

	g.ErrorHandler = g.defaultErrHandler

	return g
}

// Protected gates a route behind the access policy. With no role the check
// is membership only; with a role the settled snapshot must match it.
func (g *RouteGuard) Protected(required ...UserRole) router.MiddlewareFunc {
	return func(hf router.HandlerFunc) router.HandlerFunc {
		return func(c router.Context) error {
			snap, err := g.gate.Wait(c.Context())
			if err != nil {
				return g.ErrorHandler(c, err)
			}

			switch decision := Authorize(snap, required...); decision {
			case DecisionAllow:
				c.Locals(g.cfg.ContextKey, snap)
				c.SetContext(WithContext(c.Context(), snap))
				return hf(c)
			case DecisionRedirectToHome:
				g.Logger.Info(
					"role mismatch, redirecting home",
					"required", required,
					"role", snap.Role,
					"path", c.OriginalURL(),
				)
				return c.Redirect(g.cfg.HomeRoute, redirectStatus(c))
			default:
				g.SetRedirect(c)
				return c.Redirect(g.cfg.LoginRoute, redirectStatus(c))
			}
		}
	}
}

// GetRedirect returns and clears the stored rejected route, falling back to
// def.
func (g *RouteGuard) GetRedirect(ctx router.Context, def ...string) string {
	r := ctx.Cookies(g.cfg.RejectedRouteKey)
	if r == "" {
		return def[0]
	}
	g.cookieDel(ctx, g.cfg.RejectedRouteKey)
	return r
}

// GetRedirectOrDefault resolves the post-login destination: stored rejected
// route, then referer, then home.
func (g *RouteGuard) GetRedirectOrDefault(ctx router.Context) string {
	refererHeader := string(ctx.Referer())

	r := ctx.Cookies(g.cfg.RejectedRouteKey, refererHeader)
	if r == "" {
		r = g.cfg.HomeRoute
	}
	g.cookieDel(ctx, g.cfg.RejectedRouteKey)
	return r
}

// SetRedirect remembers the rejected route so login can send the visitor
// back.
func (g *RouteGuard) SetRedirect(ctx router.Context) {
	g.Logger.Info("Setting redirect cookie", "key", g.cfg.RejectedRouteKey, "path", ctx.OriginalURL())

	ctx.Cookie(&router.Cookie{
		Name:     g.cfg.RejectedRouteKey,
		Value:    ctx.OriginalURL(),
		Expires:  time.Now().Add(time.Minute * 5),
		HTTPOnly: true,
		Secure:   true,
		SameSite: "Lax",
	})
}

func (g *RouteGuard) cookieDel(c router.Context, name string) {
	c.Cookie(&router.Cookie{
		Name:     name,
		Value:    "",
		Expires:  time.Now().Add(-time.Hour * (24 * 365)),
		HTTPOnly: true,
		Secure:   true,
		SameSite: "Lax",
	})
}

func (g *RouteGuard) defaultErrHandler(c router.Context, err error) error {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		richErr = errors.Wrap(err, errors.CategoryInternal, "An unexpected server error occurred").
			WithCode(errors.CodeInternal)
	}

	g.Logger.Info(
		"Route guard error handler",
		"error", richErr.Message,
		"category", richErr.Category,
		"details", print.MaybePrettyJSON(richErr.Metadata),
	)

	return c.Status(http.StatusServiceUnavailable).SendString("temporarily unavailable")
}

func redirectStatus(c router.Context) int {
	statusCode := http.StatusSeeOther
	if c.Method() == string(router.GET) {
		statusCode = http.StatusFound
	}
	return statusCode
}

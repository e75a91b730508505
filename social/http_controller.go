package social

import (
	"github.com/goliatone/go-router"

	accounts "github.com/goliatone/go-accounts"
)

// RouteRegistrar captures the router methods used by the controller.
type RouteRegistrar interface {
	Post(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
}

// HTTPController handles the social login HTTP routes. Each route accepts
// the credential the provider's browser SDK handed to the client and
// responds with the same refresh cookie contract as the password login.
type HTTPController struct {
	authenticator *SocialAuthenticator
	auther        *accounts.RouteAuthenticator
	config        HTTPConfig
}

// HTTPConfig configures the HTTP controller.
type HTTPConfig struct {
	// GoogleLoginPath is the Google login route (default: "/user/google_login")
	GoogleLoginPath string

	// FacebookLoginPath is the Facebook login route (default: "/user/facebook_login")
	FacebookLoginPath string

	// ErrorHandler handles errors (optional)
	ErrorHandler func(ctx router.Context, err error) error

	Logger accounts.Logger
}

// NewHTTPController creates a new social login HTTP controller.
func NewHTTPController(auth *SocialAuthenticator, auther *accounts.RouteAuthenticator, cfg HTTPConfig) *HTTPController {
	if cfg.GoogleLoginPath == "" {
		cfg.GoogleLoginPath = "/user/google_login"
	}
	if cfg.FacebookLoginPath == "" {
		cfg.FacebookLoginPath = "/user/facebook_login"
	}
	if cfg.ErrorHandler == nil {
		cfg.ErrorHandler = func(ctx router.Context, err error) error {
			return ctx.JSON(router.StatusUnauthorized, map[string]string{
				"msg": err.Error(),
			})
		}
	}
	if cfg.Logger == nil {
		cfg.Logger = accounts.DefaultLogger()
	}

	return &HTTPController{
		authenticator: auth,
		auther:        auther,
		config:        cfg,
	}
}

// RegisterRoutes registers the social login routes.
func (c *HTTPController) RegisterRoutes(group RouteRegistrar) {
	group.Post(c.config.GoogleLoginPath, c.GoogleLogin)
	group.Post(c.config.FacebookLoginPath, c.FacebookLogin)
}

// GoogleLogin verifies a Google ID token and logs the account in.
func (c *HTTPController) GoogleLogin(ctx router.Context) error {
	return c.login(ctx, "google")
}

// FacebookLogin verifies a Facebook access token and logs the account in.
func (c *HTTPController) FacebookLogin(ctx router.Context) error {
	return c.login(ctx, "facebook")
}

func (c *HTTPController) login(ctx router.Context, providerName string) error {
	assertion := new(Assertion)

	if err := ctx.Bind(assertion); err != nil {
		return c.config.ErrorHandler(ctx, ErrBadAssertion)
	}

	token, err := c.authenticator.Login(ctx.Context(), providerName, *assertion)
	if err != nil {
		c.config.Logger.Error("Social login error", "provider", providerName, "error", err)
		return c.config.ErrorHandler(ctx, err)
	}

	c.auther.GrantSession(ctx, token)

	return ctx.JSON(router.StatusOK, map[string]string{
		"msg": "Login success!",
	})
}

package accounts

import (
	"net/http"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"

	"github.com/goliatone/go-accounts/middleware/jwtware"
)

const (
	// RefreshCookieName is the HTTP only cookie carrying the refresh token.
	RefreshCookieName = "refreshtoken"
	// RefreshCookiePath scopes the cookie so browsers only attach it to the
	// token exchange endpoint.
	RefreshCookiePath = "/user/refresh_token"
)

// RouteAuthenticator adapts the Authenticator to the HTTP surface: it owns
// the refresh cookie contract and the error to status code mapping.
type RouteAuthenticator struct {
	auth           Authenticator
	cookieDuration time.Duration
	Logger         Logger
	ErrorHandler   func(c router.Context, err error) error
}

func NewHTTPAuthenticator(auther Authenticator) *RouteAuthenticator {
	a := &RouteAuthenticator{
		auth:           auther,
		cookieDuration: TokenRefresh.Lifetime(),
		Logger:         defLogger{},
	}
	a.ErrorHandler = defaultErrHandler
	return a
}

func (a *RouteAuthenticator) WithLogger(logger Logger) *RouteAuthenticator {
	if logger != nil {
		a.Logger = logger
	}
	return a
}

func (a RouteAuthenticator) GetCookieDuration() time.Duration {
	return a.cookieDuration
}

// Login verifies the payload credentials and plants the refresh cookie.
// The response body carries no token: the client obtains an access token
// from the refresh endpoint.
func (a *RouteAuthenticator) Login(ctx router.Context, payload LoginPayload) error {
	token, err := a.auth.Login(ctx.Context(), payload.GetEmail(), payload.GetPassword())
	if err != nil {
		a.Logger.Error("Login error", "error", err)
		return err
	}

	a.setRefreshCookie(ctx, token, a.cookieDuration)
	return nil
}

// GrantSession plants the refresh cookie for a login that was verified
// elsewhere, such as a social provider flow.
func (a *RouteAuthenticator) GrantSession(ctx router.Context, refreshToken string) {
	a.setRefreshCookie(ctx, refreshToken, a.cookieDuration)
}

// Logout clears the refresh cookie. Tokens already issued stay valid until
// they expire; there is no server side session state to revoke.
func (a *RouteAuthenticator) Logout(ctx router.Context) {
	a.clearRefreshCookie(ctx)
}

// RefreshAccessToken reads the refresh cookie and exchanges it for a new
// access token.
func (a *RouteAuthenticator) RefreshAccessToken(ctx router.Context) (string, error) {
	cookie := ctx.Cookies(RefreshCookieName, "")
	token, err := a.auth.RefreshAccessToken(cookie)
	if err != nil {
		a.Logger.Debug("RefreshAccessToken error", "error", err)
		return "", err
	}
	return token, nil
}

func (a *RouteAuthenticator) setRefreshCookie(c router.Context, val string, duration time.Duration) {
	c.Cookie(&router.Cookie{
		Name:     RefreshCookieName,
		Value:    val,
		Path:     RefreshCookiePath,
		Expires:  time.Now().Add(duration),
		HTTPOnly: true,
		Secure:   true,
		SameSite: "Lax",
	})
}

func (a *RouteAuthenticator) clearRefreshCookie(c router.Context) {
	c.Cookie(&router.Cookie{
		Name:     RefreshCookieName,
		Value:    "",
		Path:     RefreshCookiePath,
		Expires:  time.Now().Add(-time.Hour * (24 * 365)),
		HTTPOnly: true,
		Secure:   true,
		SameSite: "Lax",
	})
}

func defaultErrHandler(c router.Context, err error) error {
	richErr := normalizeRouteError(err)

	defLogger{}.Info(
		"Request error handler",
		"error", richErr.Message,
		"category", richErr.Category,
		"details", print.MaybePrettyJSON(richErr.Metadata),
	)

	code := richErr.Code
	if code == 0 {
		code = statusForCategory(richErr.Category)
	}

	return c.JSON(code, router.ViewContext{
		"msg": richErr.Message,
	})
}

// normalizeRouteError coerces any error into a rich error with the right
// category. Bearer extraction failures surface as plain errors from the JWT
// middleware and must map to an auth failure, not an internal one.
func normalizeRouteError(err error) *errors.Error {
	var richErr *errors.Error
	if errors.As(err, &richErr) {
		return richErr
	}

	if errors.Is(err, jwtware.ErrJWTMissingOrMalformed) {
		return ErrNotAuthenticated
	}

	return errors.Wrap(err, errors.CategoryInternal, "An unexpected server error occurred").
		WithCode(errors.CodeInternal)
}

func statusForCategory(cat errors.Category) int {
	switch cat {
	case errors.CategoryAuth:
		return http.StatusUnauthorized
	case errors.CategoryAuthz:
		return http.StatusForbidden
	case errors.CategoryNotFound:
		return http.StatusNotFound
	case errors.CategoryConflict:
		return http.StatusConflict
	case errors.CategoryValidation, errors.CategoryBadInput:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

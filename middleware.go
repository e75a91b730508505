package accounts

import (
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-router"
	"github.com/google/uuid"

	"github.com/goliatone/go-accounts/middleware/jwtware"
)

// ClaimsContextKey is the router.Context locals key the bearer middleware
// stores validated claims under.
const ClaimsContextKey = "user"

// TokenValidatorFunc adapts a function into a jwtware.TokenValidator.
type TokenValidatorFunc func(tokenString string) (jwtware.AuthClaims, error)

// Validate satisfies the jwtware.TokenValidator interface.
func (f TokenValidatorFunc) Validate(tokenString string) (jwtware.AuthClaims, error) {
	if f == nil {
		return nil, ErrTokenMalformed
	}
	return f(tokenString)
}

// AccessTokenValidator bridges the token service into the bearer middleware,
// accepting only access tokens.
func AccessTokenValidator(tokens TokenService) jwtware.TokenValidator {
	return TokenValidatorFunc(func(tokenString string) (jwtware.AuthClaims, error) {
		return tokens.VerifySession(TokenAccess, tokenString)
	})
}

// ProtectedRoute guards a route group with bearer access token validation.
func ProtectedRoute(tokens TokenService, cfg Config, errorHandler router.ErrorHandler) router.MiddlewareFunc {
	return jwtware.New(jwtware.Config{
		ErrorHandler:   errorHandler,
		TokenValidator: AccessTokenValidator(tokens),
		SigningKey: jwtware.SigningKey{
			Key:    []byte(cfg.GetAccessSigningKey()),
			JWTAlg: "HS256",
		},
		ContextKey: ClaimsContextKey,
	})
}

// ClaimsFromContext returns the claims stashed by the bearer middleware.
func ClaimsFromContext(ctx router.Context) (*SessionClaims, error) {
	claims, ok := ctx.Locals(ClaimsContextKey).(*SessionClaims)
	if !ok || claims == nil {
		return nil, ErrNotAuthenticated
	}
	return claims, nil
}

// UserIDFromContext parses the authenticated user id out of the claims.
func UserIDFromContext(ctx router.Context) (uuid.UUID, error) {
	claims, err := ClaimsFromContext(ctx)
	if err != nil {
		return uuid.Nil, err
	}
	id, err := uuid.Parse(claims.UserID())
	if err != nil {
		return uuid.Nil, ErrTokenMalformed
	}
	return id, nil
}

// RequireManager loads the authenticated account and rejects the request
// unless its role can manage other users. Roles live in the database, not
// the token, so a demotion takes effect on the next request.
func RequireManager(repo RepositoryManager, errorHandler router.ErrorHandler) router.MiddlewareFunc {
	return func(hf router.HandlerFunc) router.HandlerFunc {
		return func(ctx router.Context) error {
			id, err := UserIDFromContext(ctx)
			if err != nil {
				return errorHandler(ctx, err)
			}

			user, err := repo.Users().GetByID(ctx.Context(), id.String())
			if err != nil {
				if IsRecordNotFound(err) || errors.IsNotFound(err) {
					return errorHandler(ctx, ErrUserNotFound)
				}
				return errorHandler(ctx, errors.Wrap(err, errors.CategoryInternal, "failed to load user"))
			}

			if !user.Role.CanManageUsers() {
				return errorHandler(ctx, ErrNotAuthorized)
			}

			ctx.Locals(ActorContextKey, user)
			return ctx.Next()
		}
	}
}

// ActorContextKey is the locals key RequireManager stores the acting
// account under.
const ActorContextKey = "actor"

// ActorFromContext returns the account loaded by RequireManager.
func ActorFromContext(ctx router.Context) (*User, error) {
	user, ok := ctx.Locals(ActorContextKey).(*User)
	if !ok || user == nil {
		return nil, ErrNotAuthorized
	}
	return user, nil
}

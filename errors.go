package accounts

import (
	"github.com/goliatone/go-errors"
)

const (
	TextCodeUserExists       = "account_email_registered"
	TextCodeUserNotFound     = "account_not_found"
	TextCodeBadCredentials   = "account_bad_credentials"
	TextCodeWeakPassword     = "account_weak_password"
	TextCodeInvalidEmail     = "account_invalid_email"
	TextCodeMissingFields    = "account_missing_fields"
	TextCodeTokenExpired     = "auth_token_expired"
	TextCodeTokenMalformed   = "auth_token_malformed"
	TextCodeNotAuthenticated = "auth_not_authenticated"
	TextCodeNotAuthorized    = "auth_admin_denied"
	TextCodeUpstreamFailure  = "upstream_failure"
)

// ErrUserExists is returned when the email is already taken, either at
// registration or when an activation loses the uniqueness race.
var ErrUserExists = errors.New("the email provided has already been registered", errors.CategoryConflict).
	WithTextCode(TextCodeUserExists).
	WithCode(errors.CodeConflict)

// ErrUserNotFound is returned when no account matches the given identifier.
var ErrUserNotFound = errors.New("this user does not exist", errors.CategoryNotFound).
	WithTextCode(TextCodeUserNotFound).
	WithCode(errors.CodeNotFound)

// ErrBadCredentials is returned on password mismatch. The message does not
// reveal whether the account was created through a social provider.
var ErrBadCredentials = errors.New("password is incorrect", errors.CategoryAuth).
	WithTextCode(TextCodeBadCredentials).
	WithCode(errors.CodeUnauthorized)

// ErrWeakPassword is returned when a password fails the strength predicate.
var ErrWeakPassword = errors.New("password must contain a number, uppercase, lowercase, and a special character", errors.CategoryValidation).
	WithTextCode(TextCodeWeakPassword).
	WithCode(errors.CodeBadRequest)

// ErrInvalidEmail is returned when an email fails format validation.
var ErrInvalidEmail = errors.New("please provide a valid email", errors.CategoryValidation).
	WithTextCode(TextCodeInvalidEmail).
	WithCode(errors.CodeBadRequest)

// ErrMissingFields is returned when a required registration field is blank.
var ErrMissingFields = errors.New("please fill in all fields", errors.CategoryValidation).
	WithTextCode(TextCodeMissingFields).
	WithCode(errors.CodeBadRequest)

// ErrTokenExpired is returned for tokens with a valid signature past their expiry.
var ErrTokenExpired = errors.New("token expired", errors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(errors.CodeUnauthorized)

// ErrTokenMalformed is returned for tokens that fail signature or shape checks.
var ErrTokenMalformed = errors.New("invalid token", errors.CategoryAuth).
	WithTextCode(TextCodeTokenMalformed).
	WithCode(errors.CodeUnauthorized)

// ErrNotAuthenticated is the uniform refresh failure: missing cookie, expired
// or tampered refresh token all collapse into this one message so callers
// cannot probe which check failed.
var ErrNotAuthenticated = errors.New("please login now", errors.CategoryAuth).
	WithTextCode(TextCodeNotAuthenticated).
	WithCode(errors.CodeUnauthorized)

// ErrNotAuthorized is returned when an authenticated account lacks the role
// a managed resource requires.
var ErrNotAuthorized = errors.New("admin resources access denied", errors.CategoryAuthz).
	WithTextCode(TextCodeNotAuthorized).
	WithCode(errors.CodeForbidden)

// ErrUpstreamFailure wraps failed calls to mail, upload, or identity providers.
var ErrUpstreamFailure = errors.New("upstream service failed", errors.CategoryOperation).
	WithTextCode(TextCodeUpstreamFailure).
	WithCode(errors.CodeInternal)

// ErrMismatchedHashAndPassword is the low level bcrypt mismatch sentinel.
var ErrMismatchedHashAndPassword = errors.New("hash and password mismatch", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized)

// ErrNoEmptyString guards hashing of empty passwords.
var ErrNoEmptyString = errors.New("refusing to hash an empty string", errors.CategoryBadInput).
	WithCode(errors.CodeBadRequest)

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	return hasTextCode(err, TextCodeTokenExpired)
}

// IsMalformedTokenError will check for tampered or undecodable tokens
func IsMalformedTokenError(err error) bool {
	return hasTextCode(err, TextCodeTokenMalformed)
}

func hasTextCode(err error, code string) bool {
	if err == nil {
		return false
	}
	var rich *errors.Error
	if errors.As(err, &rich) {
		return rich.TextCode == code
	}
	return false
}

package social

import "github.com/goliatone/go-errors"

const (
	TextCodeProviderNotFound = "social_provider_not_found"
	TextCodeBadAssertion     = "social_bad_assertion"
	TextCodeUserInfoFail     = "social_user_info_failed"
	TextCodeEmailNotVerified = "social_email_not_verified"
)

// ErrProviderNotFound is returned when a requested provider is not configured.
var ErrProviderNotFound = errors.New("social provider not found", errors.CategoryNotFound).
	WithTextCode(TextCodeProviderNotFound).
	WithCode(errors.CodeNotFound)

// ErrBadAssertion is returned when the provider credential is missing or
// fails verification.
var ErrBadAssertion = errors.New("invalid provider credential", errors.CategoryAuth).
	WithTextCode(TextCodeBadAssertion).
	WithCode(errors.CodeUnauthorized)

// ErrUserInfoFailed is returned when fetching the provider profile fails.
var ErrUserInfoFailed = errors.New("failed to fetch user info", errors.CategoryAuth).
	WithTextCode(TextCodeUserInfoFail).
	WithCode(errors.CodeUnauthorized)

// ErrEmailNotVerified is returned when the provider reports an unverified email.
var ErrEmailNotVerified = errors.New("email not verified", errors.CategoryAuth).
	WithTextCode(TextCodeEmailNotVerified).
	WithCode(errors.CodeForbidden)

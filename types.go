package accounts

import (
	"context"
	"fmt"
)

// Logger is the structured logging surface the account flows write to: a
// message followed by alternating key/value pairs. The signature matches
// go-logger, so a glog instance satisfies it directly.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Config holds the signing material and link endpoints the account flows
// need. Implementations are expected to be immutable after process start.
type Config interface {
	GetActivationSigningKey() string
	GetAccessSigningKey() string
	GetRefreshSigningKey() string
	GetIssuer() string
	GetAudience() []string
	// GetClientURL is the base URL activation and reset links point at.
	GetClientURL() string
}

// TokenService issues and verifies the three signed token kinds. Each kind
// uses its own secret so tokens are never interchangeable across purposes.
type TokenService interface {
	IssueActivation(name, email, passwordHash string) (string, error)
	IssueSession(kind TokenKind, userID string) (string, error)
	VerifyActivation(token string) (*ActivationClaims, error)
	VerifySession(kind TokenKind, token string) (*SessionClaims, error)
}

// Authenticator holds methods to deal with password authentication
type Authenticator interface {
	Login(ctx context.Context, email, password string) (string, error)
	RefreshAccessToken(refreshToken string) (string, error)
	UserFromAccessToken(ctx context.Context, token string) (*User, error)
}

// Mailer delivers account emails. Send is fire and forget from the flow's
// point of view: a failure surfaces as a generic upstream error and nothing
// is retried.
type Mailer interface {
	Send(ctx context.Context, to, link, subject string) error
}

// PasswordAuthenticator authenticates passwords
type PasswordAuthenticator interface {
	HashPassword(password string) (string, error)
	ComparePasswordAndHash(password, hash string) error
}

// LoginPayload is the shape the HTTP layer hands to RouteAuthenticator.Login.
type LoginPayload interface {
	GetEmail() string
	GetPassword() string
}

// DefaultLogger returns the stdout fallback logger subpackages start with.
func DefaultLogger() Logger {
	return defLogger{}
}

type defLogger struct{}

func (d defLogger) Error(msg string, args ...any) {
	fmt.Println("[ERR] ACCOUNTS " + msg + formatAttrs(args))
}

func (d defLogger) Warn(msg string, args ...any) {
	fmt.Println("[WRN] ACCOUNTS " + msg + formatAttrs(args))
}

func (d defLogger) Info(msg string, args ...any) {
	fmt.Println("[INF] ACCOUNTS " + msg + formatAttrs(args))
}

func (d defLogger) Debug(msg string, args ...any) {
	fmt.Println("[DBG] ACCOUNTS " + msg + formatAttrs(args))
}

// formatAttrs renders key/value pairs as " key=value". A trailing key with
// no value is printed bare rather than dropped.
func formatAttrs(args []any) string {
	var out string
	for i := 0; i < len(args); i += 2 {
		if i+1 < len(args) {
			out += fmt.Sprintf(" %v=%v", args[i], args[i+1])
		} else {
			out += fmt.Sprintf(" %v", args[i])
		}
	}
	return out
}

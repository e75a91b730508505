package accounts

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-errors"
)

// TokenKind selects the secret and lifetime a token is issued under.
type TokenKind string

const (
	// TokenActivation carries pending registration data until the email
	// owner activates the account. Never authorizes API calls.
	TokenActivation TokenKind = "activation"
	// TokenAccess authorizes API calls. Also used as the one time password
	// reset credential so the reset route can sit behind the ordinary
	// bearer middleware.
	TokenAccess TokenKind = "access"
	// TokenRefresh is exchanged for new access tokens. Cookie delivered.
	TokenRefresh TokenKind = "refresh"
)

// Lifetime returns the issue-time expiry window for the kind.
func (k TokenKind) Lifetime() time.Duration {
	switch k {
	case TokenActivation:
		return 5 * time.Minute
	case TokenAccess:
		return 15 * time.Minute
	case TokenRefresh:
		return 7 * 24 * time.Hour
	default:
		return 0
	}
}

// ActivationClaims smuggle the staged registration through the token so no
// database row exists before the email is proven.
type ActivationClaims struct {
	jwt.RegisteredClaims
	Name         string `json:"name"`
	Email        string `json:"email"`
	PasswordHash string `json:"password"`
}

// SessionClaims is the payload of access and refresh tokens.
type SessionClaims struct {
	jwt.RegisteredClaims
	UID string `json:"uid"`
}

// UserID returns the user ID carried in the token.
func (c *SessionClaims) UserID() string {
	if c.UID != "" {
		return c.UID
	}
	return c.RegisteredClaims.Subject
}

// Role always returns empty: session tokens carry only the user ID, role
// checks load the account record.
func (c *SessionClaims) Role() string { return "" }

// TokenServiceImpl implements the TokenService interface
type TokenServiceImpl struct {
	secrets   map[TokenKind][]byte
	lifetimes map[TokenKind]time.Duration
	issuer    string
	audience  jwt.ClaimStrings
	logger    Logger
}

// TokenOption mutates the service during construction.
type TokenOption func(*TokenServiceImpl)

// WithTokenLifetime overrides the default lifetime for a kind. Tests use
// this to exercise expiry without sleeping.
func WithTokenLifetime(kind TokenKind, d time.Duration) TokenOption {
	return func(ts *TokenServiceImpl) {
		ts.lifetimes[kind] = d
	}
}

// WithTokenLogger sets the service logger.
func WithTokenLogger(logger Logger) TokenOption {
	return func(ts *TokenServiceImpl) {
		if logger != nil {
			ts.logger = logger
		}
	}
}

// NewTokenService creates a TokenService with one secret per kind.
func NewTokenService(cfg Config, opts ...TokenOption) TokenService {
	ts := &TokenServiceImpl{
		secrets: map[TokenKind][]byte{
			TokenActivation: []byte(cfg.GetActivationSigningKey()),
			TokenAccess:     []byte(cfg.GetAccessSigningKey()),
			TokenRefresh:    []byte(cfg.GetRefreshSigningKey()),
		},
		lifetimes: map[TokenKind]time.Duration{
			TokenActivation: TokenActivation.Lifetime(),
			TokenAccess:     TokenAccess.Lifetime(),
			TokenRefresh:    TokenRefresh.Lifetime(),
		},
		issuer:   cfg.GetIssuer(),
		audience: jwt.ClaimStrings(cfg.GetAudience()),
		logger:   defLogger{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(ts)
		}
	}

	return ts
}

// IssueActivation signs the staged registration under the activation secret.
func (ts *TokenServiceImpl) IssueActivation(name, email, passwordHash string) (string, error) {
	claims := &ActivationClaims{
		RegisteredClaims: ts.registeredClaims(TokenActivation, email),
		Name:             name,
		Email:            email,
		PasswordHash:     passwordHash,
	}
	return ts.sign(TokenActivation, claims)
}

// IssueSession signs a {userID} payload under the kind's secret. Only the
// access and refresh kinds are session shaped.
func (ts *TokenServiceImpl) IssueSession(kind TokenKind, userID string) (string, error) {
	if kind != TokenAccess && kind != TokenRefresh {
		return "", errors.New("token kind is not session shaped", errors.CategoryInternal).
			WithMetadata(map[string]any{"kind": string(kind)})
	}

	claims := &SessionClaims{
		RegisteredClaims: ts.registeredClaims(kind, userID),
		UID:              userID,
	}
	return ts.sign(kind, claims)
}

// VerifyActivation validates signature and expiry against the activation secret.
func (ts *TokenServiceImpl) VerifyActivation(token string) (*ActivationClaims, error) {
	claims := &ActivationClaims{}
	if err := ts.verify(TokenActivation, token, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

// VerifySession validates signature and expiry against the kind's secret.
func (ts *TokenServiceImpl) VerifySession(kind TokenKind, token string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	if err := ts.verify(kind, token, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

func (ts *TokenServiceImpl) registeredClaims(kind TokenKind, subject string) jwt.RegisteredClaims {
	now := time.Now()
	return jwt.RegisteredClaims{
		Issuer:    ts.issuer,
		Subject:   subject,
		Audience:  ts.audience,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ts.lifetimes[kind])),
	}
}

func (ts *TokenServiceImpl) sign(kind TokenKind, claims jwt.Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString(ts.secrets[kind])
	if err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to sign JWT")
	}

	return signed, nil
}

func (ts *TokenServiceImpl) verify(kind TokenKind, tokenString string, claims jwt.Claims) error {
	parserOptions := make([]jwt.ParserOption, 0, 2)
	if ts.issuer != "" {
		parserOptions = append(parserOptions, jwt.WithIssuer(ts.issuer))
	}
	if len(ts.audience) > 0 {
		parserOptions = append(parserOptions, jwt.WithAudience(ts.audience...))
	}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			ts.logger.Error("TokenService verify encountered unexpected signing method", "alg", t.Header["alg"])
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return ts.secrets[kind], nil
	}, parserOptions...)

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return ErrTokenExpired
		}
		return errors.Wrap(err, ErrTokenMalformed.Category, ErrTokenMalformed.Message).
			WithTextCode(ErrTokenMalformed.TextCode)
	}

	if !token.Valid {
		ts.logger.Error("TokenService verify could not validate claims")
		return ErrTokenMalformed
	}

	return nil
}

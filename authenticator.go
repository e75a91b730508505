package accounts

import (
	"context"

	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// Auther drives the password login and token exchange halves of the session
// lifecycle. Registration, activation and password reset live in the
// command handlers.
type Auther struct {
	repo   RepositoryManager
	tokens TokenService
	logger Logger
}

// NewAuthenticator returns a new Authenticator
func NewAuthenticator(repo RepositoryManager, tokens TokenService) *Auther {
	return &Auther{
		repo:   repo,
		tokens: tokens,
		logger: defLogger{},
	}
}

func (s *Auther) WithLogger(logger Logger) *Auther {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// TokenService returns the TokenService instance used by this Authenticator
func (s *Auther) TokenService() TokenService {
	return s.tokens
}

// Login verifies the credentials and issues a refresh token. The access
// token is deliberately not issued here: clients exchange the refresh
// cookie for one at the refresh endpoint.
func (s *Auther) Login(ctx context.Context, email, password string) (string, error) {
	user, err := s.repo.Users().GetByEmail(ctx, email)
	if err != nil {
		if errors.IsNotFound(err) || IsRecordNotFound(err) {
			return "", ErrUserNotFound
		}
		s.logger.Error("Login user lookup error", "error", err)
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to look up user")
	}

	if err := ComparePasswordAndHash(password, user.PasswordHash); err != nil {
		return "", ErrBadCredentials
	}

	token, err := s.tokens.IssueSession(TokenRefresh, user.ID.String())
	if err != nil {
		s.logger.Error("Login refresh token issue error", "error", err)
		return "", err
	}

	return token, nil
}

// RefreshAccessToken exchanges a refresh token for a new access token.
// Every failure collapses into ErrNotAuthenticated so callers cannot tell
// a missing token from an expired or tampered one.
func (s *Auther) RefreshAccessToken(refreshToken string) (string, error) {
	if refreshToken == "" {
		return "", ErrNotAuthenticated
	}

	claims, err := s.tokens.VerifySession(TokenRefresh, refreshToken)
	if err != nil {
		s.logger.Debug("RefreshAccessToken verify failed", "error", err)
		return "", ErrNotAuthenticated
	}

	token, err := s.tokens.IssueSession(TokenAccess, claims.UserID())
	if err != nil {
		s.logger.Error("RefreshAccessToken issue error", "error", err)
		return "", ErrNotAuthenticated
	}

	return token, nil
}

// UserFromAccessToken verifies a bearer access token and loads the account
// it belongs to.
func (s *Auther) UserFromAccessToken(ctx context.Context, token string) (*User, error) {
	claims, err := s.tokens.VerifySession(TokenAccess, token)
	if err != nil {
		return nil, err
	}

	id, err := uuid.Parse(claims.UserID())
	if err != nil {
		return nil, ErrTokenMalformed
	}

	user, err := s.repo.Users().GetByID(ctx, id.String())
	if err != nil {
		if errors.IsNotFound(err) || IsRecordNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to load user")
	}

	return user, nil
}

var _ Authenticator = (*Auther)(nil)

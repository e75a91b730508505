package accounts_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	accounts "github.com/goliatone/go-accounts"
)

func newTestUser(t *testing.T, password string) *accounts.User {
	t.Helper()

	hash, err := accounts.HashPassword(password)
	require.NoError(t, err)

	user := accounts.NewUser("Pepe Rone", "pepe@example.com", hash)
	user.ID = uuid.New()
	return user
}

func TestAuthenticatorLogin(t *testing.T) {
	tokens := accounts.NewTokenService(newTestConfig())

	t.Run("issues a refresh token for valid credentials", func(t *testing.T) {
		user := newTestUser(t, "Abc123!!")
		repo := NewMockRepositoryManager()
		repo.users.On("GetByEmail", mock.Anything, "pepe@example.com").Return(user, nil)

		auth := accounts.NewAuthenticator(repo, tokens)

		token, err := auth.Login(context.Background(), "pepe@example.com", "Abc123!!")
		require.NoError(t, err)

		claims, err := tokens.VerifySession(accounts.TokenRefresh, token)
		require.NoError(t, err)
		assert.Equal(t, user.ID.String(), claims.UserID())
	})

	t.Run("unknown email", func(t *testing.T) {
		repo := NewMockRepositoryManager()
		repo.users.On("GetByEmail", mock.Anything, "ghost@example.com").Return(nil, sql.ErrNoRows)

		auth := accounts.NewAuthenticator(repo, tokens)

		_, err := auth.Login(context.Background(), "ghost@example.com", "Abc123!!")
		assert.ErrorIs(t, err, accounts.ErrUserNotFound)
	})

	t.Run("wrong password", func(t *testing.T) {
		user := newTestUser(t, "Abc123!!")
		repo := NewMockRepositoryManager()
		repo.users.On("GetByEmail", mock.Anything, "pepe@example.com").Return(user, nil)

		auth := accounts.NewAuthenticator(repo, tokens)

		_, err := auth.Login(context.Background(), "pepe@example.com", "Wrong123!!")
		assert.ErrorIs(t, err, accounts.ErrBadCredentials)
	})
}

func TestAuthenticatorRefreshAccessToken(t *testing.T) {
	tokens := accounts.NewTokenService(newTestConfig())
	repo := NewMockRepositoryManager()
	auth := accounts.NewAuthenticator(repo, tokens)

	t.Run("exchanges a refresh token for an access token", func(t *testing.T) {
		userID := uuid.NewString()
		refresh, err := tokens.IssueSession(accounts.TokenRefresh, userID)
		require.NoError(t, err)

		access, err := auth.RefreshAccessToken(refresh)
		require.NoError(t, err)

		claims, err := tokens.VerifySession(accounts.TokenAccess, access)
		require.NoError(t, err)
		assert.Equal(t, userID, claims.UserID())
	})

	t.Run("missing token", func(t *testing.T) {
		_, err := auth.RefreshAccessToken("")
		assert.ErrorIs(t, err, accounts.ErrNotAuthenticated)
	})

	t.Run("tampered token", func(t *testing.T) {
		refresh, err := tokens.IssueSession(accounts.TokenRefresh, uuid.NewString())
		require.NoError(t, err)

		_, err = auth.RefreshAccessToken(refresh[:len(refresh)-2] + "xx")
		assert.ErrorIs(t, err, accounts.ErrNotAuthenticated)
	})

	t.Run("access token rejected as refresh token", func(t *testing.T) {
		access, err := tokens.IssueSession(accounts.TokenAccess, uuid.NewString())
		require.NoError(t, err)

		_, err = auth.RefreshAccessToken(access)
		assert.ErrorIs(t, err, accounts.ErrNotAuthenticated)
	})
}

func TestAuthenticatorUserFromAccessToken(t *testing.T) {
	tokens := accounts.NewTokenService(newTestConfig())

	t.Run("loads the account behind a valid token", func(t *testing.T) {
		user := newTestUser(t, "Abc123!!")
		repo := NewMockRepositoryManager()
		repo.users.On("GetByID", mock.Anything, user.ID.String()).Return(user, nil)

		auth := accounts.NewAuthenticator(repo, tokens)

		access, err := tokens.IssueSession(accounts.TokenAccess, user.ID.String())
		require.NoError(t, err)

		got, err := auth.UserFromAccessToken(context.Background(), access)
		require.NoError(t, err)
		assert.Equal(t, user.Email, got.Email)
	})

	t.Run("token with a non uuid subject", func(t *testing.T) {
		repo := NewMockRepositoryManager()
		auth := accounts.NewAuthenticator(repo, tokens)

		access, err := tokens.IssueSession(accounts.TokenAccess, "not-a-uuid")
		require.NoError(t, err)

		_, err = auth.UserFromAccessToken(context.Background(), access)
		assert.ErrorIs(t, err, accounts.ErrTokenMalformed)
	})

	t.Run("account deleted after token issue", func(t *testing.T) {
		userID := uuid.NewString()
		repo := NewMockRepositoryManager()
		repo.users.On("GetByID", mock.Anything, userID).Return(nil, sql.ErrNoRows)

		auth := accounts.NewAuthenticator(repo, tokens)

		access, err := tokens.IssueSession(accounts.TokenAccess, userID)
		require.NoError(t, err)

		_, err = auth.UserFromAccessToken(context.Background(), access)
		assert.ErrorIs(t, err, accounts.ErrUserNotFound)
	})
}

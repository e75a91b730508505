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

func TestInitializePasswordResetHandler(t *testing.T) {
	tokens := accounts.NewTokenService(newTestConfig())

	t.Run("mails a reset link carrying an access token", func(t *testing.T) {
		user := newTestUser(t, "Abc123!!")
		repo := NewMockRepositoryManager()
		repo.users.On("GetByEmail", mock.Anything, "pepe@example.com").Return(user, nil)

		mailer := &MockMailer{}
		mailer.On("Send", mock.Anything, "pepe@example.com", mock.Anything, mock.Anything).Return(nil)

		handler := accounts.NewInitializePasswordResetHandler(repo, tokens, mailer, "http://localhost:3000")

		var resp *accounts.InitializePasswordResetResponse
		msg := accounts.InitializePasswordResetMessage{
			Email: "pepe@example.com",
			OnResponse: func(r *accounts.InitializePasswordResetResponse) {
				resp = r
			},
		}

		require.NoError(t, handler.Execute(context.Background(), msg))
		require.NotNil(t, resp)
		assert.Contains(t, resp.Link, resp.ResetToken)

		// The reset credential is an ordinary access token for the account.
		claims, err := tokens.VerifySession(accounts.TokenAccess, resp.ResetToken)
		require.NoError(t, err)
		assert.Equal(t, user.ID.String(), claims.UserID())

		mailer.AssertExpectations(t)
	})

	t.Run("unknown email", func(t *testing.T) {
		repo := NewMockRepositoryManager()
		repo.users.On("GetByEmail", mock.Anything, "ghost@example.com").Return(nil, sql.ErrNoRows)

		handler := accounts.NewInitializePasswordResetHandler(repo, tokens, &MockMailer{}, "http://localhost:3000")

		err := handler.Execute(context.Background(), accounts.InitializePasswordResetMessage{
			Email: "ghost@example.com",
		})
		assert.ErrorIs(t, err, accounts.ErrUserNotFound)
	})

	t.Run("missing email", func(t *testing.T) {
		handler := accounts.NewInitializePasswordResetHandler(
			NewMockRepositoryManager(), tokens, &MockMailer{}, "http://localhost:3000")

		err := handler.Execute(context.Background(), accounts.InitializePasswordResetMessage{})
		assert.ErrorIs(t, err, accounts.ErrMissingFields)
	})
}

func TestFinalizePasswordResetHandler(t *testing.T) {
	t.Run("replaces the stored hash", func(t *testing.T) {
		userID := uuid.New()
		repo := NewMockRepositoryManager()
		repo.users.On("ResetPassword", mock.Anything, userID, mock.AnythingOfType("string")).Return(nil)

		handler := accounts.NewFinalizePasswordResetHandler(repo)

		err := handler.Execute(context.Background(), accounts.FinalizePasswordResetMessage{
			UserID:   userID,
			Password: "Xyz456??",
		})
		require.NoError(t, err)

		call := repo.users.Calls[len(repo.users.Calls)-1]
		hash := call.Arguments.String(2)
		assert.NoError(t, accounts.ComparePasswordAndHash("Xyz456??", hash))
	})

	t.Run("missing password", func(t *testing.T) {
		handler := accounts.NewFinalizePasswordResetHandler(NewMockRepositoryManager())

		err := handler.Execute(context.Background(), accounts.FinalizePasswordResetMessage{
			UserID: uuid.New(),
		})
		assert.ErrorIs(t, err, accounts.ErrMissingFields)
	})

	t.Run("missing user id", func(t *testing.T) {
		handler := accounts.NewFinalizePasswordResetHandler(NewMockRepositoryManager())

		err := handler.Execute(context.Background(), accounts.FinalizePasswordResetMessage{
			Password: "Xyz456??",
		})
		assert.ErrorIs(t, err, accounts.ErrMissingFields)
	})
}

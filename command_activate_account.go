package accounts

import (
	"context"
	"database/sql"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// ActivateAccountMessage carries the activation token back from the email
// link. Verifying it yields the staged name, email and password hash; the
// account row is created here and nowhere else.
type ActivateAccountMessage struct {
	Token string `json:"activation_token"`
	// OnResponse receives the freshly created account.
	OnResponse func(user *User)
}

func (e ActivateAccountMessage) Type() string { return "user.activate" }

type ActivateAccountHandler struct {
	repo   RepositoryManager
	tokens TokenService
	logger Logger
}

func NewActivateAccountHandler(repo RepositoryManager, tokens TokenService) *ActivateAccountHandler {
	return &ActivateAccountHandler{
		repo:   repo,
		tokens: tokens,
		logger: defLogger{},
	}
}

func (h *ActivateAccountHandler) WithLogger(logger Logger) *ActivateAccountHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *ActivateAccountHandler) Execute(ctx context.Context, event ActivateAccountMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during account activation",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *ActivateAccountHandler) execute(ctx context.Context, event ActivateAccountMessage) error {
	if event.Token == "" {
		return ErrTokenMalformed
	}

	claims, err := h.tokens.VerifyActivation(event.Token)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	user := NewUser(claims.Name, claims.Email, claims.PasswordHash)
	user.ID = uuid.New()

	err = h.repo.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		// A second activation with the same token, or a parallel
		// registration that won the race, lands here.
		if _, err := h.repo.Users().GetByEmailTx(ctx, tx, claims.Email); err == nil {
			return ErrUserExists
		} else if !IsRecordNotFound(err) && !goerrors.IsNotFound(err) {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to check email uniqueness")
		}

		record, err := h.repo.Users().CreateTx(ctx, tx, user)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to create user")
		}
		user = record
		return nil
	})
	if err != nil {
		return err
	}

	h.logger.Info("Account activated", "email", user.Email, "id", user.ID)

	if event.OnResponse != nil {
		event.OnResponse(user)
	}

	return nil
}

package accounts

import (
	"context"
	"fmt"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

// InitializePasswordResetMessage starts a reset for an existing account.
// The reset token is a short lived access token, so possessing it is
// equivalent to a logged in session scoped to the 15 minute window.
type InitializePasswordResetMessage struct {
	Email string `json:"email"`
	// OnResponse receives the issued token and link, mainly for tests and
	// alternative delivery channels.
	OnResponse func(resp *InitializePasswordResetResponse)
}

func (e InitializePasswordResetMessage) Type() string { return "user.password.forgot" }

type InitializePasswordResetResponse struct {
	ResetToken string
	Link       string
}

type InitializePasswordResetHandler struct {
	repo      RepositoryManager
	tokens    TokenService
	mailer    Mailer
	clientURL string
	logger    Logger
}

func NewInitializePasswordResetHandler(repo RepositoryManager, tokens TokenService, mailer Mailer, clientURL string) *InitializePasswordResetHandler {
	return &InitializePasswordResetHandler{
		repo:      repo,
		tokens:    tokens,
		mailer:    mailer,
		clientURL: strings.TrimSuffix(clientURL, "/"),
		logger:    defLogger{},
	}
}

func (h *InitializePasswordResetHandler) WithLogger(logger Logger) *InitializePasswordResetHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *InitializePasswordResetHandler) Execute(ctx context.Context, event InitializePasswordResetMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during password reset",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *InitializePasswordResetHandler) execute(ctx context.Context, event InitializePasswordResetMessage) error {
	email := strings.TrimSpace(event.Email)
	if email == "" {
		return ErrMissingFields
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	user, err := h.repo.Users().GetByEmail(ctx, email)
	if err != nil {
		if IsRecordNotFound(err) || goerrors.IsNotFound(err) {
			return ErrUserNotFound
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to look up user")
	}

	token, err := h.tokens.IssueSession(TokenAccess, user.ID.String())
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to issue reset token")
	}

	link := fmt.Sprintf("%s/reset/%s", h.clientURL, token)

	if err := h.mailer.Send(ctx, email, link, "Reset your password"); err != nil {
		h.logger.Error("Password reset mail error", "email", email, "error", err)
		return goerrors.Wrap(err, ErrUpstreamFailure.Category, ErrUpstreamFailure.Message).
			WithTextCode(ErrUpstreamFailure.TextCode)
	}

	if event.OnResponse != nil {
		event.OnResponse(&InitializePasswordResetResponse{
			ResetToken: token,
			Link:       link,
		})
	}

	return nil
}

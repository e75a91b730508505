package accounts

import (
	"context"
	"fmt"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

// RegisterUserMessage stages a registration. Nothing is written to the
// store: the whole pending account travels inside the activation token
// until the email owner activates it.
type RegisterUserMessage struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	// OnResponse receives the issued token and link, mainly for tests and
	// alternative delivery channels.
	OnResponse func(resp *RegisterUserResponse)
}

func (e RegisterUserMessage) Type() string { return "user.register" }

type RegisterUserResponse struct {
	ActivationToken string
	Link            string
}

type RegisterUserHandler struct {
	repo      RepositoryManager
	tokens    TokenService
	mailer    Mailer
	clientURL string
	logger    Logger
}

func NewRegisterUserHandler(repo RepositoryManager, tokens TokenService, mailer Mailer, clientURL string) *RegisterUserHandler {
	return &RegisterUserHandler{
		repo:      repo,
		tokens:    tokens,
		mailer:    mailer,
		clientURL: strings.TrimSuffix(clientURL, "/"),
		logger:    defLogger{},
	}
}

func (h *RegisterUserHandler) WithLogger(logger Logger) *RegisterUserHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *RegisterUserHandler) Execute(ctx context.Context, event RegisterUserMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during user registration",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *RegisterUserHandler) execute(ctx context.Context, event RegisterUserMessage) error {
	name := strings.TrimSpace(event.Name)
	email := strings.TrimSpace(event.Email)

	if name == "" || email == "" || event.Password == "" {
		return ErrMissingFields
	}

	if err := ValidateEmail(email); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	if _, err := h.repo.Users().GetByEmail(ctx, email); err == nil {
		return ErrUserExists
	} else if !IsRecordNotFound(err) && !goerrors.IsNotFound(err) {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to check email uniqueness")
	}

	if err := ValidatePasswordStrength(event.Password); err != nil {
		return err
	}

	hash, err := HashPassword(event.Password)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
	}

	token, err := h.tokens.IssueActivation(name, email, hash)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to issue activation token")
	}

	link := fmt.Sprintf("%s/activate/%s", h.clientURL, token)

	if err := h.mailer.Send(ctx, email, link, "Verify your email address"); err != nil {
		h.logger.Error("Register activation mail error", "email", email, "error", err)
		return goerrors.Wrap(err, ErrUpstreamFailure.Category, ErrUpstreamFailure.Message).
			WithTextCode(ErrUpstreamFailure.TextCode)
	}

	if event.OnResponse != nil {
		event.OnResponse(&RegisterUserResponse{
			ActivationToken: token,
			Link:            link,
		})
	}

	return nil
}

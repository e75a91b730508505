package social

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/uptrace/bun"

	accounts "github.com/goliatone/go-accounts"
)

// SocialAuthenticator runs the federated login flow: verify the provider
// assertion, then create or match the local account and issue a refresh
// token.
//
// Accounts created here carry a derived password so the row satisfies the
// same schema as password accounts: the provider secret concatenated after
// the email, bcrypt hashed. Each provider mixes its own secret, so an
// account created through one provider cannot be matched through another.
// A user who later tries a password login for such an account fails the
// ordinary credential check.
type SocialAuthenticator struct {
	providers map[string]registration
	repo      accounts.RepositoryManager
	tokens    accounts.TokenService
	logger    accounts.Logger
}

type registration struct {
	provider Provider
	secret   string
}

// SocialAuthOption configures the social authenticator.
type SocialAuthOption func(*SocialAuthenticator)

// WithProvider registers a social provider together with the secret mixed
// into derived passwords for accounts it creates. Rotating a secret locks
// that provider's accounts out until they log in through it again.
func WithProvider(provider Provider, secret string) SocialAuthOption {
	return func(sa *SocialAuthenticator) {
		if provider == nil {
			return
		}
		sa.providers[provider.Name()] = registration{provider: provider, secret: secret}
	}
}

// WithLogger sets the authenticator logger.
func WithLogger(logger accounts.Logger) SocialAuthOption {
	return func(sa *SocialAuthenticator) {
		if logger != nil {
			sa.logger = logger
		}
	}
}

// NewSocialAuthenticator creates a new social authenticator.
func NewSocialAuthenticator(
	repo accounts.RepositoryManager,
	tokens accounts.TokenService,
	opts ...SocialAuthOption,
) *SocialAuthenticator {
	sa := &SocialAuthenticator{
		providers: make(map[string]registration),
		repo:      repo,
		tokens:    tokens,
		logger:    accounts.DefaultLogger(),
	}

	for _, opt := range opts {
		if opt != nil {
			opt(sa)
		}
	}

	return sa
}

// Login verifies the assertion with the named provider, resolves the local
// account and returns a refresh token for it.
func (sa *SocialAuthenticator) Login(ctx context.Context, providerName string, assertion Assertion) (string, error) {
	reg, ok := sa.providers[providerName]
	if !ok {
		return "", goerrors.Wrap(
			fmt.Errorf("provider %q not registered", providerName),
			ErrProviderNotFound.Category,
			ErrProviderNotFound.Message,
		).WithTextCode(ErrProviderNotFound.TextCode)
	}

	profile, err := reg.provider.Verify(ctx, assertion)
	if err != nil {
		return "", err
	}

	if !profile.EmailVerified {
		return "", ErrEmailNotVerified
	}

	user, err := sa.resolveAccount(ctx, profile, reg.secret)
	if err != nil {
		return "", err
	}

	token, err := sa.tokens.IssueSession(accounts.TokenRefresh, user.ID.String())
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to issue refresh token")
	}

	return token, nil
}

// resolveAccount matches the profile to an existing account by email, or
// creates one on first login.
func (sa *SocialAuthenticator) resolveAccount(ctx context.Context, profile *Profile, secret string) (*accounts.User, error) {
	derived := derivedPassword(profile.Email, secret)

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	user, err := sa.repo.Users().GetByEmail(ctx, profile.Email)
	if err == nil {
		if err := accounts.ComparePasswordAndHash(derived, user.PasswordHash); err != nil {
			return nil, accounts.ErrBadCredentials
		}
		return user, nil
	}

	if !accounts.IsRecordNotFound(err) && !goerrors.IsNotFound(err) {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to look up user")
	}

	return sa.createAccount(ctx, profile, derived)
}

func (sa *SocialAuthenticator) createAccount(ctx context.Context, profile *Profile, derived string) (*accounts.User, error) {
	hash, err := accounts.HashPassword(derived)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash derived password")
	}

	user := accounts.NewUser(profile.Name, profile.Email, hash)
	if profile.AvatarURL != "" {
		user.Avatar = profile.AvatarURL
	}
	// Deterministic id keyed on the email so concurrent first logins from
	// two devices converge on the same row.
	if id, err := hashid.NewUUID(profile.Email); err == nil {
		user.ID = id
	}

	err = sa.repo.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		record, err := sa.repo.Users().CreateTx(ctx, tx, user)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryConflict, "could not create user")
		}
		user = record
		return nil
	})
	if err != nil {
		return nil, err
	}

	sa.logger.Info("Social account created", "provider", profile.Provider, "email", profile.Email)
	return user, nil
}

func derivedPassword(email, secret string) string {
	return email + secret
}

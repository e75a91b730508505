package social_test

import (
	"context"
	"database/sql"
	"testing"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"

	accounts "github.com/goliatone/go-accounts"
	"github.com/goliatone/go-accounts/social"
)

type mockUsers struct {
	mock.Mock
	accounts.Users
}

func (m *mockUsers) GetByEmail(ctx context.Context, email string) (*accounts.User, error) {
	args := m.Called(ctx, email)
	user, _ := args.Get(0).(*accounts.User)
	return user, args.Error(1)
}

func (m *mockUsers) CreateTx(ctx context.Context, tx bun.IDB, record *accounts.User, criteria ...repository.InsertCriteria) (*accounts.User, error) {
	args := m.Called(ctx, tx, record)
	user, _ := args.Get(0).(*accounts.User)
	return user, args.Error(1)
}

type mockRepo struct {
	users *mockUsers
}

func newMockRepo() *mockRepo {
	return &mockRepo{users: &mockUsers{}}
}

func (m *mockRepo) Validate() error { return nil }
func (m *mockRepo) MustValidate()   {}

func (m *mockRepo) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	return f(ctx, bun.Tx{})
}

func (m *mockRepo) Users() accounts.Users { return m.users }

type stubProvider struct {
	name    string
	profile *social.Profile
	err     error
}

func (p *stubProvider) Name() string { return p.name }

func (p *stubProvider) Verify(ctx context.Context, assertion social.Assertion) (*social.Profile, error) {
	if p.err != nil {
		return nil, p.err
	}
	return p.profile, nil
}

type testConfig struct{}

func (testConfig) GetActivationSigningKey() string { return "activation-secret" }
func (testConfig) GetAccessSigningKey() string     { return "access-secret" }
func (testConfig) GetRefreshSigningKey() string    { return "refresh-secret" }
func (testConfig) GetIssuer() string               { return "accounts-test" }
func (testConfig) GetAudience() []string           { return nil }
func (testConfig) GetClientURL() string            { return "http://localhost:3000" }

func verifiedProfile() *social.Profile {
	return &social.Profile{
		Provider:       "google",
		ProviderUserID: "g-123",
		Email:          "pepe@example.com",
		EmailVerified:  true,
		Name:           "Pepe Rone",
		AvatarURL:      "https://example.com/pepe.png",
	}
}

func TestSocialLoginCreatesAccountOnFirstLogin(t *testing.T) {
	tokens := accounts.NewTokenService(testConfig{})
	repo := newMockRepo()

	repo.users.On("GetByEmail", mock.Anything, "pepe@example.com").Return(nil, sql.ErrNoRows)
	created := &accounts.User{ID: uuid.New()}
	repo.users.On("CreateTx", mock.Anything, mock.Anything, mock.AnythingOfType("*accounts.User")).
		Return(created, nil)

	auth := social.NewSocialAuthenticator(repo, tokens,
		social.WithProvider(&stubProvider{name: "google", profile: verifiedProfile()}, "google-secret"),
	)

	token, err := auth.Login(context.Background(), "google", social.Assertion{IDToken: "tok"})
	require.NoError(t, err)

	claims, err := tokens.VerifySession(accounts.TokenRefresh, token)
	require.NoError(t, err)
	assert.Equal(t, created.ID.String(), claims.UserID())

	call := repo.users.Calls[len(repo.users.Calls)-1]
	record := call.Arguments.Get(2).(*accounts.User)

	assert.Equal(t, "Pepe Rone", record.Name)
	assert.Equal(t, "pepe@example.com", record.Email)
	assert.Equal(t, "https://example.com/pepe.png", record.Avatar)
	assert.Equal(t, accounts.RoleSubscriber, record.Role)

	// The derived password is email + the provider's secret.
	assert.NoError(t, accounts.ComparePasswordAndHash("pepe@example.comgoogle-secret", record.PasswordHash))

	// First logins from two devices converge on the same deterministic id.
	wantID, err := hashid.NewUUID("pepe@example.com")
	require.NoError(t, err)
	assert.Equal(t, wantID, record.ID)
}

func TestSocialLoginMatchesExistingAccount(t *testing.T) {
	tokens := accounts.NewTokenService(testConfig{})

	hash, err := accounts.HashPassword("pepe@example.comgoogle-secret")
	require.NoError(t, err)

	existing := accounts.NewUser("Pepe Rone", "pepe@example.com", hash)
	existing.ID = uuid.New()

	repo := newMockRepo()
	repo.users.On("GetByEmail", mock.Anything, "pepe@example.com").Return(existing, nil)

	auth := social.NewSocialAuthenticator(repo, tokens,
		social.WithProvider(&stubProvider{name: "google", profile: verifiedProfile()}, "google-secret"),
	)

	token, err := auth.Login(context.Background(), "google", social.Assertion{IDToken: "tok"})
	require.NoError(t, err)

	claims, err := tokens.VerifySession(accounts.TokenRefresh, token)
	require.NoError(t, err)
	assert.Equal(t, existing.ID.String(), claims.UserID())

	repo.users.AssertNotCalled(t, "CreateTx", mock.Anything, mock.Anything, mock.Anything)
}

func TestSocialLoginRejectsPasswordAccountCollision(t *testing.T) {
	tokens := accounts.NewTokenService(testConfig{})

	// Account registered through the password flow: its hash does not match
	// the derived password.
	hash, err := accounts.HashPassword("Abc123!!")
	require.NoError(t, err)

	existing := accounts.NewUser("Pepe Rone", "pepe@example.com", hash)

	repo := newMockRepo()
	repo.users.On("GetByEmail", mock.Anything, "pepe@example.com").Return(existing, nil)

	auth := social.NewSocialAuthenticator(repo, tokens,
		social.WithProvider(&stubProvider{name: "google", profile: verifiedProfile()}, "google-secret"),
	)

	_, err = auth.Login(context.Background(), "google", social.Assertion{IDToken: "tok"})
	assert.ErrorIs(t, err, accounts.ErrBadCredentials)
}

func TestSocialLoginRejectsCrossProviderMatch(t *testing.T) {
	tokens := accounts.NewTokenService(testConfig{})

	// Account created through the facebook provider: its derived password
	// carries the facebook secret, so a google login for the same email must
	// not match it.
	hash, err := accounts.HashPassword("pepe@example.comfacebook-secret")
	require.NoError(t, err)

	existing := accounts.NewUser("Pepe Rone", "pepe@example.com", hash)
	existing.ID = uuid.New()

	repo := newMockRepo()
	repo.users.On("GetByEmail", mock.Anything, "pepe@example.com").Return(existing, nil)

	googleProfile := verifiedProfile()
	facebookProfile := verifiedProfile()
	facebookProfile.Provider = "facebook"
	facebookProfile.ProviderUserID = "fb-123"

	auth := social.NewSocialAuthenticator(repo, tokens,
		social.WithProvider(&stubProvider{name: "google", profile: googleProfile}, "google-secret"),
		social.WithProvider(&stubProvider{name: "facebook", profile: facebookProfile}, "facebook-secret"),
	)

	_, err = auth.Login(context.Background(), "google", social.Assertion{IDToken: "tok"})
	assert.ErrorIs(t, err, accounts.ErrBadCredentials)

	// The owning provider still matches.
	token, err := auth.Login(context.Background(), "facebook", social.Assertion{AccessToken: "tok"})
	require.NoError(t, err)

	claims, err := tokens.VerifySession(accounts.TokenRefresh, token)
	require.NoError(t, err)
	assert.Equal(t, existing.ID.String(), claims.UserID())
}

func TestSocialLoginUnknownProvider(t *testing.T) {
	auth := social.NewSocialAuthenticator(newMockRepo(), accounts.NewTokenService(testConfig{}))

	_, err := auth.Login(context.Background(), "myspace", social.Assertion{})
	assert.Error(t, err)
}

func TestSocialLoginUnverifiedEmail(t *testing.T) {
	profile := verifiedProfile()
	profile.EmailVerified = false

	auth := social.NewSocialAuthenticator(newMockRepo(), accounts.NewTokenService(testConfig{}),
		social.WithProvider(&stubProvider{name: "google", profile: profile}, "google-secret"),
	)

	_, err := auth.Login(context.Background(), "google", social.Assertion{IDToken: "tok"})
	assert.ErrorIs(t, err, social.ErrEmailNotVerified)
}

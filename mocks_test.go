package accounts_test

import (
	"context"
	"database/sql"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/uptrace/bun"

	accounts "github.com/goliatone/go-accounts"
)

// MockUsers implements accounts.Users. The embedded interface covers the
// generic repository surface; only the methods the flows touch are wired.
type MockUsers struct {
	mock.Mock
	accounts.Users
}

func (m *MockUsers) GetByID(ctx context.Context, id string, criteria ...repository.SelectCriteria) (*accounts.User, error) {
	args := m.Called(ctx, id)
	user, _ := args.Get(0).(*accounts.User)
	return user, args.Error(1)
}

func (m *MockUsers) GetByEmail(ctx context.Context, email string) (*accounts.User, error) {
	args := m.Called(ctx, email)
	user, _ := args.Get(0).(*accounts.User)
	return user, args.Error(1)
}

func (m *MockUsers) GetByEmailTx(ctx context.Context, tx bun.IDB, email string) (*accounts.User, error) {
	args := m.Called(ctx, tx, email)
	user, _ := args.Get(0).(*accounts.User)
	return user, args.Error(1)
}

func (m *MockUsers) CreateTx(ctx context.Context, tx bun.IDB, record *accounts.User, criteria ...repository.InsertCriteria) (*accounts.User, error) {
	args := m.Called(ctx, tx, record)
	user, _ := args.Get(0).(*accounts.User)
	return user, args.Error(1)
}

func (m *MockUsers) UpdateProfile(ctx context.Context, id uuid.UUID, name, avatar string) (*accounts.User, error) {
	args := m.Called(ctx, id, name, avatar)
	user, _ := args.Get(0).(*accounts.User)
	return user, args.Error(1)
}

func (m *MockUsers) UpdateAvatar(ctx context.Context, id uuid.UUID, avatarURL string) (*accounts.User, error) {
	args := m.Called(ctx, id, avatarURL)
	user, _ := args.Get(0).(*accounts.User)
	return user, args.Error(1)
}

func (m *MockUsers) UpdateRole(ctx context.Context, id uuid.UUID, role accounts.Role) (*accounts.User, error) {
	args := m.Called(ctx, id, role)
	user, _ := args.Get(0).(*accounts.User)
	return user, args.Error(1)
}

func (m *MockUsers) ResetPassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	args := m.Called(ctx, id, passwordHash)
	return args.Error(0)
}

func (m *MockUsers) ResetPasswordTx(ctx context.Context, tx bun.IDB, id uuid.UUID, passwordHash string) error {
	args := m.Called(ctx, tx, id, passwordHash)
	return args.Error(0)
}

func (m *MockUsers) ListAll(ctx context.Context) ([]*accounts.User, error) {
	args := m.Called(ctx)
	users, _ := args.Get(0).([]*accounts.User)
	return users, args.Error(1)
}

func (m *MockUsers) ListManaged(ctx context.Context, actorID uuid.UUID) ([]*accounts.User, error) {
	args := m.Called(ctx, actorID)
	users, _ := args.Get(0).([]*accounts.User)
	return users, args.Error(1)
}

func (m *MockUsers) DeleteByID(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockRepositoryManager implements accounts.RepositoryManager. RunInTx
// invokes the callback with a zero transaction so the flow under test can
// reach the mocked repository methods.
type MockRepositoryManager struct {
	mock.Mock
	users *MockUsers
}

func NewMockRepositoryManager() *MockRepositoryManager {
	return &MockRepositoryManager{users: &MockUsers{}}
}

func (m *MockRepositoryManager) Validate() error { return nil }

func (m *MockRepositoryManager) MustValidate() {}

func (m *MockRepositoryManager) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	return f(ctx, bun.Tx{})
}

func (m *MockRepositoryManager) Users() accounts.Users {
	return m.users
}

// MockMailer implements accounts.Mailer
type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) Send(ctx context.Context, to, link, subject string) error {
	args := m.Called(ctx, to, link, subject)
	return args.Error(0)
}

// testConfig implements accounts.Config
type testConfig struct {
	activation string
	access     string
	refresh    string
	issuer     string
	audience   []string
	clientURL  string
}

func newTestConfig() testConfig {
	return testConfig{
		activation: "activation-secret",
		access:     "access-secret",
		refresh:    "refresh-secret",
		issuer:     "accounts-test",
		clientURL:  "http://localhost:3000",
	}
}

func (c testConfig) GetActivationSigningKey() string { return c.activation }
func (c testConfig) GetAccessSigningKey() string     { return c.access }
func (c testConfig) GetRefreshSigningKey() string    { return c.refresh }
func (c testConfig) GetIssuer() string               { return c.issuer }
func (c testConfig) GetAudience() []string           { return c.audience }
func (c testConfig) GetClientURL() string            { return c.clientURL }

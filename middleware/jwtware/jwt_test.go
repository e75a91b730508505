package jwtware_test

import (
	"errors"
	"testing"

	"github.com/goliatone/go-router"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-accounts/middleware/jwtware"
)

type stubClaims struct {
	uid  string
	role string
}

func (c stubClaims) UserID() string { return c.uid }
func (c stubClaims) Role() string   { return c.role }

type stubValidator struct {
	claims jwtware.AuthClaims
	err    error

	seen string
}

func (v *stubValidator) Validate(tokenString string) (jwtware.AuthClaims, error) {
	v.seen = tokenString
	if v.err != nil {
		return nil, v.err
	}
	return v.claims, nil
}

func baseConfig(validator jwtware.TokenValidator) jwtware.Config {
	return jwtware.Config{
		TokenValidator: validator,
		SigningKey: jwtware.SigningKey{
			Key:    []byte("test-secret"),
			JWTAlg: "HS256",
		},
		ErrorHandler: func(ctx router.Context, err error) error {
			return err
		},
	}
}

func TestJWTWare_BearerHeader(t *testing.T) {
	validator := &stubValidator{claims: stubClaims{uid: "u-12345"}}
	handler := jwtware.New(baseConfig(validator))(func(ctx router.Context) error {
		return nil
	})

	t.Run("valid token reaches the success handler", func(t *testing.T) {
		ctx := router.NewMockContext()
		ctx.HeadersM[router.HeaderAuthorization] = "Bearer raw.jwt.token"
		ctx.On("GetString", router.HeaderAuthorization, "").Return("Bearer raw.jwt.token")
		ctx.On("Locals", "user", mock.Anything).Return(nil)

		require.NoError(t, handler(ctx))
		require.True(t, ctx.NextCalled)
		require.Equal(t, "raw.jwt.token", validator.seen)
	})

	t.Run("missing token", func(t *testing.T) {
		ctx := router.NewMockContext()
		ctx.On("GetString", router.HeaderAuthorization, "").Return("")

		err := handler(ctx)
		require.ErrorIs(t, err, jwtware.ErrJWTMissingOrMalformed)
	})

	t.Run("wrong auth scheme", func(t *testing.T) {
		ctx := router.NewMockContext()
		ctx.On("GetString", router.HeaderAuthorization, "").Return("Basic dXNlcjpwYXNz")

		err := handler(ctx)
		require.ErrorIs(t, err, jwtware.ErrJWTMissingOrMalformed)
	})
}

func TestJWTWare_ValidatorRejection(t *testing.T) {
	wantErr := errors.New("token is expired")
	validator := &stubValidator{err: wantErr}

	handler := jwtware.New(baseConfig(validator))(func(ctx router.Context) error {
		return nil
	})

	ctx := router.NewMockContext()
	ctx.On("GetString", router.HeaderAuthorization, "").Return("Bearer expired.jwt.token")

	err := handler(ctx)
	require.ErrorIs(t, err, wantErr)
	require.False(t, ctx.NextCalled)
}

func TestJWTWare_CustomTokenLookup(t *testing.T) {
	validator := &stubValidator{claims: stubClaims{uid: "u-12345"}}

	cfg := baseConfig(validator)
	cfg.TokenLookup = "query:token,param:jwt,cookie:jwt_cookie"
	handler := jwtware.New(cfg)(func(ctx router.Context) error {
		return nil
	})

	t.Run("query", func(t *testing.T) {
		ctx := router.NewMockContext()
		ctx.QueriesM["token"] = "from-query"
		ctx.On("Locals", "user", mock.Anything).Return(nil)

		require.NoError(t, handler(ctx))
		require.Equal(t, "from-query", validator.seen)
	})

	t.Run("param", func(t *testing.T) {
		ctx := router.NewMockContext()
		ctx.ParamsM["jwt"] = "from-param"
		ctx.On("Locals", "user", mock.Anything).Return(nil)

		require.NoError(t, handler(ctx))
		require.Equal(t, "from-param", validator.seen)
	})

	t.Run("cookie", func(t *testing.T) {
		ctx := router.NewMockContext()
		ctx.CookiesM["jwt_cookie"] = "from-cookie"
		ctx.On("Locals", "user", mock.Anything).Return(nil)

		require.NoError(t, handler(ctx))
		require.Equal(t, "from-cookie", validator.seen)
	})

	t.Run("nothing anywhere", func(t *testing.T) {
		ctx := router.NewMockContext()

		err := handler(ctx)
		require.ErrorIs(t, err, jwtware.ErrJWTMissingOrMalformed)
	})
}

func TestJWTWare_Filter(t *testing.T) {
	validator := &stubValidator{claims: stubClaims{uid: "u-12345"}}

	cfg := baseConfig(validator)
	cfg.Filter = func(ctx router.Context) bool { return true }
	handler := jwtware.New(cfg)(func(ctx router.Context) error {
		return nil
	})

	ctx := router.NewMockContext()
	require.NoError(t, handler(ctx))
	require.True(t, ctx.NextCalled)
	require.Empty(t, validator.seen)
}

func TestJWTWare_ValidationListeners(t *testing.T) {
	validator := &stubValidator{claims: stubClaims{uid: "u-12345", role: "subscriber"}}

	denied := errors.New("listener denied")

	cfg := baseConfig(validator)
	cfg.ValidationListeners = []jwtware.ValidationListener{
		func(ctx router.Context, claims jwtware.AuthClaims) error {
			if claims.Role() == "subscriber" {
				return denied
			}
			return nil
		},
	}
	handler := jwtware.New(cfg)(func(ctx router.Context) error {
		return nil
	})

	ctx := router.NewMockContext()
	ctx.On("GetString", router.HeaderAuthorization, "").Return("Bearer raw.jwt.token")

	err := handler(ctx)
	require.ErrorIs(t, err, denied)
}

func TestJWTWare_RequiresValidator(t *testing.T) {
	require.Panics(t, func() {
		jwtware.GetDefaultConfig(jwtware.Config{
			SigningKey: jwtware.SigningKey{Key: []byte("k"), JWTAlg: "HS256"},
		})
	})
}

func TestJWTWare_RequiresKeySource(t *testing.T) {
	require.Panics(t, func() {
		jwtware.GetDefaultConfig(jwtware.Config{
			TokenValidator: &stubValidator{},
		})
	})
}

package accounts

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/goliatone/go-errors"
	"github.com/stretchr/testify/assert"

	"github.com/goliatone/go-accounts/middleware/jwtware"
)

func TestNormalizeRouteErrorMissingBearerToken(t *testing.T) {
	rich := normalizeRouteError(jwtware.ErrJWTMissingOrMalformed)

	assert.Equal(t, errors.CategoryAuth, rich.Category)
	assert.Equal(t, TextCodeNotAuthenticated, rich.TextCode)
	assert.Equal(t, http.StatusUnauthorized, rich.Code)
}

func TestNormalizeRouteErrorWrappedBearerFailure(t *testing.T) {
	err := fmt.Errorf("middleware: %w", jwtware.ErrJWTMissingOrMalformed)
	rich := normalizeRouteError(err)

	assert.Equal(t, errors.CategoryAuth, rich.Category)
	assert.Equal(t, http.StatusUnauthorized, rich.Code)
}

func TestNormalizeRouteErrorKeepsRichErrors(t *testing.T) {
	rich := normalizeRouteError(ErrUserNotFound)
	assert.Equal(t, ErrUserNotFound.TextCode, rich.TextCode)
}

func TestNormalizeRouteErrorWrapsUnknownErrors(t *testing.T) {
	rich := normalizeRouteError(fmt.Errorf("boom"))

	assert.Equal(t, errors.CategoryInternal, rich.Category)
	assert.Equal(t, http.StatusInternalServerError, statusForCategory(rich.Category))
}

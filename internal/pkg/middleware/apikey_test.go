package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runAPIKeyMiddleware(configuredKey, sentKey string) (*httptest.ResponseRecorder, error) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/tracking/simulator/location", nil)
	if sentKey != "" {
		req.Header.Set(APIKeyHeader, sentKey)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	mw := ValidateAPIKey(configuredKey)
	handler := mw(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	return rec, handler(c)
}

func TestValidateAPIKey_Success(t *testing.T) {
	rec, err := runAPIKeyMiddleware("secret-key", "secret-key")

	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestValidateAPIKey_WrongKey(t *testing.T) {
	rec, err := runAPIKeyMiddleware("secret-key", "wrong-key")

	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestValidateAPIKey_MissingKey(t *testing.T) {
	rec, err := runAPIKeyMiddleware("secret-key", "")

	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestValidateAPIKey_NoKeyConfiguredRejectsAll(t *testing.T) {
	rec, err := runAPIKeyMiddleware("", "any-key")

	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

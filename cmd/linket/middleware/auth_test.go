package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linkethq/linket/common/config"
)

func invoke(mw echo.MiddlewareFunc, headers map[string]string) (*httptest.ResponseRecorder, bool) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	reached := false
	handler := mw(func(c echo.Context) error {
		reached = true
		return c.NoContent(http.StatusOK)
	})
	_ = handler(c)
	return rec, reached
}

func TestExtractUserID_SetsContext(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-User-ID", "user_1")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := ExtractUserID()(func(c echo.Context) error {
		assert.Equal(t, "user_1", GetUserID(c))
		return c.NoContent(http.StatusOK)
	})
	require.NoError(t, handler(c))
}

func TestExtractUserID_AllowsAnonymous(t *testing.T) {
	_, reached := invoke(ExtractUserID(), nil)
	assert.True(t, reached)
}

func TestRequireUserID_RejectsMissingHeader(t *testing.T) {
	rec, reached := invoke(RequireUserID(), nil)
	assert.False(t, reached)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireUserID_PassesWithHeader(t *testing.T) {
	rec, reached := invoke(RequireUserID(), map[string]string{"X-User-ID": "user_1"})
	assert.True(t, reached)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func adminConfig(adminIDs ...string) *config.Config {
	cfg := &config.Config{}
	cfg.Admin.UserIDs = adminIDs
	cfg.Admin.InternalSecret = "s3cret"
	return cfg
}

func TestRequireAdmin_AllowsListedAccount(t *testing.T) {
	cfg := adminConfig("admin_1")
	mw := func(next echo.HandlerFunc) echo.HandlerFunc {
		return RequireUserID()(RequireAdmin(cfg)(next))
	}

	rec, reached := invoke(mw, map[string]string{"X-User-ID": "admin_1"})
	assert.True(t, reached)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireAdmin_RejectsUnlistedAccount(t *testing.T) {
	cfg := adminConfig("admin_1")
	mw := func(next echo.HandlerFunc) echo.HandlerFunc {
		return RequireUserID()(RequireAdmin(cfg)(next))
	}

	rec, reached := invoke(mw, map[string]string{"X-User-ID": "user_1"})
	assert.False(t, reached)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRequireInternalSecret(t *testing.T) {
	cfg := adminConfig()

	rec, reached := invoke(RequireInternalSecret(cfg), map[string]string{"X-Internal-Service": "s3cret"})
	assert.True(t, reached)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, reached = invoke(RequireInternalSecret(cfg), map[string]string{"X-Internal-Service": "wrong"})
	assert.False(t, reached)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, reached = invoke(RequireInternalSecret(cfg), nil)
	assert.False(t, reached)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireInternalSecret_UnsetSecretDisablesRoutes(t *testing.T) {
	cfg := &config.Config{}

	rec, reached := invoke(RequireInternalSecret(cfg), map[string]string{"X-Internal-Service": ""})
	assert.False(t, reached)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

package middleware_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moizayub1255/Tezaabi-Tottay/internal/middleware"
	"github.com/moizayub1255/Tezaabi-Tottay/internal/models"
	"github.com/moizayub1255/Tezaabi-Tottay/internal/repositories"
	"github.com/moizayub1255/Tezaabi-Tottay/internal/services"
	"github.com/moizayub1255/Tezaabi-Tottay/internal/session"
)

func setup(t *testing.T) (*fiber.App, *services.AuthService) {
	t.Helper()
	authService := services.NewAuthService(repositories.NewMockUserRepository(), session.NewMemoryStore(), nil, "test_jwt_secret", time.Hour)

	app := fiber.New()
	app.Use(requestid.New(), middleware.RequestLogger())
	app.Get("/private", middleware.ProtectRoute(authService), func(c *fiber.Ctx) error {
		return c.SendString(middleware.UserID(c))
	})
	return app, authService
}

func body(t *testing.T, resp *http.Response) string {
	t.Helper()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()
	return string(b)
}

func TestProtectRouteWithoutToken(t *testing.T) {
	app, _ := setup(t)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/private", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.JSONEq(t, `{"success":false,"message":"Unauthorized - No Token Provided"}`, body(t, resp))
}

func TestProtectRouteAcceptsCookieAndBearer(t *testing.T) {
	app, authService := setup(t)
	token, err := authService.IssueToken(&models.User{ID: "user-7", Username: "neo"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/private", nil)
	req.AddCookie(&http.Cookie{Name: middleware.CookieName, Value: token})
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "user-7", body(t, resp))

	req = httptest.NewRequest(http.MethodGet, "/private", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get(fiber.HeaderXRequestID))
}

func TestProtectRouteRejectsInvalidAndRevokedTokens(t *testing.T) {
	app, authService := setup(t)

	req := httptest.NewRequest(http.MethodGet, "/private", nil)
	req.Header.Set("Authorization", "Bearer not.a.token")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	token, err := authService.IssueToken(&models.User{ID: "user-7", Username: "neo"})
	require.NoError(t, err)
	sess, err := authService.ValidateToken(context.Background(), token)
	require.NoError(t, err)
	require.NoError(t, authService.RevokeToken(context.Background(), sess))

	req = httptest.NewRequest(http.MethodGet, "/private", nil)
	req.AddCookie(&http.Cookie{Name: middleware.CookieName, Value: token})
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

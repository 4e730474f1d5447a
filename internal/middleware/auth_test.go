package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openclaw/pokerhall/internal/httperr"
	"github.com/openclaw/pokerhall/internal/models"
	"github.com/openclaw/pokerhall/internal/tokens"
)

func newTestCodec(t *testing.T) *tokens.Codec {
	t.Helper()
	codec, err := tokens.NewCodec([]byte("mw-access-secret"), []byte("mw-refresh-secret"))
	require.NoError(t, err)
	return codec
}

func signFor(t *testing.T, codec *tokens.Codec, role models.Role) string {
	t.Helper()
	token, _, err := codec.SignAccess(&models.User{ID: 7, Username: "alice", Role: role})
	require.NoError(t, err)
	return token
}

func runAuth(t *testing.T, codec *tokens.Codec, decorate func(*http.Request)) error {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	decorate(req)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	mw := NewAuth(codec)
	handler := mw.RequireAuth(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	return handler(c)
}

func TestRequireAuth_MissingToken(t *testing.T) {
	t.Parallel()

	err := runAuth(t, newTestCodec(t), func(*http.Request) {})

	var httpErr *httperr.Error
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusUnauthorized, httpErr.Status)
	assert.Equal(t, "Missing authentication token", httpErr.Message)
}

func TestRequireAuth_CookieTransport(t *testing.T) {
	t.Parallel()

	codec := newTestCodec(t)
	token := signFor(t, codec, models.RolePlayer)

	err := runAuth(t, codec, func(req *http.Request) {
		req.AddCookie(&http.Cookie{Name: "access_token", Value: token})
	})
	assert.NoError(t, err)
}

func TestRequireAuth_BearerFallback(t *testing.T) {
	t.Parallel()

	codec := newTestCodec(t)
	token := signFor(t, codec, models.RolePlayer)

	err := runAuth(t, codec, func(req *http.Request) {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	})
	assert.NoError(t, err)
}

func TestRequireAuth_InvalidToken(t *testing.T) {
	t.Parallel()

	err := runAuth(t, newTestCodec(t), func(req *http.Request) {
		req.AddCookie(&http.Cookie{Name: "access_token", Value: "garbage"})
	})

	var httpErr *httperr.Error
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusUnauthorized, httpErr.Status)
	assert.Equal(t, "Invalid or expired token", httpErr.Message)
}

func TestRequireAuth_AttachesClaims(t *testing.T) {
	t.Parallel()

	codec := newTestCodec(t)
	token := signFor(t, codec, models.RoleModerator)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.AddCookie(&http.Cookie{Name: "access_token", Value: token})
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	mw := NewAuth(codec)
	err := mw.RequireAuth(func(c echo.Context) error {
		claims := ClaimsFromContext(c)
		require.NotNil(t, claims)
		assert.Equal(t, uint(7), claims.UserID)
		assert.Equal(t, "alice", claims.Username)
		assert.Equal(t, models.RoleModerator, claims.Role)
		return c.NoContent(http.StatusOK)
	})(c)
	assert.NoError(t, err)
}

func TestRequireRole(t *testing.T) {
	t.Parallel()

	codec := newTestCodec(t)

	tests := []struct {
		name    string
		role    models.Role
		allowed []models.Role
		wantOK  bool
	}{
		{"admin allowed", models.RoleAdmin, []models.Role{models.RoleAdmin}, true},
		{"player rejected", models.RolePlayer, []models.Role{models.RoleAdmin}, false},
		{"moderator in allow-list", models.RoleModerator, []models.Role{models.RoleAdmin, models.RoleModerator}, true},
		{"player not in allow-list", models.RolePlayer, []models.Role{models.RoleAdmin, models.RoleModerator}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodPost, "/admin", nil)
			req.AddCookie(&http.Cookie{Name: "access_token", Value: signFor(t, codec, tt.role)})
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			mw := NewAuth(codec)
			chain := mw.RequireAuth(RequireRole(tt.allowed...)(func(c echo.Context) error {
				return c.NoContent(http.StatusOK)
			}))
			err := chain(c)

			if tt.wantOK {
				assert.NoError(t, err)
				return
			}
			var httpErr *httperr.Error
			require.ErrorAs(t, err, &httpErr)
			assert.Equal(t, http.StatusForbidden, httpErr.Status)
			assert.Equal(t, tt.allowed, httpErr.RequiredRole)
		})
	}
}

func TestRequireRole_WithoutAuthGate(t *testing.T) {
	t.Parallel()

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/admin", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := RequireRole(models.RoleAdmin)(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})(c)

	var httpErr *httperr.Error
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusForbidden, httpErr.Status)
}

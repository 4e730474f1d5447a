package httpserver

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/openclaw/pokerhall/internal/cache"
	dbpkg "github.com/openclaw/pokerhall/internal/db"
	"github.com/openclaw/pokerhall/internal/hash"
	"github.com/openclaw/pokerhall/internal/httperr"
	"github.com/openclaw/pokerhall/internal/middleware"
	"github.com/openclaw/pokerhall/internal/models"
	"github.com/openclaw/pokerhall/internal/repo"
	"github.com/openclaw/pokerhall/internal/service"
	"github.com/openclaw/pokerhall/internal/tokens"
)

type testEnv struct {
	T     *testing.T
	E     *echo.Echo
	DB    *gorm.DB
	Repo  *repo.GormRepo
	Codec *tokens.Codec
}

func newTestEnv(t *testing.T) *testEnv {
	return newTestEnvWithCache(t, nil)
}

func newTestEnvWithCache(t *testing.T, lbCache *cache.LeaderboardCache) *testEnv {
	t.Helper()

	dsn := fmt.Sprintf("file:httpserver_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, dbpkg.Migrate(db))

	codec, err := tokens.NewCodec([]byte("test-jwt-secret"), []byte("test-refresh-secret"))
	require.NoError(t, err)

	gormRepo := repo.New(db)
	authSvc := &service.AuthService{Repo: gormRepo, Codec: codec}

	e := echo.New()
	e.HTTPErrorHandler = httperr.Handler(false)

	Register(e, &Deps{
		Auth:        middleware.NewAuth(codec),
		AuthHandler: &AuthHandler{Svc: authSvc},
		Tournaments: &TournamentHandler{Repo: gormRepo, Cache: lbCache},
		Matches:     &MatchHandler{Repo: gormRepo},
		Leaderboard: &LeaderboardHandler{Repo: gormRepo, Cache: lbCache},
	})

	return &testEnv{T: t, E: e, DB: db, Repo: gormRepo, Codec: codec}
}

func (env *testEnv) do(method, path string, body any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	env.T.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(env.T, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}

	rec := httptest.NewRecorder()
	env.E.ServeHTTP(rec, req)
	return rec
}

func (env *testEnv) decodeBody(rec *httptest.ResponseRecorder) map[string]any {
	env.T.Helper()
	var out map[string]any
	require.NoError(env.T, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func (env *testEnv) errorCode(rec *httptest.ResponseRecorder) string {
	env.T.Helper()
	var resp struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(env.T, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Error.Code
}

// createUser seeds a user directly, bypassing the registration endpoint, so
// tests can mint admins and moderators.
func (env *testEnv) createUser(username, password string, role models.Role) *models.User {
	env.T.Helper()
	pwHash, err := hash.HashPassword(password)
	require.NoError(env.T, err)
	user := &models.User{Username: username, PasswordHash: pwHash, Role: role}
	require.NoError(env.T, env.DB.Create(user).Error)
	return user
}

func sessionCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == name {
			return ck
		}
	}
	return nil
}

// login runs the real login endpoint and returns the session cookies.
func (env *testEnv) login(username, password string) (access, refresh *http.Cookie) {
	env.T.Helper()
	rec := env.do(http.MethodPost, "/api/auth/login", map[string]string{
		"username": username,
		"password": password,
	})
	require.Equal(env.T, http.StatusOK, rec.Code, "login failed: %s", rec.Body.String())
	access = sessionCookie(rec, AccessCookie)
	refresh = sessionCookie(rec, RefreshCookie)
	require.NotNil(env.T, access)
	require.NotNil(env.T, refresh)
	return access, refresh
}

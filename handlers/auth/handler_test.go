package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tech-arch1tect/hrcore/config"
	"github.com/tech-arch1tect/hrcore/middleware/csrf"
	"github.com/tech-arch1tect/hrcore/server"
	authsvc "github.com/tech-arch1tect/hrcore/services/auth"
	"github.com/tech-arch1tect/hrcore/services/jwt"
	"github.com/tech-arch1tect/hrcore/services/password"
	"github.com/tech-arch1tect/hrcore/services/user"
	"github.com/tech-arch1tect/hrcore/session"
	"github.com/tech-arch1tect/hrcore/testutils"
)

type testClient struct {
	t       *testing.T
	cfg     *config.Config
	handler http.Handler
	cookies map[string]string
}

func setupServer(t *testing.T) *testClient {
	t.Helper()

	cfg := testutils.GetTestConfig()
	db := testutils.SetupTestDB(t, &user.Organization{}, &user.User{}, &session.Session{})
	hasher, err := password.NewHasher(cfg)
	require.NoError(t, err)

	tokens := jwt.NewService(cfg, nil)
	service := authsvc.NewService(cfg, user.NewStore(db), session.NewLedger(db, cfg, nil), tokens, hasher, nil)

	srv := server.New(cfg, nil, csrf.NewGuard(&cfg.CSRF), nil)
	RegisterRoutes(srv, cfg, NewHandler(cfg, service, nil), tokens)

	return &testClient{t: t, cfg: cfg, handler: srv.Echo(), cookies: map[string]string{}}
}

// do sends a request carrying the stored cookies, and the CSRF header when
// withCSRF is set, then records any cookies the response sets or clears.
func (tc *testClient) do(method, path, body string, withCSRF bool) *httptest.ResponseRecorder {
	tc.t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for name, value := range tc.cookies {
		req.AddCookie(&http.Cookie{Name: name, Value: value})
	}
	if withCSRF {
		req.Header.Set(tc.cfg.CSRF.HeaderName, tc.cookies[tc.cfg.CSRF.CookieName])
	}

	rec := httptest.NewRecorder()
	tc.handler.ServeHTTP(rec, req)

	for _, cookie := range rec.Result().Cookies() {
		if cookie.MaxAge < 0 || cookie.Value == "" {
			delete(tc.cookies, cookie.Name)
			continue
		}
		tc.cookies[cookie.Name] = cookie.Value
	}
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) server.ErrorBody {
	t.Helper()
	var resp server.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Error
}

const registerBody = `{"email":"ada@acme.test","password":"Password123","orgName":"Acme"}`

func TestRegisterAndMe(t *testing.T) {
	tc := setupServer(t)

	rec := tc.do(http.MethodPost, "/api/v1/auth/register", registerBody, false)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp UserResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ada@acme.test", resp.User.Email)
	assert.Equal(t, "user", resp.User.Role)
	assert.NotEmpty(t, resp.User.OrgID)
	assert.False(t, resp.User.EmailVerified)

	for _, c := range rec.Result().Cookies() {
		switch c.Name {
		case "access_token", "refresh_token":
			assert.True(t, c.HttpOnly, c.Name)
		case "csrf_token":
			assert.False(t, c.HttpOnly)
		}
		assert.Equal(t, "/", c.Path)
		assert.Equal(t, http.SameSiteLaxMode, c.SameSite)
	}
	assert.Len(t, tc.cookies, 3)

	rec = tc.do(http.MethodGet, "/api/v1/auth/me", "", false)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ada@acme.test", resp.User.Email)

	t.Run("duplicate", func(t *testing.T) {
		rec := tc.do(http.MethodPost, "/api/v1/auth/register", registerBody, false)
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, "EMAIL_TAKEN", decodeError(t, rec).Code)
	})

	t.Run("validation", func(t *testing.T) {
		rec := tc.do(http.MethodPost, "/api/v1/auth/register", `{"email":"bad","password":"short","orgName":"A"}`, false)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		body := decodeError(t, rec)
		assert.Equal(t, "BAD_REQUEST", body.Code)
		details, ok := body.Details.(map[string]any)
		require.True(t, ok)
		assert.Contains(t, details, "email")
		assert.Contains(t, details, "password")
		assert.Contains(t, details, "orgName")
	})

	t.Run("malformed json", func(t *testing.T) {
		rec := tc.do(http.MethodPost, "/api/v1/auth/register", `{"email":`, false)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestMe_RequiresAccess(t *testing.T) {
	tc := setupServer(t)

	rec := tc.do(http.MethodGet, "/api/v1/auth/me", "", false)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "UNAUTHORIZED", decodeError(t, rec).Code)
}

func TestLogin(t *testing.T) {
	tc := setupServer(t)
	tc.do(http.MethodPost, "/api/v1/auth/register", registerBody, false)
	tc.cookies = map[string]string{}

	rec := tc.do(http.MethodPost, "/api/v1/auth/login", `{"email":"ada@acme.test","password":"wrong-password"}`, false)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "INVALID_CREDENTIALS", decodeError(t, rec).Code)
	assert.Empty(t, tc.cookies)

	rec = tc.do(http.MethodPost, "/api/v1/auth/login", `{"email":"ada@acme.test","password":"Password123"}`, false)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, tc.cookies, 3)
}

func TestRefreshFlow(t *testing.T) {
	tc := setupServer(t)
	tc.do(http.MethodPost, "/api/v1/auth/register", registerBody, false)
	original := tc.cookies["refresh_token"]

	t.Run("csrf required", func(t *testing.T) {
		rec := tc.do(http.MethodPost, "/api/v1/auth/refresh", "", false)
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, "CSRF", decodeError(t, rec).Code)
	})

	rec := tc.do(http.MethodPost, "/api/v1/auth/refresh", "", true)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.NotEqual(t, original, tc.cookies["refresh_token"])

	rec = tc.do(http.MethodGet, "/api/v1/auth/sessions", "", false)
	require.Equal(t, http.StatusOK, rec.Code)
	var sessions SessionsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sessions))
	require.Len(t, sessions.Sessions, 2)
	assert.True(t, sessions.Sessions[0].Current)
	assert.True(t, sessions.Sessions[0].Active)
	assert.False(t, sessions.Sessions[1].Active)

	t.Run("replay revokes the family and clears cookies", func(t *testing.T) {
		tc.cookies["refresh_token"] = original
		rec := tc.do(http.MethodPost, "/api/v1/auth/refresh", "", true)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		body := decodeError(t, rec)
		assert.Equal(t, "UNAUTHORIZED", body.Code)
		assert.Equal(t, "reused", body.Message)
		assert.Empty(t, tc.cookies)
	})
}

func TestRefresh_NoCookie(t *testing.T) {
	tc := setupServer(t)
	tc.cookies["csrf_token"] = "abc"

	rec := tc.do(http.MethodPost, "/api/v1/auth/refresh", "", true)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogoutAndLogoutAll(t *testing.T) {
	tc := setupServer(t)
	tc.do(http.MethodPost, "/api/v1/auth/register", registerBody, false)

	rec := tc.do(http.MethodPost, "/api/v1/auth/logout-all", "", true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, tc.cookies)

	tc.do(http.MethodPost, "/api/v1/auth/login", `{"email":"ada@acme.test","password":"Password123"}`, false)
	require.Len(t, tc.cookies, 3)

	rec = tc.do(http.MethodPost, "/api/v1/auth/logout", "", true)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ok":true}`, rec.Body.String())
	assert.Empty(t, tc.cookies)

	t.Run("logout with junk still succeeds", func(t *testing.T) {
		tc.cookies["refresh_token"] = "junk"
		tc.cookies["csrf_token"] = "abc"
		rec := tc.do(http.MethodPost, "/api/v1/auth/logout", "", true)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestChangePassword(t *testing.T) {
	tc := setupServer(t)
	tc.do(http.MethodPost, "/api/v1/auth/register", registerBody, false)

	rec := tc.do(http.MethodPost, "/api/v1/auth/change-password", `{"currentPassword":"nope-nope","newPassword":"Different456"}`, true)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = tc.do(http.MethodPost, "/api/v1/auth/change-password", `{"currentPassword":"Password123","newPassword":"Different456"}`, true)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = tc.do(http.MethodPost, "/api/v1/auth/login", `{"email":"ada@acme.test","password":"Different456"}`, false)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestPurposeRoutes(t *testing.T) {
	tc := setupServer(t)
	tc.do(http.MethodPost, "/api/v1/auth/register", registerBody, false)

	rec := tc.do(http.MethodPost, "/api/v1/auth/send-verify-email", "", true)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = tc.do(http.MethodGet, "/api/v1/auth/verify-email", "", false)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "TOKEN_INVALID", decodeError(t, rec).Code)

	rec = tc.do(http.MethodGet, "/api/v1/auth/verify-email?token=forged", "", false)
	assert.Equal(t, "TOKEN_INVALID", decodeError(t, rec).Code)

	rec = tc.do(http.MethodPost, "/api/v1/auth/forgot-password", `{"email":"nobody@acme.test"}`, false)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = tc.do(http.MethodPost, "/api/v1/auth/reset-password", `{"token":"forged","newPassword":"Different456"}`, false)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "TOKEN_INVALID", decodeError(t, rec).Code)
}

func TestServerRoutes(t *testing.T) {
	tc := setupServer(t)

	rec := tc.do(http.MethodGet, "/health", "", false)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = tc.do(http.MethodGet, "/api/v1/nope", "", false)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND", decodeError(t, rec).Code)
}

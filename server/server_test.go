package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tech-arch1tect/hrcore/middleware/csrf"
	"github.com/tech-arch1tect/hrcore/services/auth"
	"github.com/tech-arch1tect/hrcore/testutils"
	"github.com/tech-arch1tect/hrcore/validation"
)

func TestNew(t *testing.T) {
	cfg := testutils.GetTestConfig()

	t.Run("with registry", func(t *testing.T) {
		srv := New(cfg, nil, nil, NewRegistry())
		require.NotNil(t, srv.Echo())
		assert.Equal(t, "localhost:0", srv.Addr())

		rec := httptest.NewRecorder()
		srv.Echo().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "go_goroutines")
	})

	t.Run("without registry", func(t *testing.T) {
		srv := New(cfg, nil, nil, nil)

		rec := httptest.NewRecorder()
		srv.Echo().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestHealth(t *testing.T) {
	srv := New(testutils.GetTestConfig(), nil, nil, nil)

	rec := httptest.NewRecorder()
	srv.Echo().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "hrcore-test", body["service"])
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"validation", validation.FieldError("email", "must be a valid email"), http.StatusBadRequest, "BAD_REQUEST"},
		{"invalid credentials", auth.ErrInvalidCredentials, http.StatusUnauthorized, "INVALID_CREDENTIALS"},
		{"email taken", fmt.Errorf("create: %w", auth.ErrEmailTaken), http.StatusConflict, "EMAIL_TAKEN"},
		{"refresh reused", auth.ErrRefreshReused, http.StatusUnauthorized, "UNAUTHORIZED"},
		{"unauthorized", fmt.Errorf("%w: expired", auth.ErrUnauthorized), http.StatusUnauthorized, "UNAUTHORIZED"},
		{"token invalid", auth.ErrTokenInvalid, http.StatusBadRequest, "TOKEN_INVALID"},
		{"csrf", csrf.ErrCSRF, http.StatusForbidden, "CSRF"},
		{"not found", auth.ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
		{"echo http error", echo.NewHTTPError(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED"},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := Classify(tt.err)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.code, body.Code)
			assert.NotContains(t, body.Message, "boom")
		})
	}

	t.Run("reuse message", func(t *testing.T) {
		_, body := Classify(auth.ErrRefreshReused)
		assert.Equal(t, "reused", body.Message)
	})

	t.Run("validation details", func(t *testing.T) {
		_, body := Classify(validation.FieldError("password", "too short"))
		assert.Equal(t, map[string]string{"password": "too short"}, body.Details)
	})
}

func TestErrorHandler(t *testing.T) {
	logger, logs := testutils.ObservedLogger()
	srv := New(testutils.GetTestConfig(), logger, nil, nil)
	srv.Get("/boom", func(c echo.Context) error {
		return errors.New("database exploded")
	})
	srv.Get("/denied", func(c echo.Context) error {
		return auth.ErrUnauthorized
	})

	t.Run("internal errors are hidden and logged", func(t *testing.T) {
		rec := httptest.NewRecorder()
		srv.Echo().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.NotContains(t, rec.Body.String(), "exploded")
		assert.Equal(t, 1, logs.FilterMessage("request failed").Len())
	})

	t.Run("client errors use the envelope", func(t *testing.T) {
		rec := httptest.NewRecorder()
		srv.Echo().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/denied", nil))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.JSONEq(t, `{"error":{"code":"UNAUTHORIZED","message":"unauthorized"}}`, rec.Body.String())
	})

	t.Run("head requests have no body", func(t *testing.T) {
		rec := httptest.NewRecorder()
		srv.Echo().ServeHTTP(rec, httptest.NewRequest(http.MethodHead, "/missing", nil))

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Empty(t, rec.Body.String())
	})
}

func TestCSRFGuardIsGlobal(t *testing.T) {
	cfg := testutils.GetTestConfig()
	srv := New(cfg, nil, csrf.NewGuard(&cfg.CSRF), nil)
	srv.Post("/api/v1/things", func(c echo.Context) error {
		return c.NoContent(http.StatusNoContent)
	})

	rec := httptest.NewRecorder()
	srv.Echo().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/things", nil))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/things", nil)
	req.AddCookie(&http.Cookie{Name: cfg.CSRF.CookieName, Value: "token-value"})
	req.Header.Set(cfg.CSRF.HeaderName, "token-value")
	rec = httptest.NewRecorder()
	srv.Echo().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestHTTPMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewHTTPMetrics(reg)

	e := echo.New()
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		status, body := Classify(err)
		_ = c.JSON(status, ErrorResponse{Error: body})
	}
	e.Use(m.Middleware("/health"))
	e.GET("/ok", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	e.GET("/fail", func(c echo.Context) error { return auth.ErrUnauthorized })
	e.GET("/health", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	for _, path := range []string{"/ok", "/ok", "/fail", "/health"} {
		e.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requests.WithLabelValues("GET", "/ok", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("GET", "/fail", "401")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.inFlight))

	expected := `
# HELP hrcore_http_requests_total Total number of HTTP requests
# TYPE hrcore_http_requests_total counter
hrcore_http_requests_total{method="GET",path="/fail",status="401"} 1
hrcore_http_requests_total{method="GET",path="/ok",status="200"} 2
`
	assert.NoError(t, testutil.CollectAndCompare(m.requests, strings.NewReader(expected)))
}

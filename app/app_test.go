package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tech-arch1tect/hrcore/internal/options"
	"github.com/tech-arch1tect/hrcore/openapi"
	"github.com/tech-arch1tect/hrcore/session"
	"github.com/tech-arch1tect/hrcore/testutils"
)

func testConfigOption() options.Option {
	cfg := testutils.GetTestConfig()
	cfg.Database.AutoMigrate = true
	cfg.Log.Level = "error"
	cfg.Log.Format = "console"
	cfg.Log.Output = "stderr"
	return options.WithConfig(cfg)
}

func TestNew_HTTP(t *testing.T) {
	a, err := New(testConfigOption())
	require.NoError(t, err)

	require.NotNil(t, a.Server())
	require.NotNil(t, a.DB())
	require.NotNil(t, a.Ledger())
	assert.Equal(t, "hrcore-test", a.Config().App.Name)

	get := func(path string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		a.Server().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		return rec
	}

	rec := get("/health")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = get(openapi.JSONPath)
	require.Equal(t, http.StatusOK, rec.Code)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	paths, ok := doc["paths"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, paths, "/auth/refresh")
	assert.Contains(t, paths, "/auth/sessions")

	t.Run("register then metrics", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register",
			strings.NewReader(`{"email":"ada@acme.test","password":"Password123","orgName":"Acme"}`))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		a.Server().ServeHTTP(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		rec = get("/metrics")
		require.Equal(t, http.StatusOK, rec.Code)
		body := rec.Body.String()
		assert.Contains(t, body, "hrcore_auth_registrations_total 1")
		assert.Contains(t, body, `hrcore_http_requests_total{method="POST",path="/api/v1/auth/register",status="201"} 1`)
		assert.Contains(t, body, "go_goroutines")
	})
}

func TestNew_WithoutHTTP(t *testing.T) {
	a, err := New(testConfigOption(), options.WithoutHTTP(), options.WithoutPurgeWorker())
	require.NoError(t, err)
	assert.Nil(t, a.Server())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, a.Start(ctx))

	_, err = a.Ledger().Create(ctx, session.NewSession{
		ID:        "s1",
		UserID:    "u1",
		FamilyID:  "f1",
		Token:     "token",
		ExpiresAt: time.Now().Add(time.Hour),
	})
	require.NoError(t, err)

	require.NoError(t, a.Stop(ctx))
}

func TestNew_InvalidConfig(t *testing.T) {
	cfg := testutils.GetTestConfig()
	cfg.Database.Driver = "oracle"

	_, err := New(options.WithConfig(cfg))
	assert.ErrorContains(t, err, "unsupported database driver")
}

package logging

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewService(t *testing.T) {
	t.Run("json format", func(t *testing.T) {
		service, err := NewService(Config{Level: "info", Format: "json", OutputPath: "stdout"})

		require.NoError(t, err)
		assert.NotNil(t, service.Logger())
	})

	t.Run("console format", func(t *testing.T) {
		service, err := NewService(Config{Level: "debug", Format: "console"})

		require.NoError(t, err)
		assert.True(t, service.Logger().Core().Enabled(zapcore.DebugLevel))
	})

	t.Run("file output", func(t *testing.T) {
		logFile := filepath.Join(t.TempDir(), "hrcore.log")

		service, err := NewService(Config{Level: "warn", Format: "json", OutputPath: logFile})
		require.NoError(t, err)

		service.Warn("written")
		require.NoError(t, service.Sync())

		data, err := os.ReadFile(logFile)
		require.NoError(t, err)
		assert.Contains(t, string(data), "written")
	})
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, parseLevel("debug"))
	assert.Equal(t, zapcore.WarnLevel, parseLevel("WARN"))
	assert.Equal(t, zapcore.ErrorLevel, parseLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, parseLevel("bogus"))
}

func TestService_NilSafe(t *testing.T) {
	var service *Service

	assert.NotPanics(t, func() {
		service.Debug("debug")
		service.Info("info")
		service.Warn("warn")
		service.Error("error")
		service.Named("child").Info("named")
		service.With(zap.String("k", "v")).Info("with")
	})
	assert.Nil(t, service.Logger())
	assert.NoError(t, service.Sync())
}

func TestService_NamedAndWith(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	service := FromZap(zap.New(core))

	service.Named("auth").With(zap.String("user_id", "u1")).Info("login succeeded")

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "auth", entry.LoggerName)
	assert.Equal(t, "login succeeded", entry.Message)
	assert.Equal(t, "u1", entry.ContextMap()["user_id"])
}

func TestRequestLogger(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	service := FromZap(zap.New(core))

	e := echo.New()
	e.Use(RequestLogger(service, "/health"))
	e.GET("/health", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/ok", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/missing", func(c echo.Context) error { return c.NoContent(http.StatusNotFound) })
	e.GET("/boom", func(c echo.Context) error { return c.NoContent(http.StatusInternalServerError) })

	for _, path := range []string{"/health", "/ok", "/missing", "/boom"} {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	}

	require.Equal(t, 3, logs.Len())
	assert.Equal(t, "request", logs.All()[0].Message)
	assert.Equal(t, zapcore.WarnLevel, logs.All()[1].Level)
	assert.Equal(t, "server error", logs.All()[2].Message)
}

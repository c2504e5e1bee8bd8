package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tech-arch1tect/hrcore/config"
	"github.com/tech-arch1tect/hrcore/middleware/csrf"
	"github.com/tech-arch1tect/hrcore/services/logging"
	"github.com/tech-arch1tect/hrcore/validation"
	"go.uber.org/zap"
)

const healthPath = "/health"

type Server struct {
	echo   *echo.Echo
	cfg    *config.Config
	logger *logging.Service
}

// New builds the Echo instance with the global middleware chain. The CSRF
// guard runs on every route, so mutating requests are checked before any
// handler sees them. registry may be nil, which disables /metrics.
func New(cfg *config.Config, logger *logging.Service, guard *csrf.Guard, registry *prometheus.Registry) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = validation.New()

	s := &Server{
		echo:   e,
		cfg:    cfg,
		logger: logger,
	}
	e.HTTPErrorHandler = s.handleError

	metricsEnabled := cfg.Metrics.Enabled && registry != nil

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(logging.RequestLogger(logger, healthPath, cfg.Metrics.Path))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{cfg.App.WebOrigin},
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderContentType, echo.HeaderAuthorization, cfg.CSRF.HeaderName},
		AllowCredentials: true,
	}))
	if metricsEnabled {
		e.Use(NewHTTPMetrics(registry).Middleware(healthPath, cfg.Metrics.Path))
	}
	if guard != nil {
		e.Use(guard.Middleware())
	}

	e.GET(healthPath, s.health)
	if metricsEnabled {
		e.GET(cfg.Metrics.Path, echo.WrapHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry})))
	}

	return s
}

func (s *Server) health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "ok",
		"service": s.cfg.App.Name,
	})
}

func (s *Server) Addr() string {
	return fmt.Sprintf("%s:%s", s.cfg.Server.Host, s.cfg.Server.Port)
}

func (s *Server) Start() error {
	addr := s.Addr()
	s.logger.Info("starting http server", zap.String("addr", addr))

	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.logger.Error("http server stopped", zap.Error(err))
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.echo.Shutdown(ctx)
}

func (s *Server) Get(path string, handler echo.HandlerFunc, m ...echo.MiddlewareFunc) {
	s.echo.GET(path, handler, m...)
}

func (s *Server) Post(path string, handler echo.HandlerFunc, m ...echo.MiddlewareFunc) {
	s.echo.POST(path, handler, m...)
}

func (s *Server) Group(prefix string, m ...echo.MiddlewareFunc) *echo.Group {
	return s.echo.Group(prefix, m...)
}

func (s *Server) Echo() *echo.Echo {
	return s.echo
}

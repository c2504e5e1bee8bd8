package app

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/tech-arch1tect/hrcore/config"
	"github.com/tech-arch1tect/hrcore/database"
	authhandlers "github.com/tech-arch1tect/hrcore/handlers/auth"
	"github.com/tech-arch1tect/hrcore/internal/options"
	"github.com/tech-arch1tect/hrcore/middleware/csrf"
	"github.com/tech-arch1tect/hrcore/openapi"
	"github.com/tech-arch1tect/hrcore/server"
	"github.com/tech-arch1tect/hrcore/services/auth"
	"github.com/tech-arch1tect/hrcore/services/jwt"
	"github.com/tech-arch1tect/hrcore/services/logging"
	"github.com/tech-arch1tect/hrcore/services/mail"
	"github.com/tech-arch1tect/hrcore/services/password"
	"github.com/tech-arch1tect/hrcore/services/user"
	"github.com/tech-arch1tect/hrcore/session"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const shutdownTimeout = 30 * time.Second

type App struct {
	fx     *fx.App
	config *config.Config
	logger *logging.Service
	db     *gorm.DB
	ledger *session.Ledger
	server *server.Server
}

func New(opts ...options.Option) (*App, error) {
	o := options.Defaults()
	for _, opt := range opts {
		opt(o)
	}

	a := &App{}

	fxOpts := []fx.Option{
		fx.WithLogger(fxLogger),
		config.NewProvider(o.Config),
		logging.Module,
		database.Module,
		password.Module,
		jwt.Options,
		user.Module,
		session.Options,
		fx.Populate(&a.config, &a.logger, &a.db, &a.ledger),
	}

	if o.EnablePurgeWorker {
		fxOpts = append(fxOpts, session.WorkerOptions)
	}

	if o.EnableHTTP {
		fxOpts = append(fxOpts,
			mail.Module,
			auth.Module,
			csrf.Module,
			server.NewProvider(),
			openapi.Module,
			authhandlers.Module,
			fx.Populate(&a.server),
		)
	}

	fxOpts = append(fxOpts, o.ExtraFxOptions...)

	a.fx = fx.New(fxOpts...)
	if err := a.fx.Err(); err != nil {
		return nil, err
	}
	return a, nil
}

func fxLogger(logger *logging.Service) fxevent.Logger {
	if z := logger.Logger(); z != nil {
		return &fxevent.ZapLogger{Logger: z.Named("fx").WithOptions(zap.IncreaseLevel(zap.WarnLevel))}
	}
	return fxevent.NopLogger
}

func (a *App) Start(ctx context.Context) error {
	return a.fx.Start(ctx)
}

func (a *App) Stop(ctx context.Context) error {
	return a.fx.Stop(ctx)
}

// Run starts the app and blocks until SIGINT or SIGTERM, then stops it
// within the shutdown timeout.
func (a *App) Run() error {
	if err := a.Start(context.Background()); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	<-ctx.Done()
	stop()

	a.logger.Info("received shutdown signal, stopping gracefully")

	stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := a.Stop(stopCtx); err != nil {
		a.logger.Error("failed to stop application gracefully", zap.Error(err))
		return err
	}
	return nil
}

// Server returns the Echo instance, or nil when HTTP is disabled.
func (a *App) Server() *echo.Echo {
	if a.server == nil {
		return nil
	}
	return a.server.Echo()
}

func (a *App) DB() *gorm.DB {
	return a.db
}

func (a *App) Ledger() *session.Ledger {
	return a.ledger
}

func (a *App) Logger() *logging.Service {
	return a.logger
}

func (a *App) Config() *config.Config {
	return a.config
}

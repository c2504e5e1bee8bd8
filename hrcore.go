// Package hrcore is the authentication and session-rotation core of the HR
// backend: rotating refresh tokens with reuse detection, a persistent
// session ledger and double-submit CSRF protection, served over Echo.
package hrcore

import (
	"github.com/tech-arch1tect/hrcore/app"
	"github.com/tech-arch1tect/hrcore/config"
	"github.com/tech-arch1tect/hrcore/internal/options"
	"go.uber.org/fx"
)

type App = app.App

type Option = options.Option

func New(opts ...Option) (*App, error) {
	return app.New(opts...)
}

func WithConfig(cfg *config.Config) Option {
	return options.WithConfig(cfg)
}

func WithoutHTTP() Option {
	return options.WithoutHTTP()
}

func WithoutPurgeWorker() Option {
	return options.WithoutPurgeWorker()
}

func WithFxOptions(fxOpts ...fx.Option) Option {
	return options.WithFxOptions(fxOpts...)
}

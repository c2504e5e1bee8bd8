package options

import (
	"github.com/tech-arch1tect/hrcore/config"
	"go.uber.org/fx"
)

type Options struct {
	Config            *config.Config
	EnableHTTP        bool
	EnablePurgeWorker bool
	ExtraFxOptions    []fx.Option
}

type Option func(*Options)

func Defaults() *Options {
	return &Options{
		EnableHTTP:        true,
		EnablePurgeWorker: true,
	}
}

func WithConfig(cfg *config.Config) Option {
	return func(opts *Options) {
		opts.Config = cfg
	}
}

// WithoutHTTP builds only storage and domain services, for one-shot CLI
// commands.
func WithoutHTTP() Option {
	return func(opts *Options) {
		opts.EnableHTTP = false
	}
}

func WithoutPurgeWorker() Option {
	return func(opts *Options) {
		opts.EnablePurgeWorker = false
	}
}

func WithFxOptions(fxOpts ...fx.Option) Option {
	return func(opts *Options) {
		opts.ExtraFxOptions = append(opts.ExtraFxOptions, fxOpts...)
	}
}

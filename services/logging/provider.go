package logging

import (
	"context"

	"github.com/tech-arch1tect/hrcore/config"
	"go.uber.org/fx"
)

var Module = fx.Options(
	fx.Provide(NewLoggingService),
)

func NewLoggingService(lc fx.Lifecycle, cfg *config.Config) (*Service, error) {
	service, err := NewService(Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		OutputPath: cfg.Log.Output,
	})
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			// stdout cannot be synced on some platforms
			_ = service.Sync()
			return nil
		},
	})

	return service, nil
}

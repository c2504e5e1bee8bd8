package csrf

import (
	"github.com/tech-arch1tect/hrcore/config"
	"go.uber.org/fx"
)

func ProvideGuard(cfg *config.Config) *Guard {
	return NewGuard(&cfg.CSRF)
}

var Module = fx.Options(
	fx.Provide(ProvideGuard),
)

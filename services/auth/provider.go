package auth

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/tech-arch1tect/hrcore/config"
	"github.com/tech-arch1tect/hrcore/services/jwt"
	"github.com/tech-arch1tect/hrcore/services/logging"
	"github.com/tech-arch1tect/hrcore/services/mail"
	"github.com/tech-arch1tect/hrcore/services/password"
	"github.com/tech-arch1tect/hrcore/services/user"
	"github.com/tech-arch1tect/hrcore/session"
	"go.uber.org/fx"
)

type Params struct {
	fx.In

	Config   *config.Config
	Users    *user.Store
	Sessions *session.Ledger
	Tokens   *jwt.Service
	Hasher   password.Hasher
	Mail     *mail.Service `optional:"true"`
	Metrics  *Metrics      `optional:"true"`
	Logger   *logging.Service
}

func ProvideAuthService(p Params) *Service {
	service := NewService(p.Config, p.Users, p.Sessions, p.Tokens, p.Hasher, p.Logger.Named("auth"))
	if p.Mail != nil {
		service.SetMailService(p.Mail)
	}
	service.SetMetrics(p.Metrics)
	return service
}

func ProvideMetrics(reg prometheus.Registerer) *Metrics {
	return NewMetrics(reg)
}

var Module = fx.Options(
	fx.Provide(ProvideAuthService, ProvideMetrics),
)

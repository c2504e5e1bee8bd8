package auth

import (
	"github.com/tech-arch1tect/hrcore/config"
	jwtmw "github.com/tech-arch1tect/hrcore/middleware/jwt"
	"github.com/tech-arch1tect/hrcore/openapi"
	"github.com/tech-arch1tect/hrcore/server"
	authsvc "github.com/tech-arch1tect/hrcore/services/auth"
	"github.com/tech-arch1tect/hrcore/services/jwt"
	"github.com/tech-arch1tect/hrcore/services/logging"
	"go.uber.org/fx"
)

func ProvideHandler(cfg *config.Config, service *authsvc.Service, logger *logging.Service) *Handler {
	return NewHandler(cfg, service, logger.Named("http.auth"))
}

func RegisterRoutes(srv *server.Server, cfg *config.Config, handler *Handler, tokens *jwt.Service) {
	handler.Register(srv.Group(cfg.Server.APIPrefix), jwtmw.RequireAccess(tokens, cfg.Cookie.AccessName))
}

func RegisterDocs(doc *openapi.Document) {
	Describe(doc)
}

var Module = fx.Options(
	fx.Provide(ProvideHandler),
	fx.Invoke(RegisterRoutes, RegisterDocs),
)

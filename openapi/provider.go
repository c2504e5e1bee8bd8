package openapi

import (
	"github.com/tech-arch1tect/hrcore/config"
	"github.com/tech-arch1tect/hrcore/server"
	"go.uber.org/fx"
)

const (
	JSONPath = "/openapi.json"
	YAMLPath = "/openapi.yaml"
)

// Version is stamped into the document info.
var Version = "dev"

func ProvideDocument(cfg *config.Config) *Document {
	return New(cfg.App.Name+" API", Version).
		Description("Authentication and session management").
		Server(cfg.Server.APIPrefix, "API base path").
		CookieAuth("accessCookie", cfg.Cookie.AccessName, "HTTP-only access token cookie").
		HeaderAuth("csrfHeader", cfg.CSRF.HeaderName, "Must equal the "+cfg.CSRF.CookieName+" cookie on mutating requests")
}

func RegisterRoutes(srv *server.Server, doc *Document) {
	srv.Get(JSONPath, doc.JSONHandler())
	srv.Get(YAMLPath, doc.YAMLHandler())
}

var Module = fx.Options(
	fx.Provide(ProvideDocument),
	fx.Invoke(RegisterRoutes),
)

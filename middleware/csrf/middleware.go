package csrf

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/tech-arch1tect/hrcore/config"
)

var ErrCSRF = errors.New("csrf token missing or mismatched")

var mutatingMethods = map[string]struct{}{
	http.MethodPost:   {},
	http.MethodPut:    {},
	http.MethodPatch:  {},
	http.MethodDelete: {},
}

// Guard is a stateless double-submit check: a mutating request must carry
// the CSRF cookie value verbatim in a header.
type Guard struct {
	cookieName string
	headerName string
	exact      map[string]struct{}
	prefixes   []string
}

func NewGuard(cfg *config.CSRFConfig) *Guard {
	g := &Guard{
		cookieName: cfg.CookieName,
		headerName: cfg.HeaderName,
		exact:      make(map[string]struct{}),
	}
	for _, p := range cfg.ExemptPaths {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if prefix, ok := strings.CutSuffix(p, "*"); ok {
			g.prefixes = append(g.prefixes, prefix)
			continue
		}
		g.exact[p] = struct{}{}
	}
	return g
}

func (g *Guard) CookieName() string { return g.cookieName }

func (g *Guard) HeaderName() string { return g.headerName }

// Exempt reports whether path matches an exempt pattern, either exactly or
// by a "prefix*" wildcard.
func (g *Guard) Exempt(path string) bool {
	if _, ok := g.exact[path]; ok {
		return true
	}
	for _, prefix := range g.prefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

func (g *Guard) Check(method, path, cookie, header string) error {
	if _, ok := mutatingMethods[method]; !ok {
		return nil
	}
	if g.Exempt(path) {
		return nil
	}
	if cookie == "" || header == "" {
		return ErrCSRF
	}
	if subtle.ConstantTimeCompare([]byte(cookie), []byte(header)) != 1 {
		return ErrCSRF
	}
	return nil
}

func (g *Guard) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			var cookieValue string
			if cookie, err := req.Cookie(g.cookieName); err == nil {
				cookieValue = cookie.Value
			}

			if err := g.Check(req.Method, req.URL.Path, cookieValue, req.Header.Get(g.headerName)); err != nil {
				return err
			}
			return next(c)
		}
	}
}

// GenerateToken returns length random bytes, base64url encoded.
func GenerateToken(length int) (string, error) {
	if length <= 0 {
		length = 32
	}
	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate csrf token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

package auth

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/tech-arch1tect/hrcore/config"
	authsvc "github.com/tech-arch1tect/hrcore/services/auth"
)

type cookieWriter struct {
	cookie   config.CookieConfig
	csrfName string
}

func (w cookieWriter) set(c echo.Context, result *authsvc.Result) {
	c.SetCookie(w.build(w.cookie.AccessName, result.AccessToken, result.AccessExpiresAt, true))
	c.SetCookie(w.build(w.cookie.RefreshName, result.RefreshToken, result.RefreshExpiresAt, true))
	c.SetCookie(w.build(w.csrfName, result.CSRFToken, result.RefreshExpiresAt, false))
}

func (w cookieWriter) clear(c echo.Context) {
	for _, name := range []string{w.cookie.AccessName, w.cookie.RefreshName} {
		cookie := w.build(name, "", time.Unix(0, 0), true)
		cookie.MaxAge = -1
		c.SetCookie(cookie)
	}
	cookie := w.build(w.csrfName, "", time.Unix(0, 0), false)
	cookie.MaxAge = -1
	c.SetCookie(cookie)
}

func (w cookieWriter) build(name, value string, expires time.Time, httpOnly bool) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   w.cookie.Domain,
		Expires:  expires,
		HttpOnly: httpOnly,
		Secure:   w.cookie.Secure,
		SameSite: mapSameSite(w.cookie.SameSite),
	}
}

func mapSameSite(setting string) http.SameSite {
	switch setting {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}

func readCookie(c echo.Context, name string) string {
	cookie, err := c.Cookie(name)
	if err != nil {
		return ""
	}
	return cookie.Value
}

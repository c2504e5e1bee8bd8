package jwt

import (
	"fmt"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/tech-arch1tect/hrcore/services/auth"
	"github.com/tech-arch1tect/hrcore/services/jwt"
)

const (
	UserIDKey = "_access_user_id"
	ClaimsKey = "_access_claims"
)

type AccessVerifier interface {
	VerifyAccess(token string) (*jwt.Access, error)
}

// RequireAccess reads the access token from cookieName, falling back to a
// bearer Authorization header, and stores the verified principal on the
// context. Failures are auth.ErrUnauthorized.
func RequireAccess(verifier AccessVerifier, cookieName string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := accessToken(c, cookieName)
			if token == "" {
				return fmt.Errorf("%w: access token required", auth.ErrUnauthorized)
			}

			claims, err := verifier.VerifyAccess(token)
			if err != nil {
				return fmt.Errorf("%w: %w", auth.ErrUnauthorized, err)
			}

			c.Set(UserIDKey, claims.UserID)
			c.Set(ClaimsKey, claims)

			return next(c)
		}
	}
}

func accessToken(c echo.Context, cookieName string) string {
	if cookie, err := c.Cookie(cookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	if token, ok := strings.CutPrefix(header, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}

func GetUserID(c echo.Context) string {
	if userID, ok := c.Get(UserIDKey).(string); ok {
		return userID
	}
	return ""
}

func GetClaims(c echo.Context) *jwt.Access {
	if claims, ok := c.Get(ClaimsKey).(*jwt.Access); ok {
		return claims
	}
	return nil
}

package server

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/tech-arch1tect/hrcore/middleware/csrf"
	"github.com/tech-arch1tect/hrcore/services/auth"
	"github.com/tech-arch1tect/hrcore/validation"
	"go.uber.org/zap"
)

type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// Classify maps an error from any layer onto a status and envelope. The
// message never carries the wrapped cause.
func Classify(err error) (int, ErrorBody) {
	var verr *validation.Error
	var herr *echo.HTTPError

	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, ErrorBody{Code: "BAD_REQUEST", Message: "validation failed", Details: verr.Fields}
	case errors.Is(err, auth.ErrInvalidCredentials):
		return http.StatusUnauthorized, ErrorBody{Code: "INVALID_CREDENTIALS", Message: "invalid email or password"}
	case errors.Is(err, auth.ErrEmailTaken):
		return http.StatusConflict, ErrorBody{Code: "EMAIL_TAKEN", Message: "email already registered"}
	case errors.Is(err, auth.ErrRefreshReused):
		return http.StatusUnauthorized, ErrorBody{Code: "UNAUTHORIZED", Message: "reused"}
	case errors.Is(err, auth.ErrUnauthorized):
		return http.StatusUnauthorized, ErrorBody{Code: "UNAUTHORIZED", Message: "unauthorized"}
	case errors.Is(err, auth.ErrTokenInvalid):
		return http.StatusBadRequest, ErrorBody{Code: "TOKEN_INVALID", Message: "invalid or expired token"}
	case errors.Is(err, csrf.ErrCSRF):
		return http.StatusForbidden, ErrorBody{Code: "CSRF", Message: "invalid csrf token"}
	case errors.Is(err, auth.ErrNotFound):
		return http.StatusNotFound, ErrorBody{Code: "NOT_FOUND", Message: "not found"}
	case errors.As(err, &herr):
		return herr.Code, ErrorBody{Code: httpCode(herr.Code), Message: http.StatusText(herr.Code)}
	default:
		return http.StatusInternalServerError, ErrorBody{Code: "INTERNAL_ERROR", Message: "internal server error"}
	}
}

func httpCode(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "BAD_REQUEST"
	case http.StatusUnauthorized:
		return "UNAUTHORIZED"
	case http.StatusForbidden:
		return "FORBIDDEN"
	case http.StatusNotFound:
		return "NOT_FOUND"
	case http.StatusMethodNotAllowed:
		return "METHOD_NOT_ALLOWED"
	case http.StatusRequestEntityTooLarge:
		return "PAYLOAD_TOO_LARGE"
	case http.StatusUnsupportedMediaType:
		return "UNSUPPORTED_MEDIA_TYPE"
	default:
		if status >= 500 {
			return "INTERNAL_ERROR"
		}
		return "ERROR"
	}
}

func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status, body := Classify(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed",
			zap.String("method", c.Request().Method),
			zap.String("path", c.Path()),
			zap.Error(err))
	} else {
		s.logger.Debug("request rejected",
			zap.Int("status", status),
			zap.String("code", body.Code),
			zap.Error(err))
	}

	var writeErr error
	if c.Request().Method == http.MethodHead {
		writeErr = c.NoContent(status)
	} else {
		writeErr = c.JSON(status, ErrorResponse{Error: body})
	}
	if writeErr != nil {
		s.logger.Error("failed to write error response", zap.Error(writeErr))
	}
}

package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/tech-arch1tect/hrcore/config"
	jwtmw "github.com/tech-arch1tect/hrcore/middleware/jwt"
	authsvc "github.com/tech-arch1tect/hrcore/services/auth"
	"github.com/tech-arch1tect/hrcore/services/logging"
	"github.com/tech-arch1tect/hrcore/services/user"
	"github.com/tech-arch1tect/hrcore/session"
	"go.uber.org/zap"
)

// Service is the subset of the auth service the routes drive.
type Service interface {
	Register(ctx context.Context, email, password, orgName string, client authsvc.ClientInfo) (*authsvc.Result, error)
	Login(ctx context.Context, email, password string, client authsvc.ClientInfo) (*authsvc.Result, error)
	Refresh(ctx context.Context, refreshToken string, client authsvc.ClientInfo) (*authsvc.Result, error)
	Logout(ctx context.Context, refreshToken string)
	LogoutAll(ctx context.Context, userID string) error
	ListSessions(ctx context.Context, userID, currentID string) ([]session.Summary, error)
	CurrentUser(ctx context.Context, userID string) (*user.User, error)
	SessionID(refreshToken string) string
	ChangePassword(ctx context.Context, userID, current, next string) error
	IssueVerify(ctx context.Context, userID string) error
	ConsumeVerify(ctx context.Context, token string) error
	IssueReset(ctx context.Context, email string) error
	ConsumeReset(ctx context.Context, token, newPassword string) error
}

type Handler struct {
	service Service
	cookies cookieWriter
	logger  *logging.Service
}

func NewHandler(cfg *config.Config, service Service, logger *logging.Service) *Handler {
	return &Handler{
		service: service,
		cookies: cookieWriter{cookie: cfg.Cookie, csrfName: cfg.CSRF.CookieName},
		logger:  logger,
	}
}

// Register mounts the routes on g; requireAccess guards the routes that
// need a signed-in principal.
func (h *Handler) Register(g *echo.Group, requireAccess echo.MiddlewareFunc) {
	g.POST("/auth/register", h.register)
	g.POST("/auth/login", h.login)
	g.POST("/auth/refresh", h.refresh)
	g.POST("/auth/logout", h.logout)
	g.POST("/auth/logout-all", h.logoutAll, requireAccess)
	g.GET("/auth/me", h.me, requireAccess)
	g.GET("/auth/sessions", h.sessions, requireAccess)
	g.POST("/auth/change-password", h.changePassword, requireAccess)
	g.POST("/auth/send-verify-email", h.sendVerifyEmail, requireAccess)
	g.GET("/auth/verify-email", h.verifyEmail)
	g.POST("/auth/forgot-password", h.forgotPassword)
	g.POST("/auth/reset-password", h.resetPassword)
}

func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest).SetInternal(err)
	}
	return c.Validate(req)
}

func clientInfo(c echo.Context) authsvc.ClientInfo {
	return authsvc.ClientInfo{
		UserAgent: c.Request().UserAgent(),
		IPAddress: c.RealIP(),
	}
}

func (h *Handler) register(c echo.Context) error {
	var req RegisterRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	result, err := h.service.Register(c.Request().Context(), req.Email, req.Password, req.OrgName, clientInfo(c))
	if err != nil {
		return err
	}

	h.cookies.set(c, result)
	return c.JSON(http.StatusCreated, UserResponse{User: newUserView(result.User)})
}

func (h *Handler) login(c echo.Context) error {
	var req LoginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	result, err := h.service.Login(c.Request().Context(), req.Email, req.Password, clientInfo(c))
	if err != nil {
		return err
	}

	h.cookies.set(c, result)
	return c.JSON(http.StatusOK, UserResponse{User: newUserView(result.User)})
}

func (h *Handler) refresh(c echo.Context) error {
	token := readCookie(c, h.cookies.cookie.RefreshName)
	if token == "" {
		return fmt.Errorf("%w: refresh token required", authsvc.ErrUnauthorized)
	}

	result, err := h.service.Refresh(c.Request().Context(), token, clientInfo(c))
	if err != nil {
		if errors.Is(err, authsvc.ErrRefreshReused) {
			h.cookies.clear(c)
		}
		return err
	}

	h.cookies.set(c, result)
	return c.JSON(http.StatusOK, UserResponse{User: newUserView(result.User)})
}

func (h *Handler) logout(c echo.Context) error {
	h.service.Logout(c.Request().Context(), readCookie(c, h.cookies.cookie.RefreshName))
	h.cookies.clear(c)
	return c.JSON(http.StatusOK, OKResponse{OK: true})
}

func (h *Handler) logoutAll(c echo.Context) error {
	if err := h.service.LogoutAll(c.Request().Context(), jwtmw.GetUserID(c)); err != nil {
		return err
	}
	h.cookies.clear(c)
	return c.JSON(http.StatusOK, OKResponse{OK: true})
}

func (h *Handler) me(c echo.Context) error {
	u, err := h.service.CurrentUser(c.Request().Context(), jwtmw.GetUserID(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, UserResponse{User: newUserView(u)})
}

func (h *Handler) sessions(c echo.Context) error {
	current := h.service.SessionID(readCookie(c, h.cookies.cookie.RefreshName))

	summaries, err := h.service.ListSessions(c.Request().Context(), jwtmw.GetUserID(c), current)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, SessionsResponse{Sessions: summaries})
}

func (h *Handler) changePassword(c echo.Context) error {
	var req ChangePasswordRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	if err := h.service.ChangePassword(c.Request().Context(), jwtmw.GetUserID(c), req.CurrentPassword, req.NewPassword); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, OKResponse{OK: true})
}

func (h *Handler) sendVerifyEmail(c echo.Context) error {
	if err := h.service.IssueVerify(c.Request().Context(), jwtmw.GetUserID(c)); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, OKResponse{OK: true})
}

func (h *Handler) verifyEmail(c echo.Context) error {
	token := c.QueryParam("token")
	if token == "" {
		return authsvc.ErrTokenInvalid
	}
	if err := h.service.ConsumeVerify(c.Request().Context(), token); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, OKResponse{OK: true})
}

func (h *Handler) forgotPassword(c echo.Context) error {
	var req ForgotPasswordRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	if err := h.service.IssueReset(c.Request().Context(), req.Email); err != nil {
		h.logger.Error("failed to issue password reset", zap.Error(err))
	}
	return c.JSON(http.StatusOK, OKResponse{OK: true})
}

func (h *Handler) resetPassword(c echo.Context) error {
	var req ResetPasswordRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	if err := h.service.ConsumeReset(c.Request().Context(), req.Token, req.NewPassword); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, OKResponse{OK: true})
}

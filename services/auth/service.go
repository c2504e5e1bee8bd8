package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/tech-arch1tect/hrcore/config"
	"github.com/tech-arch1tect/hrcore/middleware/csrf"
	"github.com/tech-arch1tect/hrcore/services/jwt"
	"github.com/tech-arch1tect/hrcore/services/logging"
	"github.com/tech-arch1tect/hrcore/services/password"
	"github.com/tech-arch1tect/hrcore/services/user"
	"github.com/tech-arch1tect/hrcore/session"
	"github.com/tech-arch1tect/hrcore/validation"
	"go.uber.org/zap"
)

type UserStore interface {
	FindByEmail(ctx context.Context, email string) (*user.User, error)
	FindByID(ctx context.Context, id string) (*user.User, error)
	Create(ctx context.Context, u *user.User) error
	FindOrCreateOrganization(ctx context.Context, name string) (*user.Organization, error)
	UpdatePassword(ctx context.Context, userID, hash string) error
	SetVerifyToken(ctx context.Context, userID, jti string) error
	SetResetToken(ctx context.Context, userID, jti string, requestedAt time.Time) error
	ConsumeVerifyToken(ctx context.Context, userID, jti string, at time.Time) (bool, error)
	ConsumeResetToken(ctx context.Context, userID, jti, hash string) (bool, error)
}

type SessionLedger interface {
	Create(ctx context.Context, ns session.NewSession) (*session.Session, error)
	Find(ctx context.Context, userID, id string) (*session.Session, error)
	Rotate(ctx context.Context, userID, oldID string, next session.NewSession) (*session.Session, error)
	Revoke(ctx context.Context, id string) error
	RevokeFamily(ctx context.Context, familyID string) (int64, error)
	RevokeAllForUser(ctx context.Context, userID string) (int64, error)
	List(ctx context.Context, userID string) ([]session.Session, error)
}

type TokenCodec interface {
	Sign(payload jwt.Payload, ttl time.Duration) (string, error)
	VerifyRefresh(token string) (*jwt.Refresh, error)
	VerifyPurpose(token string, purpose jwt.Kind) (*jwt.Purpose, error)
}

type MailService interface {
	SendTemplate(ctx context.Context, templateName string, to []string, subject string, data map[string]any) error
}

// ClientInfo describes the device a session is issued to.
type ClientInfo struct {
	UserAgent string
	IPAddress string
}

// Result is everything the transport needs to set the auth cookies.
type Result struct {
	User             *user.User
	SessionID        string
	AccessToken      string
	RefreshToken     string
	CSRFToken        string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

type Service struct {
	config      *config.Config
	users       UserStore
	sessions    SessionLedger
	tokens      TokenCodec
	hasher      password.Hasher
	mailService MailService
	metrics     *Metrics
	logger      *logging.Service
	now         func() time.Time
}

func NewService(cfg *config.Config, users UserStore, sessions SessionLedger, tokens TokenCodec, hasher password.Hasher, logger *logging.Service, opts ...Option) *Service {
	s := &Service{
		config:   cfg,
		users:    users,
		sessions: sessions,
		tokens:   tokens,
		hasher:   hasher,
		logger:   logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) SetMailService(mailService MailService) {
	s.mailService = mailService
}

func (s *Service) SetMetrics(metrics *Metrics) {
	s.metrics = metrics
}

// Register creates the user, finding or creating the named organization,
// and signs them in on a fresh token family.
func (s *Service) Register(ctx context.Context, email, plain, orgName string, client ClientInfo) (*Result, error) {
	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, user.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if err := s.validatePassword("password", plain); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(plain)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	org, err := s.users.FindOrCreateOrganization(ctx, orgName)
	if err != nil {
		return nil, err
	}

	u := &user.User{
		Email:          email,
		PasswordHash:   hash,
		Role:           user.RoleUser,
		OrganizationID: org.ID,
	}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, user.ErrEmailTaken) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	result, err := s.startFamily(ctx, u, client)
	if err != nil {
		return nil, err
	}

	s.metrics.registered()
	s.logger.Info("user registered",
		zap.String("user_id", u.ID),
		zap.String("org_id", org.ID))

	return result, nil
}

func (s *Service) Login(ctx context.Context, email, plain string, client ClientInfo) (*Result, error) {
	u, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			s.metrics.login("invalid_credentials")
			return nil, ErrInvalidCredentials
		}
		s.metrics.login("error")
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if !s.hasher.Verify(plain, u.PasswordHash) {
		s.metrics.login("invalid_credentials")
		s.logger.Info("login rejected", zap.String("user_id", u.ID))
		return nil, ErrInvalidCredentials
	}

	result, err := s.startFamily(ctx, u, client)
	if err != nil {
		s.metrics.login("error")
		return nil, err
	}

	s.metrics.login("success")
	s.logger.Info("user logged in",
		zap.String("user_id", u.ID),
		zap.String("session_id", result.SessionID))

	return result, nil
}

// Refresh exchanges a refresh token for a new token set in the same family.
// Presenting a token whose session is gone or already revoked is treated as
// theft: the whole family is revoked and ErrRefreshReused returned.
func (s *Service) Refresh(ctx context.Context, refreshToken string, client ClientInfo) (*Result, error) {
	claims, err := s.tokens.VerifyRefresh(refreshToken)
	if err != nil {
		s.metrics.refresh("unauthorized")
		return nil, fmt.Errorf("%w: %w", ErrUnauthorized, err)
	}

	current, err := s.sessions.Find(ctx, claims.UserID, claims.TokenID)
	if err != nil && !errors.Is(err, session.ErrSessionNotFound) {
		s.metrics.refresh("error")
		return nil, err
	}
	if current == nil || current.Revoked() {
		return nil, s.reuseDetected(ctx, claims)
	}
	if current.FamilyID != claims.FamilyID || !current.MatchesToken(refreshToken) {
		s.metrics.refresh("unauthorized")
		s.logger.Warn("refresh token does not match session",
			zap.String("session_id", current.ID),
			zap.String("user_id", claims.UserID))
		return nil, fmt.Errorf("%w: token does not match session", ErrUnauthorized)
	}

	u, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		s.metrics.refresh("error")
		if errors.Is(err, user.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	result, next, err := s.mint(u, claims.FamilyID, client)
	if err != nil {
		s.metrics.refresh("error")
		return nil, err
	}

	if _, err := s.sessions.Rotate(ctx, u.ID, current.ID, next); err != nil {
		if errors.Is(err, session.ErrSessionRevoked) {
			return nil, s.reuseDetected(ctx, claims)
		}
		s.metrics.refresh("error")
		return nil, err
	}

	s.metrics.refresh("success")
	s.logger.Debug("session rotated",
		zap.String("user_id", u.ID),
		zap.String("family_id", claims.FamilyID),
		zap.String("session_id", result.SessionID))

	return result, nil
}

// Logout revokes the single session behind refreshToken. It never fails:
// an unverifiable token or a storage error is logged and ignored.
func (s *Service) Logout(ctx context.Context, refreshToken string) {
	if refreshToken == "" {
		return
	}

	claims, err := s.tokens.VerifyRefresh(refreshToken)
	if err != nil {
		s.logger.Debug("logout with unverifiable refresh token", zap.Error(err))
		return
	}

	current, err := s.sessions.Find(ctx, claims.UserID, claims.TokenID)
	if err != nil {
		if !errors.Is(err, session.ErrSessionNotFound) {
			s.logger.Error("failed to load session on logout", zap.Error(err))
		}
		return
	}
	if current.Revoked() || !current.MatchesToken(refreshToken) {
		return
	}

	if err := s.sessions.Revoke(ctx, current.ID); err != nil {
		s.logger.Error("failed to revoke session on logout",
			zap.String("session_id", current.ID),
			zap.Error(err))
		return
	}

	s.metrics.revoked("logout", 1)
	s.logger.Info("user logged out",
		zap.String("user_id", claims.UserID),
		zap.String("session_id", current.ID))
}

func (s *Service) LogoutAll(ctx context.Context, userID string) error {
	n, err := s.sessions.RevokeAllForUser(ctx, userID)
	if err != nil {
		return err
	}
	s.metrics.revoked("logout_all", n)
	return nil
}

// ListSessions returns the user's sessions, newest first, flagging the one
// identified by currentID.
func (s *Service) ListSessions(ctx context.Context, userID, currentID string) ([]session.Summary, error) {
	rows, err := s.sessions.List(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	summaries := make([]session.Summary, 0, len(rows))
	for _, row := range rows {
		summaries = append(summaries, session.Summarize(row, now, currentID))
	}
	return summaries, nil
}

func (s *Service) CurrentUser(ctx context.Context, userID string) (*user.User, error) {
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return u, nil
}

// SessionID returns the session id carried by a valid refresh token, or ""
// if the token does not verify.
func (s *Service) SessionID(refreshToken string) string {
	if refreshToken == "" {
		return ""
	}
	claims, err := s.tokens.VerifyRefresh(refreshToken)
	if err != nil {
		return ""
	}
	return claims.TokenID
}

func (s *Service) ChangePassword(ctx context.Context, userID, current, next string) error {
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}

	if !s.hasher.Verify(current, u.PasswordHash) {
		return ErrInvalidCredentials
	}
	if err := s.validatePassword("newPassword", next); err != nil {
		return err
	}

	hash, err := s.hasher.Hash(next)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.users.UpdatePassword(ctx, u.ID, hash); err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}

	s.logger.Info("password changed", zap.String("user_id", u.ID))
	return nil
}

func (s *Service) startFamily(ctx context.Context, u *user.User, client ClientInfo) (*Result, error) {
	result, next, err := s.mint(u, uuid.NewString(), client)
	if err != nil {
		return nil, err
	}
	if _, err := s.sessions.Create(ctx, next); err != nil {
		return nil, err
	}
	return result, nil
}

// mint signs a new access/refresh pair for u in familyID and describes the
// session row that must back the refresh token.
func (s *Service) mint(u *user.User, familyID string, client ClientInfo) (*Result, session.NewSession, error) {
	now := s.now()
	accessTTL := s.config.JWT.AccessTTL()
	refreshTTL := s.config.JWT.RefreshTTL()
	tokenID := uuid.NewString()

	refreshToken, err := s.tokens.Sign(&jwt.Refresh{
		UserID:   u.ID,
		TokenID:  tokenID,
		FamilyID: familyID,
	}, refreshTTL)
	if err != nil {
		return nil, session.NewSession{}, err
	}

	accessToken, err := s.tokens.Sign(&jwt.Access{
		UserID: u.ID,
		Email:  u.Email,
		Role:   string(u.Role),
		OrgID:  u.OrganizationID,
	}, accessTTL)
	if err != nil {
		return nil, session.NewSession{}, err
	}

	csrfToken, err := csrf.GenerateToken(s.config.CSRF.TokenLength)
	if err != nil {
		return nil, session.NewSession{}, err
	}

	result := &Result{
		User:             u,
		SessionID:        tokenID,
		AccessToken:      accessToken,
		RefreshToken:     refreshToken,
		CSRFToken:        csrfToken,
		AccessExpiresAt:  now.Add(accessTTL),
		RefreshExpiresAt: now.Add(refreshTTL),
	}

	next := session.NewSession{
		ID:        tokenID,
		UserID:    u.ID,
		FamilyID:  familyID,
		Token:     refreshToken,
		UserAgent: client.UserAgent,
		IPAddress: client.IPAddress,
		ExpiresAt: result.RefreshExpiresAt,
	}

	return result, next, nil
}

func (s *Service) reuseDetected(ctx context.Context, claims *jwt.Refresh) error {
	s.metrics.refresh("reused")

	n, err := s.sessions.RevokeFamily(ctx, claims.FamilyID)
	if err != nil {
		s.logger.Error("failed to revoke family after refresh reuse",
			zap.String("family_id", claims.FamilyID),
			zap.Error(err))
		return fmt.Errorf("%w: %w", ErrRefreshReused, err)
	}

	s.metrics.revoked("reuse", n)
	s.logger.Warn("refresh token reuse detected, family revoked",
		zap.String("user_id", claims.UserID),
		zap.String("family_id", claims.FamilyID),
		zap.String("session_id", claims.TokenID),
		zap.Int64("revoked", n))

	return ErrRefreshReused
}

func (s *Service) validatePassword(field, plain string) error {
	if minLen := s.config.Auth.MinPasswordLength; len(plain) < minLen {
		return validation.FieldError(field, fmt.Sprintf("must be at least %d characters", minLen))
	}
	return nil
}

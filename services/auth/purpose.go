package auth

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/tech-arch1tect/hrcore/services/jwt"
	"github.com/tech-arch1tect/hrcore/services/mail"
	"github.com/tech-arch1tect/hrcore/services/user"
	"go.uber.org/zap"
)

// IssueVerify mints a single-use verification token for the user, records
// its id and mails the link. Already verified users are left alone.
func (s *Service) IssueVerify(ctx context.Context, userID string) error {
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	if u.IsVerified() {
		return nil
	}

	ttl := s.config.Auth.VerifyTokenExpiry
	token, jti, err := s.signPurpose(u.ID, jwt.KindVerify, ttl)
	if err != nil {
		return err
	}
	if err := s.users.SetVerifyToken(ctx, u.ID, jti); err != nil {
		return err
	}
	s.metrics.purpose(string(jwt.KindVerify), "issued")

	if err := s.sendLink(ctx, u, mail.TemplateVerifyEmail, "Verify your email address", "/auth/verify-email", token, ttl); err != nil {
		return fmt.Errorf("failed to send verification email: %w", err)
	}
	return nil
}

func (s *Service) ConsumeVerify(ctx context.Context, token string) error {
	p, err := s.tokens.VerifyPurpose(token, jwt.KindVerify)
	if err != nil {
		s.metrics.purpose(string(jwt.KindVerify), "rejected")
		return fmt.Errorf("%w: %w", ErrTokenInvalid, err)
	}

	ok, err := s.users.ConsumeVerifyToken(ctx, p.UserID, p.TokenID, s.now().UTC())
	if err != nil {
		return err
	}
	if !ok {
		s.metrics.purpose(string(jwt.KindVerify), "rejected")
		return ErrTokenInvalid
	}

	s.metrics.purpose(string(jwt.KindVerify), "consumed")
	s.logger.Info("email verified", zap.String("user_id", p.UserID))
	return nil
}

// IssueReset starts a password reset. Unknown emails and mail failures both
// look like success to the caller.
func (s *Service) IssueReset(ctx context.Context, email string) error {
	u, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			s.logger.Debug("password reset requested for unknown email")
			return nil
		}
		return err
	}

	ttl := s.config.Auth.ResetTokenExpiry
	token, jti, err := s.signPurpose(u.ID, jwt.KindReset, ttl)
	if err != nil {
		return err
	}
	if err := s.users.SetResetToken(ctx, u.ID, jti, s.now().UTC()); err != nil {
		return err
	}
	s.metrics.purpose(string(jwt.KindReset), "issued")

	if err := s.sendLink(ctx, u, mail.TemplateResetPassword, "Reset your password", "/auth/reset-password", token, ttl); err != nil {
		s.logger.Error("failed to send password reset email",
			zap.String("user_id", u.ID),
			zap.Error(err))
	}
	return nil
}

// ConsumeReset sets a new password if the reset token is still the one on
// record, then revokes every session of the user.
func (s *Service) ConsumeReset(ctx context.Context, token, newPassword string) error {
	p, err := s.tokens.VerifyPurpose(token, jwt.KindReset)
	if err != nil {
		s.metrics.purpose(string(jwt.KindReset), "rejected")
		return fmt.Errorf("%w: %w", ErrTokenInvalid, err)
	}
	if err := s.validatePassword("newPassword", newPassword); err != nil {
		return err
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	ok, err := s.users.ConsumeResetToken(ctx, p.UserID, p.TokenID, hash)
	if err != nil {
		return err
	}
	if !ok {
		s.metrics.purpose(string(jwt.KindReset), "rejected")
		return ErrTokenInvalid
	}
	s.metrics.purpose(string(jwt.KindReset), "consumed")

	n, err := s.sessions.RevokeAllForUser(ctx, p.UserID)
	if err != nil {
		s.logger.Error("failed to revoke sessions after password reset",
			zap.String("user_id", p.UserID),
			zap.Error(err))
		return err
	}
	s.metrics.revoked("password_reset", n)

	s.logger.Info("password reset completed",
		zap.String("user_id", p.UserID),
		zap.Int64("sessions_revoked", n))
	return nil
}

func (s *Service) signPurpose(userID string, purpose jwt.Kind, ttl time.Duration) (string, string, error) {
	jti := uuid.NewString()
	token, err := s.tokens.Sign(&jwt.Purpose{
		UserID:  userID,
		Purpose: purpose,
		TokenID: jti,
	}, ttl)
	if err != nil {
		return "", "", err
	}
	return token, jti, nil
}

func (s *Service) sendLink(ctx context.Context, u *user.User, templateName, subject, path, token string, ttl time.Duration) error {
	link := s.config.App.URL + path + "?token=" + url.QueryEscape(token)

	if s.mailService == nil {
		s.logger.Warn("no mail service configured, link not delivered",
			zap.String("user_id", u.ID),
			zap.String("template", templateName))
		return nil
	}

	return s.mailService.SendTemplate(ctx, templateName, []string{u.Email}, subject, map[string]any{
		"Email":     u.Email,
		"AppName":   s.config.App.Name,
		"Link":      link,
		"ExpiresIn": ttl.String(),
	})
}

package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/tech-arch1tect/hrcore/config"
	"github.com/tech-arch1tect/hrcore/services/logging"
	"go.uber.org/zap"
)

var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrExpiredToken     = fmt.Errorf("%w: token has expired", ErrInvalidToken)
	ErrMalformedToken   = fmt.Errorf("%w: malformed token", ErrInvalidToken)
	ErrInvalidSignature = fmt.Errorf("%w: invalid token signature", ErrInvalidToken)
	ErrUnexpectedKind   = fmt.Errorf("%w: unexpected token kind", ErrInvalidToken)
)

type claims struct {
	Kind     Kind   `json:"kind"`
	Email    string `json:"email,omitempty"`
	Role     string `json:"role,omitempty"`
	OrgID    string `json:"org_id,omitempty"`
	FamilyID string `json:"fid,omitempty"`
	jwt.RegisteredClaims
}

type Option func(*Service)

// WithClock replaces time.Now for both signing and validation.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

type Service struct {
	secret []byte
	issuer string
	now    func() time.Time
	logger *logging.Service
}

func NewService(cfg *config.Config, logger *logging.Service, opts ...Option) *Service {
	s := &Service{
		secret: []byte(cfg.JWT.SecretKey),
		issuer: cfg.JWT.Issuer,
		now:    time.Now,
		logger: logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Sign encodes payload into an HS256 token that expires ttl from now.
func (s *Service) Sign(payload Payload, ttl time.Duration) (string, error) {
	if payload == nil {
		return "", errors.New("cannot sign nil payload")
	}
	if ttl <= 0 {
		return "", fmt.Errorf("token ttl must be positive, got %s", ttl)
	}

	now := s.now()
	c := claims{
		Kind: payload.Kind(),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   payload.Subject(),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	switch p := payload.(type) {
	case *Access:
		c.Email = p.Email
		c.Role = p.Role
		c.OrgID = p.OrgID
		c.ID = uuid.NewString()
	case *Refresh:
		if p.TokenID == "" || p.FamilyID == "" {
			return "", errors.New("refresh payload requires token and family id")
		}
		c.ID = p.TokenID
		c.FamilyID = p.FamilyID
	case *Purpose:
		if !isPurpose(p.Purpose) {
			return "", fmt.Errorf("unknown token purpose %q", p.Purpose)
		}
		if p.TokenID == "" {
			return "", errors.New("purpose payload requires token id")
		}
		c.ID = p.TokenID
	}

	if c.Subject == "" {
		return "", errors.New("token subject is required")
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.secret)
	if err != nil {
		s.logger.Error("failed to sign token", zap.String("kind", string(c.Kind)), zap.Error(err))
		return "", fmt.Errorf("failed to sign %s token: %w", c.Kind, err)
	}

	return signed, nil
}

// Verify checks signature, algorithm, issuer and expiry and returns the
// decoded payload. Every failure wraps ErrInvalidToken.
func (s *Service) Verify(tokenString string) (Payload, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(s.now),
	)

	var c claims
	_, err := parser.ParseWithClaims(tokenString, &c, func(*jwt.Token) (any, error) {
		return s.secret, nil
	})
	if err != nil {
		s.logger.Debug("token validation failed", zap.Error(err))

		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrExpiredToken
		case errors.Is(err, jwt.ErrTokenMalformed):
			return nil, ErrMalformedToken
		case errors.Is(err, jwt.ErrSignatureInvalid), errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, ErrInvalidSignature
		default:
			return nil, ErrInvalidToken
		}
	}

	if c.Subject == "" {
		return nil, ErrMalformedToken
	}
	expiresAt := c.ExpiresAt.Time

	switch {
	case c.Kind == KindAccess:
		return &Access{
			UserID:    c.Subject,
			Email:     c.Email,
			Role:      c.Role,
			OrgID:     c.OrgID,
			ExpiresAt: expiresAt,
		}, nil
	case c.Kind == KindRefresh:
		if c.ID == "" || c.FamilyID == "" {
			return nil, ErrMalformedToken
		}
		return &Refresh{
			UserID:    c.Subject,
			TokenID:   c.ID,
			FamilyID:  c.FamilyID,
			ExpiresAt: expiresAt,
		}, nil
	case isPurpose(c.Kind):
		if c.ID == "" {
			return nil, ErrMalformedToken
		}
		return &Purpose{
			UserID:    c.Subject,
			Purpose:   c.Kind,
			TokenID:   c.ID,
			ExpiresAt: expiresAt,
		}, nil
	default:
		return nil, ErrUnexpectedKind
	}
}

func (s *Service) VerifyAccess(tokenString string) (*Access, error) {
	payload, err := s.Verify(tokenString)
	if err != nil {
		return nil, err
	}
	access, ok := payload.(*Access)
	if !ok {
		return nil, ErrUnexpectedKind
	}
	return access, nil
}

func (s *Service) VerifyRefresh(tokenString string) (*Refresh, error) {
	payload, err := s.Verify(tokenString)
	if err != nil {
		return nil, err
	}
	refresh, ok := payload.(*Refresh)
	if !ok {
		return nil, ErrUnexpectedKind
	}
	return refresh, nil
}

// VerifyPurpose accepts only a purpose token minted for the given purpose,
// so a reset token never satisfies verification and vice versa.
func (s *Service) VerifyPurpose(tokenString string, purpose Kind) (*Purpose, error) {
	payload, err := s.Verify(tokenString)
	if err != nil {
		return nil, err
	}
	p, ok := payload.(*Purpose)
	if !ok || p.Purpose != purpose {
		return nil, ErrUnexpectedKind
	}
	return p, nil
}

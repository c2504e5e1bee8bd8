package session

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/tech-arch1tect/hrcore/config"
	"github.com/tech-arch1tect/hrcore/services/logging"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionRevoked  = errors.New("session already revoked")
)

type Option func(*Ledger)

func WithClock(now func() time.Time) Option {
	return func(l *Ledger) {
		l.now = now
	}
}

// Ledger is the durable record of every refresh token issued.
type Ledger struct {
	db         *gorm.DB
	maxPerUser int
	now        func() time.Time
	logger     *logging.Service
}

func NewLedger(db *gorm.DB, cfg *config.Config, logger *logging.Service, opts ...Option) *Ledger {
	l := &Ledger{
		db:         db,
		maxPerUser: cfg.Session.MaxPerUser,
		now:        time.Now,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// MatchesToken reports whether token hashes to the stored digest.
func (s *Session) MatchesToken(token string) bool {
	return subtle.ConstantTimeCompare([]byte(HashToken(token)), []byte(s.TokenHash)) == 1
}

// Create inserts a session and then trims the user's active sessions down
// to the configured cap, oldest first.
func (l *Ledger) Create(ctx context.Context, ns NewSession) (*Session, error) {
	var created *Session
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		s, err := l.insert(tx, ns)
		if err != nil {
			return err
		}
		created = s
		return l.enforceCap(tx, s)
	})
	if err != nil {
		return nil, err
	}

	l.logger.Debug("session created",
		zap.String("session_id", created.ID),
		zap.String("user_id", created.UserID),
		zap.String("family_id", created.FamilyID))

	return created, nil
}

func (l *Ledger) Find(ctx context.Context, userID, id string) (*Session, error) {
	var s Session
	err := l.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&s).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to find session: %w", err)
	}
	return &s, nil
}

// Rotate supersedes oldID with a new session in one transaction. The old
// row is revoked with a conditional update; if another caller revoked it
// first nothing is written and ErrSessionRevoked is returned.
func (l *Ledger) Rotate(ctx context.Context, userID, oldID string, next NewSession) (*Session, error) {
	var created *Session
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := l.clock()
		result := tx.Model(&Session{}).
			Where("id = ? AND user_id = ? AND revoked_at IS NULL", oldID, userID).
			Updates(map[string]any{
				"revoked_at":  now,
				"replaced_by": next.ID,
			})
		if result.Error != nil {
			return fmt.Errorf("failed to revoke rotated session: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrSessionRevoked
		}

		s, err := l.insert(tx, next)
		if err != nil {
			return err
		}
		created = s
		return l.enforceCap(tx, s)
	})
	if err != nil {
		return nil, err
	}

	l.logger.Debug("session rotated",
		zap.String("old_session_id", oldID),
		zap.String("session_id", created.ID),
		zap.String("family_id", created.FamilyID))

	return created, nil
}

func (l *Ledger) Revoke(ctx context.Context, id string) error {
	result := l.db.WithContext(ctx).Model(&Session{}).
		Where("id = ? AND revoked_at IS NULL", id).
		Update("revoked_at", l.clock())
	if result.Error != nil {
		return fmt.Errorf("failed to revoke session: %w", result.Error)
	}
	return nil
}

// RevokeFamily revokes every still-active session descended from one login.
func (l *Ledger) RevokeFamily(ctx context.Context, familyID string) (int64, error) {
	result := l.db.WithContext(ctx).Model(&Session{}).
		Where("family_id = ? AND revoked_at IS NULL", familyID).
		Update("revoked_at", l.clock())
	if result.Error != nil {
		return 0, fmt.Errorf("failed to revoke session family: %w", result.Error)
	}

	l.logger.Warn("session family revoked",
		zap.String("family_id", familyID),
		zap.Int64("count", result.RowsAffected))

	return result.RowsAffected, nil
}

func (l *Ledger) RevokeAllForUser(ctx context.Context, userID string) (int64, error) {
	result := l.db.WithContext(ctx).Model(&Session{}).
		Where("user_id = ? AND revoked_at IS NULL", userID).
		Update("revoked_at", l.clock())
	if result.Error != nil {
		return 0, fmt.Errorf("failed to revoke user sessions: %w", result.Error)
	}

	l.logger.Info("all user sessions revoked",
		zap.String("user_id", userID),
		zap.Int64("count", result.RowsAffected))

	return result.RowsAffected, nil
}

// List returns the user's sessions, newest first.
func (l *Ledger) List(ctx context.Context, userID string) ([]Session, error) {
	var sessions []Session
	err := l.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&sessions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return sessions, nil
}

func (l *Ledger) CountActive(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := l.db.WithContext(ctx).Model(&Session{}).
		Where("user_id = ? AND revoked_at IS NULL AND expires_at > ?", userID, l.clock()).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count sessions: %w", err)
	}
	return count, nil
}

// PurgeExpired deletes rows that expired more than retention ago.
func (l *Ledger) PurgeExpired(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := l.clock().Add(-retention)
	result := l.db.WithContext(ctx).Where("expires_at < ?", cutoff).Delete(&Session{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to purge expired sessions: %w", result.Error)
	}

	if result.RowsAffected > 0 {
		l.logger.Info("purged expired sessions",
			zap.Int64("count", result.RowsAffected),
			zap.Time("cutoff", cutoff))
	}

	return result.RowsAffected, nil
}

func (l *Ledger) insert(tx *gorm.DB, ns NewSession) (*Session, error) {
	if ns.ID == "" || ns.UserID == "" || ns.FamilyID == "" || ns.Token == "" {
		return nil, errors.New("session id, user, family and token are required")
	}

	s := &Session{
		ID:        ns.ID,
		UserID:    ns.UserID,
		FamilyID:  ns.FamilyID,
		TokenHash: HashToken(ns.Token),
		UserAgent: truncate(ns.UserAgent, 500),
		IPAddress: truncate(ns.IPAddress, 45),
		CreatedAt: l.clock(),
		ExpiresAt: ns.ExpiresAt.UTC(),
	}
	if err := tx.Create(s).Error; err != nil {
		return nil, fmt.Errorf("failed to store session: %w", err)
	}
	return s, nil
}

// enforceCap revokes the oldest active sessions of the owner, excluding
// keep, until at most maxPerUser remain active.
func (l *Ledger) enforceCap(tx *gorm.DB, keep *Session) error {
	if l.maxPerUser <= 0 {
		return nil
	}

	now := l.clock()
	var ids []string
	err := tx.Model(&Session{}).
		Where("user_id = ? AND id <> ? AND revoked_at IS NULL AND expires_at > ?", keep.UserID, keep.ID, now).
		Order("created_at ASC").
		Order("id ASC").
		Pluck("id", &ids).Error
	if err != nil {
		return fmt.Errorf("failed to load active sessions: %w", err)
	}

	surplus := len(ids) - (l.maxPerUser - 1)
	if surplus <= 0 {
		return nil
	}

	result := tx.Model(&Session{}).
		Where("id IN ? AND revoked_at IS NULL", ids[:surplus]).
		Update("revoked_at", now)
	if result.Error != nil {
		return fmt.Errorf("failed to revoke surplus sessions: %w", result.Error)
	}

	l.logger.Info("session cap enforced",
		zap.String("user_id", keep.UserID),
		zap.Int("limit", l.maxPerUser),
		zap.Int64("revoked", result.RowsAffected))

	return nil
}

func (l *Ledger) clock() time.Time {
	return l.now().UTC()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

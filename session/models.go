package session

import (
	"time"
)

// Session is one issued refresh token. The raw token is never stored, only
// its SHA-256 hex digest.
type Session struct {
	ID         string     `json:"id" gorm:"primaryKey;size:36"`
	UserID     string     `json:"user_id" gorm:"size:36;not null;index:idx_sessions_user_created,priority:1"`
	FamilyID   string     `json:"family_id" gorm:"size:36;not null;index"`
	TokenHash  string     `json:"-" gorm:"size:64;not null"`
	UserAgent  string     `json:"user_agent" gorm:"size:500"`
	IPAddress  string     `json:"ip_address" gorm:"size:45"`
	CreatedAt  time.Time  `json:"created_at" gorm:"not null;index:idx_sessions_user_created,priority:2"`
	ExpiresAt  time.Time  `json:"expires_at" gorm:"not null;index"`
	RevokedAt  *time.Time `json:"revoked_at,omitempty" gorm:"index"`
	ReplacedBy *string    `json:"replaced_by,omitempty" gorm:"size:36"`
}

func (Session) TableName() string {
	return "sessions"
}

func (s *Session) Revoked() bool {
	return s.RevokedAt != nil
}

func (s *Session) Active(now time.Time) bool {
	return s.RevokedAt == nil && now.Before(s.ExpiresAt)
}

// NewSession describes a session row to insert.
type NewSession struct {
	ID        string
	UserID    string
	FamilyID  string
	Token     string
	UserAgent string
	IPAddress string
	ExpiresAt time.Time
}

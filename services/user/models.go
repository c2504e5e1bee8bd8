package user

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

type Organization struct {
	ID        string    `json:"id" gorm:"primaryKey;size:36"`
	Name      string    `json:"name" gorm:"uniqueIndex;size:255;not null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Organization) TableName() string {
	return "organizations"
}

func (o *Organization) BeforeCreate(*gorm.DB) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	return nil
}

type User struct {
	ID               string        `json:"id" gorm:"primaryKey;size:36"`
	Email            string        `json:"email" gorm:"uniqueIndex;size:320;not null"`
	PasswordHash     string        `json:"-" gorm:"not null"`
	Role             Role          `json:"role" gorm:"size:16;not null;default:user"`
	OrganizationID   string        `json:"org_id" gorm:"size:36;index;not null"`
	Organization     *Organization `json:"organization,omitempty" gorm:"constraint:OnDelete:RESTRICT"`
	EmailVerifiedAt  *time.Time    `json:"email_verified_at,omitempty"`
	VerifyJTI        *string       `json:"-" gorm:"column:verify_jti;size:36"`
	ResetJTI         *string       `json:"-" gorm:"column:reset_jti;size:36"`
	ResetRequestedAt *time.Time    `json:"-"`
	CreatedAt        time.Time     `json:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) BeforeCreate(*gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.Role == "" {
		u.Role = RoleUser
	}
	return nil
}

func (u *User) IsVerified() bool {
	return u.EmailVerifiedAt != nil
}

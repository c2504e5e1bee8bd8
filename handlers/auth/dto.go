package auth

import (
	"time"

	"github.com/tech-arch1tect/hrcore/services/user"
	"github.com/tech-arch1tect/hrcore/session"
)

type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=8,max=128"`
	OrgName  string `json:"orgName" validate:"required,min=3,max=120"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=8,max=128"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type ResetPasswordRequest struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,min=8,max=128"`
}

type UserView struct {
	ID            string     `json:"id"`
	Email         string     `json:"email"`
	Role          string     `json:"role"`
	OrgID         string     `json:"orgId"`
	EmailVerified bool       `json:"emailVerified"`
	VerifiedAt    *time.Time `json:"emailVerifiedAt,omitempty"`
}

type UserResponse struct {
	User UserView `json:"user"`
}

type SessionsResponse struct {
	Sessions []session.Summary `json:"sessions"`
}

type OKResponse struct {
	OK bool `json:"ok"`
}

func newUserView(u *user.User) UserView {
	return UserView{
		ID:            u.ID,
		Email:         u.Email,
		Role:          string(u.Role),
		OrgID:         u.OrganizationID,
		EmailVerified: u.IsVerified(),
		VerifiedAt:    u.EmailVerifiedAt,
	}
}

package user

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

var (
	ErrNotFound   = errors.New("user not found")
	ErrEmailTaken = errors.New("email already registered")
)

// Store persists users and organizations.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) FindByEmail(ctx context.Context, email string) (*User, error) {
	var u User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}
	return &u, nil
}

func (s *Store) FindByID(ctx context.Context, id string) (*User, error) {
	var u User
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return &u, nil
}

func (s *Store) Create(ctx context.Context, u *User) error {
	if err := s.db.WithContext(ctx).Create(u).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrEmailTaken
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// FindOrCreateOrganization looks an organization up by exact name and
// creates it when absent. A concurrent insert of the same name is resolved
// by re-reading the winner's row.
func (s *Store) FindOrCreateOrganization(ctx context.Context, name string) (*Organization, error) {
	db := s.db.WithContext(ctx)

	var org Organization
	err := db.Where("name = ?", name).First(&org).Error
	if err == nil {
		return &org, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to find organization: %w", err)
	}

	org = Organization{Name: name}
	if err := db.Create(&org).Error; err != nil {
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("failed to create organization: %w", err)
		}
		if err := db.Where("name = ?", name).First(&org).Error; err != nil {
			return nil, fmt.Errorf("failed to find organization: %w", err)
		}
	}
	return &org, nil
}

func (s *Store) UpdatePassword(ctx context.Context, userID, hash string) error {
	result := s.db.WithContext(ctx).Model(&User{}).Where("id = ?", userID).Update("password_hash", hash)
	if result.Error != nil {
		return fmt.Errorf("failed to update password: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// SetVerifyToken records jti as the only verification token that may be consumed.
func (s *Store) SetVerifyToken(ctx context.Context, userID, jti string) error {
	return s.update(ctx, userID, map[string]any{"verify_jti": jti})
}

func (s *Store) SetResetToken(ctx context.Context, userID, jti string, requestedAt time.Time) error {
	return s.update(ctx, userID, map[string]any{
		"reset_jti":          jti,
		"reset_requested_at": requestedAt,
	})
}

// ConsumeVerifyToken marks the email verified if jti is still the stored
// verify token, clearing it in the same statement. It reports whether a
// row matched.
func (s *Store) ConsumeVerifyToken(ctx context.Context, userID, jti string, at time.Time) (bool, error) {
	result := s.db.WithContext(ctx).Model(&User{}).
		Where("id = ? AND verify_jti = ?", userID, jti).
		Updates(map[string]any{
			"email_verified_at": at,
			"verify_jti":        nil,
		})
	if result.Error != nil {
		return false, fmt.Errorf("failed to consume verify token: %w", result.Error)
	}
	return result.RowsAffected == 1, nil
}

// ConsumeResetToken stores the new password hash if jti is still the stored
// reset token, clearing it in the same statement.
func (s *Store) ConsumeResetToken(ctx context.Context, userID, jti, hash string) (bool, error) {
	result := s.db.WithContext(ctx).Model(&User{}).
		Where("id = ? AND reset_jti = ?", userID, jti).
		Updates(map[string]any{
			"password_hash":      hash,
			"reset_jti":          nil,
			"reset_requested_at": nil,
		})
	if result.Error != nil {
		return false, fmt.Errorf("failed to consume reset token: %w", result.Error)
	}
	return result.RowsAffected == 1, nil
}

func (s *Store) update(ctx context.Context, userID string, values map[string]any) error {
	result := s.db.WithContext(ctx).Model(&User{}).Where("id = ?", userID).Updates(values)
	if result.Error != nil {
		return fmt.Errorf("failed to update user: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

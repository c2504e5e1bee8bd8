package auth

import (
	"errors"
	"fmt"
)

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrRefreshReused      = fmt.Errorf("%w: reused", ErrUnauthorized)
	ErrNotFound           = errors.New("not found")
	ErrTokenInvalid       = errors.New("invalid or expired token")
)

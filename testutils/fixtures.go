package testutils

import (
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/tech-arch1tect/hrcore/config"
)

// Epoch is a whole-second instant so JWT numeric dates round-trip exactly.
var Epoch = time.Date(2025, time.March, 3, 9, 0, 0, 0, time.UTC)

func GetTestConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{
			Name:      "hrcore-test",
			URL:       "http://app.test",
			WebOrigin: "http://app.test",
			Env:       "test",
		},
		Server: config.ServerConfig{
			Host:      "localhost",
			Port:      "0",
			APIPrefix: "/api/v1",
		},
		Database: config.DatabaseConfig{
			Driver: "sqlite",
			DSN:    ":memory:",
		},
		JWT: config.JWTConfig{
			SecretKey:        "test-secret-key-32-chars-long!!",
			Issuer:           "hrcore-test",
			AccessTTLMinutes: 15,
			RefreshTTLDays:   7,
		},
		Cookie: config.CookieConfig{
			Domain:      "localhost",
			SameSite:    "lax",
			AccessName:  "access_token",
			RefreshName: "refresh_token",
		},
		CSRF: config.CSRFConfig{
			CookieName:  "csrf_token",
			HeaderName:  "x-csrf-token",
			TokenLength: 32,
			ExemptPaths: []string{
				"/api/v1/auth/login",
				"/api/v1/auth/register",
				"/api/v1/auth/forgot-password",
				"/api/v1/auth/reset-password",
				"/api/v1/auth/verify-email",
			},
		},
		Session: config.SessionConfig{
			MaxPerUser:      10,
			CleanupInterval: time.Hour,
			Retention:       30 * 24 * time.Hour,
		},
		Auth: config.AuthConfig{
			PasswordHasher:    "bcrypt",
			BcryptCost:        bcrypt.MinCost,
			MinPasswordLength: 8,
			VerifyTokenExpiry: time.Hour,
			ResetTokenExpiry:  15 * time.Minute,
		},
		Mail: config.MailConfig{
			FromAddress: "no-reply@app.test",
			FromName:    "hrcore",
		},
		Metrics: config.MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
	}
}

var TestPasswords = struct {
	Valid    string
	Other    string
	TooShort string
}{
	Valid:    "Password123",
	Other:    "Different456",
	TooShort: "Pass1",
}

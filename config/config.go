package config

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

const minSecretLength = 12

type Config struct {
	App      AppConfig      `envPrefix:"HRCORE_APP_"`
	Server   ServerConfig   `envPrefix:"HRCORE_SERVER_"`
	Log      LogConfig      `envPrefix:"HRCORE_LOG_"`
	Database DatabaseConfig `envPrefix:"HRCORE_DATABASE_"`
	JWT      JWTConfig      `envPrefix:"HRCORE_JWT_"`
	Cookie   CookieConfig   `envPrefix:"HRCORE_COOKIE_"`
	CSRF     CSRFConfig     `envPrefix:"HRCORE_CSRF_"`
	Session  SessionConfig  `envPrefix:"HRCORE_SESSION_"`
	Auth     AuthConfig     `envPrefix:"HRCORE_AUTH_"`
	Mail     MailConfig     `envPrefix:"HRCORE_MAIL_"`
	Metrics  MetricsConfig  `envPrefix:"HRCORE_METRICS_"`
}

type AppConfig struct {
	Name      string `env:"NAME" envDefault:"hrcore"`
	URL       string `env:"URL" envDefault:"http://localhost:5173"`
	WebOrigin string `env:"WEB_ORIGIN" envDefault:"http://localhost:5173"`
	Env       string `env:"ENV" envDefault:"development"`
}

func (a AppConfig) IsProduction() bool {
	return a.Env == "production"
}

type ServerConfig struct {
	Port      string `env:"PORT" envDefault:"4000"`
	Host      string `env:"HOST" envDefault:"localhost"`
	APIPrefix string `env:"API_PREFIX" envDefault:"/api/v1"`
}

type LogConfig struct {
	Level  string `env:"LEVEL" envDefault:"info"`
	Format string `env:"FORMAT" envDefault:"json"`
	Output string `env:"OUTPUT" envDefault:"stdout"`
}

type DatabaseConfig struct {
	Driver      string `env:"DRIVER" envDefault:"sqlite"`
	DSN         string `env:"DSN" envDefault:"hrcore.db"`
	AutoMigrate bool   `env:"AUTO_MIGRATE" envDefault:"true"`
}

// JWTConfig holds the process-wide signing secret and token lifetimes.
type JWTConfig struct {
	SecretKey        string `env:"SECRET_KEY"`
	Issuer           string `env:"ISSUER" envDefault:"hrcore"`
	AccessTTLMinutes int    `env:"ACCESS_TTL_MINUTES" envDefault:"15"`
	RefreshTTLDays   int    `env:"REFRESH_TTL_DAYS" envDefault:"7"`
}

func (j JWTConfig) AccessTTL() time.Duration {
	return time.Duration(j.AccessTTLMinutes) * time.Minute
}

func (j JWTConfig) RefreshTTL() time.Duration {
	return time.Duration(j.RefreshTTLDays) * 24 * time.Hour
}

type CookieConfig struct {
	Domain      string `env:"DOMAIN" envDefault:"localhost"`
	Secure      bool   `env:"SECURE" envDefault:"false"`
	SameSite    string `env:"SAME_SITE" envDefault:"lax"`
	AccessName  string `env:"ACCESS_NAME" envDefault:"access_token"`
	RefreshName string `env:"REFRESH_NAME" envDefault:"refresh_token"`
}

type CSRFConfig struct {
	CookieName  string   `env:"COOKIE_NAME" envDefault:"csrf_token"`
	HeaderName  string   `env:"HEADER_NAME" envDefault:"x-csrf-token"`
	TokenLength int      `env:"TOKEN_LENGTH" envDefault:"32"`
	ExemptPaths []string `env:"EXEMPT_PATHS" envSeparator:"," envDefault:"/api/v1/auth/login,/api/v1/auth/register,/api/v1/auth/forgot-password,/api/v1/auth/reset-password,/api/v1/auth/verify-email"`
}

type SessionConfig struct {
	MaxPerUser      int           `env:"MAX_PER_USER" envDefault:"10"`
	CleanupInterval time.Duration `env:"CLEANUP_INTERVAL" envDefault:"1h"`
	Retention       time.Duration `env:"RETENTION" envDefault:"720h"`
}

type AuthConfig struct {
	PasswordHasher    string        `env:"PASSWORD_HASHER" envDefault:"argon2id"`
	BcryptCost        int           `env:"BCRYPT_COST" envDefault:"10"`
	MinPasswordLength int           `env:"MIN_PASSWORD_LENGTH" envDefault:"8"`
	VerifyTokenExpiry time.Duration `env:"VERIFY_TOKEN_EXPIRY" envDefault:"1h"`
	ResetTokenExpiry  time.Duration `env:"RESET_TOKEN_EXPIRY" envDefault:"15m"`
}

type MailConfig struct {
	Enabled      bool   `env:"ENABLED" envDefault:"false"`
	Host         string `env:"HOST" envDefault:"localhost"`
	Port         int    `env:"PORT" envDefault:"587"`
	Username     string `env:"USERNAME"`
	Password     string `env:"PASSWORD"`
	Encryption   string `env:"ENCRYPTION" envDefault:"tls"`
	FromAddress  string `env:"FROM_ADDRESS" envDefault:"no-reply@localhost"`
	FromName     string `env:"FROM_NAME" envDefault:"hrcore"`
	TemplatesDir string `env:"TEMPLATES_DIR"`
}

type MetricsConfig struct {
	Enabled bool   `env:"ENABLED" envDefault:"true"`
	Path    string `env:"PATH" envDefault:"/metrics"`
}

// LoadConfig fills cfg from .env and the process environment. Validation
// only runs when cfg is a *Config.
func LoadConfig(cfg any) error {
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found: %v", err)
	}

	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("failed to parse environment: %w", err)
	}

	if c, ok := cfg.(*Config); ok {
		return c.Validate()
	}
	return nil
}

// Validate rejects configurations the auth core cannot run safely with.
func (c *Config) Validate() error {
	var errs []error

	if len(c.JWT.SecretKey) < minSecretLength {
		errs = append(errs, fmt.Errorf("JWT secret key must be at least %d characters", minSecretLength))
	}
	if c.JWT.AccessTTLMinutes <= 0 {
		errs = append(errs, errors.New("JWT access TTL must be positive"))
	}
	if c.JWT.RefreshTTLDays <= 0 {
		errs = append(errs, errors.New("JWT refresh TTL must be positive"))
	}
	if c.Session.MaxPerUser <= 0 {
		errs = append(errs, errors.New("session max per user must be positive"))
	}
	if c.CSRF.CookieName == "" || c.CSRF.HeaderName == "" {
		errs = append(errs, errors.New("CSRF cookie and header names are required"))
	}

	return errors.Join(errs...)
}

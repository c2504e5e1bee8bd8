package password

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tech-arch1tect/hrcore/config"
	"golang.org/x/crypto/bcrypt"
)

var ErrEmptyPassword = errors.New("empty password")

// Hasher is the opaque hash-and-verify capability the auth core depends on.
type Hasher interface {
	Hash(plain string) (string, error)
	Verify(plain, hash string) bool
}

// NewHasher returns a hasher that produces hashes with the configured
// algorithm and verifies hashes of either supported algorithm.
func NewHasher(cfg *config.Config) (Hasher, error) {
	bc := Bcrypt{Cost: cfg.Auth.BcryptCost}
	a2 := Argon2id{Params: DefaultArgon2Params}

	switch strings.ToLower(cfg.Auth.PasswordHasher) {
	case "", "argon2id":
		return &dispatcher{primary: a2, bcrypt: bc, argon2: a2}, nil
	case "bcrypt":
		return &dispatcher{primary: bc, bcrypt: bc, argon2: a2}, nil
	default:
		return nil, fmt.Errorf("unsupported password hasher %q", cfg.Auth.PasswordHasher)
	}
}

type dispatcher struct {
	primary Hasher
	bcrypt  Bcrypt
	argon2  Argon2id
}

func (d *dispatcher) Hash(plain string) (string, error) {
	return d.primary.Hash(plain)
}

func (d *dispatcher) Verify(plain, hash string) bool {
	if strings.HasPrefix(hash, argon2Prefix) {
		return d.argon2.Verify(plain, hash)
	}
	return d.bcrypt.Verify(plain, hash)
}

type Bcrypt struct {
	Cost int
}

func (b Bcrypt) Hash(plain string) (string, error) {
	if plain == "" {
		return "", ErrEmptyPassword
	}
	cost := b.Cost
	if cost < bcrypt.MinCost {
		cost = bcrypt.DefaultCost
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}

func (Bcrypt) Verify(plain, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength is the shortest password accepted at registration and
// password change.
const MinPasswordLength = 8

// ErrPasswordLength is returned for passwords outside the accepted length.
var ErrPasswordLength = errors.New("password must be between 8 and 72 bytes")

// PasswordConfig holds configuration for password hashing and verification.
type PasswordConfig struct {
	BcryptCost int
	Pepper     string // optional global secret appended before hashing
}

// NewPasswordConfig creates a new password configuration from environment variables.
// It reads BCRYPT_COST (default: 12) and optionally PASSWORD_PEPPER.
func NewPasswordConfig() (*PasswordConfig, error) {
	cost := bcryptDefaultCost
	if v := os.Getenv("BCRYPT_COST"); v != "" {
		c, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid BCRYPT_COST: %v", err)
		}
		cost = c
	}

	cfg := &PasswordConfig{
		BcryptCost: cost,
		Pepper:     os.Getenv("PASSWORD_PEPPER"),
	}
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

const bcryptDefaultCost = 12

// normalize validates the configuration.
func (c *PasswordConfig) normalize() error {
	if c.BcryptCost < 10 || c.BcryptCost > 14 {
		return fmt.Errorf("bcrypt cost out of range: %d (must be 10-14)", c.BcryptCost)
	}
	return nil
}

func (c *PasswordConfig) peppered(pw string) []byte {
	return []byte(pw + c.Pepper)
}

// HashPassword hashes a password using bcrypt (with optional pepper).
// Passwords shorter than MinPasswordLength, or longer than bcrypt's 72-byte
// input once peppered, yield ErrPasswordLength.
func (c *PasswordConfig) HashPassword(pw string) (string, error) {
	input := c.peppered(pw)
	if len(pw) < MinPasswordLength || len(input) > 72 {
		return "", ErrPasswordLength
	}

	hash, err := bcrypt.GenerateFromPassword(input, c.BcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// VerifyPassword verifies a password against a stored hash (with optional pepper).
// An empty stored hash never verifies.
func (c *PasswordConfig) VerifyPassword(pw, storedHash string) bool {
	if storedHash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(storedHash), c.peppered(pw)) == nil
}

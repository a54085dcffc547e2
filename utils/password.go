package utils

import (
	"crypto/subtle"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// HashPassword returns a bcrypt hash of password
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyPassword compares a bcrypt hashed password with its plain-text version
func VerifyPassword(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}

// MatchSecret reports whether candidate equals the configured secret. A
// secret that looks like a bcrypt hash is checked with bcrypt, anything else
// with a constant-time comparison. An empty secret never matches.
func MatchSecret(secret, candidate string) bool {
	if secret == "" || candidate == "" {
		return false
	}
	if strings.HasPrefix(secret, "$2a$") || strings.HasPrefix(secret, "$2b$") || strings.HasPrefix(secret, "$2y$") {
		return VerifyPassword(secret, candidate) == nil
	}
	return subtle.ConstantTimeCompare([]byte(secret), []byte(candidate)) == 1
}

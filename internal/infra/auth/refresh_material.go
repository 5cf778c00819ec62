package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"

	"leadintake/internal/errors"
)

// RefreshTokenBytes is the entropy of one refresh token.
const RefreshTokenBytes = 32

// GenerateRefreshToken returns URL-safe token material and the digest that is persisted
// in its place.
func GenerateRefreshToken() (raw string, hash string, err error) {
	buf := make([]byte, RefreshTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", "", errors.Wrap(err, "read refresh token entropy")
	}

	raw = base64.RawURLEncoding.EncodeToString(buf)

	return raw, HashRefreshToken(raw), nil
}

// HashRefreshToken is the lookup key for presented token material.
func HashRefreshToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))

	return hex.EncodeToString(sum[:])
}

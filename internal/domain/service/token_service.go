package service

import (
	"leadintake/internal/domain/entity"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims is the payload of an access token. The subject carries the attorney ID.
type Claims struct {
	AttorneyID uuid.UUID `json:"-"`
	jwt.RegisteredClaims
}

// TokenIssuer mints and verifies short-lived bearer credentials.
type TokenIssuer interface {
	// Issue signs {sub: attorneyID, exp: now + ttl}.
	Issue(attorneyID uuid.UUID) (*entity.AccessToken, error)

	// Verify rejects bad signatures, malformed payloads and exp <= now.
	Verify(token string) (*Claims, error)
}

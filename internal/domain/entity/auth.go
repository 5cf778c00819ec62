// Package entity contains the core business objects of the project,
// each representing a unique, identifiable concept within the domain.
package entity

import (
	"time"

	"github.com/google/uuid"
)

// RefreshToken is a single-use, persisted credential that can be exchanged once for a new
// access token and a successor RefreshToken.
type RefreshToken struct {
	ID         int64     // Surrogate key of the persisted row.
	AttorneyID uuid.UUID // The principal this session belongs to.
	Token      string    // Raw token material. Only populated on the value returned at creation.
	TokenHash  string    // SHA-256 of the raw material, the only form stored.
	Used       bool      // Flips false -> true exactly once, at redemption.
	ExpiresAt  int64     // Expiry as epoch seconds.
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Expired reports whether the token is past its expiry. A token whose expiry equals now is expired.
func (t *RefreshToken) Expired(now time.Time) bool {
	return now.Unix() >= t.ExpiresAt
}

// Redeemable reports whether the token may still be exchanged.
func (t *RefreshToken) Redeemable(now time.Time) bool {
	return !t.Used && !t.Expired(now)
}

// AccessToken is a signed bearer credential. It is never persisted.
type AccessToken struct {
	Token     string
	ExpiresAt int64
}

// TokenPair is what a successful login or refresh hands back to the caller.
type TokenPair struct {
	Access  AccessToken
	Refresh *RefreshToken
}

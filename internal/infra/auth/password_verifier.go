package auth

import (
	"crypto/rand"
	"encoding/base64"

	"leadintake/internal/domain/service"
	"leadintake/internal/errors"
)

// passwordVerifier owns a decoy hash created with the live hasher at startup, so a
// lookup miss costs one full hash comparison just like a wrong password.
type passwordVerifier struct {
	service.PasswordHasher
	decoyHash string
}

func NewPasswordVerifier(hasher service.PasswordHasher) (service.PasswordVerifier, error) {
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return nil, errors.Wrap(err, "read decoy secret")
	}

	decoy, err := hasher.Hash(base64.RawURLEncoding.EncodeToString(secret))
	if err != nil {
		return nil, errors.Wrap(err, "hash decoy secret")
	}

	return &passwordVerifier{
		PasswordHasher: hasher,
		decoyHash:      decoy,
	}, nil
}

func (v *passwordVerifier) VerifyOrDecoy(password string, storedHash *string) bool {
	target := v.decoyHash
	if storedHash != nil {
		target = *storedHash
	}

	matched := v.Check(password, target)

	return matched && storedHash != nil
}

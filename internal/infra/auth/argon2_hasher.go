package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"leadintake/config"
	"leadintake/internal/domain/service"
	"leadintake/internal/errors"

	"golang.org/x/crypto/argon2"
)

const (
	argon2ID = "argon2id"

	minArgon2Memory     uint32 = 8 * 1024
	maxArgon2Memory     uint32 = 1024 * 1024
	minArgon2Iterations uint32 = 1
	minArgon2SaltLength uint32 = 16
	minArgon2KeyLength  uint32 = 16
)

var (
	errInvalidPHC       = errors.New("invalid argon2id hash format")
	errArgon2Parameters = errors.New("invalid argon2id parameters")
)

// DefaultArgon2Params follows the RFC 9106 second recommended option.
var DefaultArgon2Params = Argon2Params{
	Memory:      64 * 1024,
	Iterations:  3,
	Parallelism: 2,
	SaltLength:  16,
	KeyLength:   32,
}

type Argon2Params struct {
	Memory      uint32 // KiB
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

func (p Argon2Params) validate() error {
	switch {
	case p.Memory < minArgon2Memory || p.Memory > maxArgon2Memory:
		return errors.Wrapf(errArgon2Parameters, "memory %d KiB", p.Memory)
	case p.Iterations < minArgon2Iterations:
		return errors.Wrapf(errArgon2Parameters, "iterations %d", p.Iterations)
	case p.Parallelism == 0:
		return errors.Wrap(errArgon2Parameters, "parallelism 0")
	case p.SaltLength < minArgon2SaltLength:
		return errors.Wrapf(errArgon2Parameters, "salt length %d", p.SaltLength)
	case p.KeyLength < minArgon2KeyLength:
		return errors.Wrapf(errArgon2Parameters, "key length %d", p.KeyLength)
	}

	return nil
}

// argon2Hasher stores hashes in PHC string format:
// $argon2id$v=19$m=65536,t=3,p=2$<salt>$<key> (unpadded standard base64).
type argon2Hasher struct {
	params Argon2Params
}

func NewArgon2Hasher(params Argon2Params) (service.PasswordHasher, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}

	return &argon2Hasher{params: params}, nil
}

func (h *argon2Hasher) Hash(password string) (string, error) {
	salt := make([]byte, h.params.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", errors.Wrap(err, "read salt")
	}

	key := argon2.IDKey([]byte(password), salt, h.params.Iterations, h.params.Memory, h.params.Parallelism, h.params.KeyLength)

	return fmt.Sprintf("$%s$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2ID,
		argon2.Version,
		h.params.Memory,
		h.params.Iterations,
		h.params.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

func (h *argon2Hasher) Check(password, hash string) bool {
	params, salt, key, err := decodePHC(hash)
	if err != nil {
		return false
	}

	computed := argon2.IDKey([]byte(password), salt, params.Iterations, params.Memory, params.Parallelism, params.KeyLength)

	return subtle.ConstantTimeCompare(computed, key) == 1
}

func decodePHC(encoded string) (Argon2Params, []byte, []byte, error) {
	var params Argon2Params

	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != argon2ID {
		return params, nil, nil, errInvalidPHC
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return params, nil, nil, errInvalidPHC
	}

	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &params.Memory, &params.Iterations, &params.Parallelism); err != nil {
		return params, nil, nil, errInvalidPHC
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return params, nil, nil, errInvalidPHC
	}
	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return params, nil, nil, errInvalidPHC
	}

	params.SaltLength = uint32(len(salt))
	params.KeyLength = uint32(len(key))
	if err := params.validate(); err != nil {
		return params, nil, nil, err
	}

	return params, salt, key, nil
}

// NewPasswordHasher selects the hasher named by auth.hasher.
func NewPasswordHasher(cfg *config.Config) (service.PasswordHasher, error) {
	switch cfg.Auth.Hasher {
	case config.HasherBcrypt:
		return NewBcryptHasher(cfg.Auth.BcryptCost), nil
	case config.HasherArgon2id, "":
		params := DefaultArgon2Params
		if a := cfg.Auth.Argon2; a.Memory != 0 {
			params = Argon2Params{
				Memory:      a.Memory,
				Iterations:  a.Iterations,
				Parallelism: a.Parallelism,
				SaltLength:  a.SaltLength,
				KeyLength:   a.KeyLength,
			}
		}

		return NewArgon2Hasher(params)
	default:
		return nil, errors.Errorf("unsupported password hasher %q", cfg.Auth.Hasher)
	}
}

package auth

import (
	"time"

	"leadintake/config"
	"leadintake/internal/domain/entity"
	"leadintake/internal/domain/service"
	"leadintake/internal/errors"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrInvalidAccessToken = errors.New("invalid access token")

// jwtService signs HS256 access tokens. It holds no state besides the key and clock.
type jwtService struct {
	secret    []byte
	issuer    string
	accessTTL time.Duration
	now       service.Clock
}

func NewJWTService(cfg *config.Config) (service.TokenIssuer, error) {
	return newJWTService(cfg, service.SystemClock)
}

func newJWTService(cfg *config.Config, now service.Clock) (*jwtService, error) {
	if cfg.SecretKey.Access == "" {
		return nil, errors.New("jwt signing secret must be provided")
	}
	if cfg.Auth == nil || cfg.Auth.AccessTokenTTL <= 0 {
		return nil, errors.New("auth.accessTokenTTL must be positive")
	}

	return &jwtService{
		secret:    []byte(cfg.SecretKey.Access),
		issuer:    cfg.Auth.Issuer,
		accessTTL: cfg.Auth.AccessTokenTTL,
		now:       now,
	}, nil
}

func (s *jwtService) Issue(attorneyID uuid.UUID) (*entity.AccessToken, error) {
	now := s.now()
	expiresAt := now.Add(s.accessTTL).Truncate(time.Second)

	claims := jwt.RegisteredClaims{
		Subject:   attorneyID.String(),
		Issuer:    s.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
		ID:        uuid.NewString(),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return nil, errors.Wrap(err, "sign access token")
	}

	return &entity.AccessToken{
		Token:     signed,
		ExpiresAt: expiresAt.Unix(),
	}, nil
}

func (s *jwtService) Verify(tokenString string) (*service.Claims, error) {
	claims := &service.Claims{}
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	}
	if s.issuer != "" {
		options = append(options, jwt.WithIssuer(s.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	}, options...)
	if err != nil || !token.Valid {
		return nil, errors.Wrap(ErrInvalidAccessToken, errMessage(err))
	}

	attorneyID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, errors.Wrap(ErrInvalidAccessToken, "malformed subject")
	}
	claims.AttorneyID = attorneyID

	return claims, nil
}

func errMessage(err error) string {
	if err == nil {
		return "token is invalid"
	}

	return err.Error()
}

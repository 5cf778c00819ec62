package redis

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"leadintake/config"
	"leadintake/internal/domain/entity"
	domainerrors "leadintake/internal/domain/errors"
	"leadintake/internal/domain/service"
	"leadintake/internal/errors"
	"leadintake/internal/infra/auth"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

const (
	defaultKeyPrefix = "leadintake"
	// Redeemed and expired tokens stay readable this long past expiry so replays
	// still report Expired or AlreadyUsed.
	auditRetention = 7 * 24 * time.Hour
)

const (
	statusRotated int64 = iota
	statusNotFound
	statusExpired
	statusAlreadyUsed
)

// KEYS[1] token hash key, KEYS[2] id sequence
// ARGV attorney_id, exp, created_at, expire_at
const createScript = `
local id = redis.call("INCR", KEYS[2])
redis.call("HSET", KEYS[1], "id", id, "attorney_id", ARGV[1], "exp", ARGV[2], "used", "0", "created_at", ARGV[3])
redis.call("EXPIREAT", KEYS[1], ARGV[4])
return id
`

// KEYS[1] presented token key, KEYS[2] successor key, KEYS[3] id sequence
// ARGV now, successor exp, successor expire_at
const rotateScript = `
local row = redis.call("HMGET", KEYS[1], "attorney_id", "exp", "used")
if not row[1] then
  return {1}
end
if tonumber(ARGV[1]) >= tonumber(row[2]) then
  return {2}
end
if row[3] == "1" then
  return {3}
end
redis.call("HSET", KEYS[1], "used", "1", "updated_at", ARGV[1])
local id = redis.call("INCR", KEYS[3])
redis.call("HSET", KEYS[2], "id", id, "attorney_id", row[1], "exp", ARGV[2], "used", "0", "created_at", ARGV[1])
redis.call("EXPIREAT", KEYS[2], ARGV[3])
return {0, id, row[1]}
`

var (
	createLua = goredis.NewScript(createScript)
	rotateLua = goredis.NewScript(rotateScript)
)

// refreshTokenStore keeps refresh tokens in Redis hashes. Each redemption runs as a
// single Lua script, which Redis executes without interleaving.
type refreshTokenStore struct {
	client goredis.UniversalClient
	prefix string
	ttl    time.Duration
	now    service.Clock
	logger *slog.Logger
}

func NewRefreshTokenStore(client goredis.UniversalClient, cfg *config.Config, logger *slog.Logger) (service.RefreshTokenStore, error) {
	if cfg.Auth == nil || cfg.Auth.RefreshTokenTTL <= 0 {
		return nil, errors.New("auth.refreshTokenTTL must be positive")
	}

	return newRefreshTokenStore(client, cfg, logger, service.SystemClock), nil
}

func newRefreshTokenStore(client goredis.UniversalClient, cfg *config.Config, logger *slog.Logger, now service.Clock) *refreshTokenStore {
	prefix := defaultKeyPrefix
	if cfg.Redis != nil && cfg.Redis.KeyPrefix != "" {
		prefix = cfg.Redis.KeyPrefix
	}

	return &refreshTokenStore{
		client: client,
		prefix: prefix,
		ttl:    cfg.Auth.RefreshTokenTTL,
		now:    now,
		logger: logger,
	}
}

func (s *refreshTokenStore) tokenKey(tokenHash string) string {
	return s.prefix + ":refresh:" + tokenHash
}

func (s *refreshTokenStore) sequenceKey() string {
	return s.prefix + ":refresh:seq"
}

func (s *refreshTokenStore) Create(ctx context.Context, attorneyID uuid.UUID) (*entity.RefreshToken, error) {
	now := s.now()
	raw, tokenHash, err := auth.GenerateRefreshToken()
	if err != nil {
		return nil, domainerrors.NewUnavailableError(err, "create refresh token")
	}

	exp := now.Add(s.ttl).Unix()
	id, err := createLua.Run(ctx, s.client,
		[]string{s.tokenKey(tokenHash), s.sequenceKey()},
		attorneyID.String(), exp, now.Unix(), s.expireAt(exp),
	).Int64()
	if err != nil {
		return nil, domainerrors.NewUnavailableError(err, "create refresh token")
	}

	return &entity.RefreshToken{
		ID:         id,
		AttorneyID: attorneyID,
		Token:      raw,
		TokenHash:  tokenHash,
		ExpiresAt:  exp,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

func (s *refreshTokenStore) RedeemAndRotate(ctx context.Context, token string) (*entity.RefreshToken, error) {
	now := s.now()
	raw, nextHash, err := auth.GenerateRefreshToken()
	if err != nil {
		return nil, domainerrors.NewUnavailableError(err, "redeem refresh token")
	}

	exp := now.Add(s.ttl).Unix()
	result, err := rotateLua.Run(ctx, s.client,
		[]string{s.tokenKey(auth.HashRefreshToken(token)), s.tokenKey(nextHash), s.sequenceKey()},
		now.Unix(), exp, s.expireAt(exp),
	).Slice()
	if err != nil {
		s.logger.WarnContext(ctx, "refresh token rotation failed", slog.Any("error", err))

		return nil, domainerrors.NewUnavailableError(err, "redeem refresh token")
	}

	if len(result) == 0 {
		return nil, domainerrors.NewUnavailableError(errors.New("empty rotate script response"), "redeem refresh token")
	}

	status, ok := result[0].(int64)
	if !ok {
		return nil, domainerrors.NewUnavailableError(errors.New("invalid rotate script status"), "redeem refresh token")
	}

	switch status {
	case statusNotFound:
		return nil, domainerrors.ErrRefreshNotFound
	case statusExpired:
		return nil, domainerrors.ErrRefreshExpired
	case statusAlreadyUsed:
		return nil, domainerrors.ErrRefreshAlreadyUsed
	case statusRotated:
	default:
		return nil, domainerrors.NewUnavailableError(errors.Errorf("unknown rotate script status %d", status), "redeem refresh token")
	}

	if len(result) != 3 {
		return nil, domainerrors.NewUnavailableError(errors.New("invalid rotate script response"), "redeem refresh token")
	}

	id, _ := result[1].(int64)
	attorneyRaw, _ := result[2].(string)
	attorneyID, err := uuid.Parse(attorneyRaw)
	if err != nil {
		return nil, domainerrors.NewUnavailableError(errors.Wrap(err, "stored attorney id"), "redeem refresh token")
	}

	return &entity.RefreshToken{
		ID:         id,
		AttorneyID: attorneyID,
		Token:      raw,
		TokenHash:  nextHash,
		ExpiresAt:  exp,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

func (s *refreshTokenStore) expireAt(exp int64) string {
	return strconv.FormatInt(exp+int64(auditRetention/time.Second), 10)
}

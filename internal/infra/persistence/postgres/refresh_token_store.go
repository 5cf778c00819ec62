package postgres

import (
	"context"
	"log/slog"
	"time"

	"leadintake/config"
	"leadintake/internal/domain/entity"
	domainerrors "leadintake/internal/domain/errors"
	"leadintake/internal/domain/repository"
	"leadintake/internal/domain/service"
	"leadintake/internal/errors"
	"leadintake/internal/infra/auth"

	"github.com/google/uuid"
	"go.uber.org/fx"
)

// RefreshTokenStoreParams defines the dependencies of the row-locked store
type RefreshTokenStoreParams struct {
	fx.In

	TxManager repository.TransactionManager
	Config    *config.Config
	Logger    *slog.Logger
}

// refreshTokenStore serializes redemptions with SELECT ... FOR UPDATE on the token row.
type refreshTokenStore struct {
	txManager repository.TransactionManager
	ttl       time.Duration
	lockMode  repository.LockMode
	now       service.Clock
	logger    *slog.Logger
}

func NewRefreshTokenStore(params RefreshTokenStoreParams) (service.RefreshTokenStore, error) {
	if params.Config.Auth == nil || params.Config.Auth.RefreshTokenTTL <= 0 {
		return nil, errors.New("auth.refreshTokenTTL must be positive")
	}

	return &refreshTokenStore{
		txManager: params.TxManager,
		ttl:       params.Config.Auth.RefreshTokenTTL,
		lockMode:  ParseLockMode(params.Config.Database.LockMode),
		now:       service.SystemClock,
		logger:    params.Logger,
	}, nil
}

// ParseLockMode maps the configured lock mode; unknown values wait.
func ParseLockMode(mode string) repository.LockMode {
	switch mode {
	case config.LockModeNoWait:
		return repository.LockNoWait
	case config.LockModeSkip:
		return repository.LockSkipLocked
	default:
		return repository.LockWait
	}
}

func (s *refreshTokenStore) Create(ctx context.Context, attorneyID uuid.UUID) (*entity.RefreshToken, error) {
	token, err := s.newToken(attorneyID, s.now())
	if err != nil {
		return nil, err
	}

	err = s.txManager.Execute(ctx, func(txRepoFactory repository.RepositoryFactory) error {
		return txRepoFactory.NewRefreshTokenRepository().Create(ctx, token)
	})
	if err != nil {
		return nil, domainerrors.NewUnavailableError(err, "create refresh token")
	}

	return token, nil
}

// RedeemAndRotate flips the presented token to used and inserts its successor in one
// transaction. The row lock is held from the read until commit.
func (s *refreshTokenStore) RedeemAndRotate(ctx context.Context, token string) (*entity.RefreshToken, error) {
	tokenHash := auth.HashRefreshToken(token)

	var rotated *entity.RefreshToken
	err := s.txManager.Execute(ctx, func(txRepoFactory repository.RepositoryFactory) error {
		repo := txRepoFactory.NewRefreshTokenRepository()

		current, err := repo.FindByHashForUpdate(ctx, tokenHash, s.lockMode)
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return s.missingOrSkipped(ctx, repo, tokenHash)
		case errors.Is(err, repository.ErrLocked):
			// Another redemption of this token is in flight.
			return domainerrors.ErrRefreshAlreadyUsed
		case err != nil:
			return err
		}

		now := s.now()
		if current.Expired(now) {
			return domainerrors.ErrRefreshExpired
		}
		if current.Used {
			return domainerrors.ErrRefreshAlreadyUsed
		}

		if err := repo.MarkUsed(ctx, current.ID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return domainerrors.ErrRefreshAlreadyUsed
			}

			return err
		}

		next, err := s.newToken(current.AttorneyID, now)
		if err != nil {
			return err
		}
		if err := repo.Create(ctx, next); err != nil {
			return err
		}

		rotated = next

		return nil
	})
	if err != nil {
		var appErr domainerrors.AppError
		if errors.As(err, &appErr) {
			return nil, appErr
		}

		s.logger.WarnContext(ctx, "refresh token rotation failed", slog.Any("error", err))

		return nil, domainerrors.NewUnavailableError(err, "redeem refresh token")
	}

	return rotated, nil
}

// missingOrSkipped tells an absent token from one whose row SKIP LOCKED passed over.
func (s *refreshTokenStore) missingOrSkipped(ctx context.Context, repo repository.RefreshTokenRepository, tokenHash string) error {
	if s.lockMode != repository.LockSkipLocked {
		return domainerrors.ErrRefreshNotFound
	}

	exists, err := repo.ExistsByHash(ctx, tokenHash)
	if err != nil {
		return err
	}
	if exists {
		return domainerrors.ErrRefreshAlreadyUsed
	}

	return domainerrors.ErrRefreshNotFound
}

func (s *refreshTokenStore) newToken(attorneyID uuid.UUID, now time.Time) (*entity.RefreshToken, error) {
	raw, tokenHash, err := auth.GenerateRefreshToken()
	if err != nil {
		return nil, err
	}

	return &entity.RefreshToken{
		AttorneyID: attorneyID,
		Token:      raw,
		TokenHash:  tokenHash,
		ExpiresAt:  now.Add(s.ttl).Unix(),
	}, nil
}

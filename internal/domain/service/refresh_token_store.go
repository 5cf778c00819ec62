package service

import (
	"context"

	"leadintake/internal/domain/entity"

	"github.com/google/uuid"
)

// RefreshTokenStore persists single-use refresh tokens.
//
// RedeemAndRotate linearizes redemptions of the same token: for a given token at most
// one call ever succeeds. Failures are reported in this order: ErrRefreshNotFound,
// ErrRefreshExpired, ErrRefreshAlreadyUsed (domain errors). Backend faults surface as
// ErrUnavailable and are never retried inside the store.
type RefreshTokenStore interface {
	Create(ctx context.Context, attorneyID uuid.UUID) (*entity.RefreshToken, error)
	RedeemAndRotate(ctx context.Context, token string) (*entity.RefreshToken, error)
}

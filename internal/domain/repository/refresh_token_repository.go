package repository

import (
	"context"

	"leadintake/internal/domain/entity"
)

// LockMode selects how a row lock behaves when another transaction already holds it.
type LockMode int

const (
	// LockWait blocks until the holder commits, then re-reads the row.
	LockWait LockMode = iota
	// LockNoWait fails immediately with ErrLocked.
	LockNoWait
	// LockSkipLocked behaves as if the locked row did not exist.
	LockSkipLocked
)

func (m LockMode) String() string {
	switch m {
	case LockNoWait:
		return "nowait"
	case LockSkipLocked:
		return "skip"
	default:
		return "wait"
	}
}

type RefreshTokenRepository interface {
	Create(ctx context.Context, token *entity.RefreshToken) error

	// FindByHashForUpdate reads the row holding an exclusive lock for the rest of the transaction.
	FindByHashForUpdate(ctx context.Context, tokenHash string, mode LockMode) (*entity.RefreshToken, error)

	// ExistsByHash reads without locking.
	ExistsByHash(ctx context.Context, tokenHash string) (bool, error)

	MarkUsed(ctx context.Context, id int64) error
}

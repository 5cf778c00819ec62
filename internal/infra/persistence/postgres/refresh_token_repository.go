package postgres

import (
	"context"

	"leadintake/internal/domain/entity"
	"leadintake/internal/domain/repository"
	"leadintake/internal/infra/persistence/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/plugin/dbresolver"
)

type refreshTokenRepository struct {
	db *gorm.DB
}

func NewRefreshTokenRepository(db *gorm.DB) repository.RefreshTokenRepository {
	return &refreshTokenRepository{db: db}
}

func (repo *refreshTokenRepository) Create(ctx context.Context, token *entity.RefreshToken) error {
	m := model.FromRefreshToken(token)
	if err := repo.db.WithContext(ctx).Create(m).Error; err != nil {
		return translate(err, "create refresh token")
	}

	token.ID = m.ID
	token.CreatedAt = m.CreatedAt
	token.UpdatedAt = m.UpdatedAt

	return nil
}

// FindByHashForUpdate issues SELECT ... FOR UPDATE [NOWAIT | SKIP LOCKED]. It must run
// inside a transaction for the lock to outlive the statement.
func (repo *refreshTokenRepository) FindByHashForUpdate(ctx context.Context, tokenHash string, mode repository.LockMode) (*entity.RefreshToken, error) {
	locking := clause.Locking{Strength: clause.LockingStrengthUpdate}
	switch mode {
	case repository.LockNoWait:
		locking.Options = clause.LockingOptionsNoWait
	case repository.LockSkipLocked:
		locking.Options = clause.LockingOptionsSkipLocked
	}

	var m model.RefreshTokenModel
	err := repo.db.WithContext(ctx).
		Clauses(locking).
		Where("refresh_token = ?", tokenHash).
		Take(&m).Error
	if err != nil {
		return nil, translate(err, "lock refresh token")
	}

	return m.ToEntity(), nil
}

func (repo *refreshTokenRepository) ExistsByHash(ctx context.Context, tokenHash string) (bool, error) {
	var count int64
	err := repo.db.WithContext(ctx).
		Clauses(dbresolver.Write).
		Model(&model.RefreshTokenModel{}).
		Where("refresh_token = ?", tokenHash).
		Count(&count).Error
	if err != nil {
		return false, translate(err, "probe refresh token")
	}

	return count > 0, nil
}

// MarkUsed flips used exactly once; a row that is already used is reported as not found.
func (repo *refreshTokenRepository) MarkUsed(ctx context.Context, id int64) error {
	result := repo.db.WithContext(ctx).
		Model(&model.RefreshTokenModel{}).
		Where("id = ? AND used = ?", id, false).
		Update("used", true)
	if result.Error != nil {
		return translate(result.Error, "mark refresh token used")
	}
	if result.RowsAffected == 0 {
		return repository.ErrNotFound
	}

	return nil
}

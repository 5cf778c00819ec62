package postgres

import (
	"context"
	"time"

	"leadintake/internal/domain/lifecycle"
	"leadintake/internal/domain/repository"
	"leadintake/internal/errors"

	"gorm.io/gorm"
)

// gormTransactionManager implements the domain's TransactionManager interface using GORM.
type gormTransactionManager struct {
	db      *gorm.DB
	timeout time.Duration
}

// gormRepositoryFactory hands out repositories bound to one *gorm.DB transaction.
type gormRepositoryFactory struct {
	tx *gorm.DB
}

func (f *gormRepositoryFactory) NewAttorneyRepository() repository.AttorneyRepository {
	return NewAttorneyRepository(f.tx)
}

func (f *gormRepositoryFactory) NewRefreshTokenRepository() repository.RefreshTokenRepository {
	return NewRefreshTokenRepository(f.tx)
}

func (f *gormRepositoryFactory) NewProspectRepository() repository.ProspectRepository {
	return NewProspectRepository(f.tx)
}

func (f *gormRepositoryFactory) NewLeadRepository() repository.LeadRepository {
	return NewLeadRepository(f.tx)
}

func NewTransactionManager(db *gorm.DB) repository.TransactionManager {
	return &gormTransactionManager{db: db, timeout: lifecycle.DefaultTimeout}
}

// Execute runs fn within a single database transaction.
//
// The transaction runs on a context that ignores caller cancellation and is bounded by
// the manager's timeout instead: once begun it either commits or rolls back as a whole.
func (tm *gormTransactionManager) Execute(ctx context.Context, fn func(repoFactory repository.RepositoryFactory) error) error {
	txCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), tm.timeout)
	defer cancel()

	tx := tm.db.WithContext(txCtx).Begin()
	if tx.Error != nil {
		return errors.Wrap(tx.Error, "failed to begin transaction")
	}

	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	if err := fn(&gormRepositoryFactory{tx: tx}); err != nil {
		if rbErr := tx.Rollback().Error; rbErr != nil {
			return errors.Wrapf(err, "transaction rollback failed: %v", rbErr)
		}

		return err
	}

	if err := tx.Commit().Error; err != nil {
		return errors.Wrap(err, "failed to commit transaction")
	}

	return nil
}

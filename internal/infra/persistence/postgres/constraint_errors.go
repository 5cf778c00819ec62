package postgres

import (
	"leadintake/internal/domain/repository"
	"leadintake/internal/errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

func pgErrorCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}

	return ""
}

// isUniqueConstraintViolation covers both gorm's translated error (TranslateError)
// and the raw driver error.
func isUniqueConstraintViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	return pgErrorCode(err) == pgerrcode.UniqueViolation
}

func isForeignKeyConstraintViolation(err error) bool {
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return true
	}

	return pgErrorCode(err) == pgerrcode.ForeignKeyViolation
}

// isLockNotAvailable reports a FOR UPDATE NOWAIT that met a held lock.
func isLockNotAvailable(err error) bool {
	return pgErrorCode(err) == pgerrcode.LockNotAvailable
}

// translate maps driver errors onto the repository sentinels.
func translate(err error, op string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return repository.ErrNotFound
	case isUniqueConstraintViolation(err):
		return errors.Wrap(repository.ErrDuplicate, op)
	case isForeignKeyConstraintViolation(err):
		// The referenced row is gone.
		return errors.Wrap(repository.ErrNotFound, op)
	case isLockNotAvailable(err):
		return errors.Wrap(repository.ErrLocked, op)
	default:
		return errors.Wrap(err, op)
	}
}

package repository

import (
	"context"

	"leadintake/internal/domain/entity"

	"github.com/google/uuid"
)

type AttorneyRepository interface {
	// Create inserts the attorney. A taken email yields ErrDuplicate.
	Create(ctx context.Context, attorney *entity.Attorney) error

	// FindByEmail reads from the primary. Unknown emails yield ErrNotFound.
	FindByEmail(ctx context.Context, email string) (*entity.Attorney, error)

	FindByID(ctx context.Context, id uuid.UUID) (*entity.Attorney, error)

	ListIDs(ctx context.Context) ([]uuid.UUID, error)

	// PickRandom returns a uniformly chosen attorney, or ErrNotFound when there are none.
	PickRandom(ctx context.Context) (*entity.Attorney, error)
}

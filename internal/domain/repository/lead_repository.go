package repository

import (
	"context"

	"leadintake/internal/domain/entity"

	"github.com/google/uuid"
)

type ProspectRepository interface {
	// Create inserts the prospect. A taken email yields ErrDuplicate.
	Create(ctx context.Context, prospect *entity.Prospect) error
	FindByEmail(ctx context.Context, email string) (*entity.Prospect, error)
	UpdateResume(ctx context.Context, id uuid.UUID, resume string) error
	ListIDs(ctx context.Context) ([]uuid.UUID, error)
}

type LeadRepository interface {
	Create(ctx context.Context, lead *entity.Lead) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Lead, error)
	UpdateState(ctx context.Context, id uuid.UUID, state entity.LeadState) error
	ListIDsByState(ctx context.Context, state entity.LeadState) ([]uuid.UUID, error)
}

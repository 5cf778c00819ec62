// Package postgres contains the concrete implementation of the persistence layer using GORM and PostgreSQL.
package postgres

import (
	"context"

	"leadintake/internal/domain/entity"
	"leadintake/internal/domain/repository"
	"leadintake/internal/infra/persistence/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/plugin/dbresolver"
)

type attorneyRepository struct {
	db *gorm.DB
}

func NewAttorneyRepository(db *gorm.DB) repository.AttorneyRepository {
	return &attorneyRepository{db: db}
}

func (repo *attorneyRepository) Create(ctx context.Context, attorney *entity.Attorney) error {
	m := model.FromAttorney(attorney)
	if err := repo.db.WithContext(ctx).Create(m).Error; err != nil {
		return translate(err, "create attorney")
	}

	*attorney = *m.ToEntity()

	return nil
}

// FindByEmail always reads from the primary: a login right after registration must see the row.
func (repo *attorneyRepository) FindByEmail(ctx context.Context, email string) (*entity.Attorney, error) {
	var m model.AttorneyModel
	err := repo.db.WithContext(ctx).
		Clauses(dbresolver.Write).
		Where("email = ?", email).
		Take(&m).Error
	if err != nil {
		return nil, translate(err, "find attorney by email")
	}

	return m.ToEntity(), nil
}

func (repo *attorneyRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Attorney, error) {
	var m model.AttorneyModel
	err := repo.db.WithContext(ctx).
		Clauses(dbresolver.Write).
		Where("attorney_id = ?", id).
		Take(&m).Error
	if err != nil {
		return nil, translate(err, "find attorney by id")
	}

	return m.ToEntity(), nil
}

func (repo *attorneyRepository) ListIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := repo.db.WithContext(ctx).
		Model(&model.AttorneyModel{}).
		Order("create_time").
		Pluck("attorney_id", &ids).Error
	if err != nil {
		return nil, translate(err, "list attorney ids")
	}

	return ids, nil
}

func (repo *attorneyRepository) PickRandom(ctx context.Context) (*entity.Attorney, error) {
	var m model.AttorneyModel
	err := repo.db.WithContext(ctx).
		Order("random()").
		Limit(1).
		Take(&m).Error
	if err != nil {
		return nil, translate(err, "pick random attorney")
	}

	return m.ToEntity(), nil
}

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

type prospectRepository struct {
	db *gorm.DB
}

func NewProspectRepository(db *gorm.DB) repository.ProspectRepository {
	return &prospectRepository{db: db}
}

func (repo *prospectRepository) Create(ctx context.Context, prospect *entity.Prospect) error {
	m := model.FromProspect(prospect)
	if err := repo.db.WithContext(ctx).Create(m).Error; err != nil {
		return translate(err, "create prospect")
	}

	*prospect = *m.ToEntity()

	return nil
}

func (repo *prospectRepository) FindByEmail(ctx context.Context, email string) (*entity.Prospect, error) {
	var m model.ProspectModel
	err := repo.db.WithContext(ctx).
		Clauses(dbresolver.Write).
		Where("email = ?", email).
		Take(&m).Error
	if err != nil {
		return nil, translate(err, "find prospect by email")
	}

	return m.ToEntity(), nil
}

func (repo *prospectRepository) UpdateResume(ctx context.Context, id uuid.UUID, resume string) error {
	result := repo.db.WithContext(ctx).
		Model(&model.ProspectModel{}).
		Where("prospect_id = ?", id).
		Update("resume", resume)
	if result.Error != nil {
		return translate(result.Error, "update prospect resume")
	}
	if result.RowsAffected == 0 {
		return repository.ErrNotFound
	}

	return nil
}

func (repo *prospectRepository) ListIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := repo.db.WithContext(ctx).
		Model(&model.ProspectModel{}).
		Order("create_time").
		Pluck("prospect_id", &ids).Error
	if err != nil {
		return nil, translate(err, "list prospect ids")
	}

	return ids, nil
}

type leadRepository struct {
	db *gorm.DB
}

func NewLeadRepository(db *gorm.DB) repository.LeadRepository {
	return &leadRepository{db: db}
}

func (repo *leadRepository) Create(ctx context.Context, lead *entity.Lead) error {
	m := model.FromLead(lead)
	if err := repo.db.WithContext(ctx).Create(m).Error; err != nil {
		return translate(err, "create lead")
	}

	*lead = *m.ToEntity()

	return nil
}

func (repo *leadRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Lead, error) {
	var m model.LeadModel
	err := repo.db.WithContext(ctx).
		Clauses(dbresolver.Write).
		Where("lead_id = ?", id).
		Take(&m).Error
	if err != nil {
		return nil, translate(err, "find lead")
	}

	return m.ToEntity(), nil
}

func (repo *leadRepository) UpdateState(ctx context.Context, id uuid.UUID, state entity.LeadState) error {
	result := repo.db.WithContext(ctx).
		Model(&model.LeadModel{}).
		Where("lead_id = ?", id).
		Update("state", string(state))
	if result.Error != nil {
		return translate(result.Error, "update lead state")
	}
	if result.RowsAffected == 0 {
		return repository.ErrNotFound
	}

	return nil
}

func (repo *leadRepository) ListIDsByState(ctx context.Context, state entity.LeadState) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := repo.db.WithContext(ctx).
		Model(&model.LeadModel{}).
		Where("state = ?", string(state)).
		Order("create_time").
		Pluck("lead_id", &ids).Error
	if err != nil {
		return nil, translate(err, "list lead ids")
	}

	return ids, nil
}

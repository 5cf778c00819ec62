package model

import "leadintake/internal/domain/entity"

func FromAttorney(a *entity.Attorney) *AttorneyModel {
	return &AttorneyModel{
		ID:             a.ID,
		Name:           a.Name,
		Email:          a.Email,
		HashedPassword: a.HashedPassword,
		CreatedAt:      a.CreatedAt,
		UpdatedAt:      a.UpdatedAt,
	}
}

func (m *AttorneyModel) ToEntity() *entity.Attorney {
	return &entity.Attorney{
		ID:             m.ID,
		Name:           m.Name,
		Email:          m.Email,
		HashedPassword: m.HashedPassword,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}

func FromRefreshToken(t *entity.RefreshToken) *RefreshTokenModel {
	return &RefreshTokenModel{
		ID:         t.ID,
		TokenHash:  t.TokenHash,
		Used:       t.Used,
		ExpiresAt:  t.ExpiresAt,
		AttorneyID: t.AttorneyID,
		CreatedAt:  t.CreatedAt,
		UpdatedAt:  t.UpdatedAt,
	}
}

func (m *RefreshTokenModel) ToEntity() *entity.RefreshToken {
	return &entity.RefreshToken{
		ID:         m.ID,
		AttorneyID: m.AttorneyID,
		TokenHash:  m.TokenHash,
		Used:       m.Used,
		ExpiresAt:  m.ExpiresAt,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
}

func FromProspect(p *entity.Prospect) *ProspectModel {
	return &ProspectModel{
		ID:        p.ID,
		Email:     p.Email,
		Name:      p.Name,
		Resume:    p.Resume,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

func (m *ProspectModel) ToEntity() *entity.Prospect {
	return &entity.Prospect{
		ID:        m.ID,
		Name:      m.Name,
		Email:     m.Email,
		Resume:    m.Resume,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func FromLead(l *entity.Lead) *LeadModel {
	return &LeadModel{
		ID:         l.ID,
		AttorneyID: l.AttorneyID,
		ProspectID: l.ProspectID,
		State:      string(l.State),
		CreatedAt:  l.CreatedAt,
		UpdatedAt:  l.UpdatedAt,
	}
}

func (m *LeadModel) ToEntity() *entity.Lead {
	return &entity.Lead{
		ID:         m.ID,
		AttorneyID: m.AttorneyID,
		ProspectID: m.ProspectID,
		State:      entity.LeadState(m.State),
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
}

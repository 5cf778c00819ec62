package usecase

import (
	"context"
	"io"

	"leadintake/internal/domain/entity"

	"github.com/google/uuid"
)

// FileLeadInput is a prospect's resume submission.
type FileLeadInput struct {
	FirstName   string
	LastName    string
	Email       string
	FileName    string
	ContentType string
	Content     io.Reader
}

// ProspectOutput describes the lead created for a filing.
type ProspectOutput struct {
	ProspectID uuid.UUID
	AttorneyID uuid.UUID
	LeadID     uuid.UUID
	Email      string
}

// LeadInfo is the public view of a lead.
type LeadInfo struct {
	LeadID     uuid.UUID
	ProspectID uuid.UUID
	AttorneyID uuid.UUID
	State      entity.LeadState
}

// LeadUsecase defines the lead intake operations.
type LeadUsecase interface {
	FileLead(ctx context.Context, input *FileLeadInput) (*ProspectOutput, error)
	// UpdateLead marks the lead as reached out on behalf of an authenticated attorney.
	UpdateLead(ctx context.Context, attorneyID, leadID uuid.UUID) (*LeadInfo, error)
	ListPendingLeads(ctx context.Context) ([]uuid.UUID, error)
	ListReachedLeads(ctx context.Context) ([]uuid.UUID, error)
	ListAttorneys(ctx context.Context) ([]uuid.UUID, error)
	ListProspects(ctx context.Context) ([]uuid.UUID, error)
}

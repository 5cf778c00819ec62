package entity

import (
	"time"

	"github.com/google/uuid"
)

type LeadState string

const (
	LeadStatePending    LeadState = "PENDING"
	LeadStateReachedOut LeadState = "REACHED_OUT"
)

func (s LeadState) Valid() bool {
	return s == LeadStatePending || s == LeadStateReachedOut
}

// Prospect is a person who filed a resume. Prospects never log in.
type Prospect struct {
	ID        uuid.UUID
	Name      string
	Email     string
	Resume    string // Object key of the stored resume.
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Lead pairs a Prospect with the Attorney assigned to reach out.
type Lead struct {
	ID         uuid.UUID
	AttorneyID uuid.UUID
	ProspectID uuid.UUID
	State      LeadState
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

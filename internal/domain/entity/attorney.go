package entity

import (
	"time"

	"github.com/google/uuid"
)

// Attorney is the authenticated principal of the system and the assignee of leads.
type Attorney struct {
	ID             uuid.UUID
	Name           string
	Email          string // Unique login identifier.
	HashedPassword string // PHC (argon2id) or bcrypt hash.
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

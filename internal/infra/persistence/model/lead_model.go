package model

import (
	"time"

	"github.com/google/uuid"
)

// ProspectModel mirrors the 'prospects' table.
type ProspectModel struct {
	ID        uuid.UUID `gorm:"column:prospect_id;type:uuid;primaryKey;default:gen_random_uuid()"`
	Email     string    `gorm:"type:varchar(256);uniqueIndex;not null"`
	Name      string    `gorm:"type:varchar(256);not null"`
	Resume    string    `gorm:"type:varchar(512);not null"`
	CreatedAt time.Time `gorm:"column:create_time;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:update_time;autoUpdateTime"`
}

// TableName explicitly sets the table name for GORM.
func (ProspectModel) TableName() string {
	return "prospects"
}

// LeadModel mirrors the 'leads' table. State is PENDING or REACHED_OUT.
type LeadModel struct {
	ID         uuid.UUID `gorm:"column:lead_id;type:uuid;primaryKey;default:gen_random_uuid()"`
	AttorneyID uuid.UUID `gorm:"type:uuid;not null;index"`
	ProspectID uuid.UUID `gorm:"type:uuid;not null;index"`
	State      string    `gorm:"type:varchar(64);not null;index"`
	CreatedAt  time.Time `gorm:"column:create_time;autoCreateTime"`
	UpdatedAt  time.Time `gorm:"column:update_time;autoUpdateTime"`
}

// TableName explicitly sets the table name for GORM.
func (LeadModel) TableName() string {
	return "leads"
}

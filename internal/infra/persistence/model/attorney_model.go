package model

import (
	"time"

	"github.com/google/uuid"
)

// AttorneyModel mirrors the 'attorneys' table.
type AttorneyModel struct {
	ID             uuid.UUID `gorm:"column:attorney_id;type:uuid;primaryKey;default:gen_random_uuid()"`
	Name           string    `gorm:"type:varchar(128);not null"`
	Email          string    `gorm:"type:varchar(256);uniqueIndex;not null"`
	HashedPassword string    `gorm:"type:varchar(128);not null"`
	CreatedAt      time.Time `gorm:"column:create_time;autoCreateTime"`
	UpdatedAt      time.Time `gorm:"column:update_time;autoUpdateTime"`
}

// TableName explicitly sets the table name for GORM.
func (AttorneyModel) TableName() string {
	return "attorneys"
}

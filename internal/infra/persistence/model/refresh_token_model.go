package model

import (
	"time"

	"github.com/google/uuid"
)

// RefreshTokenModel mirrors the 'refresh_tokens' table. Only the SHA-256 of the token
// material is stored. Rows are never deleted.
type RefreshTokenModel struct {
	ID         int64     `gorm:"primaryKey;autoIncrement"`
	TokenHash  string    `gorm:"column:refresh_token;type:varchar(512);uniqueIndex;not null"`
	Used       bool      `gorm:"not null;default:false"`
	ExpiresAt  int64     `gorm:"column:exp;not null"`
	AttorneyID uuid.UUID `gorm:"type:uuid;not null;index"`
	CreatedAt  time.Time `gorm:"column:create_time;autoCreateTime"`
	UpdatedAt  time.Time `gorm:"column:update_time;autoUpdateTime"`
}

// TableName explicitly sets the table name for GORM.
func (RefreshTokenModel) TableName() string {
	return "refresh_tokens"
}

// Package model holds the GORM table mappings for the persistence layer.
package model

import (
	"time"

	"github.com/google/uuid"
)

// AuthRecordModel mirrors the auth-link records table. UUID columns are stored
// as char(36) so the same mapping works across MySQL and the SQLite test
// driver.
type AuthRecordModel struct {
	ID          uuid.UUID `gorm:"type:char(36);primaryKey"`
	SubjectUUID uuid.UUID `gorm:"type:char(36);not null;index:idx_auth_records_subject_action,priority:1"`
	Action      string    `gorm:"type:varchar(32);not null;index:idx_auth_records_subject_action,priority:2"`
	Token       string    `gorm:"type:varchar(64);not null"`
	Status      string    `gorm:"type:varchar(16);not null;default:unused"`
	IsUsed      bool      `gorm:"not null;default:false"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
	ExpiresAt   time.Time `gorm:"not null;index"`
}

// TableName explicitly sets the default table name for GORM. Deployments can
// override it per connection through the mysql.tableName config key.
func (AuthRecordModel) TableName() string {
	return "auth_link_records"
}

package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AuditLog is an append-only business event. Metadata holds a key/value
// snapshot (old/new values, receipt id, amounts) serialized as JSON.
type AuditLog struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey"`
	ActionType  AuditAction    `gorm:"type:varchar(20);not null;index"`
	Description string         `gorm:"type:text;not null"`
	Metadata    map[string]any `gorm:"serializer:json;type:jsonb"`
	UserID      *uuid.UUID     `gorm:"type:uuid;index"`
	BranchID    *uuid.UUID     `gorm:"type:uuid;index"`
	CreatedAt   time.Time      `gorm:"index"`
}

func (a *AuditLog) BeforeCreate(_ *gorm.DB) error {
	assignID(&a.ID)
	return nil
}

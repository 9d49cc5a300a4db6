package repository

import (
	"github.com/marimovDEV/v0-crm-pos-system/internal/model"

	"gorm.io/gorm"
)

// AuditLogRepository is append-only; audit rows are written in the
// transaction of the change they describe.
type AuditLogRepository interface {
	CreateTx(tx *gorm.DB, a *model.AuditLog) error
}

type auditLogRepo struct{ db *gorm.DB }

func NewAuditLogRepository(db *gorm.DB) AuditLogRepository { return &auditLogRepo{db: db} }

func (r *auditLogRepo) CreateTx(tx *gorm.DB, a *model.AuditLog) error {
	return tx.Create(a).Error
}

package service

import (
	"context"
	"fmt"

	"github.com/marimovDEV/v0-crm-pos-system/internal/model"
	"github.com/marimovDEV/v0-crm-pos-system/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AuditEntry is one business event to append to the audit log.
type AuditEntry struct {
	Action      model.AuditAction
	Description string
	Metadata    map[string]any
	UserID      *uuid.UUID
	BranchID    *uuid.UUID
}

// AuditRecorder appends business events inside the transaction that caused
// them, so an entry exists exactly when its change committed. Entries are
// never updated.
type AuditRecorder interface {
	Record(ctx context.Context, tx *gorm.DB, e AuditEntry) (*model.AuditLog, error)
}

type auditRecorder struct {
	repo repository.AuditLogRepository
}

func NewAuditRecorder(repo repository.AuditLogRepository) AuditRecorder {
	return &auditRecorder{repo: repo}
}

func (r *auditRecorder) build(e AuditEntry) (*model.AuditLog, error) {
	if !e.Action.Valid() {
		return nil, fmt.Errorf("unknown audit action %q", e.Action)
	}
	return &model.AuditLog{
		ActionType:  e.Action,
		Description: e.Description,
		Metadata:    e.Metadata,
		UserID:      e.UserID,
		BranchID:    e.BranchID,
	}, nil
}

func (r *auditRecorder) Record(_ context.Context, tx *gorm.DB, e AuditEntry) (*model.AuditLog, error) {
	entry, err := r.build(e)
	if err != nil {
		return nil, err
	}
	if err := r.repo.CreateTx(tx, entry); err != nil {
		return nil, fmt.Errorf("audit %s: %w", e.Action, err)
	}
	return entry, nil
}

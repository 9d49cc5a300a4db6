package repository

import (
	"context"

	"github.com/marimovDEV/v0-crm-pos-system/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type DebtTransactionRepository interface {
	CreateTx(tx *gorm.DB, t *model.DebtTransaction) error
	ListByCustomer(ctx context.Context, customerID uuid.UUID, page, limit int) ([]model.DebtTransaction, int64, error)
	FindBySaleReceipt(ctx context.Context, receiptID string) ([]model.DebtTransaction, error)
}

type debtTransactionRepo struct{ db *gorm.DB }

func NewDebtTransactionRepository(db *gorm.DB) DebtTransactionRepository {
	return &debtTransactionRepo{db: db}
}

func (r *debtTransactionRepo) CreateTx(tx *gorm.DB, t *model.DebtTransaction) error {
	return tx.Create(t).Error
}

func (r *debtTransactionRepo) ListByCustomer(ctx context.Context, customerID uuid.UUID, page, limit int) ([]model.DebtTransaction, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.DebtTransaction{}).Where("customer_id = ?", customerID)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page, limit = normalizePage(page, limit)
	var txs []model.DebtTransaction
	err := q.Order("created_at DESC").Offset((page - 1) * limit).Limit(limit).Find(&txs).Error
	return txs, total, err
}

func (r *debtTransactionRepo) FindBySaleReceipt(ctx context.Context, receiptID string) ([]model.DebtTransaction, error) {
	var txs []model.DebtTransaction
	err := r.db.WithContext(ctx).Where("sale_receipt_id = ?", receiptID).Find(&txs).Error
	return txs, err
}

package repository

import (
	"context"

	"github.com/marimovDEV/v0-crm-pos-system/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SaleRepository interface {
	// CreateTx inserts the sale header only; items are written one by one
	// with CreateItemTx so each line can be followed by its stock movement.
	CreateTx(tx *gorm.DB, s *model.Sale) error
	CreateItemTx(tx *gorm.DB, item *model.SaleItem) error
	ReceiptExistsTx(tx *gorm.DB, receiptID string) (bool, error)

	FindByID(ctx context.Context, id uuid.UUID) (*model.Sale, error)
	FindByReceipt(ctx context.Context, receiptID string) (*model.Sale, error)

	DB() *gorm.DB
}

type saleRepo struct{ db *gorm.DB }

func NewSaleRepository(db *gorm.DB) SaleRepository { return &saleRepo{db: db} }

func (r *saleRepo) CreateTx(tx *gorm.DB, s *model.Sale) error {
	return tx.Omit(clause.Associations).Create(s).Error
}

func (r *saleRepo) CreateItemTx(tx *gorm.DB, item *model.SaleItem) error {
	return tx.Omit(clause.Associations).Create(item).Error
}

func (r *saleRepo) ReceiptExistsTx(tx *gorm.DB, receiptID string) (bool, error) {
	var count int64
	err := tx.Model(&model.Sale{}).Where("receipt_id = ?", receiptID).Count(&count).Error
	return count > 0, err
}

func (r *saleRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Sale, error) {
	var s model.Sale
	err := r.db.WithContext(ctx).
		Preload("Items", orderItems).
		First(&s, "id = ?", id).Error
	return &s, err
}

func (r *saleRepo) FindByReceipt(ctx context.Context, receiptID string) (*model.Sale, error) {
	var s model.Sale
	err := r.db.WithContext(ctx).
		Preload("Items", orderItems).
		Where("receipt_id = ?", receiptID).
		First(&s).Error
	return &s, err
}

func orderItems(db *gorm.DB) *gorm.DB { return db.Order("line_no ASC") }

func (r *saleRepo) DB() *gorm.DB { return r.db }

package repository

import (
	"context"
	"time"

	"github.com/marimovDEV/v0-crm-pos-system/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CustomerRepository interface {
	Create(ctx context.Context, c *model.Customer) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Customer, error)

	LockByIDTx(tx *gorm.DB, id uuid.UUID) (*model.Customer, error)
	// UpdateDebtTx writes the debt balance and status computed from a locked read.
	UpdateDebtTx(tx *gorm.DB, id uuid.UUID, debt decimal.Decimal, status model.CustomerStatus) error
	// UpdatePurchaseStatsTx writes lifetime purchase totals computed from a locked read.
	UpdatePurchaseStatsTx(tx *gorm.DB, id uuid.UUID, totalPurchases decimal.Decimal, at time.Time) error

	DB() *gorm.DB
}

type customerRepo struct{ db *gorm.DB }

func NewCustomerRepository(db *gorm.DB) CustomerRepository { return &customerRepo{db: db} }

func (r *customerRepo) Create(ctx context.Context, c *model.Customer) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *customerRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Customer, error) {
	var c model.Customer
	err := r.db.WithContext(ctx).First(&c, "id = ?", id).Error
	return &c, err
}

func (r *customerRepo) LockByIDTx(tx *gorm.DB, id uuid.UUID) (*model.Customer, error) {
	var c model.Customer
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&c, "id = ?", id).Error
	return &c, err
}

func (r *customerRepo) UpdateDebtTx(tx *gorm.DB, id uuid.UUID, debt decimal.Decimal, status model.CustomerStatus) error {
	return tx.Model(&model.Customer{}).Where("id = ?", id).Updates(map[string]interface{}{
		"debt":   debt,
		"status": status,
	}).Error
}

func (r *customerRepo) UpdatePurchaseStatsTx(tx *gorm.DB, id uuid.UUID, totalPurchases decimal.Decimal, at time.Time) error {
	return tx.Model(&model.Customer{}).Where("id = ?", id).Updates(map[string]interface{}{
		"total_purchases":    totalPurchases,
		"last_purchase_date": at,
	}).Error
}

func (r *customerRepo) DB() *gorm.DB { return r.db }

package repository

import (
	"context"

	"github.com/marimovDEV/v0-crm-pos-system/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProductRepository defines the data access contract for products.
// Services depend on this interface, not on the concrete GORM implementation.
type ProductRepository interface {
	Create(ctx context.Context, p *model.Product) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Product, error)
	ListLowStock(ctx context.Context, branchID uuid.UUID) ([]model.Product, error)

	// Used inside transactions; callers must pass the tx instance.

	// LockByIDsTx takes FOR UPDATE locks on every listed product in ascending
	// id order, so two carts sharing products always lock in the same order.
	LockByIDsTx(tx *gorm.DB, ids []uuid.UUID) ([]model.Product, error)
	LockByIDTx(tx *gorm.DB, id uuid.UUID) (*model.Product, error)
	SetStockTx(tx *gorm.DB, id uuid.UUID, stock decimal.Decimal) error

	// DB exposes the underlying *gorm.DB so services can open transactions.
	DB() *gorm.DB
}

type productRepo struct{ db *gorm.DB }

func NewProductRepository(db *gorm.DB) ProductRepository { return &productRepo{db: db} }

func (r *productRepo) Create(ctx context.Context, p *model.Product) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *productRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	var p model.Product
	err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error
	return &p, err
}

func (r *productRepo) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Product, error) {
	var products []model.Product
	if len(ids) == 0 {
		return products, nil
	}
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&products).Error
	return products, err
}

// ListLowStock returns products at or below MinStock; uuid.Nil means every branch.
func (r *productRepo) ListLowStock(ctx context.Context, branchID uuid.UUID) ([]model.Product, error) {
	q := r.db.WithContext(ctx).Where("stock <= min_stock")
	if branchID != uuid.Nil {
		q = q.Where("branch_id = ?", branchID)
	}
	var products []model.Product
	err := q.Order("name ASC").Find(&products).Error
	return products, err
}

func (r *productRepo) LockByIDsTx(tx *gorm.DB, ids []uuid.UUID) ([]model.Product, error) {
	var products []model.Product
	if len(ids) == 0 {
		return products, nil
	}
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id IN ?", ids).
		Order("id ASC").
		Find(&products).Error
	return products, err
}

func (r *productRepo) LockByIDTx(tx *gorm.DB, id uuid.UUID) (*model.Product, error) {
	var p model.Product
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&p, "id = ?", id).Error
	return &p, err
}

func (r *productRepo) SetStockTx(tx *gorm.DB, id uuid.UUID, stock decimal.Decimal) error {
	return tx.Model(&model.Product{}).Where("id = ?", id).Update("stock", stock).Error
}

func (r *productRepo) DB() *gorm.DB { return r.db }

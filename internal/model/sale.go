package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Sale is an immutable record of one completed cart.
// ReceiptID is generated once by the sale service and never changes.
// CustomerID is nullable with ON DELETE SET NULL: removing a customer keeps
// their past sales; CustomerName preserves who it was.
type Sale struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey"`
	ReceiptID      string          `gorm:"size:50;uniqueIndex;not null"`
	CustomerID     *uuid.UUID      `gorm:"type:uuid;index"`
	CustomerName   *string         `gorm:"size:255"`
	PaymentMethod  PaymentMethod   `gorm:"type:varchar(20);not null"`
	Subtotal       decimal.Decimal `gorm:"type:numeric(15,2);not null"`
	DiscountAmount decimal.Decimal `gorm:"type:numeric(15,2);not null;default:0"`
	TotalAmount    decimal.Decimal `gorm:"type:numeric(15,2);not null"`
	IsDebtSale     bool            `gorm:"not null;default:false"`
	BranchID       uuid.UUID       `gorm:"type:uuid;not null;index"`
	CashierID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	CreatedAt      time.Time       `gorm:"index"`
	UpdatedAt      time.Time

	Customer *Customer  `gorm:"foreignKey:CustomerID;constraint:OnDelete:SET NULL"`
	Items    []SaleItem `gorm:"foreignKey:SaleID;constraint:OnDelete:CASCADE"`
}

func (s *Sale) BeforeCreate(_ *gorm.DB) error {
	assignID(&s.ID)
	s.IsDebtSale = s.PaymentMethod.IsDebt()
	return nil
}

// SaleItem is one cart line. The ratio, prices and product name are frozen
// copies taken at sale time, so later product edits or deletion never change
// historical accounting.
type SaleItem struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey"`
	SaleID      uuid.UUID  `gorm:"type:uuid;not null;index"`
	LineNo      int        `gorm:"not null;default:0"`
	ProductID   *uuid.UUID `gorm:"type:uuid;index"`
	ProductName string     `gorm:"size:255;not null"`

	Quantity         decimal.Decimal `gorm:"type:numeric(15,2);not null"`
	UnitType         UnitType        `gorm:"type:varchar(10);not null;default:'sell'"`
	UnitRatioAtSale  decimal.Decimal `gorm:"type:numeric(10,3);not null;default:1"`
	BaseUnitQuantity decimal.Decimal `gorm:"type:numeric(15,2);not null;default:0"`

	Price           decimal.Decimal `gorm:"type:numeric(15,2);not null"`
	CostPriceAtSale decimal.Decimal `gorm:"type:numeric(15,2);not null;default:0"`
	Total           decimal.Decimal `gorm:"type:numeric(15,2);not null"`

	Product *Product `gorm:"foreignKey:ProductID;constraint:OnDelete:SET NULL"`
}

func (i *SaleItem) BeforeCreate(_ *gorm.DB) error {
	assignID(&i.ID)
	return nil
}

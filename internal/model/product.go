package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product is a stock-keeping item of one branch.
// Stock is always held in BaseUnit; prices are per SellUnit.
// UnitRatio = how many base units one sell unit contains (1 qop = 50 kg).
// Products are soft-deleted only: historical sale items keep pointing at them.
type Product struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name      string    `gorm:"size:255;index;not null"`
	Category  string    `gorm:"size:100;not null;default:''"`
	ShortCode *string   `gorm:"size:20;uniqueIndex"`

	BaseUnit  BaseUnit        `gorm:"type:varchar(20);not null;default:'dona'"`
	SellUnit  SellUnit        `gorm:"type:varchar(20);not null;default:'dona'"`
	UnitRatio decimal.Decimal `gorm:"type:numeric(10,3);not null;default:1"`

	CostPrice decimal.Decimal `gorm:"type:numeric(15,2);not null"`
	SalePrice decimal.Decimal `gorm:"type:numeric(15,2);not null"`

	// Stock may go negative: recorded stock lags physical reality and the
	// register never blocks a sale on it.
	Stock    decimal.Decimal `gorm:"type:numeric(15,2);not null;default:0"`
	MinStock decimal.Decimal `gorm:"type:numeric(15,2);not null;default:0"`

	BranchID  uuid.UUID `gorm:"type:uuid;not null;index"`
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index"`

	Branch *Branch `gorm:"foreignKey:BranchID"`
}

func (p *Product) BeforeCreate(_ *gorm.DB) error {
	assignID(&p.ID)
	return nil
}

// IsLowStock reports whether stock is at or below the reorder threshold.
func (p *Product) IsLowStock() bool {
	return p.Stock.LessThanOrEqual(p.MinStock)
}

// StockDisplay renders stock as whole sell units plus a base-unit remainder,
// e.g. "12 qop + 20 kg".
func (p *Product) StockDisplay() string {
	if !p.UnitRatio.IsPositive() {
		return fmt.Sprintf("%s %s", p.Stock.String(), p.BaseUnit)
	}
	full := p.Stock.Div(p.UnitRatio).Truncate(0)
	remainder := p.Stock.Sub(full.Mul(p.UnitRatio))
	if remainder.IsPositive() {
		return fmt.Sprintf("%s %s + %s %s", full.String(), p.SellUnit, remainder.String(), p.BaseUnit)
	}
	return fmt.Sprintf("%s %s", full.String(), p.SellUnit)
}

package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// StockMovement records every change of a product's stock.
// Quantity is signed and in base units: positive = in, negative = out.
// Rows are append-only; corrections are new adjustment rows.
type StockMovement struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey"`
	ProductID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	BranchID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	OperatorID  *uuid.UUID      `gorm:"type:uuid"`
	Type        MovementType    `gorm:"type:varchar(20);not null;index"`
	Quantity    decimal.Decimal `gorm:"type:numeric(15,2);not null"`
	StockBefore decimal.Decimal `gorm:"type:numeric(15,2);not null"`
	StockAfter  decimal.Decimal `gorm:"type:numeric(15,2);not null"`
	DocNumber   *string         `gorm:"size:50;index"`
	Supplier    *string         `gorm:"size:100"`
	Batch       *string         `gorm:"size:50"`
	Reason      *string         `gorm:"size:255"`
	CreatedAt   time.Time       `gorm:"index"`

	Product *Product `gorm:"foreignKey:ProductID"`
}

func (m *StockMovement) BeforeCreate(_ *gorm.DB) error {
	assignID(&m.ID)
	return nil
}

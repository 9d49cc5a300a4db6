package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DebtTransaction is an append-only entry of a customer's debt ledger.
// Amount is the change actually applied to the debt: the magnitude for
// debt_added/payment and a signed delta for adjustment. A payment larger than
// the debt is stored as the debt it cleared, so Amount always equals
// |DebtAfter - DebtBefore|. SaleReceiptID is a plain string link, not a foreign key, so
// sales and ledger rows can be archived independently.
type DebtTransaction struct {
	ID              uuid.UUID           `gorm:"type:uuid;primaryKey"`
	CustomerID      uuid.UUID           `gorm:"type:uuid;not null;index"`
	TransactionType DebtTransactionType `gorm:"type:varchar(20);not null;index"`
	Amount          decimal.Decimal     `gorm:"type:numeric(15,2);not null"`
	DebtBefore      decimal.Decimal     `gorm:"type:numeric(15,2);not null"`
	DebtAfter       decimal.Decimal     `gorm:"type:numeric(15,2);not null"`
	Note            *string             `gorm:"type:text"`
	SaleReceiptID   *string             `gorm:"size:50;index"`
	OperatorID      *uuid.UUID          `gorm:"type:uuid"`
	CreatedAt       time.Time           `gorm:"index"`
}

func (t *DebtTransaction) BeforeCreate(_ *gorm.DB) error {
	assignID(&t.ID)
	return nil
}

package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Customer carries a running debt balance against a credit limit.
// DebtLimit = 0 means no credit is ever allowed.
// Status moves to blocked_by_debt only through the debt ledger limit check
// and back to active only from blocked_by_debt; a manual "blocked" sticks.
type Customer struct {
	ID           uuid.UUID    `gorm:"type:uuid;primaryKey"`
	Name         string       `gorm:"size:255;not null"`
	Phone        string       `gorm:"size:50;uniqueIndex;not null"`
	Address      *string      `gorm:"type:text"`
	CustomerType CustomerType `gorm:"type:varchar(20);not null;default:'regular'"`

	Debt             decimal.Decimal `gorm:"type:numeric(15,2);not null;default:0"`
	DebtLimit        decimal.Decimal `gorm:"type:numeric(15,2);not null;default:0"`
	AutoBlockOnLimit bool            `gorm:"not null"`
	Status           CustomerStatus  `gorm:"type:varchar(20);not null;default:'active'"`

	TotalPurchases   decimal.Decimal `gorm:"type:numeric(15,2);not null;default:0"`
	LastPurchaseDate *time.Time

	BranchID  uuid.UUID `gorm:"type:uuid;not null;index"`
	Notes     *string   `gorm:"type:text"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (c *Customer) BeforeCreate(_ *gorm.DB) error {
	assignID(&c.ID)
	if c.Status == "" {
		c.Status = CustomerActive
	}
	if c.CustomerType == "" {
		c.CustomerType = CustomerRegular
	}
	return nil
}

func (c *Customer) IsBlocked() bool {
	return c.Status == CustomerBlocked || c.Status == CustomerBlockedByDebt
}

// DebtPercentage is debt as a share of the limit. With no limit any debt
// counts as 100%.
func (c *Customer) DebtPercentage() decimal.Decimal {
	if c.DebtLimit.IsZero() {
		if c.Debt.IsPositive() {
			return decimal.NewFromInt(100)
		}
		return decimal.Zero
	}
	return c.Debt.Div(c.DebtLimit).Mul(decimal.NewFromInt(100)).Round(2)
}

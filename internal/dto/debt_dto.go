package dto

import (
	"time"

	"github.com/marimovDEV/v0-crm-pos-system/internal/model"

	"github.com/shopspring/decimal"
)

type DebtPaymentRequest struct {
	Amount decimal.Decimal `json:"amount" validate:"gt=0"`
	Note   *string         `json:"note"   validate:"omitempty,max=500"`
}

// DebtAdjustmentRequest carries a signed delta; a reason is mandatory.
type DebtAdjustmentRequest struct {
	Amount decimal.Decimal `json:"amount" validate:"required"`
	Note   string          `json:"note"   validate:"required,min=3,max=500"`
}

type CreditCheckQuery struct {
	Amount string `form:"amount" validate:"required"`
}

type CreditCheckResponse struct {
	CustomerID     string          `json:"customer_id"`
	Status         string          `json:"status"`
	Debt           decimal.Decimal `json:"debt"`
	DebtLimit      decimal.Decimal `json:"debt_limit"`
	DebtPercentage decimal.Decimal `json:"debt_percentage"`
	Amount         decimal.Decimal `json:"amount"`
	Allowed        bool            `json:"allowed"`
}

type DebtTransactionResponse struct {
	ID              string          `json:"id"`
	CustomerID      string          `json:"customer_id"`
	TransactionType string          `json:"transaction_type"`
	Amount          decimal.Decimal `json:"amount"`
	DebtBefore      decimal.Decimal `json:"debt_before"`
	DebtAfter       decimal.Decimal `json:"debt_after"`
	Note            *string         `json:"note"`
	SaleReceiptID   *string         `json:"sale_receipt_id"`
	CreatedAt       string          `json:"created_at"`
}

type DebtTransactionListResponse struct {
	Data  []DebtTransactionResponse `json:"data"`
	Total int64                     `json:"total"`
	Page  int                       `json:"page"`
	Limit int                       `json:"limit"`
}

// PageQuery is bound from ?page=&limit= on list endpoints.
type PageQuery struct {
	Page  int `form:"page,default=1"   validate:"min=1"`
	Limit int `form:"limit,default=50" validate:"min=1,max=200"`
}

func NewDebtTransactionResponse(t *model.DebtTransaction) DebtTransactionResponse {
	return DebtTransactionResponse{
		ID:              t.ID.String(),
		CustomerID:      t.CustomerID.String(),
		TransactionType: string(t.TransactionType),
		Amount:          t.Amount,
		DebtBefore:      t.DebtBefore,
		DebtAfter:       t.DebtAfter,
		Note:            t.Note,
		SaleReceiptID:   t.SaleReceiptID,
		CreatedAt:       t.CreatedAt.Format(time.RFC3339),
	}
}

package dto

import (
	"time"

	"github.com/marimovDEV/v0-crm-pos-system/internal/model"

	"github.com/shopspring/decimal"
)

// ─── Request DTOs ────────────────────────────────────────────────────────────

// CartLineRequest is one line of POST /v1/sales. Quantity is in the unit named
// by UnitType; Price overrides the catalog price when the cashier typed one.
type CartLineRequest struct {
	ProductID string           `json:"product_id" validate:"required,uuid"`
	Quantity  decimal.Decimal  `json:"quantity"   validate:"gt=0"`
	UnitType  string           `json:"unit_type"  validate:"required,oneof=base sell"`
	Price     *decimal.Decimal `json:"price"`
}

type CartRequest struct {
	CustomerID     *string           `json:"customer_id"     validate:"omitempty,uuid"`
	PaymentMethod  string            `json:"payment_method"  validate:"required,oneof=cash card transfer debt mixed truck_sale"`
	DiscountAmount decimal.Decimal   `json:"discount_amount" validate:"min=0"`
	// BranchID defaults to the branch in the caller's token.
	BranchID *string           `json:"branch_id" validate:"omitempty,uuid"`
	Items    []CartLineRequest `json:"items"     validate:"required,min=1,dive"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type SaleItemResponse struct {
	LineNo           int             `json:"line_no"`
	ProductID        *string         `json:"product_id"`
	ProductName      string          `json:"product_name"`
	Quantity         decimal.Decimal `json:"quantity"`
	UnitType         string          `json:"unit_type"`
	UnitRatio        decimal.Decimal `json:"unit_ratio"`
	BaseUnitQuantity decimal.Decimal `json:"base_unit_quantity"`
	Price            decimal.Decimal `json:"price"`
	Total            decimal.Decimal `json:"total"`
}

type SaleResponse struct {
	ID             string             `json:"id"`
	ReceiptID      string             `json:"receipt_id"`
	CustomerID     *string            `json:"customer_id"`
	CustomerName   *string            `json:"customer_name"`
	PaymentMethod  string             `json:"payment_method"`
	Subtotal       decimal.Decimal    `json:"subtotal"`
	DiscountAmount decimal.Decimal    `json:"discount_amount"`
	TotalAmount    decimal.Decimal    `json:"total_amount"`
	IsDebtSale     bool               `json:"is_debt_sale"`
	BranchID       string             `json:"branch_id"`
	CashierID      string             `json:"cashier_id"`
	Items          []SaleItemResponse `json:"items"`
	CreatedAt      string             `json:"created_at"`
}

func NewSaleResponse(s *model.Sale) SaleResponse {
	resp := SaleResponse{
		ID:             s.ID.String(),
		ReceiptID:      s.ReceiptID,
		CustomerName:   s.CustomerName,
		PaymentMethod:  string(s.PaymentMethod),
		Subtotal:       s.Subtotal,
		DiscountAmount: s.DiscountAmount,
		TotalAmount:    s.TotalAmount,
		IsDebtSale:     s.IsDebtSale,
		BranchID:       s.BranchID.String(),
		CashierID:      s.CashierID.String(),
		Items:          make([]SaleItemResponse, 0, len(s.Items)),
		CreatedAt:      s.CreatedAt.Format(time.RFC3339),
	}
	if s.CustomerID != nil {
		id := s.CustomerID.String()
		resp.CustomerID = &id
	}
	for _, it := range s.Items {
		item := SaleItemResponse{
			LineNo:           it.LineNo,
			ProductName:      it.ProductName,
			Quantity:         it.Quantity,
			UnitType:         string(it.UnitType),
			UnitRatio:        it.UnitRatioAtSale,
			BaseUnitQuantity: it.BaseUnitQuantity,
			Price:            it.Price,
			Total:            it.Total,
		}
		if it.ProductID != nil {
			id := it.ProductID.String()
			item.ProductID = &id
		}
		resp.Items = append(resp.Items, item)
	}
	return resp
}

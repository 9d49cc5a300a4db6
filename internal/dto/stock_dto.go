package dto

import (
	"time"

	"github.com/marimovDEV/v0-crm-pos-system/internal/model"

	"github.com/shopspring/decimal"
)

// Quantities below are always in base units.

type StockInboundRequest struct {
	ProductID string          `json:"product_id" validate:"required,uuid"`
	Quantity  decimal.Decimal `json:"quantity"   validate:"gt=0"`
	DocNumber *string         `json:"doc_number" validate:"omitempty,max=50"`
	Supplier  *string         `json:"supplier"   validate:"omitempty,max=100"`
	Batch     *string         `json:"batch"      validate:"omitempty,max=50"`
	Reason    *string         `json:"reason"     validate:"omitempty,max=255"`
}

type StockAdjustmentRequest struct {
	ProductID string          `json:"product_id" validate:"required,uuid"`
	Delta     decimal.Decimal `json:"delta"      validate:"required"`
	Reason    string          `json:"reason"     validate:"required,min=3,max=255"`
	DocNumber *string         `json:"doc_number" validate:"omitempty,max=50"`
}

type StockTransferRequest struct {
	FromProductID string          `json:"from_product_id" validate:"required,uuid"`
	ToProductID   string          `json:"to_product_id"   validate:"required,uuid,nefield=FromProductID"`
	Quantity      decimal.Decimal `json:"quantity"        validate:"gt=0"`
	DocNumber     *string         `json:"doc_number"      validate:"omitempty,max=50"`
	Reason        *string         `json:"reason"          validate:"omitempty,max=255"`
}

// StockMovementFilter is bound from query string of GET /v1/stock/movements.
type StockMovementFilter struct {
	ProductID string `form:"product_id"       validate:"omitempty,uuid"`
	Type      string `form:"type"             validate:"omitempty,oneof=in out transfer adjustment"`
	DocNumber string `form:"doc_number"`
	Page      int    `form:"page,default=1"   validate:"min=1"`
	Limit     int    `form:"limit,default=50" validate:"min=1,max=200"`
}

type StockMovementResponse struct {
	ID          string          `json:"id"`
	ProductID   string          `json:"product_id"`
	BranchID    string          `json:"branch_id"`
	Type        string          `json:"type"`
	Quantity    decimal.Decimal `json:"quantity"`
	StockBefore decimal.Decimal `json:"stock_before"`
	StockAfter  decimal.Decimal `json:"stock_after"`
	DocNumber   *string         `json:"doc_number"`
	Supplier    *string         `json:"supplier"`
	Batch       *string         `json:"batch"`
	Reason      *string         `json:"reason"`
	CreatedAt   string          `json:"created_at"`
}

type StockMovementListResponse struct {
	Data  []StockMovementResponse `json:"data"`
	Total int64                   `json:"total"`
	Page  int                     `json:"page"`
	Limit int                     `json:"limit"`
}

func NewStockMovementResponse(m *model.StockMovement) StockMovementResponse {
	return StockMovementResponse{
		ID:          m.ID.String(),
		ProductID:   m.ProductID.String(),
		BranchID:    m.BranchID.String(),
		Type:        string(m.Type),
		Quantity:    m.Quantity,
		StockBefore: m.StockBefore,
		StockAfter:  m.StockAfter,
		DocNumber:   m.DocNumber,
		Supplier:    m.Supplier,
		Batch:       m.Batch,
		Reason:      m.Reason,
		CreatedAt:   m.CreatedAt.Format(time.RFC3339),
	}
}

package handler

import (
	"net/http"

	"github.com/marimovDEV/v0-crm-pos-system/internal/dto"
	"github.com/marimovDEV/v0-crm-pos-system/internal/model"
	"github.com/marimovDEV/v0-crm-pos-system/internal/repository"
	"github.com/marimovDEV/v0-crm-pos-system/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type StockHandler struct{ ledger service.StockLedger }

func NewStockHandler(ledger service.StockLedger) *StockHandler { return &StockHandler{ledger: ledger} }

// Receive godoc
// @Summary      Receive goods into stock
// @Tags         stock
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.StockInboundRequest true "Inbound"
// @Success      201  {object} dto.StockMovementResponse
// @Router       /v1/stock/inbound [post]
func (h *StockHandler) Receive(c *gin.Context) {
	var req dto.StockInboundRequest
	if !bindAndValidate(c, &req) {
		return
	}
	who, ok := actorFrom(c)
	if !ok {
		return
	}

	mv, err := h.ledger.RecordInbound(c.Request.Context(), service.InboundEntry{
		ProductID:  uuid.MustParse(req.ProductID),
		Quantity:   req.Quantity,
		BranchID:   who.branchID,
		OperatorID: &who.userID,
		DocNumber:  req.DocNumber,
		Supplier:   req.Supplier,
		Batch:      req.Batch,
		Reason:     req.Reason,
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.NewStockMovementResponse(mv))
}

// Adjust records a signed correction after a stock count.
func (h *StockHandler) Adjust(c *gin.Context) {
	var req dto.StockAdjustmentRequest
	if !bindAndValidate(c, &req) {
		return
	}
	who, ok := actorFrom(c)
	if !ok {
		return
	}

	reason := req.Reason
	mv, err := h.ledger.RecordAdjustment(c.Request.Context(), service.AdjustmentEntry{
		ProductID:  uuid.MustParse(req.ProductID),
		Delta:      req.Delta,
		BranchID:   who.branchID,
		OperatorID: &who.userID,
		DocNumber:  req.DocNumber,
		Reason:     &reason,
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.NewStockMovementResponse(mv))
}

// Transfer moves base-unit quantity between two products sharing a base unit.
func (h *StockHandler) Transfer(c *gin.Context) {
	var req dto.StockTransferRequest
	if !bindAndValidate(c, &req) {
		return
	}
	who, ok := actorFrom(c)
	if !ok {
		return
	}

	mvs, err := h.ledger.RecordTransfer(c.Request.Context(), service.TransferEntry{
		FromProductID: uuid.MustParse(req.FromProductID),
		ToProductID:   uuid.MustParse(req.ToProductID),
		Quantity:      req.Quantity,
		OperatorID:    &who.userID,
		DocNumber:     req.DocNumber,
		Reason:        req.Reason,
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	resp := make([]dto.StockMovementResponse, 0, len(mvs))
	for i := range mvs {
		resp = append(resp, dto.NewStockMovementResponse(&mvs[i]))
	}
	c.JSON(http.StatusCreated, resp)
}

// ListMovements godoc
// @Summary      List stock movements
// @Tags         stock
// @Produce      json
// @Security     BearerAuth
// @Param        product_id query string false "Product id"
// @Param        type       query string false "in | out | transfer | adjustment"
// @Param        doc_number query string false "Document number"
// @Success      200  {object} dto.StockMovementListResponse
// @Router       /v1/stock/movements [get]
func (h *StockHandler) ListMovements(c *gin.Context) {
	var q dto.StockMovementFilter
	if !bindQuery(c, &q) {
		return
	}

	filter := repository.StockMovementFilter{
		Type:      model.MovementType(q.Type),
		DocNumber: q.DocNumber,
		Page:      q.Page,
		Limit:     q.Limit,
	}
	if q.ProductID != "" {
		id := uuid.MustParse(q.ProductID)
		filter.ProductID = &id
	}

	rows, total, err := h.ledger.Movements(c.Request.Context(), filter)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	resp := dto.StockMovementListResponse{
		Data:  make([]dto.StockMovementResponse, 0, len(rows)),
		Total: total,
		Page:  q.Page,
		Limit: q.Limit,
	}
	for i := range rows {
		resp.Data = append(resp.Data, dto.NewStockMovementResponse(&rows[i]))
	}
	c.JSON(http.StatusOK, resp)
}

package handler

import (
	"net/http"

	"github.com/marimovDEV/v0-crm-pos-system/internal/apierror"
	"github.com/marimovDEV/v0-crm-pos-system/internal/dto"
	"github.com/marimovDEV/v0-crm-pos-system/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// CustomersHandler exposes the debt ledger of a customer.
type CustomersHandler struct{ debt service.DebtLedger }

func NewCustomersHandler(debt service.DebtLedger) *CustomersHandler {
	return &CustomersHandler{debt: debt}
}

// RecordPayment godoc
// @Summary      Record a debt payment
// @Tags         customers
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string                 true "Customer id"
// @Param        body body dto.DebtPaymentRequest true "Payment"
// @Success      201  {object} dto.DebtTransactionResponse
// @Router       /v1/customers/{id}/payments [post]
func (h *CustomersHandler) RecordPayment(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req dto.DebtPaymentRequest
	if !bindAndValidate(c, &req) {
		return
	}
	who, ok := actorFrom(c)
	if !ok {
		return
	}

	entry := service.DebtEntry{
		CustomerID: id,
		Amount:     req.Amount,
		OperatorID: &who.userID,
		BranchID:   &who.branchID,
	}
	if req.Note != nil {
		entry.Note = *req.Note
	}
	t, err := h.debt.PostPayment(c.Request.Context(), entry)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.NewDebtTransactionResponse(t))
}

// RecordAdjustment applies a signed manual correction to a customer's debt.
func (h *CustomersHandler) RecordAdjustment(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req dto.DebtAdjustmentRequest
	if !bindAndValidate(c, &req) {
		return
	}
	who, ok := actorFrom(c)
	if !ok {
		return
	}

	t, err := h.debt.PostAdjustment(c.Request.Context(), service.DebtEntry{
		CustomerID: id,
		Amount:     req.Amount,
		Note:       req.Note,
		OperatorID: &who.userID,
		BranchID:   &who.branchID,
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.NewDebtTransactionResponse(t))
}

// CheckCredit godoc
// @Summary      Check whether a debt sale of the given amount fits the customer's limit
// @Tags         customers
// @Produce      json
// @Security     BearerAuth
// @Param        id     path  string true "Customer id"
// @Param        amount query string true "Sale total"
// @Success      200  {object} dto.CreditCheckResponse
// @Router       /v1/customers/{id}/credit [get]
func (h *CustomersHandler) CheckCredit(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var q dto.CreditCheckQuery
	if !bindQuery(c, &q) {
		return
	}
	amount, err := decimal.NewFromString(q.Amount)
	if err != nil || amount.IsNegative() {
		c.JSON(http.StatusBadRequest, apierror.New("amount must be a non-negative number"))
		return
	}

	check, err := h.debt.CheckCredit(c.Request.Context(), id, amount)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.CreditCheckResponse{
		CustomerID:     check.Customer.ID.String(),
		Status:         string(check.Customer.Status),
		Debt:           check.Customer.Debt,
		DebtLimit:      check.Customer.DebtLimit,
		DebtPercentage: check.Customer.DebtPercentage(),
		Amount:         check.Amount,
		Allowed:        check.Allowed,
	})
}

// ListTransactions returns the customer's debt ledger, newest first.
func (h *CustomersHandler) ListTransactions(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var q dto.PageQuery
	if !bindQuery(c, &q) {
		return
	}

	rows, total, err := h.debt.History(c.Request.Context(), id, q.Page, q.Limit)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	resp := dto.DebtTransactionListResponse{
		Data:  make([]dto.DebtTransactionResponse, 0, len(rows)),
		Total: total,
		Page:  q.Page,
		Limit: q.Limit,
	}
	for i := range rows {
		resp.Data = append(resp.Data, dto.NewDebtTransactionResponse(&rows[i]))
	}
	c.JSON(http.StatusOK, resp)
}

package handler

import (
	"net/http"

	"github.com/marimovDEV/v0-crm-pos-system/internal/apierror"
	"github.com/marimovDEV/v0-crm-pos-system/internal/dto"
	"github.com/marimovDEV/v0-crm-pos-system/internal/model"
	"github.com/marimovDEV/v0-crm-pos-system/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type SalesHandler struct{ svc service.SaleService }

func NewSalesHandler(svc service.SaleService) *SalesHandler { return &SalesHandler{svc: svc} }

// ProcessSale godoc
// @Summary      Process a sale
// @Description  Atomically records the sale, decrements stock, posts customer debt and writes the audit entry.
// @Tags         sales
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.CartRequest true "Cart"
// @Success      201  {object} dto.SaleResponse
// @Failure      404  {object} apierror.APIError
// @Failure      409  {object} apierror.APIError
// @Failure      422  {object} apierror.APIError
// @Router       /v1/sales [post]
func (h *SalesHandler) ProcessSale(c *gin.Context) {
	var req dto.CartRequest
	if !bindAndValidate(c, &req) {
		return
	}
	who, ok := actorFrom(c)
	if !ok {
		return
	}

	cart, err := toCart(req, who)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}

	sale, err := h.svc.Process(c.Request.Context(), cart)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.NewSaleResponse(sale))
}

// GetSale godoc
// @Summary      Get a sale by receipt id
// @Tags         sales
// @Produce      json
// @Security     BearerAuth
// @Param        receipt_id path string true "Receipt id, e.g. SALE-20240115143000-123"
// @Success      200  {object} dto.SaleResponse
// @Failure      404  {object} apierror.APIError
// @Router       /v1/sales/{receipt_id} [get]
func (h *SalesHandler) GetSale(c *gin.Context) {
	sale, err := h.svc.FindByReceipt(c.Request.Context(), c.Param("receipt_id"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewSaleResponse(sale))
}

// toCart converts the validated request. UUID fields were checked by the
// validator, so parse failures here only come from hand-built requests.
func toCart(req dto.CartRequest, who actor) (service.Cart, error) {
	cart := service.Cart{
		PaymentMethod:  model.PaymentMethod(req.PaymentMethod),
		BranchID:       who.branchID,
		CashierID:      who.userID,
		DiscountAmount: req.DiscountAmount,
		Lines:          make([]service.CartLine, 0, len(req.Items)),
	}
	if req.CustomerID != nil {
		id, err := uuid.Parse(*req.CustomerID)
		if err != nil {
			return service.Cart{}, err
		}
		cart.CustomerID = &id
	}
	if req.BranchID != nil {
		id, err := uuid.Parse(*req.BranchID)
		if err != nil {
			return service.Cart{}, err
		}
		cart.BranchID = id
	}
	for _, it := range req.Items {
		pid, err := uuid.Parse(it.ProductID)
		if err != nil {
			return service.Cart{}, err
		}
		cart.Lines = append(cart.Lines, service.CartLine{
			ProductID: pid,
			Quantity:  it.Quantity,
			UnitType:  model.UnitType(it.UnitType),
			Price:     it.Price,
		})
	}
	return cart, nil
}

package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/marimovDEV/v0-crm-pos-system/internal/model"
	"github.com/marimovDEV/v0-crm-pos-system/internal/repository"
	"github.com/marimovDEV/v0-crm-pos-system/internal/units"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CartLine is one requested line. Price is optional; when nil the product's
// current price for the line's unit type is used.
type CartLine struct {
	ProductID uuid.UUID
	Quantity  decimal.Decimal
	UnitType  model.UnitType
	Price     *decimal.Decimal
}

// Cart is the input of one sale. BranchID and CashierID are trusted as
// already authenticated.
type Cart struct {
	CustomerID     *uuid.UUID
	PaymentMethod  model.PaymentMethod
	BranchID       uuid.UUID
	CashierID      uuid.UUID
	DiscountAmount decimal.Decimal
	Lines          []CartLine
}

// Dispatcher receives best-effort jobs after a sale has committed.
type Dispatcher interface {
	EnqueueSaleReceipt(ctx context.Context, saleID uuid.UUID) error
	EnqueueStockAlert(ctx context.Context, productID uuid.UUID) error
}

type SaleService interface {
	Process(ctx context.Context, cart Cart) (*model.Sale, error)
	FindByReceipt(ctx context.Context, receiptID string) (*model.Sale, error)
}

type saleService struct {
	sales      repository.SaleRepository
	products   repository.ProductRepository
	customers  repository.CustomerRepository
	stock      StockLedger
	debt       DebtLedger
	audit      AuditRecorder
	receipts   *ReceiptGenerator
	policy     CreditPolicy
	dispatcher Dispatcher
	now        func() time.Time
}

// SaleOption customizes a sale service.
type SaleOption func(*saleService)

func WithCreditPolicy(p CreditPolicy) SaleOption {
	return func(s *saleService) { s.policy = p }
}

func WithDispatcher(d Dispatcher) SaleOption {
	return func(s *saleService) { s.dispatcher = d }
}

func WithClock(now func() time.Time) SaleOption {
	return func(s *saleService) {
		s.now = now
		s.receipts.WithClock(now)
	}
}

func WithReceiptGenerator(g *ReceiptGenerator) SaleOption {
	return func(s *saleService) { s.receipts = g }
}

func NewSaleService(
	sales repository.SaleRepository,
	products repository.ProductRepository,
	customers repository.CustomerRepository,
	stock StockLedger,
	debt DebtLedger,
	audit AuditRecorder,
	opts ...SaleOption,
) SaleService {
	s := &saleService{
		sales:     sales,
		products:  products,
		customers: customers,
		stock:     stock,
		debt:      debt,
		audit:     audit,
		receipts:  NewReceiptGenerator(sales.ReceiptExistsTx),
		policy:    CreditAllow,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// pricedLine is a validated cart line with its frozen snapshots.
type pricedLine struct {
	product   *model.Product
	line      CartLine
	ratio     decimal.Decimal
	baseQty   decimal.Decimal
	price     decimal.Decimal
	lineTotal decimal.Decimal
}

type pricedCart struct {
	lines    []pricedLine
	subtotal decimal.Decimal
	discount decimal.Decimal
	total    decimal.Decimal
}

// ── Process ───────────────────────────────────────────────────────────────────
// One sale, all or nothing:
//   1. Validate the cart against a plain read (no trace on failure)
//   2. BEGIN TX: lock products by id, then the customer
//   3. Re-price from the locked rows, apply the credit policy
//   4. Receipt id claimed by inserting the header, per line: item + outbound movement
//   5. Audit entry, debt posting, customer purchase stats
//   6. COMMIT
//   7. (async) receipt PDF and low-stock alerts

func (s *saleService) Process(ctx context.Context, cart Cart) (*model.Sale, error) {
	createdAt := s.now()

	if err := validateCartShape(cart); err != nil {
		return nil, err
	}
	productIDs := distinctProductIDs(cart.Lines)

	found, err := s.products.FindByIDs(ctx, productIDs)
	if err != nil {
		return nil, &SaleProcessingError{Cause: fmt.Errorf("load products: %w", err)}
	}
	if _, err := priceCart(cart, indexProducts(found)); err != nil {
		return nil, err
	}

	var customerName *string
	if cart.CustomerID != nil {
		c, err := s.customers.FindByID(ctx, *cart.CustomerID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("%w: %s", ErrCustomerNotFound, *cart.CustomerID)
			}
			return nil, &SaleProcessingError{Cause: fmt.Errorf("load customer: %w", err)}
		}
		customerName = &c.Name
	}

	var (
		sale     *model.Sale
		lowStock []uuid.UUID
	)
	txErr := runTx(ctx, s.sales.DB(), func(tx *gorm.DB) error {
		locked, err := s.products.LockByIDsTx(tx, productIDs)
		if err != nil {
			return fmt.Errorf("%w: lock products: %v", ErrStockLedgerWriteFailed, err)
		}
		priced, err := priceCart(cart, indexProducts(locked))
		if err != nil {
			return err
		}

		var customer *model.Customer
		if cart.CustomerID != nil {
			if customer, err = s.customers.LockByIDTx(tx, *cart.CustomerID); err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fmt.Errorf("%w: %s", ErrCustomerNotFound, *cart.CustomerID)
				}
				return fmt.Errorf("%w: lock customer: %v", ErrDebtLedgerWriteFailed, err)
			}
			if cart.PaymentMethod.IsDebt() {
				if err := s.policy.check(customer, priced.total, s.debt.CanExtendCredit); err != nil {
					return err
				}
			}
		}

		sale = &model.Sale{
			CustomerID:     cart.CustomerID,
			CustomerName:   customerName,
			PaymentMethod:  cart.PaymentMethod,
			Subtotal:       priced.subtotal,
			DiscountAmount: priced.discount,
			TotalAmount:    priced.total,
			BranchID:       cart.BranchID,
			CashierID:      cart.CashierID,
			CreatedAt:      createdAt,
		}
		_, err = s.receipts.Assign(tx, func(receiptID string) error {
			sale.ReceiptID = receiptID
			return s.sales.CreateTx(tx, sale)
		})
		if err != nil {
			if errors.Is(err, ErrReceiptGenerationFailed) {
				return err
			}
			return &SaleProcessingError{Cause: fmt.Errorf("create sale: %w", err)}
		}

		lowStock, err = s.writeLines(ctx, tx, sale, priced)
		if err != nil {
			return &SaleProcessingError{Cause: err}
		}

		if err := s.auditSale(ctx, tx, sale); err != nil {
			return &SaleProcessingError{Cause: err}
		}

		if customer != nil {
			if sale.PaymentMethod.IsDebt() && sale.TotalAmount.IsPositive() {
				_, err := s.debt.PostDebt(ctx, tx, DebtEntry{
					CustomerID:    customer.ID,
					Amount:        sale.TotalAmount,
					Note:          "sale " + sale.ReceiptID,
					SaleReceiptID: &sale.ReceiptID,
					OperatorID:    &sale.CashierID,
					BranchID:      &sale.BranchID,
				})
				if err != nil {
					return &SaleProcessingError{Cause: err}
				}
			}
			total := customer.TotalPurchases.Add(sale.TotalAmount)
			if err := s.customers.UpdatePurchaseStatsTx(tx, customer.ID, total, createdAt); err != nil {
				return &SaleProcessingError{Cause: fmt.Errorf("update purchase stats: %w", err)}
			}
		}
		return nil
	})
	if txErr != nil {
		return nil, classifySaleError(txErr)
	}

	s.dispatchAfterCommit(ctx, sale, lowStock)
	return sale, nil
}

// writeLines persists items in cart order, each followed by its outbound
// movement. It returns the products that ended at or below min stock.
func (s *saleService) writeLines(ctx context.Context, tx *gorm.DB, sale *model.Sale, priced pricedCart) ([]uuid.UUID, error) {
	finalStock := make(map[uuid.UUID]decimal.Decimal, len(priced.lines))
	minStock := make(map[uuid.UUID]decimal.Decimal, len(priced.lines))
	var order []uuid.UUID

	sale.Items = make([]model.SaleItem, 0, len(priced.lines))
	for i, pl := range priced.lines {
		productID := pl.product.ID
		item := model.SaleItem{
			SaleID:           sale.ID,
			LineNo:           i + 1,
			ProductID:        &productID,
			ProductName:      pl.product.Name,
			Quantity:         pl.line.Quantity,
			UnitType:         pl.line.UnitType,
			UnitRatioAtSale:  pl.ratio,
			BaseUnitQuantity: pl.baseQty,
			Price:            pl.price,
			CostPriceAtSale:  pl.product.CostPrice,
			Total:            pl.lineTotal,
		}
		if err := s.sales.CreateItemTx(tx, &item); err != nil {
			return nil, fmt.Errorf("create item %d: %w", i+1, err)
		}

		reason := "sale"
		mv, err := s.stock.RecordOutbound(ctx, tx, OutboundEntry{
			ProductID:  productID,
			Quantity:   pl.baseQty,
			BranchID:   sale.BranchID,
			OperatorID: &sale.CashierID,
			DocNumber:  &sale.ReceiptID,
			Reason:     &reason,
		})
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", i+1, err)
		}

		if _, seen := finalStock[productID]; !seen {
			order = append(order, productID)
		}
		finalStock[productID] = mv.StockAfter
		minStock[productID] = pl.product.MinStock
		sale.Items = append(sale.Items, item)
	}

	var low []uuid.UUID
	for _, id := range order {
		if finalStock[id].LessThanOrEqual(minStock[id]) {
			low = append(low, id)
		}
	}
	return low, nil
}

func (s *saleService) auditSale(ctx context.Context, tx *gorm.DB, sale *model.Sale) error {
	meta := map[string]any{
		"receipt_id":     sale.ReceiptID,
		"sale_id":        sale.ID.String(),
		"payment_method": string(sale.PaymentMethod),
		"subtotal":       sale.Subtotal.String(),
		"discount":       sale.DiscountAmount.String(),
		"total":          sale.TotalAmount.String(),
		"items":          len(sale.Items),
	}
	if sale.CustomerID != nil {
		meta["customer_id"] = sale.CustomerID.String()
	}
	_, err := s.audit.Record(ctx, tx, AuditEntry{
		Action:      model.AuditSale,
		Description: fmt.Sprintf("sale %s: %s (%s)", sale.ReceiptID, sale.TotalAmount.StringFixed(2), sale.PaymentMethod),
		Metadata:    meta,
		UserID:      &sale.CashierID,
		BranchID:    &sale.BranchID,
	})
	return err
}

// dispatchAfterCommit enqueues side jobs. The sale is already durable, so a
// failure here is logged and otherwise ignored.
func (s *saleService) dispatchAfterCommit(ctx context.Context, sale *model.Sale, lowStock []uuid.UUID) {
	if s.dispatcher == nil {
		return
	}
	if err := s.dispatcher.EnqueueSaleReceipt(ctx, sale.ID); err != nil {
		log.Warn().Err(err).Str("receipt_id", sale.ReceiptID).Msg("sale: receipt job not enqueued")
	}
	for _, id := range lowStock {
		if err := s.dispatcher.EnqueueStockAlert(ctx, id); err != nil {
			log.Warn().Err(err).Str("product_id", id.String()).Msg("sale: stock alert not enqueued")
		}
	}
}

func (s *saleService) FindByReceipt(ctx context.Context, receiptID string) (*model.Sale, error) {
	sale, err := s.sales.FindByReceipt(ctx, receiptID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSaleNotFound
		}
		return nil, err
	}
	return sale, nil
}

// ── Validation and pricing ───────────────────────────────────────────────────

func validateCartShape(cart Cart) error {
	if len(cart.Lines) == 0 {
		return fmt.Errorf("%w: cart is empty", ErrInvalidCart)
	}
	if !cart.PaymentMethod.Valid() {
		return fmt.Errorf("%w: unknown payment method %q", ErrInvalidCart, cart.PaymentMethod)
	}
	if cart.DiscountAmount.IsNegative() {
		return fmt.Errorf("%w: discount must not be negative", ErrInvalidCart)
	}
	if !units.FitsScale(cart.DiscountAmount) {
		return fmt.Errorf("%w: discount %s has more than %d decimal places", ErrInvalidCart, cart.DiscountAmount, units.Scale)
	}
	for i, l := range cart.Lines {
		if l.ProductID == uuid.Nil {
			return fmt.Errorf("%w: line %d has no product", ErrInvalidCart, i+1)
		}
		if !l.Quantity.IsPositive() {
			return fmt.Errorf("%w: line %d quantity must be positive", ErrInvalidCart, i+1)
		}
		if !units.FitsScale(l.Quantity) {
			return fmt.Errorf("%w: line %d quantity %s has more than %d decimal places", ErrInvalidCart, i+1, l.Quantity, units.Scale)
		}
		if !l.UnitType.Valid() {
			return fmt.Errorf("%w: line %d unknown unit type %q", ErrInvalidCart, i+1, l.UnitType)
		}
		if l.Price != nil && l.Price.IsNegative() {
			return fmt.Errorf("%w: line %d price must not be negative", ErrInvalidCart, i+1)
		}
		if l.Price != nil && !units.FitsScale(*l.Price) {
			return fmt.Errorf("%w: line %d price %s has more than %d decimal places", ErrInvalidCart, i+1, *l.Price, units.Scale)
		}
	}
	return nil
}

// priceCart resolves every line against products and computes totals.
// Line totals are rounded to cents; the cart total is their sum minus the
// discount. The base quantity is rounded to the stock scale here, once, and
// that value is what the item row, the movement and the stock update use.
func priceCart(cart Cart, products map[uuid.UUID]*model.Product) (pricedCart, error) {
	out := pricedCart{lines: make([]pricedLine, 0, len(cart.Lines)), subtotal: decimal.Zero}
	for i, l := range cart.Lines {
		p, ok := products[l.ProductID]
		if !ok {
			return pricedCart{}, fmt.Errorf("%w: %s", ErrProductNotFound, l.ProductID)
		}
		baseQty, err := units.ToBaseUnits(l.Quantity, l.UnitType, p.UnitRatio)
		if err != nil {
			return pricedCart{}, fmt.Errorf("line %d (%s): %w", i+1, p.Name, err)
		}
		baseQty = baseQty.Round(units.Scale)
		if !baseQty.IsPositive() {
			return pricedCart{}, fmt.Errorf("%w: line %d (%s) is less than %s base units", ErrInvalidCart, i+1, p.Name, decimal.New(1, -units.Scale))
		}

		var price decimal.Decimal
		switch {
		case l.Price != nil:
			price = *l.Price
		case l.UnitType == model.UnitTypeSell:
			price = p.SalePrice
		default:
			if price, err = units.BaseUnitPrice(p.SalePrice, p.UnitRatio); err != nil {
				return pricedCart{}, fmt.Errorf("line %d (%s): %w", i+1, p.Name, err)
			}
		}

		lineTotal := price.Mul(l.Quantity).Round(units.Scale)
		out.subtotal = out.subtotal.Add(lineTotal)
		out.lines = append(out.lines, pricedLine{
			product:   p,
			line:      l,
			ratio:     p.UnitRatio,
			baseQty:   baseQty,
			price:     price,
			lineTotal: lineTotal,
		})
	}
	if cart.DiscountAmount.GreaterThan(out.subtotal) {
		return pricedCart{}, fmt.Errorf("%w: discount %s exceeds subtotal %s", ErrInvalidCart, cart.DiscountAmount, out.subtotal)
	}
	out.discount = cart.DiscountAmount
	out.total = out.subtotal.Sub(out.discount)
	return out, nil
}

func distinctProductIDs(lines []CartLine) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(lines))
	ids := make([]uuid.UUID, 0, len(lines))
	for _, l := range lines {
		if _, ok := seen[l.ProductID]; ok {
			continue
		}
		seen[l.ProductID] = struct{}{}
		ids = append(ids, l.ProductID)
	}
	return ids
}

func indexProducts(products []model.Product) map[uuid.UUID]*model.Product {
	idx := make(map[uuid.UUID]*model.Product, len(products))
	for i := range products {
		idx[products[i].ID] = &products[i]
	}
	return idx
}

// classifySaleError lets domain errors through unchanged and hides every
// other failure behind SaleProcessingError.
func classifySaleError(err error) error {
	var spe *SaleProcessingError
	if errors.As(err, &spe) {
		return err
	}
	for _, domain := range []error{
		ErrInvalidCart, ErrProductNotFound, ErrCustomerNotFound, ErrInvalidUnitRatio,
		ErrReceiptGenerationFailed, ErrCreditRefused,
	} {
		if errors.Is(err, domain) {
			return err
		}
	}
	return &SaleProcessingError{Cause: err}
}

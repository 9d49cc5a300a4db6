package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/marimovDEV/v0-crm-pos-system/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestProcess_BagOfCementScenario(t *testing.T) {
	f := newFixture(t)
	cement := f.cement(t, "100")
	svc := f.saleService()

	sale, err := svc.Process(context.Background(), f.cart(model.PaymentCash, sellLine(cement, "2")))
	require.NoError(t, err)

	require.Len(t, sale.Items, 1)
	item := sale.Items[0]
	assertDec(t, "100", item.BaseUnitQuantity)
	assertDec(t, "50", item.UnitRatioAtSale)
	assertDec(t, "65000", item.Price)
	assertDec(t, "52000", item.CostPriceAtSale)
	assertDec(t, "130000", item.Total)
	assert.Equal(t, "Cement M400", item.ProductName)
	assertDec(t, "130000", sale.TotalAmount)
	assert.False(t, sale.IsDebtSale)

	assertDec(t, "0", f.reloadProduct(t, cement.ID).Stock)

	var movements []model.StockMovement
	require.NoError(t, f.db.Find(&movements).Error)
	require.Len(t, movements, 1)
	assertDec(t, "-100", movements[0].Quantity)
	assert.Equal(t, model.MovementOut, movements[0].Type)
	require.NotNil(t, movements[0].DocNumber)
	assert.Equal(t, sale.ReceiptID, *movements[0].DocNumber)

	var logs []model.AuditLog
	require.NoError(t, f.db.Find(&logs).Error)
	require.Len(t, logs, 1)
	assert.Equal(t, model.AuditSale, logs[0].ActionType)
	assert.Equal(t, sale.ReceiptID, logs[0].Metadata["receipt_id"])
	assert.Equal(t, "130000", logs[0].Metadata["total"])

	// Stock ended at min stock (0): one receipt job and one alert.
	assert.Equal(t, []uuid.UUID{sale.ID}, f.dispatcher.receipts)
	assert.Equal(t, []uuid.UUID{cement.ID}, f.dispatcher.alerts)
}

func TestProcess_SnapshotSurvivesRatioChange(t *testing.T) {
	f := newFixture(t)
	cement := f.cement(t, "1000")
	svc := f.saleService()

	sale, err := svc.Process(context.Background(), f.cart(model.PaymentCash, sellLine(cement, "1")))
	require.NoError(t, err)

	require.NoError(t, f.db.Model(&model.Product{}).Where("id = ?", cement.ID).
		Updates(map[string]interface{}{"unit_ratio": dec("25"), "sale_price": dec("33000")}).Error)

	stored, err := svc.FindByReceipt(context.Background(), sale.ReceiptID)
	require.NoError(t, err)
	require.Len(t, stored.Items, 1)
	assertDec(t, "50", stored.Items[0].UnitRatioAtSale)
	assertDec(t, "50", stored.Items[0].BaseUnitQuantity)
	assertDec(t, "65000", stored.Items[0].Price)
	assert.True(t, sale.CreatedAt.Equal(stored.CreatedAt) || sale.CreatedAt.Sub(stored.CreatedAt).Abs() < time.Millisecond)
}

func TestProcess_BaseUnitLinePricing(t *testing.T) {
	f := newFixture(t)
	cement := f.cement(t, "100")
	svc := f.saleService()

	sale, err := svc.Process(context.Background(), f.cart(model.PaymentCash, baseLine(cement, "20")))
	require.NoError(t, err)

	item := sale.Items[0]
	assertDec(t, "20", item.BaseUnitQuantity)
	assertDec(t, "1300", item.Price)
	assertDec(t, "26000", item.Total)
	assertDec(t, "80", f.reloadProduct(t, cement.ID).Stock)
}

func TestProcess_DeclaredPriceAndDiscount(t *testing.T) {
	f := newFixture(t)
	cement := f.cement(t, "1000")
	rebar := f.product(t, productOpts{name: "Rebar A500 12mm", stock: "600", ratio: "11.7", salePrice: "98000", baseUnit: model.BaseUnitMeter, sellUnit: model.SellUnitPiece})
	svc := f.saleService()

	line := sellLine(cement, "3")
	line.Price = decPtr("62000")
	cart := f.cart(model.PaymentTransfer, line, sellLine(rebar, "2"))
	cart.DiscountAmount = dec("2000")

	sale, err := svc.Process(context.Background(), cart)
	require.NoError(t, err)

	assertDec(t, "382000", sale.Subtotal)
	assertDec(t, "2000", sale.DiscountAmount)
	assertDec(t, "380000", sale.TotalAmount)
	assertDec(t, "850", f.reloadProduct(t, cement.ID).Stock)
	assertDec(t, "576.6", f.reloadProduct(t, rebar.ID).Stock)
	assert.Equal(t, 1, sale.Items[0].LineNo)
	assert.Equal(t, 2, sale.Items[1].LineNo)
}

func TestProcess_SameProductTwiceInOneCart(t *testing.T) {
	f := newFixture(t)
	cement := f.cement(t, "500")
	svc := f.saleService()

	_, err := svc.Process(context.Background(), f.cart(model.PaymentCash, sellLine(cement, "2"), baseLine(cement, "25")))
	require.NoError(t, err)

	assertDec(t, "375", f.reloadProduct(t, cement.ID).Stock)

	var movements []model.StockMovement
	require.NoError(t, f.db.Order("created_at ASC").Find(&movements).Error)
	require.Len(t, movements, 2)
	total := movements[0].Quantity.Add(movements[1].Quantity)
	assertDec(t, "-125", total)
}

func TestProcess_InvalidCartsLeaveNoTrace(t *testing.T) {
	f := newFixture(t)
	cement := f.cement(t, "100")
	svc := f.saleService()

	zero := sellLine(cement, "0")
	negative := sellLine(cement, "-1")
	badUnit := sellLine(cement, "1")
	badUnit.UnitType = "pallet"
	negativePrice := sellLine(cement, "1")
	negativePrice.Price = decPtr("-5")
	tooMuchDiscount := f.cart(model.PaymentCash, sellLine(cement, "1"))
	tooMuchDiscount.DiscountAmount = dec("65000.01")

	cases := map[string]Cart{
		"empty cart":          f.cart(model.PaymentCash),
		"zero quantity":       f.cart(model.PaymentCash, sellLine(cement, "1"), zero),
		"negative quantity":   f.cart(model.PaymentCash, negative),
		"unknown payment":     f.cart(model.PaymentMethod("barter"), sellLine(cement, "1")),
		"unknown unit type":   f.cart(model.PaymentCash, badUnit),
		"negative price":      f.cart(model.PaymentCash, negativePrice),
		"discount > subtotal": tooMuchDiscount,
	}
	for name, cart := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Process(context.Background(), cart)
			assert.ErrorIs(t, err, ErrInvalidCart)
		})
	}

	f.assertNoSaleRows(t)
	assertDec(t, "100", f.reloadProduct(t, cement.ID).Stock)
	assert.Empty(t, f.dispatcher.receipts)
}

func TestProcess_LookupFailures(t *testing.T) {
	f := newFixture(t)
	cement := f.cement(t, "100")
	broken := f.product(t, productOpts{name: "Roofing felt", stock: "40", ratio: "0", salePrice: "90000", baseUnit: model.BaseUnitM2, sellUnit: model.SellUnitRoll})
	svc := f.saleService()

	_, err := svc.Process(context.Background(), f.cart(model.PaymentCash, sellLine(cement, "1"), CartLine{ProductID: uuid.New(), Quantity: dec("1"), UnitType: model.UnitTypeSell}))
	assert.ErrorIs(t, err, ErrProductNotFound)

	missing := uuid.New()
	cart := f.cart(model.PaymentDebt, sellLine(cement, "1"))
	cart.CustomerID = &missing
	_, err = svc.Process(context.Background(), cart)
	assert.ErrorIs(t, err, ErrCustomerNotFound)

	_, err = svc.Process(context.Background(), f.cart(model.PaymentCash, sellLine(broken, "1")))
	assert.ErrorIs(t, err, ErrInvalidUnitRatio)

	f.assertNoSaleRows(t)
}

func TestProcess_SoftDeletedProductIsNotSold(t *testing.T) {
	f := newFixture(t)
	cement := f.cement(t, "100")
	require.NoError(t, f.db.Delete(&model.Product{}, "id = ?", cement.ID).Error)

	_, err := f.saleService().Process(context.Background(), f.cart(model.PaymentCash, sellLine(cement, "1")))
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestProcess_DebtSaleBlocksThenPaymentUnblocks(t *testing.T) {
	f := newFixture(t)
	tiles := f.product(t, productOpts{name: "Ceramic tile 60x60", stock: "300", ratio: "1.44", salePrice: "75000", baseUnit: model.BaseUnitM2, sellUnit: model.SellUnitBox})
	c := f.customer(t, "0", "150000", true)
	svc := f.saleService()

	cart := f.cart(model.PaymentDebt, sellLine(tiles, "2"))
	cart.CustomerID = &c.ID
	sale, err := svc.Process(context.Background(), cart)
	require.NoError(t, err)
	assert.True(t, sale.IsDebtSale)
	require.NotNil(t, sale.CustomerName)
	assert.Equal(t, c.Name, *sale.CustomerName)

	got := f.reloadCustomer(t, c.ID)
	assertDec(t, "150000", got.Debt)
	assert.Equal(t, model.CustomerBlockedByDebt, got.Status)
	assertDec(t, "150000", got.TotalPurchases)
	require.NotNil(t, got.LastPurchaseDate)

	var txs []model.DebtTransaction
	require.NoError(t, f.db.Find(&txs).Error)
	require.Len(t, txs, 1)
	assert.Equal(t, model.DebtAdded, txs[0].TransactionType)
	require.NotNil(t, txs[0].SaleReceiptID)
	assert.Equal(t, sale.ReceiptID, *txs[0].SaleReceiptID)

	_, err = f.debt.PostPayment(context.Background(), DebtEntry{CustomerID: c.ID, Amount: dec("150000")})
	require.NoError(t, err)
	got = f.reloadCustomer(t, c.ID)
	assertDec(t, "0", got.Debt)
	assert.Equal(t, model.CustomerActive, got.Status)
}

func TestProcess_CashSaleWithCustomerPostsNoDebt(t *testing.T) {
	f := newFixture(t)
	cement := f.cement(t, "100")
	c := f.customer(t, "0", "0", true)

	cart := f.cart(model.PaymentCard, sellLine(cement, "1"))
	cart.CustomerID = &c.ID
	_, err := f.saleService().Process(context.Background(), cart)
	require.NoError(t, err)

	got := f.reloadCustomer(t, c.ID)
	assertDec(t, "0", got.Debt)
	assert.Equal(t, model.CustomerActive, got.Status)
	assertDec(t, "65000", got.TotalPurchases)
	assert.Zero(t, f.count(t, &model.DebtTransaction{}))
}

func TestProcess_DebtSaleWithoutCustomerSkipsPosting(t *testing.T) {
	f := newFixture(t)
	cement := f.cement(t, "100")

	sale, err := f.saleService().Process(context.Background(), f.cart(model.PaymentDebt, sellLine(cement, "1")))
	require.NoError(t, err)
	assert.True(t, sale.IsDebtSale)
	assert.Zero(t, f.count(t, &model.DebtTransaction{}))
}

func TestProcess_CreditPolicies(t *testing.T) {
	cases := []struct {
		policy     CreditPolicy
		debt       string
		limit      string
		blocked    bool
		wantRefuse bool
	}{
		{CreditAllow, "0", "0", false, false},
		{CreditAllow, "0", "1000", true, false},
		{CreditRejectBlocked, "0", "1000", true, true},
		{CreditRejectBlocked, "0", "0", false, false},
		{CreditEnforceLimit, "0", "0", false, true},
		{CreditEnforceLimit, "0", "100000", false, false},
		{CreditEnforceLimit, "50000", "100000", false, true},
	}
	for _, tc := range cases {
		name := fmt.Sprintf("%s/debt=%s/limit=%s/blocked=%v", tc.policy, tc.debt, tc.limit, tc.blocked)
		t.Run(name, func(t *testing.T) {
			f := newFixture(t)
			cement := f.cement(t, "1000")
			c := f.customer(t, tc.debt, tc.limit, true)
			if tc.blocked {
				require.NoError(t, f.db.Model(&model.Customer{}).Where("id = ?", c.ID).Update("status", model.CustomerBlockedByDebt).Error)
			}
			svc := f.saleService(WithCreditPolicy(tc.policy))

			cart := f.cart(model.PaymentDebt, sellLine(cement, "1"))
			cart.CustomerID = &c.ID
			_, err := svc.Process(context.Background(), cart)

			if tc.wantRefuse {
				assert.ErrorIs(t, err, ErrCreditRefused)
				f.assertNoSaleRows(t)
				assertDec(t, "1000", f.reloadProduct(t, cement.ID).Stock)
				return
			}
			require.NoError(t, err)
			assert.EqualValues(t, 1, f.count(t, &model.Sale{}))
		})
	}
}

// failingStockLedger fails the n-th outbound call.
type failingStockLedger struct {
	StockLedger
	failOn int
	calls  int
}

func (l *failingStockLedger) RecordOutbound(ctx context.Context, tx *gorm.DB, e OutboundEntry) (*model.StockMovement, error) {
	l.calls++
	if l.calls == l.failOn {
		return nil, fmt.Errorf("%w: disk full", ErrStockLedgerWriteFailed)
	}
	return l.StockLedger.RecordOutbound(ctx, tx, e)
}

func TestProcess_AtomicWhenSecondLineFails(t *testing.T) {
	f := newFixture(t)
	cement := f.cement(t, "1000")
	rebar := f.product(t, productOpts{name: "Rebar A500 12mm", stock: "600", ratio: "11.7", salePrice: "98000", baseUnit: model.BaseUnitMeter, sellUnit: model.SellUnitPiece})
	sand := f.product(t, productOpts{name: "Sand", stock: "20", ratio: "1", salePrice: "180000", baseUnit: model.BaseUnitM3, sellUnit: model.SellUnitM3})
	c := f.customer(t, "0", "10000000", true)

	svc := f.saleServiceWith(&failingStockLedger{StockLedger: f.stock, failOn: 2})
	cart := f.cart(model.PaymentDebt, sellLine(cement, "2"), sellLine(rebar, "3"), sellLine(sand, "1"))
	cart.CustomerID = &c.ID

	_, err := svc.Process(context.Background(), cart)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSaleProcessingFailed)
	assert.ErrorIs(t, err, ErrStockLedgerWriteFailed)
	var spe *SaleProcessingError
	assert.True(t, errors.As(err, &spe))

	f.assertNoSaleRows(t)
	assertDec(t, "1000", f.reloadProduct(t, cement.ID).Stock)
	assertDec(t, "600", f.reloadProduct(t, rebar.ID).Stock)
	assertDec(t, "20", f.reloadProduct(t, sand.ID).Stock)
	got := f.reloadCustomer(t, c.ID)
	assertDec(t, "0", got.Debt)
	assertDec(t, "0", got.TotalPurchases)
	assert.Empty(t, f.dispatcher.receipts)
}

func TestProcess_DispatchFailureDoesNotFailSale(t *testing.T) {
	f := newFixture(t)
	cement := f.cement(t, "100")
	f.dispatcher.err = errors.New("redis down")

	sale, err := f.saleService().Process(context.Background(), f.cart(model.PaymentCash, sellLine(cement, "1")))
	require.NoError(t, err)
	assert.EqualValues(t, 1, f.count(t, &model.Sale{}))
	assert.Equal(t, []uuid.UUID{sale.ID}, f.dispatcher.receipts)
}

func TestProcess_CreatedAtIsInvocationTime(t *testing.T) {
	f := newFixture(t)
	cement := f.cement(t, "100")
	at := time.Date(2024, 11, 3, 9, 30, 15, 0, time.UTC)

	sale, err := f.saleService(WithClock(func() time.Time { return at })).
		Process(context.Background(), f.cart(model.PaymentCash, sellLine(cement, "1")))
	require.NoError(t, err)
	assert.True(t, at.Equal(sale.CreatedAt))
	assert.Regexp(t, `^SALE-20241103093015-\d{3}$`, sale.ReceiptID)
}

func TestProcess_ConcurrentSalesConserveStock(t *testing.T) {
	f := newFixture(t)
	cement := f.cement(t, "10000")
	svc := f.saleService()

	const workers = 20
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		qty := fmt.Sprintf("%d", i%3+1)
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Process(context.Background(), f.cart(model.PaymentCash, sellLine(cement, qty)))
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	// Σ qty over i%3+1 for 20 workers = 7×1 + 7×2 + 6×3 = 39 bags = 1950 kg.
	assertDec(t, "8050", f.reloadProduct(t, cement.ID).Stock)
	assert.EqualValues(t, workers, f.count(t, &model.StockMovement{}))

	var receipts []string
	require.NoError(t, f.db.Model(&model.Sale{}).Pluck("receipt_id", &receipts).Error)
	seen := make(map[string]bool, len(receipts))
	for _, r := range receipts {
		assert.False(t, seen[r], "duplicate receipt %s", r)
		seen[r] = true
	}
}

func TestProcess_ConcurrentDebtSalesAccumulate(t *testing.T) {
	f := newFixture(t)
	nails := f.product(t, productOpts{name: "Nails 100mm", stock: "5000", ratio: "1", salePrice: "24000", baseUnit: model.BaseUnitKg, sellUnit: model.SellUnitKg})
	c := f.customer(t, "10000", "100000000", true)
	svc := f.saleService()

	const workers = 15
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			cart := f.cart(model.PaymentDebt, sellLine(nails, "2"))
			cart.CustomerID = &c.ID
			_, err := svc.Process(context.Background(), cart)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	got := f.reloadCustomer(t, c.ID)
	assertDec(t, "730000", got.Debt) // 10000 + 15 × 48000
	assertDec(t, "720000", got.TotalPurchases)
	assert.EqualValues(t, workers, f.count(t, &model.DebtTransaction{}))
	assertDec(t, "4970", f.reloadProduct(t, nails.ID).Stock)
}

func TestFindByReceipt_NotFound(t *testing.T) {
	f := newFixture(t)
	_, err := f.saleService().FindByReceipt(context.Background(), "SALE-20000101000000-100")
	assert.ErrorIs(t, err, ErrSaleNotFound)
}

func TestProcess_RejectsAmountsFinerThanCents(t *testing.T) {
	f := newFixture(t)
	cement := f.cement(t, "100")
	svc := f.saleService()

	finePrice := sellLine(cement, "1")
	finePrice.Price = decPtr("65000.001")
	fineDiscount := f.cart(model.PaymentCash, sellLine(cement, "1"))
	fineDiscount.DiscountAmount = dec("0.005")

	cases := map[string]Cart{
		"sub-cent base quantity": f.cart(model.PaymentCash, baseLine(cement, "0.004")),
		"three decimals":         f.cart(model.PaymentCash, sellLine(cement, "1.005")),
		"declared price":         f.cart(model.PaymentCash, finePrice),
		"discount":               fineDiscount,
	}
	for name, cart := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Process(context.Background(), cart)
			assert.ErrorIs(t, err, ErrInvalidCart)
		})
	}

	f.assertNoSaleRows(t)
	assertDec(t, "100", f.reloadProduct(t, cement.ID).Stock)

	_, err := svc.Process(context.Background(), f.cart(model.PaymentCash, sellLine(cement, "1.500")))
	require.NoError(t, err, "trailing zeros fit the scale")
}

func TestProcess_BaseQuantityRoundedOnceToStockScale(t *testing.T) {
	f := newFixture(t)
	halfBag := f.product(t, productOpts{name: "Tile adhesive", stock: "10", ratio: "0.5", salePrice: "40000", baseUnit: model.BaseUnitKg, sellUnit: model.SellUnitBag})

	sale, err := f.saleService().Process(context.Background(), f.cart(model.PaymentCash, sellLine(halfBag, "0.25")))
	require.NoError(t, err)

	require.Len(t, sale.Items, 1)
	assertDec(t, "0.25", sale.Items[0].Quantity)
	assertDec(t, "0.13", sale.Items[0].BaseUnitQuantity) // 0.125 rounded half up

	var movements []model.StockMovement
	require.NoError(t, f.db.Where("product_id = ?", halfBag.ID).Find(&movements).Error)
	require.Len(t, movements, 1)
	mv := movements[0]
	assertDec(t, "-0.13", mv.Quantity)
	assertDec(t, "10", mv.StockBefore)
	assertDec(t, "9.87", mv.StockAfter)
	assertDec(t, "9.87", f.reloadProduct(t, halfBag.ID).Stock)
	assert.True(t, mv.StockBefore.Add(mv.Quantity).Equal(mv.StockAfter), "movement reconciles with stock")
}

func TestProcess_BaseQuantityRoundingToZeroIsInvalid(t *testing.T) {
	f := newFixture(t)
	wire := f.product(t, productOpts{name: "Binding wire", stock: "10", ratio: "0.001", salePrice: "100", baseUnit: model.BaseUnitKg, sellUnit: model.SellUnitPiece})

	_, err := f.saleService().Process(context.Background(), f.cart(model.PaymentCash, sellLine(wire, "0.01")))
	assert.ErrorIs(t, err, ErrInvalidCart)
	f.assertNoSaleRows(t)
}

// pickSource makes rand.Intn(n) return picks in order, for n <= 2^31.
type pickSource struct {
	picks []int64
	next  int
}

func (s *pickSource) Int63() int64 {
	v := s.picks[s.next%len(s.picks)]
	s.next++
	return v << 32
}

func (s *pickSource) Seed(int64) {}

func TestProcess_ReceiptClashWithUncommittedSaleRetries(t *testing.T) {
	f := newFixture(t)
	cement := f.cement(t, "100")
	clock := func() time.Time { return time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC) }

	first, err := f.saleService(WithReceiptGenerator(
		NewReceiptGenerator(f.sales.ReceiptExistsTx).WithClock(clock).WithSource(&pickSource{picks: []int64{86}}),
	)).Process(context.Background(), f.cart(model.PaymentCash, sellLine(cement, "1")))
	require.NoError(t, err)
	assert.Equal(t, "SALE-20240101090000-186", first.ReceiptID)

	// A concurrent register drew the same id while the first sale was still
	// uncommitted, so its existence check saw nothing.
	unseen := func(*gorm.DB, string) (bool, error) { return false, nil }
	second, err := f.saleService(WithReceiptGenerator(
		NewReceiptGenerator(unseen).WithClock(clock).WithSource(&pickSource{picks: []int64{86, 87}}),
	)).Process(context.Background(), f.cart(model.PaymentCash, sellLine(cement, "1")))
	require.NoError(t, err)
	assert.Equal(t, "SALE-20240101090000-187", second.ReceiptID)

	assert.EqualValues(t, 2, f.count(t, &model.Sale{}))
	assert.EqualValues(t, 2, f.count(t, &model.SaleItem{}))
	assert.EqualValues(t, 2, f.count(t, &model.StockMovement{}))
	assertDec(t, "0", f.reloadProduct(t, cement.ID).Stock)
}

func TestProcess_ReceiptClashExhaustsAttempts(t *testing.T) {
	f := newFixture(t)
	cement := f.cement(t, "100")
	clock := func() time.Time { return time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC) }
	gen := func(exists func(*gorm.DB, string) (bool, error)) *ReceiptGenerator {
		return NewReceiptGenerator(exists).WithClock(clock).WithSource(&pickSource{picks: []int64{86}})
	}

	_, err := f.saleService(WithReceiptGenerator(gen(f.sales.ReceiptExistsTx))).
		Process(context.Background(), f.cart(model.PaymentCash, sellLine(cement, "1")))
	require.NoError(t, err)

	unseen := func(*gorm.DB, string) (bool, error) { return false, nil }
	_, err = f.saleService(WithReceiptGenerator(gen(unseen))).
		Process(context.Background(), f.cart(model.PaymentCash, sellLine(cement, "1")))
	assert.ErrorIs(t, err, ErrReceiptGenerationFailed)
	assert.EqualValues(t, 1, f.count(t, &model.Sale{}))
	assertDec(t, "50", f.reloadProduct(t, cement.ID).Stock)
}

func TestProcess_HistorySurvivesCustomerAndProductRemoval(t *testing.T) {
	db := openMemoryDB(t, "&_foreign_keys=on")
	var fk int
	require.NoError(t, db.Raw("PRAGMA foreign_keys").Scan(&fk).Error)
	require.Equal(t, 1, fk)

	f := newFixtureOn(t, db)
	cement := f.cement(t, "100")
	c := f.customer(t, "0", "500000", true)

	cart := f.cart(model.PaymentDebt, sellLine(cement, "1"))
	cart.CustomerID = &c.ID
	sale, err := f.saleService().Process(context.Background(), cart)
	require.NoError(t, err)

	require.NoError(t, f.db.Delete(&model.Customer{}, "id = ?", c.ID).Error)
	require.NoError(t, f.db.Delete(&model.Product{}, "id = ?", cement.ID).Error)

	got, err := f.sales.FindByReceipt(context.Background(), sale.ReceiptID)
	require.NoError(t, err)
	assert.Nil(t, got.CustomerID, "customer link is cleared")
	require.NotNil(t, got.CustomerName)
	assert.Equal(t, "Usta Anvar", *got.CustomerName)
	assertDec(t, "65000", got.TotalAmount)

	require.Len(t, got.Items, 1)
	assert.Equal(t, "Cement M400", got.Items[0].ProductName)
	assertDec(t, "50", got.Items[0].UnitRatioAtSale)
	assertDec(t, "65000", got.Items[0].Price)

	var debts []model.DebtTransaction
	require.NoError(t, f.db.Where("sale_receipt_id = ?", sale.ReceiptID).Find(&debts).Error)
	assert.Len(t, debts, 1, "debt ledger keeps the sale's posting")
}

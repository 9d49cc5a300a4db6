package service

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/marimovDEV/v0-crm-pos-system/internal/infra"
	"github.com/marimovDEV/v0-crm-pos-system/internal/model"
	"github.com/marimovDEV/v0-crm-pos-system/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// ── Fixture ───────────────────────────────────────────────────────────────────

// fixture wires the real services on a private in-memory SQLite database.
type fixture struct {
	db         *gorm.DB
	branch     model.Branch
	cashier    uuid.UUID
	products   repository.ProductRepository
	customers  repository.CustomerRepository
	sales      repository.SaleRepository
	movements  repository.StockMovementRepository
	debtTxs    repository.DebtTransactionRepository
	audit      AuditRecorder
	stock      StockLedger
	debt       DebtLedger
	dispatcher *recordingDispatcher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureOn(t, openMemoryDB(t, ""))
}

// openMemoryDB opens a private in-memory SQLite database; params are extra
// DSN options such as "&_foreign_keys=on".
func openMemoryDB(t *testing.T, params string) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := infra.NewDatabase("file:" + name + "?mode=memory&cache=shared" + params)
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// newFixtureOn wires the services on an already migrated database.
func newFixtureOn(t *testing.T, db *gorm.DB) *fixture {
	t.Helper()
	f := &fixture{
		db:         db,
		branch:     model.Branch{Name: "Chilonzor"},
		cashier:    uuid.New(),
		products:   repository.NewProductRepository(db),
		customers:  repository.NewCustomerRepository(db),
		sales:      repository.NewSaleRepository(db),
		movements:  repository.NewStockMovementRepository(db),
		debtTxs:    repository.NewDebtTransactionRepository(db),
		dispatcher: &recordingDispatcher{},
	}
	require.NoError(t, db.Create(&f.branch).Error)

	f.audit = NewAuditRecorder(repository.NewAuditLogRepository(db))
	f.stock = NewStockLedger(f.products, f.movements, f.audit)
	f.debt = NewDebtLedger(f.customers, f.debtTxs, f.audit)
	return f
}

func (f *fixture) saleService(opts ...SaleOption) SaleService {
	return f.saleServiceWith(f.stock, opts...)
}

func (f *fixture) saleServiceWith(stock StockLedger, opts ...SaleOption) SaleService {
	opts = append([]SaleOption{WithDispatcher(f.dispatcher)}, opts...)
	return NewSaleService(f.sales, f.products, f.customers, stock, f.debt, f.audit, opts...)
}

type productOpts struct {
	name      string
	stock     string
	minStock  string
	ratio     string
	salePrice string
	costPrice string
	baseUnit  model.BaseUnit
	sellUnit  model.SellUnit
}

func (f *fixture) product(t *testing.T, s productOpts) *model.Product {
	t.Helper()
	p := &model.Product{
		Name:      s.name,
		BaseUnit:  s.baseUnit,
		SellUnit:  s.sellUnit,
		UnitRatio: dec(orDefault(s.ratio, "1")),
		SalePrice: dec(orDefault(s.salePrice, "0")),
		CostPrice: dec(orDefault(s.costPrice, "0")),
		Stock:     dec(orDefault(s.stock, "0")),
		MinStock:  dec(orDefault(s.minStock, "0")),
		BranchID:  f.branch.ID,
	}
	if p.BaseUnit == "" {
		p.BaseUnit = model.BaseUnitPiece
	}
	if p.SellUnit == "" {
		p.SellUnit = model.SellUnitPiece
	}
	require.NoError(t, f.products.Create(context.Background(), p))
	return p
}

func (f *fixture) cement(t *testing.T, stock string) *model.Product {
	return f.product(t, productOpts{
		name:      "Cement M400",
		stock:     stock,
		ratio:     "50",
		salePrice: "65000",
		costPrice: "52000",
		baseUnit:  model.BaseUnitKg,
		sellUnit:  model.SellUnitBag,
	})
}

func (f *fixture) customer(t *testing.T, debt, limit string, autoBlock bool) *model.Customer {
	t.Helper()
	c := &model.Customer{
		Name:             "Usta Anvar",
		Phone:            "+998" + uuid.NewString()[:9],
		CustomerType:     model.CustomerUsta,
		Debt:             dec(debt),
		DebtLimit:        dec(limit),
		AutoBlockOnLimit: autoBlock,
		BranchID:         f.branch.ID,
	}
	require.NoError(t, f.customers.Create(context.Background(), c))
	return c
}

func (f *fixture) reloadProduct(t *testing.T, id uuid.UUID) *model.Product {
	t.Helper()
	p, err := f.products.FindByID(context.Background(), id)
	require.NoError(t, err)
	return p
}

func (f *fixture) reloadCustomer(t *testing.T, id uuid.UUID) *model.Customer {
	t.Helper()
	c, err := f.customers.FindByID(context.Background(), id)
	require.NoError(t, err)
	return c
}

func (f *fixture) count(t *testing.T, m interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(m).Count(&n).Error)
	return n
}

// assertNoSaleRows checks that nothing a sale writes was left behind.
func (f *fixture) assertNoSaleRows(t *testing.T) {
	t.Helper()
	assert.Zero(t, f.count(t, &model.Sale{}), "sales")
	assert.Zero(t, f.count(t, &model.SaleItem{}), "sale items")
	assert.Zero(t, f.count(t, &model.StockMovement{}), "stock movements")
	assert.Zero(t, f.count(t, &model.DebtTransaction{}), "debt transactions")
	assert.Zero(t, f.count(t, &model.AuditLog{}), "audit logs")
}

func (f *fixture) cart(method model.PaymentMethod, lines ...CartLine) Cart {
	return Cart{
		PaymentMethod: method,
		BranchID:      f.branch.ID,
		CashierID:     f.cashier,
		Lines:         lines,
	}
}

func sellLine(p *model.Product, qty string) CartLine {
	return CartLine{ProductID: p.ID, Quantity: dec(qty), UnitType: model.UnitTypeSell}
}

func baseLine(p *model.Product, qty string) CartLine {
	return CartLine{ProductID: p.ID, Quantity: dec(qty), UnitType: model.UnitTypeBase}
}

// ── Stubs ─────────────────────────────────────────────────────────────────────

type recordingDispatcher struct {
	mu       sync.Mutex
	receipts []uuid.UUID
	alerts   []uuid.UUID
	err      error
}

func (d *recordingDispatcher) EnqueueSaleReceipt(_ context.Context, saleID uuid.UUID) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.receipts = append(d.receipts, saleID)
	return d.err
}

func (d *recordingDispatcher) EnqueueStockAlert(_ context.Context, productID uuid.UUID) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.alerts = append(d.alerts, productID)
	return d.err
}

var _ Dispatcher = (*recordingDispatcher)(nil)

// ── Helpers ───────────────────────────────────────────────────────────────────

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func assertDec(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.Truef(t, dec(want).Equal(got), "want %s, got %s", want, got.String())
}

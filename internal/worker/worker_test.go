package worker

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/marimovDEV/v0-crm-pos-system/internal/infra"
	"github.com/marimovDEV/v0-crm-pos-system/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// ── Stubs ─────────────────────────────────────────────────────────────────────

type stubSales map[uuid.UUID]*model.Sale

func (s stubSales) FindByID(_ context.Context, id uuid.UUID) (*model.Sale, error) {
	if sale, ok := s[id]; ok {
		return sale, nil
	}
	return nil, gorm.ErrRecordNotFound
}

type stubProducts struct {
	byID map[uuid.UUID]*model.Product
	err  error
}

func (s *stubProducts) FindByID(_ context.Context, id uuid.UUID) (*model.Product, error) {
	if s.err != nil {
		return nil, s.err
	}
	if p, ok := s.byID[id]; ok {
		return p, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubProducts) ListLowStock(_ context.Context, _ uuid.UUID) ([]model.Product, error) {
	var out []model.Product
	for _, p := range s.byID {
		if p.IsLowStock() {
			out = append(out, *p)
		}
	}
	return out, s.err
}

// memThrottle admits each key once until released.
type memThrottle struct {
	mu   sync.Mutex
	held map[string]bool
}

func (t *memThrottle) Acquire(_ context.Context, key string, _ time.Duration) (func(context.Context) error, bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.held == nil {
		t.held = map[string]bool{}
	}
	if t.held[key] {
		return nil, false, nil
	}
	t.held[key] = true
	return func(context.Context) error {
		t.mu.Lock()
		defer t.mu.Unlock()
		delete(t.held, key)
		return nil
	}, true, nil
}

type stubMailer struct {
	enabled bool
	err     error
	sent    []string
}

func (m *stubMailer) Enabled() bool { return m.enabled }

func (m *stubMailer) Send(to, subject, _, _ string) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, to+"|"+subject)
	return nil
}

type recordingEnqueuer struct{ ids []uuid.UUID }

func (r *recordingEnqueuer) EnqueueStockAlert(_ context.Context, id uuid.UUID) error {
	r.ids = append(r.ids, id)
	return nil
}

func payload(t *testing.T, v any) json.RawMessage {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}

func lowRebar() *model.Product {
	return &model.Product{
		ID: uuid.New(), Name: "Armatura 12mm", BaseUnit: model.BaseUnitMeter, SellUnit: model.SellUnitPiece,
		UnitRatio: decimal.NewFromInt(12), Stock: decimal.NewFromInt(40), MinStock: decimal.NewFromInt(120),
	}
}

// ── Pool ──────────────────────────────────────────────────────────────────────

func TestPool_HandleRoutesByType(t *testing.T) {
	p := NewPool(nil)
	var got json.RawMessage
	p.Register(JobSaleReceipt, ProcessorFunc(func(_ context.Context, raw json.RawMessage) error {
		got = raw
		return nil
	}))

	raw, err := json.Marshal(Job{Type: JobSaleReceipt, Payload: json.RawMessage(`{"sale_id":"x"}`), Attempts: 1})
	require.NoError(t, err)
	job, err := p.handle(context.Background(), string(raw))
	require.NoError(t, err)
	assert.Equal(t, 2, job.Attempts)
	assert.JSONEq(t, `{"sale_id":"x"}`, string(got))
}

func TestPool_HandlePermanentFailures(t *testing.T) {
	p := NewPool(nil)

	_, err := p.handle(context.Background(), "{not json")
	assert.True(t, isPermanent(err))

	raw, _ := json.Marshal(Job{Type: "fiscal_invoice"})
	_, err = p.handle(context.Background(), string(raw))
	assert.True(t, isPermanent(err))

	p.Register(JobStockAlert, ProcessorFunc(func(context.Context, json.RawMessage) error { return errors.New("smtp down") }))
	raw, _ = json.Marshal(Job{Type: JobStockAlert})
	_, err = p.handle(context.Background(), string(raw))
	require.Error(t, err)
	assert.False(t, isPermanent(err))
}

func TestBackoff(t *testing.T) {
	assert.Equal(t, time.Second, backoff(1))
	assert.Equal(t, 2*time.Second, backoff(2))
	assert.Equal(t, 4*time.Second, backoff(3))
	assert.Equal(t, 30*time.Second, backoff(10))
}

// ── Receipt worker ────────────────────────────────────────────────────────────

func TestReceiptWorker_RendersSale(t *testing.T) {
	sale := &model.Sale{ID: uuid.New(), ReceiptID: "SALE-20240115143000-123", PaymentMethod: model.PaymentCash, CreatedAt: time.Now()}
	dir := t.TempDir()
	w := NewReceiptWorker(stubSales{sale.ID: sale}, infra.ReceiptHeader{StoreName: "Qurilish Mollari"}, dir)

	err := w.Process(context.Background(), payload(t, SaleReceiptPayload{SaleID: sale.ID.String()}))
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "receipt_SALE-20240115143000-123.pdf"))
}

func TestReceiptWorker_Failures(t *testing.T) {
	w := NewReceiptWorker(stubSales{}, infra.ReceiptHeader{}, t.TempDir())

	err := w.Process(context.Background(), payload(t, SaleReceiptPayload{SaleID: uuid.NewString()}))
	assert.True(t, isPermanent(err), "missing sale is not retried")

	err = w.Process(context.Background(), payload(t, SaleReceiptPayload{SaleID: "nope"}))
	assert.True(t, isPermanent(err))

	sale := &model.Sale{ID: uuid.New(), ReceiptID: "SALE-20240115143000-124"}
	w = NewReceiptWorker(stubSales{sale.ID: sale}, infra.ReceiptHeader{}, t.TempDir())
	w.render = func(*model.Sale, infra.ReceiptHeader, string) (string, error) { return "", errors.New("disk full") }
	err = w.Process(context.Background(), payload(t, SaleReceiptPayload{SaleID: sale.ID.String()}))
	require.Error(t, err)
	assert.False(t, isPermanent(err), "render failures are retried")
}

// ── Stock alert worker ────────────────────────────────────────────────────────

func TestStockAlertWorker_ThrottlesPerProduct(t *testing.T) {
	p := lowRebar()
	mailer := &stubMailer{enabled: true}
	w := NewStockAlertWorker(&stubProducts{byID: map[uuid.UUID]*model.Product{p.ID: p}}, &memThrottle{}, time.Hour, mailer, nil, "omborchi@example.uz")

	msg := payload(t, StockAlertPayload{ProductID: p.ID.String()})
	require.NoError(t, w.Process(context.Background(), msg))
	require.NoError(t, w.Process(context.Background(), msg))
	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "omborchi@example.uz|Low stock: Armatura 12mm", mailer.sent[0])
}

func TestStockAlertWorker_SkipsRestockedProduct(t *testing.T) {
	p := lowRebar()
	p.Stock = decimal.NewFromInt(500)
	mailer := &stubMailer{enabled: true}
	w := NewStockAlertWorker(&stubProducts{byID: map[uuid.UUID]*model.Product{p.ID: p}}, &memThrottle{}, time.Hour, mailer, nil, "a@b.uz")

	require.NoError(t, w.Process(context.Background(), payload(t, StockAlertPayload{ProductID: p.ID.String()})))
	assert.Empty(t, mailer.sent)
}

func TestStockAlertWorker_SendFailureReleasesThrottle(t *testing.T) {
	p := lowRebar()
	mailer := &stubMailer{enabled: true, err: errors.New("535 auth failed")}
	breaker := infra.NewCircuitBreaker(infra.DefaultCBConfig("smtp"))
	w := NewStockAlertWorker(&stubProducts{byID: map[uuid.UUID]*model.Product{p.ID: p}}, &memThrottle{}, time.Hour, mailer, breaker, "a@b.uz")
	msg := payload(t, StockAlertPayload{ProductID: p.ID.String()})

	require.Error(t, w.Process(context.Background(), msg))

	mailer.err = nil
	require.NoError(t, w.Process(context.Background(), msg))
	assert.Len(t, mailer.sent, 1)
}

func TestStockAlertWorker_LogsWithoutSMTP(t *testing.T) {
	p := lowRebar()
	mailer := &stubMailer{enabled: false}
	w := NewStockAlertWorker(&stubProducts{byID: map[uuid.UUID]*model.Product{p.ID: p}}, &memThrottle{}, time.Hour, mailer, nil, "a@b.uz")

	require.NoError(t, w.Process(context.Background(), payload(t, StockAlertPayload{ProductID: p.ID.String()})))
	assert.Empty(t, mailer.sent)

	require.NoError(t, w.Process(context.Background(), payload(t, StockAlertPayload{ProductID: uuid.NewString()})), "deleted product is ignored")
}

// ── Sweep ─────────────────────────────────────────────────────────────────────

func TestSweepOnce_EnqueuesLowStockOnly(t *testing.T) {
	low := lowRebar()
	ok := lowRebar()
	ok.Stock = decimal.NewFromInt(1000)
	products := &stubProducts{byID: map[uuid.UUID]*model.Product{low.ID: low, ok.ID: ok}}
	enq := &recordingEnqueuer{}

	assert.Equal(t, 1, sweepOnce(context.Background(), products, enq))
	assert.Equal(t, []uuid.UUID{low.ID}, enq.ids)
}

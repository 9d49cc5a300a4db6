package service

import (
	"context"
	"testing"

	"github.com/marimovDEV/v0-crm-pos-system/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func postDebt(t *testing.T, f *fixture, customerID uuid.UUID, amount string) (*model.DebtTransaction, error) {
	t.Helper()
	var dt *model.DebtTransaction
	err := f.db.Transaction(func(tx *gorm.DB) error {
		var err error
		dt, err = f.debt.PostDebt(context.Background(), tx, DebtEntry{
			CustomerID:    customerID,
			Amount:        dec(amount),
			Note:          "test",
			SaleReceiptID: strPtr("SALE-20240101080000-123"),
		})
		return err
	})
	return dt, err
}

func TestDebtLedger_CanExtendCredit(t *testing.T) {
	l := &debtLedger{}
	cases := []struct {
		name         string
		debt, limit  string
		amount       string
		expectAllows bool
	}{
		{"no credit at all", "0", "0", "1", false},
		{"within limit", "100000", "150000", "50000", true},
		{"exactly at limit", "100000", "150000", "50000.00", true},
		{"over limit", "100000", "150000", "50000.01", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := &model.Customer{Debt: dec(tc.debt), DebtLimit: dec(tc.limit)}
			assert.Equal(t, tc.expectAllows, l.CanExtendCredit(c, dec(tc.amount)))
		})
	}
}

func TestDebtLedger_PostDebtBlocksAtLimit(t *testing.T) {
	f := newFixture(t)
	c := f.customer(t, "0", "150000", true)

	dt, err := postDebt(t, f, c.ID, "150000")
	require.NoError(t, err)
	assert.Equal(t, model.DebtAdded, dt.TransactionType)
	assertDec(t, "0", dt.DebtBefore)
	assertDec(t, "150000", dt.DebtAfter)

	got := f.reloadCustomer(t, c.ID)
	assertDec(t, "150000", got.Debt)
	assert.Equal(t, model.CustomerBlockedByDebt, got.Status)
}

func TestDebtLedger_PostDebtNeverRefusesOverLimit(t *testing.T) {
	f := newFixture(t)
	c := f.customer(t, "140000", "150000", true)

	_, err := postDebt(t, f, c.ID, "90000")
	require.NoError(t, err)

	got := f.reloadCustomer(t, c.ID)
	assertDec(t, "230000", got.Debt)
	assert.Equal(t, model.CustomerBlockedByDebt, got.Status)
}

func TestDebtLedger_NoAutoBlockWhenDisabled(t *testing.T) {
	f := newFixture(t)
	c := f.customer(t, "0", "1000", false)

	_, err := postDebt(t, f, c.ID, "5000")
	require.NoError(t, err)
	assert.Equal(t, model.CustomerActive, f.reloadCustomer(t, c.ID).Status)
}

func TestDebtLedger_PaymentUnblocks(t *testing.T) {
	f := newFixture(t)
	c := f.customer(t, "0", "150000", true)
	_, err := postDebt(t, f, c.ID, "150000")
	require.NoError(t, err)

	dt, err := f.debt.PostPayment(context.Background(), DebtEntry{CustomerID: c.ID, Amount: dec("150000"), Note: "cash"})
	require.NoError(t, err)
	assert.Equal(t, model.DebtPayment, dt.TransactionType)
	assertDec(t, "150000", dt.Amount)

	got := f.reloadCustomer(t, c.ID)
	assertDec(t, "0", got.Debt)
	assert.Equal(t, model.CustomerActive, got.Status)

	var logs []model.AuditLog
	require.NoError(t, f.db.Where("action_type = ?", model.AuditDebtPayment).Find(&logs).Error)
	assert.Len(t, logs, 1)
}

func TestDebtLedger_PaymentClampsAtZero(t *testing.T) {
	f := newFixture(t)
	c := f.customer(t, "40000", "150000", true)

	dt, err := f.debt.PostPayment(context.Background(), DebtEntry{CustomerID: c.ID, Amount: dec("55000")})
	require.NoError(t, err)
	assertDec(t, "40000", dt.DebtBefore)
	assertDec(t, "0", dt.DebtAfter)
	assertDec(t, "40000", dt.Amount) // applied, not requested
	assertDec(t, "0", f.reloadCustomer(t, c.ID).Debt)

	var stored model.DebtTransaction
	require.NoError(t, f.db.First(&stored, "id = ?", dt.ID).Error)
	assertDec(t, "40000", stored.Amount)

	adj, err := f.debt.PostAdjustment(context.Background(), DebtEntry{CustomerID: c.ID, Amount: dec("-100")})
	require.NoError(t, err)
	assertDec(t, "0", adj.Amount)
}

func TestDebtLedger_ManualBlockIsNeverCleared(t *testing.T) {
	f := newFixture(t)
	c := f.customer(t, "100000", "150000", true)
	require.NoError(t, f.db.Model(&model.Customer{}).Where("id = ?", c.ID).Update("status", model.CustomerBlocked).Error)

	_, err := postDebt(t, f, c.ID, "60000")
	require.NoError(t, err)
	assert.Equal(t, model.CustomerBlocked, f.reloadCustomer(t, c.ID).Status)

	_, err = f.debt.PostPayment(context.Background(), DebtEntry{CustomerID: c.ID, Amount: dec("160000")})
	require.NoError(t, err)
	got := f.reloadCustomer(t, c.ID)
	assertDec(t, "0", got.Debt)
	assert.Equal(t, model.CustomerBlocked, got.Status)
}

func TestDebtLedger_PartialPaymentStaysBlockedAtLimit(t *testing.T) {
	f := newFixture(t)
	c := f.customer(t, "0", "100000", true)
	_, err := postDebt(t, f, c.ID, "130000")
	require.NoError(t, err)

	_, err = f.debt.PostPayment(context.Background(), DebtEntry{CustomerID: c.ID, Amount: dec("30000")})
	require.NoError(t, err)
	got := f.reloadCustomer(t, c.ID)
	assertDec(t, "100000", got.Debt)
	assert.Equal(t, model.CustomerBlockedByDebt, got.Status, "debt equal to limit is not below it")
}

func TestDebtLedger_PaymentValidation(t *testing.T) {
	f := newFixture(t)
	c := f.customer(t, "100", "1000", true)

	_, err := f.debt.PostPayment(context.Background(), DebtEntry{CustomerID: c.ID, Amount: dec("0")})
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = f.debt.PostPayment(context.Background(), DebtEntry{CustomerID: c.ID, Amount: dec("10.001")})
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = f.debt.PostAdjustment(context.Background(), DebtEntry{CustomerID: c.ID, Amount: dec("-0.005")})
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = f.debt.PostPayment(context.Background(), DebtEntry{CustomerID: uuid.New(), Amount: dec("10")})
	assert.ErrorIs(t, err, ErrCustomerNotFound)
	assert.Zero(t, f.count(t, &model.DebtTransaction{}))
}

func TestDebtLedger_Adjustment(t *testing.T) {
	f := newFixture(t)
	c := f.customer(t, "50000", "100000", true)

	dt, err := f.debt.PostAdjustment(context.Background(), DebtEntry{CustomerID: c.ID, Amount: dec("60000"), Note: "old notebook debt"})
	require.NoError(t, err)
	assert.Equal(t, model.DebtAdjustment, dt.TransactionType)
	assertDec(t, "60000", dt.Amount)
	got := f.reloadCustomer(t, c.ID)
	assertDec(t, "110000", got.Debt)
	assert.Equal(t, model.CustomerBlockedByDebt, got.Status)

	dt, err = f.debt.PostAdjustment(context.Background(), DebtEntry{CustomerID: c.ID, Amount: dec("-20000")})
	require.NoError(t, err)
	assertDec(t, "-20000", dt.Amount)
	got = f.reloadCustomer(t, c.ID)
	assertDec(t, "90000", got.Debt)
	assert.Equal(t, model.CustomerActive, got.Status)
}

func TestDebtLedger_CheckCreditAndHistory(t *testing.T) {
	f := newFixture(t)
	c := f.customer(t, "20000", "100000", true)

	check, err := f.debt.CheckCredit(context.Background(), c.ID, dec("80000"))
	require.NoError(t, err)
	assert.True(t, check.Allowed)

	check, err = f.debt.CheckCredit(context.Background(), c.ID, dec("80001"))
	require.NoError(t, err)
	assert.False(t, check.Allowed)

	_, err = f.debt.CheckCredit(context.Background(), uuid.New(), dec("1"))
	assert.ErrorIs(t, err, ErrCustomerNotFound)

	_, err = postDebt(t, f, c.ID, "1000")
	require.NoError(t, err)
	history, total, err := f.debt.History(context.Background(), c.ID, 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, history, 1)
	require.NotNil(t, history[0].SaleReceiptID)
	assert.Equal(t, "SALE-20240101080000-123", *history[0].SaleReceiptID)
}

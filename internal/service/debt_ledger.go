package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/marimovDEV/v0-crm-pos-system/internal/model"
	"github.com/marimovDEV/v0-crm-pos-system/internal/repository"
	"github.com/marimovDEV/v0-crm-pos-system/internal/units"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DebtEntry is one posting against a customer's running debt.
// Amount is positive for debts and payments and signed for adjustments.
type DebtEntry struct {
	CustomerID    uuid.UUID
	Amount        decimal.Decimal
	Note          string
	SaleReceiptID *string
	OperatorID    *uuid.UUID
	BranchID      *uuid.UUID
}

// DebtLedger is the only writer of Customer.debt and of the automatic
// blocked_by_debt status transitions.
type DebtLedger interface {
	// PostDebt increases the debt inside the caller's transaction. It never
	// refuses: hitting the limit only blocks the customer for later sales.
	PostDebt(ctx context.Context, tx *gorm.DB, e DebtEntry) (*model.DebtTransaction, error)
	PostPayment(ctx context.Context, e DebtEntry) (*model.DebtTransaction, error)
	PostAdjustment(ctx context.Context, e DebtEntry) (*model.DebtTransaction, error)
	CanExtendCredit(c *model.Customer, amount decimal.Decimal) bool

	CheckCredit(ctx context.Context, customerID uuid.UUID, amount decimal.Decimal) (*CreditCheck, error)
	History(ctx context.Context, customerID uuid.UUID, page, limit int) ([]model.DebtTransaction, int64, error)
}

// CreditCheck is the answer to "may this customer take amount on credit".
type CreditCheck struct {
	Customer *model.Customer
	Amount   decimal.Decimal
	Allowed  bool
}

type debtLedger struct {
	customers    repository.CustomerRepository
	transactions repository.DebtTransactionRepository
	audit        AuditRecorder
}

func NewDebtLedger(
	customers repository.CustomerRepository,
	transactions repository.DebtTransactionRepository,
	audit AuditRecorder,
) DebtLedger {
	return &debtLedger{customers: customers, transactions: transactions, audit: audit}
}

// CanExtendCredit is false when the customer has no credit at all
// (limit 0) or when the new debt would exceed the limit.
func (l *debtLedger) CanExtendCredit(c *model.Customer, amount decimal.Decimal) bool {
	if c.DebtLimit.IsZero() {
		return false
	}
	return c.Debt.Add(amount).LessThanOrEqual(c.DebtLimit)
}

func (l *debtLedger) CheckCredit(ctx context.Context, customerID uuid.UUID, amount decimal.Decimal) (*CreditCheck, error) {
	if amount.IsNegative() {
		return nil, fmt.Errorf("%w: amount must not be negative", ErrInvalidAmount)
	}
	c, err := l.customers.FindByID(ctx, customerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrCustomerNotFound, customerID)
		}
		return nil, err
	}
	return &CreditCheck{
		Customer: c,
		Amount:   amount,
		Allowed:  !c.IsBlocked() && l.CanExtendCredit(c, amount),
	}, nil
}

func (l *debtLedger) History(ctx context.Context, customerID uuid.UUID, page, limit int) ([]model.DebtTransaction, int64, error) {
	if _, err := l.customers.FindByID(ctx, customerID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, 0, fmt.Errorf("%w: %s", ErrCustomerNotFound, customerID)
		}
		return nil, 0, err
	}
	return l.transactions.ListByCustomer(ctx, customerID, page, limit)
}

// statusAfterIncrease blocks a customer that reached the limit. A manual
// block is left as is.
func statusAfterIncrease(c *model.Customer, debt decimal.Decimal) model.CustomerStatus {
	if c.Status == model.CustomerBlocked || c.Status == model.CustomerBlockedByDebt {
		return c.Status
	}
	if c.AutoBlockOnLimit && debt.GreaterThanOrEqual(c.DebtLimit) {
		return model.CustomerBlockedByDebt
	}
	return c.Status
}

// statusAfterDecrease lifts only a block the ledger itself set.
func statusAfterDecrease(c *model.Customer, debt decimal.Decimal) model.CustomerStatus {
	if c.Status == model.CustomerBlockedByDebt && debt.LessThan(c.DebtLimit) {
		return model.CustomerActive
	}
	return c.Status
}

// post locks the customer, applies delta (clamping the result at zero) and
// appends the ledger row.
func (l *debtLedger) post(tx *gorm.DB, kind model.DebtTransactionType, delta decimal.Decimal, e DebtEntry) (*model.DebtTransaction, *model.Customer, error) {
	c, err := l.customers.LockByIDTx(tx, e.CustomerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, fmt.Errorf("%w: %s", ErrCustomerNotFound, e.CustomerID)
		}
		return nil, nil, fmt.Errorf("%w: lock customer %s: %v", ErrDebtLedgerWriteFailed, e.CustomerID, err)
	}

	before := c.Debt
	after := before.Add(delta)
	status := c.Status
	if delta.IsPositive() {
		status = statusAfterIncrease(c, after)
	} else {
		if after.IsNegative() {
			after = decimal.Zero
		}
		status = statusAfterDecrease(c, after)
	}

	if err := l.customers.UpdateDebtTx(tx, c.ID, after, status); err != nil {
		return nil, nil, fmt.Errorf("%w: update customer %s: %v", ErrDebtLedgerWriteFailed, c.ID, err)
	}

	// The row carries what was applied, which differs from the request when
	// a payment or a negative adjustment hits the zero floor.
	amount := after.Sub(before)
	if kind != model.DebtAdjustment {
		amount = amount.Abs()
	}
	var note *string
	if e.Note != "" {
		note = &e.Note
	}
	t := &model.DebtTransaction{
		CustomerID:      c.ID,
		TransactionType: kind,
		Amount:          amount,
		DebtBefore:      before,
		DebtAfter:       after,
		Note:            note,
		SaleReceiptID:   e.SaleReceiptID,
		OperatorID:      e.OperatorID,
	}
	if err := l.transactions.CreateTx(tx, t); err != nil {
		return nil, nil, fmt.Errorf("%w: transaction for %s: %v", ErrDebtLedgerWriteFailed, c.ID, err)
	}

	c.Debt = after
	c.Status = status
	return t, c, nil
}

func (l *debtLedger) PostDebt(_ context.Context, tx *gorm.DB, e DebtEntry) (*model.DebtTransaction, error) {
	if !e.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: debt amount must be positive", ErrInvalidAmount)
	}
	if err := checkScale(e.Amount); err != nil {
		return nil, err
	}
	t, _, err := l.post(tx, model.DebtAdded, e.Amount, e)
	return t, err
}

func (l *debtLedger) PostPayment(ctx context.Context, e DebtEntry) (*model.DebtTransaction, error) {
	if !e.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: payment amount must be positive", ErrInvalidAmount)
	}
	if err := checkScale(e.Amount); err != nil {
		return nil, err
	}
	var t *model.DebtTransaction
	err := runTx(ctx, l.customers.DB(), func(tx *gorm.DB) error {
		var c *model.Customer
		var err error
		if t, c, err = l.post(tx, model.DebtPayment, e.Amount.Neg(), e); err != nil {
			return err
		}
		return l.auditDebt(ctx, tx, e, t, c, "payment received")
	})
	return t, err
}

func (l *debtLedger) PostAdjustment(ctx context.Context, e DebtEntry) (*model.DebtTransaction, error) {
	if e.Amount.IsZero() {
		return nil, fmt.Errorf("%w: adjustment must not be zero", ErrInvalidAmount)
	}
	if err := checkScale(e.Amount); err != nil {
		return nil, err
	}
	var t *model.DebtTransaction
	err := runTx(ctx, l.customers.DB(), func(tx *gorm.DB) error {
		var c *model.Customer
		var err error
		if t, c, err = l.post(tx, model.DebtAdjustment, e.Amount, e); err != nil {
			return err
		}
		return l.auditDebt(ctx, tx, e, t, c, "debt adjusted")
	})
	return t, err
}

func checkScale(amount decimal.Decimal) error {
	if !units.FitsScale(amount) {
		return fmt.Errorf("%w: %s has more than %d decimal places", ErrInvalidAmount, amount, units.Scale)
	}
	return nil
}

func (l *debtLedger) auditDebt(ctx context.Context, tx *gorm.DB, e DebtEntry, t *model.DebtTransaction, c *model.Customer, what string) error {
	if l.audit == nil {
		return nil
	}
	_, err := l.audit.Record(ctx, tx, AuditEntry{
		Action:      model.AuditDebtPayment,
		Description: fmt.Sprintf("%s: %s, %s (%s -> %s)", what, c.Name, t.Amount, t.DebtBefore, t.DebtAfter),
		Metadata: map[string]any{
			"customer_id":    c.ID.String(),
			"transaction_id": t.ID.String(),
			"type":           string(t.TransactionType),
			"amount":         t.Amount.String(),
			"requested":      e.Amount.String(),
			"debt_before":    t.DebtBefore.String(),
			"debt_after":     t.DebtAfter.String(),
			"status":         string(c.Status),
		},
		UserID:   e.OperatorID,
		BranchID: e.BranchID,
	})
	return err
}

package service

import (
	"fmt"
	"strings"

	"github.com/marimovDEV/v0-crm-pos-system/internal/model"

	"github.com/shopspring/decimal"
)

// CreditPolicy decides whether a debt-method sale may go ahead for a customer.
type CreditPolicy string

const (
	// CreditAllow posts every debt sale and only blocks the customer after the
	// limit is reached. This is how the register has always behaved.
	CreditAllow CreditPolicy = "allow"
	// CreditRejectBlocked refuses debt sales to blocked customers.
	CreditRejectBlocked CreditPolicy = "reject_blocked"
	// CreditEnforceLimit also refuses sales that would push debt past the limit.
	CreditEnforceLimit CreditPolicy = "enforce_limit"
)

func ParseCreditPolicy(s string) (CreditPolicy, error) {
	switch p := CreditPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return CreditAllow, nil
	case CreditAllow, CreditRejectBlocked, CreditEnforceLimit:
		return p, nil
	}
	return "", fmt.Errorf("unknown credit policy %q", s)
}

// check returns ErrCreditRefused when the policy forbids selling amount on
// credit to c. c must come from a locked read.
func (p CreditPolicy) check(c *model.Customer, amount decimal.Decimal, canExtend func(*model.Customer, decimal.Decimal) bool) error {
	switch p {
	case CreditRejectBlocked:
		if c.IsBlocked() {
			return fmt.Errorf("%w: customer is %s", ErrCreditRefused, c.Status)
		}
	case CreditEnforceLimit:
		if c.IsBlocked() {
			return fmt.Errorf("%w: customer is %s", ErrCreditRefused, c.Status)
		}
		if !canExtend(c, amount) {
			return fmt.Errorf("%w: debt %s + %s exceeds limit %s", ErrCreditRefused, c.Debt, amount, c.DebtLimit)
		}
	}
	return nil
}

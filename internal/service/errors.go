package service

import (
	"errors"

	"github.com/marimovDEV/v0-crm-pos-system/internal/units"
)

// Domain errors. Callers match them with errors.Is; the HTTP layer maps each
// one to a status code. None of them leaves side effects behind.
var (
	ErrInvalidCart             = errors.New("invalid cart")
	ErrProductNotFound         = errors.New("product not found")
	ErrCustomerNotFound        = errors.New("customer not found")
	ErrSaleNotFound            = errors.New("sale not found")
	ErrInvalidUnitRatio        = units.ErrInvalidUnitRatio
	ErrReceiptGenerationFailed = errors.New("receipt id generation failed")
	ErrCreditRefused           = errors.New("credit refused")
	ErrInvalidAmount           = errors.New("invalid amount")
	ErrIncompatibleUnits       = errors.New("incompatible base units")

	ErrStockLedgerWriteFailed = errors.New("stock ledger write failed")
	ErrDebtLedgerWriteFailed  = errors.New("debt ledger write failed")
	ErrSaleProcessingFailed   = errors.New("sale processing failed")
)

// SaleProcessingError is returned when a sale was rolled back after its
// header had been written. Cause is kept for logging only and must not be
// shown to clients.
type SaleProcessingError struct {
	Cause error
}

func (e *SaleProcessingError) Error() string {
	if e.Cause == nil {
		return ErrSaleProcessingFailed.Error()
	}
	return ErrSaleProcessingFailed.Error() + ": " + e.Cause.Error()
}

func (e *SaleProcessingError) Is(target error) bool { return target == ErrSaleProcessingFailed }

func (e *SaleProcessingError) Unwrap() error { return e.Cause }

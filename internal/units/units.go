// Package units converts product quantities between the sell unit a customer
// buys in and the base unit stock is tracked in. All arithmetic is decimal.
package units

import (
	"errors"
	"fmt"

	"github.com/marimovDEV/v0-crm-pos-system/internal/model"

	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidUnitRatio is returned when a sell-unit conversion is asked for
	// a product whose ratio is zero or negative. It is a product data error.
	ErrInvalidUnitRatio = errors.New("invalid unit ratio")

	// ErrUnknownUnitType is returned for a unit type outside {base, sell}.
	ErrUnknownUnitType = errors.New("unknown unit type")
)

// Scale is the number of decimal places stock quantities and money amounts
// are stored with.
const Scale = 2

// FitsScale reports whether d is stored exactly at Scale decimal places.
// Trailing zeros do not count: 1.500 fits, 1.505 does not.
func FitsScale(d decimal.Decimal) bool {
	return d.Equal(d.Round(Scale))
}

// ToBaseUnits converts a line quantity to base units.
// sell: quantity × ratio. base: quantity unchanged.
func ToBaseUnits(quantity decimal.Decimal, unitType model.UnitType, ratio decimal.Decimal) (decimal.Decimal, error) {
	switch unitType {
	case model.UnitTypeBase:
		return quantity, nil
	case model.UnitTypeSell:
		if !ratio.IsPositive() {
			return decimal.Zero, fmt.Errorf("%w: %s", ErrInvalidUnitRatio, ratio.String())
		}
		return quantity.Mul(ratio), nil
	}
	return decimal.Zero, fmt.Errorf("%w: %q", ErrUnknownUnitType, unitType)
}

// ToSellUnits converts a base-unit quantity to sell units.
//
// A zero ratio yields 0 instead of an error. This mirrors the legacy register,
// which displayed 0 for misconfigured products; it hides bad product data and
// callers that need a hard failure must check the ratio themselves.
func ToSellUnits(baseQty, ratio decimal.Decimal) decimal.Decimal {
	if ratio.IsZero() {
		return decimal.Zero
	}
	return baseQty.Div(ratio)
}

// BaseUnitPrice is the price of one base unit for a product priced per sell
// unit, rounded to cents.
func BaseUnitPrice(sellPrice, ratio decimal.Decimal) (decimal.Decimal, error) {
	if !ratio.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrInvalidUnitRatio, ratio.String())
	}
	return sellPrice.Div(ratio).Round(Scale), nil
}

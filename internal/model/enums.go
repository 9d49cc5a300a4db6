package model

// Closed enumerations. Every type has Valid(); a value that is not listed
// here must not reach the database.

// UnitType tells whether a sale line quantity is expressed in the product's
// base unit or in its sell unit.
type UnitType string

const (
	UnitTypeBase UnitType = "base"
	UnitTypeSell UnitType = "sell"
)

func (u UnitType) Valid() bool {
	switch u {
	case UnitTypeBase, UnitTypeSell:
		return true
	}
	return false
}

// BaseUnit is the physical measure stock is tracked in.
type BaseUnit string

const (
	BaseUnitKg    BaseUnit = "kg"
	BaseUnitMeter BaseUnit = "m"
	BaseUnitM2    BaseUnit = "m2"
	BaseUnitM3    BaseUnit = "m3"
	BaseUnitLiter BaseUnit = "l"
	BaseUnitPiece BaseUnit = "dona"
)

func (u BaseUnit) Valid() bool {
	switch u {
	case BaseUnitKg, BaseUnitMeter, BaseUnitM2, BaseUnitM3, BaseUnitLiter, BaseUnitPiece:
		return true
	}
	return false
}

// SellUnit is the unit a customer buys in (bag, roll, box...).
type SellUnit string

const (
	SellUnitBag   SellUnit = "qop"
	SellUnitRoll  SellUnit = "rulon"
	SellUnitPiece SellUnit = "dona"
	SellUnitMeter SellUnit = "m"
	SellUnitM2    SellUnit = "m2"
	SellUnitM3    SellUnit = "m3"
	SellUnitKg    SellUnit = "kg"
	SellUnitCan   SellUnit = "bank"
	SellUnitBox   SellUnit = "korobka"
)

func (u SellUnit) Valid() bool {
	switch u {
	case SellUnitBag, SellUnitRoll, SellUnitPiece, SellUnitMeter, SellUnitM2,
		SellUnitM3, SellUnitKg, SellUnitCan, SellUnitBox:
		return true
	}
	return false
}

// PaymentMethod of a sale.
type PaymentMethod string

const (
	PaymentCash      PaymentMethod = "cash"
	PaymentCard      PaymentMethod = "card"
	PaymentTransfer  PaymentMethod = "transfer"
	PaymentDebt      PaymentMethod = "debt"
	PaymentMixed     PaymentMethod = "mixed"
	PaymentTruckSale PaymentMethod = "truck_sale"
)

func (p PaymentMethod) Valid() bool {
	switch p {
	case PaymentCash, PaymentCard, PaymentTransfer, PaymentDebt, PaymentMixed, PaymentTruckSale:
		return true
	}
	return false
}

// IsDebt reports whether the sale is paid on credit.
func (p PaymentMethod) IsDebt() bool { return p == PaymentDebt }

// CustomerStatus is the credit standing of a customer.
type CustomerStatus string

const (
	CustomerActive        CustomerStatus = "active"
	CustomerOverdue       CustomerStatus = "overdue"
	CustomerBlocked       CustomerStatus = "blocked"
	CustomerBlockedByDebt CustomerStatus = "blocked_by_debt"
)

func (s CustomerStatus) Valid() bool {
	switch s {
	case CustomerActive, CustomerOverdue, CustomerBlocked, CustomerBlockedByDebt:
		return true
	}
	return false
}

// CustomerType classifies buyers (regular walk-in, craftsman, foreman, company).
type CustomerType string

const (
	CustomerRegular  CustomerType = "regular"
	CustomerUsta     CustomerType = "usta"
	CustomerBrigadir CustomerType = "brigadir"
	CustomerFirma    CustomerType = "firma"
)

func (t CustomerType) Valid() bool {
	switch t {
	case CustomerRegular, CustomerUsta, CustomerBrigadir, CustomerFirma:
		return true
	}
	return false
}

// MovementType of a stock movement.
type MovementType string

const (
	MovementIn         MovementType = "in"
	MovementOut        MovementType = "out"
	MovementTransfer   MovementType = "transfer"
	MovementAdjustment MovementType = "adjustment"
)

func (m MovementType) Valid() bool {
	switch m {
	case MovementIn, MovementOut, MovementTransfer, MovementAdjustment:
		return true
	}
	return false
}

// DebtTransactionType of a customer debt ledger entry.
type DebtTransactionType string

const (
	DebtAdded      DebtTransactionType = "debt_added"
	DebtPayment    DebtTransactionType = "payment"
	DebtAdjustment DebtTransactionType = "adjustment"
)

func (t DebtTransactionType) Valid() bool {
	switch t {
	case DebtAdded, DebtPayment, DebtAdjustment:
		return true
	}
	return false
}

// AuditAction is the business event kind recorded in the audit log.
type AuditAction string

const (
	AuditSale          AuditAction = "sale"
	AuditProductAdd    AuditAction = "product_add"
	AuditProductEdit   AuditAction = "product_edit"
	AuditPriceChange   AuditAction = "price_change"
	AuditStockMove     AuditAction = "stock_move"
	AuditDebtPayment   AuditAction = "debt_payment"
	AuditSettingChange AuditAction = "setting_change"
)

func (a AuditAction) Valid() bool {
	switch a {
	case AuditSale, AuditProductAdd, AuditProductEdit, AuditPriceChange,
		AuditStockMove, AuditDebtPayment, AuditSettingChange:
		return true
	}
	return false
}

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

// OutboundEntry removes Quantity base units from a product. Quantity is the
// positive magnitude; the movement is stored with a negative sign.
type OutboundEntry struct {
	ProductID  uuid.UUID
	Quantity   decimal.Decimal
	BranchID   uuid.UUID
	OperatorID *uuid.UUID
	DocNumber  *string
	Reason     *string
}

// InboundEntry adds Quantity base units to a product (restocking).
type InboundEntry struct {
	ProductID  uuid.UUID
	Quantity   decimal.Decimal
	BranchID   uuid.UUID
	OperatorID *uuid.UUID
	DocNumber  *string
	Supplier   *string
	Batch      *string
	Reason     *string
}

// AdjustmentEntry applies a signed correction after a physical count.
type AdjustmentEntry struct {
	ProductID  uuid.UUID
	Delta      decimal.Decimal
	BranchID   uuid.UUID
	OperatorID *uuid.UUID
	DocNumber  *string
	Reason     *string
}

// TransferEntry moves Quantity base units from one product row to another,
// usually the same material stocked at two branches.
type TransferEntry struct {
	FromProductID uuid.UUID
	ToProductID   uuid.UUID
	Quantity      decimal.Decimal
	OperatorID    *uuid.UUID
	DocNumber     *string
	Reason        *string
}

// StockLedger is the only writer of Product.stock. Every change appends a
// StockMovement in the same transaction. Stock has no floor.
//
// The *Tx-less methods open their own transaction and also write a
// stock_move audit entry; the tx-scoped ones compose into a caller's
// transaction.
type StockLedger interface {
	RecordOutbound(ctx context.Context, tx *gorm.DB, e OutboundEntry) (*model.StockMovement, error)
	RecordInboundTx(ctx context.Context, tx *gorm.DB, e InboundEntry) (*model.StockMovement, error)
	RecordAdjustmentTx(ctx context.Context, tx *gorm.DB, e AdjustmentEntry) (*model.StockMovement, error)
	RecordTransferTx(ctx context.Context, tx *gorm.DB, e TransferEntry) ([]model.StockMovement, error)

	RecordInbound(ctx context.Context, e InboundEntry) (*model.StockMovement, error)
	RecordAdjustment(ctx context.Context, e AdjustmentEntry) (*model.StockMovement, error)
	RecordTransfer(ctx context.Context, e TransferEntry) ([]model.StockMovement, error)

	Movements(ctx context.Context, filter repository.StockMovementFilter) ([]model.StockMovement, int64, error)
}

type stockLedger struct {
	products  repository.ProductRepository
	movements repository.StockMovementRepository
	audit     AuditRecorder
}

func NewStockLedger(
	products repository.ProductRepository,
	movements repository.StockMovementRepository,
	audit AuditRecorder,
) StockLedger {
	return &stockLedger{products: products, movements: movements, audit: audit}
}

// movementSpec is the part of a movement that differs between entry kinds.
type movementSpec struct {
	productID  uuid.UUID
	kind       model.MovementType
	delta      decimal.Decimal
	branchID   *uuid.UUID
	operatorID *uuid.UUID
	docNumber  *string
	supplier   *string
	batch      *string
	reason     *string
}

// apply locks the product row, computes the new stock from the locked value,
// writes it and appends the movement.
func (l *stockLedger) apply(tx *gorm.DB, m movementSpec) (*model.StockMovement, error) {
	p, err := l.products.LockByIDTx(tx, m.productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrProductNotFound, m.productID)
		}
		return nil, fmt.Errorf("%w: lock product %s: %v", ErrStockLedgerWriteFailed, m.productID, err)
	}
	return l.applyLocked(tx, p, m)
}

func (l *stockLedger) applyLocked(tx *gorm.DB, p *model.Product, m movementSpec) (*model.StockMovement, error) {
	before := p.Stock
	after := before.Add(m.delta)
	if err := l.products.SetStockTx(tx, p.ID, after); err != nil {
		return nil, fmt.Errorf("%w: update stock of %s: %v", ErrStockLedgerWriteFailed, p.ID, err)
	}
	p.Stock = after

	branchID := p.BranchID
	if m.branchID != nil && *m.branchID != uuid.Nil {
		branchID = *m.branchID
	}
	mv := &model.StockMovement{
		ProductID:   p.ID,
		BranchID:    branchID,
		OperatorID:  m.operatorID,
		Type:        m.kind,
		Quantity:    m.delta,
		StockBefore: before,
		StockAfter:  after,
		DocNumber:   m.docNumber,
		Supplier:    m.supplier,
		Batch:       m.batch,
		Reason:      m.reason,
	}
	if err := l.movements.CreateTx(tx, mv); err != nil {
		return nil, fmt.Errorf("%w: movement for %s: %v", ErrStockLedgerWriteFailed, p.ID, err)
	}
	return mv, nil
}

func (l *stockLedger) RecordOutbound(_ context.Context, tx *gorm.DB, e OutboundEntry) (*model.StockMovement, error) {
	if !e.Quantity.IsPositive() {
		return nil, fmt.Errorf("%w: outbound quantity must be positive", ErrInvalidAmount)
	}
	if !units.FitsScale(e.Quantity) {
		return nil, fmt.Errorf("%w: outbound quantity %s has more than %d decimal places", ErrInvalidAmount, e.Quantity, units.Scale)
	}
	return l.apply(tx, movementSpec{
		productID:  e.ProductID,
		kind:       model.MovementOut,
		delta:      e.Quantity.Neg(),
		branchID:   &e.BranchID,
		operatorID: e.OperatorID,
		docNumber:  e.DocNumber,
		reason:     e.Reason,
	})
}

func (l *stockLedger) RecordInboundTx(_ context.Context, tx *gorm.DB, e InboundEntry) (*model.StockMovement, error) {
	if !e.Quantity.IsPositive() {
		return nil, fmt.Errorf("%w: inbound quantity must be positive", ErrInvalidAmount)
	}
	if !units.FitsScale(e.Quantity) {
		return nil, fmt.Errorf("%w: inbound quantity %s has more than %d decimal places", ErrInvalidAmount, e.Quantity, units.Scale)
	}
	return l.apply(tx, movementSpec{
		productID:  e.ProductID,
		kind:       model.MovementIn,
		delta:      e.Quantity,
		branchID:   &e.BranchID,
		operatorID: e.OperatorID,
		docNumber:  e.DocNumber,
		supplier:   e.Supplier,
		batch:      e.Batch,
		reason:     e.Reason,
	})
}

func (l *stockLedger) RecordAdjustmentTx(_ context.Context, tx *gorm.DB, e AdjustmentEntry) (*model.StockMovement, error) {
	if e.Delta.IsZero() {
		return nil, fmt.Errorf("%w: adjustment delta must not be zero", ErrInvalidAmount)
	}
	if !units.FitsScale(e.Delta) {
		return nil, fmt.Errorf("%w: adjustment delta %s has more than %d decimal places", ErrInvalidAmount, e.Delta, units.Scale)
	}
	return l.apply(tx, movementSpec{
		productID:  e.ProductID,
		kind:       model.MovementAdjustment,
		delta:      e.Delta,
		branchID:   &e.BranchID,
		operatorID: e.OperatorID,
		docNumber:  e.DocNumber,
		reason:     e.Reason,
	})
}

// RecordTransferTx writes two transfer movements sharing one document number:
// -q on the source, +q on the destination. Both rows are locked in ascending
// id order.
func (l *stockLedger) RecordTransferTx(_ context.Context, tx *gorm.DB, e TransferEntry) ([]model.StockMovement, error) {
	if !e.Quantity.IsPositive() {
		return nil, fmt.Errorf("%w: transfer quantity must be positive", ErrInvalidAmount)
	}
	if !units.FitsScale(e.Quantity) {
		return nil, fmt.Errorf("%w: transfer quantity %s has more than %d decimal places", ErrInvalidAmount, e.Quantity, units.Scale)
	}
	if e.FromProductID == e.ToProductID {
		return nil, fmt.Errorf("%w: transfer source and destination are the same product", ErrInvalidAmount)
	}

	locked, err := l.products.LockByIDsTx(tx, []uuid.UUID{e.FromProductID, e.ToProductID})
	if err != nil {
		return nil, fmt.Errorf("%w: lock transfer products: %v", ErrStockLedgerWriteFailed, err)
	}
	var from, to *model.Product
	for i := range locked {
		switch locked[i].ID {
		case e.FromProductID:
			from = &locked[i]
		case e.ToProductID:
			to = &locked[i]
		}
	}
	if from == nil {
		return nil, fmt.Errorf("%w: %s", ErrProductNotFound, e.FromProductID)
	}
	if to == nil {
		return nil, fmt.Errorf("%w: %s", ErrProductNotFound, e.ToProductID)
	}
	if from.BaseUnit != to.BaseUnit {
		return nil, fmt.Errorf("%w: %s vs %s", ErrIncompatibleUnits, from.BaseUnit, to.BaseUnit)
	}

	docNumber := e.DocNumber
	if docNumber == nil {
		generated := "TRF-" + uuid.NewString()[:8]
		docNumber = &generated
	}

	out, err := l.applyLocked(tx, from, movementSpec{
		kind:       model.MovementTransfer,
		delta:      e.Quantity.Neg(),
		operatorID: e.OperatorID,
		docNumber:  docNumber,
		reason:     e.Reason,
	})
	if err != nil {
		return nil, err
	}
	in, err := l.applyLocked(tx, to, movementSpec{
		kind:       model.MovementTransfer,
		delta:      e.Quantity,
		operatorID: e.OperatorID,
		docNumber:  docNumber,
		reason:     e.Reason,
	})
	if err != nil {
		return nil, err
	}
	return []model.StockMovement{*out, *in}, nil
}

func (l *stockLedger) RecordInbound(ctx context.Context, e InboundEntry) (*model.StockMovement, error) {
	var mv *model.StockMovement
	err := runTx(ctx, l.products.DB(), func(tx *gorm.DB) error {
		var err error
		if mv, err = l.RecordInboundTx(ctx, tx, e); err != nil {
			return err
		}
		return l.auditMove(ctx, tx, e.OperatorID, mv, "stock received")
	})
	return mv, err
}

func (l *stockLedger) RecordAdjustment(ctx context.Context, e AdjustmentEntry) (*model.StockMovement, error) {
	var mv *model.StockMovement
	err := runTx(ctx, l.products.DB(), func(tx *gorm.DB) error {
		var err error
		if mv, err = l.RecordAdjustmentTx(ctx, tx, e); err != nil {
			return err
		}
		return l.auditMove(ctx, tx, e.OperatorID, mv, "stock adjusted")
	})
	return mv, err
}

func (l *stockLedger) RecordTransfer(ctx context.Context, e TransferEntry) ([]model.StockMovement, error) {
	var mvs []model.StockMovement
	err := runTx(ctx, l.products.DB(), func(tx *gorm.DB) error {
		var err error
		if mvs, err = l.RecordTransferTx(ctx, tx, e); err != nil {
			return err
		}
		for i := range mvs {
			if err := l.auditMove(ctx, tx, e.OperatorID, &mvs[i], "stock transferred"); err != nil {
				return err
			}
		}
		return nil
	})
	return mvs, err
}

func (l *stockLedger) Movements(ctx context.Context, filter repository.StockMovementFilter) ([]model.StockMovement, int64, error) {
	return l.movements.List(ctx, filter)
}

func (l *stockLedger) auditMove(ctx context.Context, tx *gorm.DB, operatorID *uuid.UUID, mv *model.StockMovement, what string) error {
	if l.audit == nil {
		return nil
	}
	branchID := mv.BranchID
	meta := map[string]any{
		"movement_id":  mv.ID.String(),
		"product_id":   mv.ProductID.String(),
		"type":         string(mv.Type),
		"quantity":     mv.Quantity.String(),
		"stock_before": mv.StockBefore.String(),
		"stock_after":  mv.StockAfter.String(),
	}
	if mv.DocNumber != nil {
		meta["doc_number"] = *mv.DocNumber
	}
	_, err := l.audit.Record(ctx, tx, AuditEntry{
		Action:      model.AuditStockMove,
		Description: fmt.Sprintf("%s: %s (%s -> %s)", what, mv.Quantity, mv.StockBefore, mv.StockAfter),
		Metadata:    meta,
		UserID:      operatorID,
		BranchID:    &branchID,
	})
	return err
}

package service

import (
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"gorm.io/gorm"
)

const (
	receiptPrefix      = "SALE"
	receiptMaxAttempts = 5
	receiptSavepoint   = "sale_receipt"
)

// ReceiptGenerator builds SALE-yyyyMMddHHmmss-NNN identifiers and retries on
// collision. A collision is either a committed sale the existence check sees,
// or a concurrent sale not yet committed, which only the unique index on
// sales.receipt_id catches. Both count against the same attempt budget.
type ReceiptGenerator struct {
	now    func() time.Time
	mu     sync.Mutex
	rnd    *rand.Rand
	exists func(tx *gorm.DB, receiptID string) (bool, error)
}

func NewReceiptGenerator(exists func(tx *gorm.DB, receiptID string) (bool, error)) *ReceiptGenerator {
	return &ReceiptGenerator{
		now:    time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		exists: exists,
	}
}

// WithClock replaces the time source. Used by tests.
func (g *ReceiptGenerator) WithClock(now func() time.Time) *ReceiptGenerator {
	g.now = now
	return g
}

// WithSource replaces the random source. Used by tests.
func (g *ReceiptGenerator) WithSource(src rand.Source) *ReceiptGenerator {
	g.mu.Lock()
	g.rnd = rand.New(src)
	g.mu.Unlock()
	return g
}

func (g *ReceiptGenerator) candidate() string {
	g.mu.Lock()
	n := 100 + g.rnd.Intn(900)
	g.mu.Unlock()
	return fmt.Sprintf("%s-%s-%d", receiptPrefix, g.now().Format("20060102150405"), n)
}

// Next returns an id the existence check does not see. Tests use it without
// a transaction.
func (g *ReceiptGenerator) Next(tx *gorm.DB) (string, error) {
	return g.Assign(tx, nil)
}

// Assign picks a receipt id and runs insert with it under a savepoint. When
// insert reports gorm.ErrDuplicatedKey the transaction rolls back to the
// savepoint and a fresh id is tried. A nil insert only runs the existence
// check.
func (g *ReceiptGenerator) Assign(tx *gorm.DB, insert func(receiptID string) error) (string, error) {
	for attempt := 0; attempt < receiptMaxAttempts; attempt++ {
		id := g.candidate()
		taken, err := g.exists(tx, id)
		if err != nil {
			return "", err
		}
		if taken {
			continue
		}
		if insert == nil {
			return id, nil
		}

		if err := tx.SavePoint(receiptSavepoint).Error; err != nil {
			return "", fmt.Errorf("savepoint: %w", err)
		}
		err = insert(id)
		if err == nil {
			return id, nil
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return "", err
		}
		if err := tx.RollbackTo(receiptSavepoint).Error; err != nil {
			return "", fmt.Errorf("rollback to savepoint: %w", err)
		}
	}
	return "", fmt.Errorf("%w: %d attempts collided", ErrReceiptGenerationFailed, receiptMaxAttempts)
}

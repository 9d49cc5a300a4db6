package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/marimovDEV/v0-crm-pos-system/internal/infra"
	"github.com/marimovDEV/v0-crm-pos-system/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// SaleFinder loads a committed sale with its items.
type SaleFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.Sale, error)
}

// ReceiptWorker renders the PDF receipt of a sale after it commits.
type ReceiptWorker struct {
	sales       SaleFinder
	header      infra.ReceiptHeader
	storagePath string
	render      func(*model.Sale, infra.ReceiptHeader, string) (string, error)
}

func NewReceiptWorker(sales SaleFinder, header infra.ReceiptHeader, storagePath string) *ReceiptWorker {
	return &ReceiptWorker{
		sales:       sales,
		header:      header,
		storagePath: storagePath,
		render:      infra.GenerateReceiptPDF,
	}
}

func (w *ReceiptWorker) Process(ctx context.Context, raw json.RawMessage) error {
	var payload SaleReceiptPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return Permanent(fmt.Errorf("receipt_worker: invalid payload: %w", err))
	}
	saleID, err := uuid.Parse(payload.SaleID)
	if err != nil {
		return Permanent(fmt.Errorf("receipt_worker: invalid sale id: %w", err))
	}

	sale, err := w.sales.FindByID(ctx, saleID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Permanent(fmt.Errorf("receipt_worker: sale %s not found", saleID))
	}
	if err != nil {
		return fmt.Errorf("receipt_worker: load sale: %w", err)
	}

	path, err := w.render(sale, w.header, w.storagePath)
	if err != nil {
		return err
	}
	log.Info().Str("receipt_id", sale.ReceiptID).Str("path", path).Msg("receipt_worker: receipt rendered")
	return nil
}

package worker

import (
	"context"
	"time"

	"github.com/marimovDEV/v0-crm-pos-system/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// LowStockLister lists products at or below MinStock (uuid.Nil = all branches).
type LowStockLister interface {
	ListLowStock(ctx context.Context, branchID uuid.UUID) ([]model.Product, error)
}

// AlertEnqueuer is satisfied by *Dispatcher.
type AlertEnqueuer interface {
	EnqueueStockAlert(ctx context.Context, productID uuid.UUID) error
}

// StartStockSweep periodically re-enqueues alerts for every low-stock
// product. It catches stock that drifted low through adjustments or
// transfers, which do not enqueue alerts themselves. The alert worker's
// throttle keeps this from spamming.
func StartStockSweep(ctx context.Context, products LowStockLister, alerts AlertEnqueuer, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		log.Info().Dur("interval", interval).Msg("stock_sweep: started")
		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("stock_sweep: shutting down")
				return
			case <-ticker.C:
				sweepOnce(ctx, products, alerts)
			}
		}
	}()
}

func sweepOnce(ctx context.Context, products LowStockLister, alerts AlertEnqueuer) int {
	low, err := products.ListLowStock(ctx, uuid.Nil)
	if err != nil {
		log.Error().Err(err).Msg("stock_sweep: list low stock")
		return 0
	}
	queued := 0
	for _, p := range low {
		if err := alerts.EnqueueStockAlert(ctx, p.ID); err != nil {
			log.Error().Err(err).Str("product_id", p.ID.String()).Msg("stock_sweep: enqueue failed")
			continue
		}
		queued++
	}
	if queued > 0 {
		log.Info().Int("queued", queued).Msg("stock_sweep: alerts enqueued")
	}
	return queued
}

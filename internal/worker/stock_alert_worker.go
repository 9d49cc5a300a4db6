package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/marimovDEV/v0-crm-pos-system/internal/infra"
	"github.com/marimovDEV/v0-crm-pos-system/internal/model"

	"github.com/bsm/redislock"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// ProductFinder loads a product by id.
type ProductFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error)
}

// Throttle admits a key at most once per window. release undoes the
// admission, so a failed send can be retried.
type Throttle interface {
	Acquire(ctx context.Context, key string, window time.Duration) (release func(context.Context) error, ok bool, err error)
}

// RedisThrottle keeps one redislock per key alive for the whole window.
// Locks are never released on success; expiry ends the window.
type RedisThrottle struct{ locker *redislock.Client }

func NewRedisThrottle(locker *redislock.Client) *RedisThrottle {
	return &RedisThrottle{locker: locker}
}

func (t *RedisThrottle) Acquire(ctx context.Context, key string, window time.Duration) (func(context.Context) error, bool, error) {
	lock, err := t.locker.Obtain(ctx, key, window, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return lock.Release, true, nil
}

// AlertMailer is the part of infra.Mailer the alert worker needs.
type AlertMailer interface {
	Enabled() bool
	Send(to, subject, body, attachmentPath string) error
}

// StockAlertWorker notifies about products at or below MinStock, at most
// once per product per throttle window. Without SMTP the alert is only logged.
type StockAlertWorker struct {
	products ProductFinder
	throttle Throttle
	window   time.Duration
	mailer   AlertMailer
	breaker  *infra.CircuitBreaker
	to       string
}

func NewStockAlertWorker(products ProductFinder, throttle Throttle, window time.Duration, mailer AlertMailer, breaker *infra.CircuitBreaker, to string) *StockAlertWorker {
	return &StockAlertWorker{
		products: products,
		throttle: throttle,
		window:   window,
		mailer:   mailer,
		breaker:  breaker,
		to:       to,
	}
}

func alertKey(productID uuid.UUID) string { return "alert:stock:" + productID.String() }

func (w *StockAlertWorker) Process(ctx context.Context, raw json.RawMessage) error {
	var payload StockAlertPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return Permanent(fmt.Errorf("stock_alert_worker: invalid payload: %w", err))
	}
	productID, err := uuid.Parse(payload.ProductID)
	if err != nil {
		return Permanent(fmt.Errorf("stock_alert_worker: invalid product id: %w", err))
	}

	p, err := w.products.FindByID(ctx, productID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil // deleted since the sale
	}
	if err != nil {
		return fmt.Errorf("stock_alert_worker: load product: %w", err)
	}
	if !p.IsLowStock() {
		return nil // restocked before we got here
	}

	release, ok, err := w.throttle.Acquire(ctx, alertKey(productID), w.window)
	if err != nil {
		return fmt.Errorf("stock_alert_worker: throttle: %w", err)
	}
	if !ok {
		log.Debug().Str("product_id", productID.String()).Msg("stock_alert_worker: already alerted in this window")
		return nil
	}

	logEvt := log.Warn().
		Str("product_id", p.ID.String()).
		Str("product", p.Name).
		Str("stock", p.StockDisplay()).
		Str("min_stock", p.MinStock.String())

	if w.mailer == nil || !w.mailer.Enabled() || w.to == "" {
		logEvt.Msg("low stock")
		return nil
	}

	subject, body := infra.StockAlertMessage(p.Name, p.Stock.String(), p.MinStock.String(), string(p.BaseUnit))
	send := func() error { return w.mailer.Send(w.to, subject, body, "") }
	if w.breaker != nil {
		err = w.breaker.Execute(send)
	} else {
		err = send()
	}
	if err != nil {
		if rerr := release(ctx); rerr != nil && !errors.Is(rerr, redislock.ErrLockNotHeld) {
			log.Error().Err(rerr).Str("product_id", productID.String()).Msg("stock_alert_worker: throttle release failed")
		}
		return fmt.Errorf("stock_alert_worker: send: %w", err)
	}
	logEvt.Str("to", w.to).Msg("low stock alert sent")
	return nil
}

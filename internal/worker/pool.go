package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	QueueSaleReceipt = "jobs:sale_receipt"
	QueueStockAlert  = "jobs:stock_alert"

	JobSaleReceipt = "sale_receipt"
	JobStockAlert  = "stock_alert"

	// MaxAttempts is how many times a job runs before it goes to the DLQ.
	MaxAttempts = 3
)

// Job is the generic envelope for all async tasks.
type Job struct {
	Type     string          `json:"type"`
	Payload  json.RawMessage `json:"payload"`
	Attempts int             `json:"attempts"`
}

type SaleReceiptPayload struct {
	SaleID string `json:"sale_id"`
}

type StockAlertPayload struct {
	ProductID string `json:"product_id"`
}

// Dispatcher enqueues async jobs into Redis lists.
// The worker pool dequeues them via BRPOP.
type Dispatcher struct {
	rdb *redis.Client
}

func NewDispatcher(rdb *redis.Client) *Dispatcher {
	return &Dispatcher{rdb: rdb}
}

// EnqueueSaleReceipt asks for the PDF receipt of a committed sale.
func (d *Dispatcher) EnqueueSaleReceipt(ctx context.Context, saleID uuid.UUID) error {
	return d.enqueue(ctx, QueueSaleReceipt, JobSaleReceipt, SaleReceiptPayload{SaleID: saleID.String()})
}

// EnqueueStockAlert reports a product that ended a sale at or below MinStock.
func (d *Dispatcher) EnqueueStockAlert(ctx context.Context, productID uuid.UUID) error {
	return d.enqueue(ctx, QueueStockAlert, JobStockAlert, StockAlertPayload{ProductID: productID.String()})
}

func (d *Dispatcher) enqueue(ctx context.Context, queue, jobType string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return d.push(ctx, queue, Job{Type: jobType, Payload: data})
}

func (d *Dispatcher) push(ctx context.Context, queue string, job Job) error {
	encoded, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return d.rdb.LPush(ctx, queue, encoded).Err()
}

// Processor handles one job type. Returning an error schedules a retry
// unless the error is Permanent.
type Processor interface {
	Process(ctx context.Context, payload json.RawMessage) error
}

// ProcessorFunc adapts a function to Processor.
type ProcessorFunc func(ctx context.Context, payload json.RawMessage) error

func (f ProcessorFunc) Process(ctx context.Context, payload json.RawMessage) error {
	return f(ctx, payload)
}

type permanentError struct{ err error }

func (e permanentError) Error() string { return e.err.Error() }
func (e permanentError) Unwrap() error { return e.err }

// Permanent marks err as not worth retrying; the job goes straight to the DLQ.
func Permanent(err error) error { return permanentError{err: err} }

func isPermanent(err error) bool {
	var p permanentError
	return errors.As(err, &p)
}

// Pool consumes both job queues with a fixed number of goroutines.
type Pool struct {
	rdb        *redis.Client
	dispatcher *Dispatcher
	processors map[string]Processor
	wg         sync.WaitGroup
}

func NewPool(rdb *redis.Client) *Pool {
	return &Pool{
		rdb:        rdb,
		dispatcher: NewDispatcher(rdb),
		processors: make(map[string]Processor),
	}
}

// Register binds a processor to a job type. Call before Start.
func (p *Pool) Register(jobType string, proc Processor) {
	p.processors[jobType] = proc
}

// Start launches numWorkers goroutines. Each blocks on BRPOP, so idle
// workers cost nothing.
func (p *Pool) Start(ctx context.Context, numWorkers int) {
	for i := 0; i < numWorkers; i++ {
		p.wg.Add(1)
		go func(id int) {
			defer p.wg.Done()
			p.run(ctx, id)
		}(i)
	}
	log.Info().Msgf("worker pool started with %d workers", numWorkers)
}

// Wait blocks until every worker has returned after ctx cancellation.
func (p *Pool) Wait() { p.wg.Wait() }

func (p *Pool) run(ctx context.Context, id int) {
	queues := []string{QueueSaleReceipt, QueueStockAlert}
	for {
		select {
		case <-ctx.Done():
			log.Info().Msgf("worker %d shutting down", id)
			return
		default:
			// Blocking pop; waits up to 5s then loops to check ctx
			result, err := p.rdb.BRPop(ctx, 5*time.Second, queues...).Result()
			if err != nil {
				if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
					log.Error().Err(err).Int("worker", id).Msg("worker: brpop failed")
					time.Sleep(time.Second)
				}
				continue
			}
			if len(result) < 2 {
				continue
			}
			queue := result[0]
			job, err := p.handle(ctx, result[1])
			p.settle(ctx, queue, job, err)
		}
	}
}

// handle decodes and runs one job. The returned Job has Attempts already
// incremented.
func (p *Pool) handle(ctx context.Context, raw string) (Job, error) {
	var job Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		return Job{Type: "unknown", Payload: json.RawMessage(fmt.Sprintf("%q", raw))}, Permanent(fmt.Errorf("decode job: %w", err))
	}
	job.Attempts++

	proc, ok := p.processors[job.Type]
	if !ok {
		return job, Permanent(fmt.Errorf("no processor for job type %q", job.Type))
	}
	log.Debug().Str("type", job.Type).Int("attempt", job.Attempts).Msg("processing job")
	return job, proc.Process(ctx, job.Payload)
}

// settle re-queues a failed job or moves it to the DLQ once retries are
// exhausted.
func (p *Pool) settle(ctx context.Context, queue string, job Job, err error) {
	if err == nil {
		return
	}
	if isPermanent(err) || job.Attempts >= MaxAttempts {
		SendToDLQ(ctx, p.rdb, queue, job.Type, job.Payload, err.Error(), job.Attempts)
		return
	}
	log.Warn().Err(err).Str("type", job.Type).Int("attempt", job.Attempts).Msg("job failed, retrying")
	time.Sleep(backoff(job.Attempts))
	if perr := p.dispatcher.push(ctx, queue, job); perr != nil {
		log.Error().Err(perr).Str("queue", queue).Msg("worker: requeue failed")
	}
}

// backoff grows 1s, 2s, 4s... capped at 30s.
func backoff(attempt int) time.Duration {
	d := time.Second << (attempt - 1)
	if d > 30*time.Second || d <= 0 {
		return 30 * time.Second
	}
	return d
}

package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

const (
	QueueReceipt = "jobs:receipt"
	QueueAlert   = "jobs:alert"
)

// Job is the generic envelope for all async tasks.
type Job struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// ReceiptJobPayload asks a worker to render and deliver one sale's receipt.
type ReceiptJobPayload struct {
	SaleID        string  `json:"sale_id"`
	CustomerEmail *string `json:"customer_email,omitempty"`
}

// AlertJobPayload notifies the back office that an entity fell below its
// stock threshold.
type AlertJobPayload struct {
	EntityType string `json:"entity_type"`
	Name       string `json:"name"`
	Remaining  string `json:"remaining"`
	Threshold  string `json:"threshold"`
}

// Dispatcher enqueues async jobs into Redis lists.
// The worker pool dequeues them via BRPOP.
type Dispatcher struct {
	rdb *redis.Client
}

func NewDispatcher(rdb *redis.Client) *Dispatcher {
	return &Dispatcher{rdb: rdb}
}

// EnqueueReceipt pushes a receipt render+deliver job to Redis.
func (d *Dispatcher) EnqueueReceipt(ctx context.Context, saleID uuid.UUID, customerEmail *string) error {
	return d.enqueue(ctx, QueueReceipt, "receipt", ReceiptJobPayload{
		SaleID:        saleID.String(),
		CustomerEmail: customerEmail,
	})
}

// EnqueueLowStock pushes a low-stock alert job to Redis.
// Satisfies service.StockAlertSink.
func (d *Dispatcher) EnqueueLowStock(ctx context.Context, entityType, name string, remaining, threshold decimal.Decimal) error {
	return d.enqueue(ctx, QueueAlert, "low_stock", AlertJobPayload{
		EntityType: entityType,
		Name:       name,
		Remaining:  remaining.String(),
		Threshold:  threshold.String(),
	})
}

func (d *Dispatcher) enqueue(ctx context.Context, queue, jobType string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	job := Job{Type: jobType, Payload: data}
	encoded, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return d.rdb.LPush(ctx, queue, encoded).Err()
}

// Handlers routes each queue to its processor.
type Handlers struct {
	Receipt *ReceiptWorker
	Alert   *AlertWorker
}

// StartWorkerPool launches numWorkers goroutines consuming both queues.
// Each goroutine blocks on BRPOP — zero CPU when idle.
func StartWorkerPool(ctx context.Context, rdb *redis.Client, numWorkers int, h Handlers) {
	for i := 0; i < numWorkers; i++ {
		go runWorker(ctx, rdb, i, h)
	}
	log.Info().Msgf("worker pool started with %d workers", numWorkers)
}

func runWorker(ctx context.Context, rdb *redis.Client, id int, h Handlers) {
	queues := []string{QueueReceipt, QueueAlert}
	for {
		select {
		case <-ctx.Done():
			log.Info().Msgf("worker %d shutting down", id)
			return
		default:
			// Blocking pop — waits up to 5s then loops to check ctx
			result, err := rdb.BRPop(ctx, 5*time.Second, queues...).Result()
			if err != nil {
				continue // timeout or context cancelled
			}
			if len(result) < 2 {
				continue
			}
			processJob(ctx, h, result[0], result[1])
		}
	}
}

func processJob(ctx context.Context, h Handlers, queue, raw string) {
	var job Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		log.Error().Str("queue", queue).Err(err).Msg("failed to unmarshal job")
		return
	}

	switch queue {
	case QueueReceipt:
		if h.Receipt != nil {
			h.Receipt.Process(ctx, job.Payload)
		}
	case QueueAlert:
		if h.Alert != nil {
			h.Alert.Process(ctx, job.Payload)
		}
	default:
		log.Warn().Str("queue", queue).Str("type", job.Type).Msg("job from unknown queue dropped")
	}
}

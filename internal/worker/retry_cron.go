package worker

// retry_cron.go
// Background goroutine that periodically re-attempts delivery of receipts
// stuck in pending/failed with a next_retry_at in the past. Respects the
// SMTP circuit breaker to avoid hammering a downed relay.

import (
	"context"
	"time"

	"aromapos/internal/infra"
	"aromapos/internal/repository"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	retryTickInterval = 30 * time.Second
	retryBatchSize    = 10
)

// RetryCronConfig holds all dependencies for the retry goroutine.
type RetryCronConfig struct {
	Receipts   repository.ReceiptRepository
	Worker     *ReceiptWorker
	CB         *infra.CircuitBreaker
	RDB        *redis.Client
	Dispatcher *Dispatcher
}

// StartRetryCron launches a background goroutine that ticks every 30s,
// queries receipts due for retry, and re-enqueues them through the dispatcher.
// It respects the context for graceful shutdown.
func StartRetryCron(ctx context.Context, cfg RetryCronConfig) {
	go func() {
		ticker := time.NewTicker(retryTickInterval)
		defer ticker.Stop()

		log.Info().Msg("retry_cron: started")

		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("retry_cron: shutting down")
				return
			case <-ticker.C:
				processRetries(ctx, cfg)
			}
		}
	}()
}

func processRetries(ctx context.Context, cfg RetryCronConfig) {
	// If CB is open, skip entirely — don't hammer a downed relay
	if cfg.CB.State() == infra.CBOpen {
		log.Debug().Msg("retry_cron: circuit breaker is open, skipping tick")
		return
	}

	now := time.Now()
	receipts, err := cfg.Receipts.FindPendingRetries(ctx, now, retryBatchSize)
	if err != nil {
		log.Error().Err(err).Msg("retry_cron: failed to query pending retries")
		return
	}
	if len(receipts) == 0 {
		return
	}

	log.Info().Int("count", len(receipts)).Msg("retry_cron: processing pending receipts")

	for i := range receipts {
		rcpt := &receipts[i]

		// Check CB state before each delivery — it may have tripped mid-batch
		if cfg.CB.State() == infra.CBOpen {
			log.Debug().Msg("retry_cron: circuit breaker opened mid-batch, stopping")
			return
		}

		if rcpt.RetryCount >= MaxReceiptRetries {
			// Terminal — park in the DLQ for manual inspection.
			reason := "max retries exceeded"
			if rcpt.LastError != nil {
				reason = *rcpt.LastError
			}
			payload := []byte(`{"sale_id":"` + rcpt.SaleID.String() + `"}`)
			SendToDLQ(ctx, cfg.RDB, QueueReceipt, "receipt", payload, reason, rcpt.RetryCount)

			rcpt.NextRetryAt = nil
			if err := cfg.Receipts.Update(ctx, rcpt); err != nil {
				log.Error().Err(err).Str("receipt_id", rcpt.ID.String()).Msg("retry_cron: failed to park receipt")
			}
			continue
		}

		if err := cfg.Dispatcher.EnqueueReceipt(ctx, rcpt.SaleID, rcpt.CustomerEmail); err != nil {
			log.Error().Err(err).Str("receipt_id", rcpt.ID.String()).Msg("retry_cron: failed to re-enqueue")
			continue
		}
		// Push next_retry_at forward so the next tick doesn't double-enqueue
		// while the worker is still processing.
		next := now.Add(computeRetryBackoff(rcpt.RetryCount + 1))
		rcpt.NextRetryAt = &next
		if err := cfg.Receipts.Update(ctx, rcpt); err != nil {
			log.Error().Err(err).Str("receipt_id", rcpt.ID.String()).Msg("retry_cron: failed to bump retry time")
		}
	}
}

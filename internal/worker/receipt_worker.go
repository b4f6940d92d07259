package worker

// receipt_worker.go
// Processes receipt jobs from QueueReceipt: renders the PDF, then mails it to
// the customer when an address was given. SMTP calls go through the circuit
// breaker; a failed send schedules the receipt for the retry cron.

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"aromapos/internal/infra"
	"aromapos/internal/model"
	"aromapos/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// MaxReceiptRetries before a receipt lands in the DLQ.
const MaxReceiptRetries = 5

type ReceiptWorker struct {
	sales          repository.SaleRepository
	receipts       repository.ReceiptRepository
	mailer         *infra.Mailer
	cb             *infra.CircuitBreaker
	pdfStoragePath string
	storeName      string
}

func NewReceiptWorker(
	sales repository.SaleRepository,
	receipts repository.ReceiptRepository,
	mailer *infra.Mailer,
	cb *infra.CircuitBreaker,
	pdfStoragePath string,
	storeName string,
) *ReceiptWorker {
	return &ReceiptWorker{
		sales:          sales,
		receipts:       receipts,
		mailer:         mailer,
		cb:             cb,
		pdfStoragePath: pdfStoragePath,
		storeName:      storeName,
	}
}

// Process handles a single receipt job:
//  1. Parse ReceiptJobPayload
//  2. Fetch the Sale (with items) and its Receipt row
//  3. Render the PDF (idempotent — re-renders overwrite)
//  4. Mail it through the circuit breaker when an email was given
//  5. Record the outcome; failures schedule the retry cron
func (w *ReceiptWorker) Process(ctx context.Context, raw json.RawMessage) {
	var payload ReceiptJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("receipt_worker: invalid payload")
		return
	}

	saleID, err := uuid.Parse(payload.SaleID)
	if err != nil {
		log.Error().Str("sale_id", payload.SaleID).Msg("receipt_worker: invalid sale_id")
		return
	}

	sale, err := w.sales.FindByID(ctx, saleID)
	if err != nil {
		log.Error().Err(err).Str("sale_id", payload.SaleID).Msg("receipt_worker: sale not found")
		return
	}
	rcpt, err := w.receipts.FindBySaleID(ctx, saleID)
	if err != nil {
		log.Error().Err(err).Str("sale_id", payload.SaleID).Msg("receipt_worker: receipt row not found")
		return
	}

	pdfPath, err := infra.GenerateReceiptPDF(sale, w.storeName, w.pdfStoragePath)
	if err != nil {
		w.recordFailure(ctx, rcpt, fmt.Errorf("render: %w", err))
		return
	}
	rcpt.PDFPath = &pdfPath
	rcpt.Status = model.ReceiptRendered
	if err := w.receipts.Update(ctx, rcpt); err != nil {
		log.Error().Err(err).Str("sale_id", payload.SaleID).Msg("receipt_worker: failed to persist pdf path")
	}

	if payload.CustomerEmail == nil || *payload.CustomerEmail == "" {
		// Nothing to mail — rendered is the terminal state.
		return
	}

	sendErr := w.cb.Execute(func() error {
		return w.mailer.SendReceipt(
			*payload.CustomerEmail,
			fmt.Sprintf("%s — receipt #%d", w.storeName, sale.ReceiptNumber),
			fmt.Sprintf("Attached is your purchase receipt.\nTotal: $%s", sale.Total.StringFixed(2)),
			pdfPath,
		)
	})
	if sendErr != nil {
		w.recordFailure(ctx, rcpt, sendErr)
		return
	}

	rcpt.Status = model.ReceiptSent
	rcpt.NextRetryAt = nil
	rcpt.LastError = nil
	if err := w.receipts.Update(ctx, rcpt); err != nil {
		log.Error().Err(err).Str("sale_id", payload.SaleID).Msg("receipt_worker: failed to persist sent status")
		return
	}
	log.Info().Str("to", *payload.CustomerEmail).Int("receipt", sale.ReceiptNumber).
		Msg("receipt_worker: receipt sent")
}

func (w *ReceiptWorker) recordFailure(ctx context.Context, rcpt *model.Receipt, cause error) {
	rcpt.RetryCount++
	msg := cause.Error()
	rcpt.LastError = &msg
	rcpt.Status = model.ReceiptFailed

	if rcpt.RetryCount >= MaxReceiptRetries {
		rcpt.NextRetryAt = nil
		log.Error().Err(cause).
			Str("receipt_id", rcpt.ID.String()).
			Int("retries", rcpt.RetryCount).
			Msg("receipt_worker: max retries exceeded")
	} else {
		next := time.Now().Add(computeRetryBackoff(rcpt.RetryCount))
		rcpt.NextRetryAt = &next
		log.Warn().Err(cause).
			Str("receipt_id", rcpt.ID.String()).
			Int("retry_count", rcpt.RetryCount).
			Time("next_retry_at", next).
			Msg("receipt_worker: delivery failed, scheduled retry")
	}

	if err := w.receipts.Update(ctx, rcpt); err != nil {
		log.Error().Err(err).Str("receipt_id", rcpt.ID.String()).Msg("receipt_worker: failed to persist failure")
	}
}

// computeRetryBackoff returns the wait before the next attempt:
// 1m, 2m, 4m, 8m … capped at 30m.
func computeRetryBackoff(retryCount int) time.Duration {
	backoff := time.Duration(1<<uint(retryCount-1)) * time.Minute
	if backoff > 30*time.Minute {
		return 30 * time.Minute
	}
	return backoff
}

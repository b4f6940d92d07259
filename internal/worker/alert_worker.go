package worker

// alert_worker.go
// Processes low-stock alert jobs from QueueAlert and mails the back office.

import (
	"context"
	"encoding/json"
	"fmt"

	"aromapos/internal/infra"

	"github.com/rs/zerolog/log"
)

type AlertWorker struct {
	mailer  *infra.Mailer
	cb      *infra.CircuitBreaker
	alertTo string
}

func NewAlertWorker(mailer *infra.Mailer, cb *infra.CircuitBreaker, alertTo string) *AlertWorker {
	return &AlertWorker{mailer: mailer, cb: cb, alertTo: alertTo}
}

func (w *AlertWorker) Process(_ context.Context, raw json.RawMessage) {
	var payload AlertJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("alert_worker: invalid payload")
		return
	}
	if w.alertTo == "" {
		log.Debug().Str("name", payload.Name).Msg("alert_worker: no alert recipient configured, dropping")
		return
	}

	body := fmt.Sprintf("%s %q is low on stock.\nRemaining: %s\nThreshold: %s",
		payload.EntityType, payload.Name, payload.Remaining, payload.Threshold)

	err := w.cb.Execute(func() error {
		return w.mailer.SendAlert(w.alertTo, fmt.Sprintf("Low stock: %s", payload.Name), body)
	})
	if err != nil {
		log.Error().Err(err).Str("name", payload.Name).Msg("alert_worker: failed to send alert")
		return
	}
	log.Info().Str("name", payload.Name).Msg("alert_worker: low stock alert sent")
}

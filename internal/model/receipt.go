package model

import (
	"time"

	"github.com/google/uuid"
)

// Receipt delivery states.
// "pending" | "rendered" | "sent" | "failed"
const (
	ReceiptPending  = "pending"
	ReceiptRendered = "rendered"
	ReceiptSent     = "sent"
	ReceiptFailed   = "failed"
)

// Receipt tracks the async PDF/email delivery of a sale's receipt.
// Financial data lives on the Sale; this row only carries delivery state.
type Receipt struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SaleID uuid.UUID `gorm:"type:uuid;uniqueIndex;not null"`
	// CustomerEmail — when nil, the PDF is rendered but never mailed.
	CustomerEmail *string
	// PDFPath is relative to PDF_STORAGE_PATH.
	PDFPath *string `gorm:"column:pdf_path"`
	Status  string  `gorm:"type:varchar(20);not null;default:'pending'"`
	// Retry fields — used by the retry cron to re-attempt failed deliveries.
	RetryCount  int        `gorm:"not null;default:0"`
	NextRetryAt *time.Time `gorm:"column:next_retry_at"`
	LastError   *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

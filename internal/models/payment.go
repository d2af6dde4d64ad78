package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProcessorType identifies which of the two payment processors accepted
// a payment. The zero value means "not yet assigned".
type ProcessorType string

const (
	ProcessorDefault  ProcessorType = "DEFAULT"
	ProcessorFallback ProcessorType = "FALLBACK"
)

func init() {
	// §3: amount must serialise as a JSON number, not a quoted string.
	decimal.MarshalJSONWithoutQuotes = true
}

// Status is the in-memory lifecycle marker of a Payment within a single
// dispatch. It is never read across process restarts.
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusProcessing Status = "PROCESSING"
	StatusSuccess    Status = "SUCCESS"
	StatusFailed     Status = "FAILED"
	StatusRetry      Status = "RETRY"
)

// Payment is the unit of work popped from the main queue. CorrelationID,
// Amount and RequestedAt are set once at construction and never change;
// ProcessorType, Status and RetryCount are mutated during dispatch and
// must be carried along whenever the payment is re-serialised onto the
// queue.
type Payment struct {
	CorrelationID   uuid.UUID       `json:"correlationId"`
	Amount          decimal.Decimal `json:"amount"`
	RequestedAt     time.Time       `json:"requestedAt"`
	ProcessorType   ProcessorType   `json:"paymentProcessorType,omitempty"`
	Status          Status          `json:"status"`
	RetryCount      int             `json:"retryCount"`
}

// NewPayment constructs a fresh Payment in PENDING state.
func NewPayment(correlationID uuid.UUID, amount decimal.Decimal, requestedAt time.Time) Payment {
	return Payment{
		CorrelationID: correlationID,
		Amount:        amount,
		RequestedAt:   requestedAt,
		Status:        StatusPending,
	}
}

package history

import (
	"context"
	"log"

	"github.com/maal/rinha-payment-worker/internal/models"
)

const (
	defaultHistoryKey  = "payments:history:default"
	fallbackHistoryKey = "payments:history:fallback"
)

// ListStore is the slice of *datastore.Client the Recorder needs.
type ListStore interface {
	ListPushHead(ctx context.Context, key string, value []byte) error
}

// Recorder appends a fully-processed Payment onto its processor's
// history list. Grounded on the original implementation's
// PaymentHistoryService (payments:history:default/fallback, LPUSH) and
// the teacher's IncrementSummary write path. Failures are logged and
// swallowed per §4.4 — the payment has already been accepted by the
// processor by the time Record is called, so a history-write failure
// must never look like a dispatch failure to the caller.
type Recorder struct {
	store ListStore
}

func NewRecorder(store ListStore) *Recorder {
	return &Recorder{store: store}
}

func historyKey(t models.ProcessorType) string {
	if t == models.ProcessorFallback {
		return fallbackHistoryKey
	}
	return defaultHistoryKey
}

// Record appends payment to the history list named by its
// ProcessorType, which must already be set.
func (r *Recorder) Record(ctx context.Context, payment models.Payment) {
	if payment.ProcessorType == "" {
		log.Printf("history: refusing to record payment %s with no processor type set", payment.CorrelationID)
		return
	}

	raw, err := models.EncodePayment(payment)
	if err != nil {
		log.Printf("history: failed to encode payment %s: %v", payment.CorrelationID, err)
		return
	}

	if err := r.store.ListPushHead(ctx, historyKey(payment.ProcessorType), raw); err != nil {
		log.Printf("history: failed to append payment %s to %s: %v", payment.CorrelationID, historyKey(payment.ProcessorType), err)
	}
}

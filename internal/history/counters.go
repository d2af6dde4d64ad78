package history

import (
	"context"
	"log"

	"github.com/maal/rinha-payment-worker/internal/models"
)

const counterKey = "payment:counters"

// HashStore is the slice of *datastore.Client the CounterRecorder needs.
type HashStore interface {
	HashIncrementInt(ctx context.Context, key, field string, delta int64) (int64, error)
	HashIncrementFloat(ctx context.Context, key, field string, delta float64) (float64, error)
}

// CounterRecorder implements the alternate aggregation shape described
// in SPEC_FULL.md §5: per-processor totalRequests/totalAmount kept as
// atomic increments in a single hash, grounded on the original
// implementation's superseded PaymentCounterService. It is additive to
// Recorder, not a replacement — see dispatch.Config.EnableCounters.
type CounterRecorder struct {
	store HashStore
}

func NewCounterRecorder(store HashStore) *CounterRecorder {
	return &CounterRecorder{store: store}
}

// Increment bumps totalRequests by one and totalAmount by the
// payment's amount for payment.ProcessorType.
func (r *CounterRecorder) Increment(ctx context.Context, payment models.Payment) {
	if payment.ProcessorType == "" {
		return
	}

	prefix := "default"
	if payment.ProcessorType == models.ProcessorFallback {
		prefix = "fallback"
	}

	amount, _ := payment.Amount.Float64()

	if _, err := r.store.HashIncrementInt(ctx, counterKey, prefix+"_totalRequests", 1); err != nil {
		log.Printf("history: failed to increment %s_totalRequests: %v", prefix, err)
	}
	if _, err := r.store.HashIncrementFloat(ctx, counterKey, prefix+"_totalAmount", amount); err != nil {
		log.Printf("history: failed to increment %s_totalAmount: %v", prefix, err)
	}
}

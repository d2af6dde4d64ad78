package dispatch

import (
	"context"
	"log"

	"github.com/maal/rinha-payment-worker/internal/models"
	"github.com/maal/rinha-payment-worker/internal/processor"
)

// processorOrder is DEFAULT before FALLBACK on every attempt: the
// default processor has the lower fee and is always preferred (§4.5).
var processorOrder = [2]models.ProcessorType{models.ProcessorDefault, models.ProcessorFallback}

// HealthChecker is the Health cache's read side, as consumed by the
// Engine. *health.Cache satisfies this.
type HealthChecker interface {
	Get(ctx context.Context, processorType models.ProcessorType) (models.HealthView, bool, error)
}

// Submitter is the Processor HTTP client's dispatch-relevant method.
// *processor.Client satisfies this.
type Submitter interface {
	Submit(processorType models.ProcessorType, payment models.Payment) processor.Outcome
}

// HistoryRecorder is the History recorder, as consumed by the Engine.
// *history.Recorder satisfies this.
type HistoryRecorder interface {
	Record(ctx context.Context, payment models.Payment)
}

// CounterIncrementer is the optional counter-hash recorder.
// *history.CounterRecorder satisfies this.
type CounterIncrementer interface {
	Increment(ctx context.Context, payment models.Payment)
}

// Config resolves the two open questions of SPEC_FULL.md §7 into
// concrete knobs.
type Config struct {
	// MaxRetryAttemptsPerDispatch is how many passes a single Dispatch
	// call makes over DEFAULT then FALLBACK before handing the payment
	// to failure handling. Default 2.
	MaxRetryAttemptsPerDispatch int
	// MaxReenqueueCount is the ceiling on retryCount before a payment
	// transitions to terminal FAILED instead of being re-enqueued.
	// Default 3.
	MaxReenqueueCount int
	// AssumeHealthyWhenUnknown controls the missing-health-cache policy.
	// false (the spec's mandated default) skips a processor with no
	// cached opinion; true tries it anyway.
	AssumeHealthyWhenUnknown bool
	// EnableCounters additionally increments the counter-hash shape
	// (internal/history.CounterRecorder) on every success, alongside
	// the history list. Off by default — see SPEC_FULL.md §5.
	EnableCounters bool
}

func DefaultConfig() Config {
	return Config{
		MaxRetryAttemptsPerDispatch: 2,
		MaxReenqueueCount:           3,
		AssumeHealthyWhenUnknown:    false,
		EnableCounters:              false,
	}
}

// Engine is the single-payment dispatch-and-retry logic of §4.5: choose
// a processor using the cached health view, call it, and either record
// success or re-enqueue. Grounded on the teacher's
// distributor.distributePayment, pulled apart into a pure per-item
// function so the Queue Consumer can fan it out instead of each worker
// owning its own blocking pop loop.
type Engine struct {
	processorClient Submitter
	healthCache     HealthChecker
	recorder        HistoryRecorder
	counters        CounterIncrementer
	publisher       Publisher
	cfg             Config
}

func New(processorClient Submitter, healthCache HealthChecker, recorder HistoryRecorder, counters CounterIncrementer, publisher Publisher, cfg Config) *Engine {
	return &Engine{
		processorClient: processorClient,
		healthCache:     healthCache,
		recorder:        recorder,
		counters:        counters,
		publisher:       publisher,
		cfg:             cfg,
	}
}

// Dispatch runs the algorithm of §4.5 for a single payment and reports
// whether it was ultimately accepted by a processor this call.
// Re-enqueue, terminal failure, and history recording are all handled
// internally; the caller only needs the boolean for its own counters.
func (e *Engine) Dispatch(ctx context.Context, payment models.Payment) bool {
	payment.Status = models.StatusProcessing

	for attempt := 1; attempt <= e.cfg.MaxRetryAttemptsPerDispatch; attempt++ {
		for _, processorType := range processorOrder {
			if !e.isHealthy(ctx, processorType) {
				continue
			}
			if e.processorClient.Submit(processorType, payment) == processor.Accepted {
				payment.ProcessorType = processorType
				payment.Status = models.StatusSuccess
				e.recorder.Record(ctx, payment)
				if e.cfg.EnableCounters && e.counters != nil {
					e.counters.Increment(ctx, payment)
				}
				return true
			}
		}
	}

	e.handleFailure(ctx, payment)
	return false
}

// isHealthy applies the missing-health-cache policy of §4.5/§9: a
// present view with Failing=false is healthy; a present view with
// Failing=true is unhealthy; a missing view follows
// cfg.AssumeHealthyWhenUnknown (default false, i.e. skip).
func (e *Engine) isHealthy(ctx context.Context, processorType models.ProcessorType) bool {
	view, present, err := e.healthCache.Get(ctx, processorType)
	if err != nil {
		log.Printf("dispatch: health cache read failed for %s: %v", processorType, err)
		return e.cfg.AssumeHealthyWhenUnknown
	}
	if !present {
		return e.cfg.AssumeHealthyWhenUnknown
	}
	return !view.Failing
}

// handleFailure increments retryCount and either re-enqueues the
// payment at the head of the main queue or, once MaxReenqueueCount
// re-enqueues have already happened, marks it terminal FAILED and
// drops it.
func (e *Engine) handleFailure(ctx context.Context, payment models.Payment) {
	payment.RetryCount++

	if payment.RetryCount > e.cfg.MaxReenqueueCount {
		payment.Status = models.StatusFailed
		log.Printf("dispatch: payment %s exhausted %d re-enqueue attempts, dropping as FAILED", payment.CorrelationID, e.cfg.MaxReenqueueCount)
		return
	}

	payment.Status = models.StatusRetry

	raw, err := models.EncodePayment(payment)
	if err != nil {
		log.Printf("dispatch: failed to encode payment %s for re-enqueue, dropping: %v", payment.CorrelationID, err)
		return
	}

	if err := e.publisher.Publish(ctx, raw); err != nil {
		log.Printf("dispatch: failed to re-enqueue payment %s: %v", payment.CorrelationID, err)
	}
}

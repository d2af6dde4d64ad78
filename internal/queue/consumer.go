package queue

import (
	"context"
	"log"
	"sync/atomic"
	"time"

	"github.com/maal/rinha-payment-worker/internal/models"
)

// firstPopBlockWindow bounds how long the first pop of a tick may
// block before the tick gives up and reports an empty queue (§4.6).
const firstPopBlockWindow = 100 * time.Millisecond

// Dispatcher is the single-payment logic the Consumer fans each popped
// item out to. internal/dispatch.Engine implements this.
type Dispatcher interface {
	Dispatch(ctx context.Context, payment models.Payment) bool
}

// Store is the slice of *datastore.Client the Consumer needs: pop from
// the main queue and push back onto it (the latter via Publish, for
// dispatch's re-enqueue path).
type Store interface {
	ListPopTailBlocking(ctx context.Context, key string, timeout time.Duration) ([]byte, bool, error)
	ListPopTail(ctx context.Context, key string) ([]byte, bool, error)
	ListPushHead(ctx context.Context, key string, value []byte) error
}

// Metrics are the atomic counters §4.6 requires the Consumer to
// maintain. All fields are updated with atomic ops only; there is no
// lock on the hot path.
type Metrics struct {
	activeCount    atomic.Int64
	completedCount atomic.Int64
	totalCount     atomic.Int64
	batchCount     atomic.Int64
}

func (m *Metrics) ActiveCount() int64    { return m.activeCount.Load() }
func (m *Metrics) CompletedCount() int64 { return m.completedCount.Load() }
func (m *Metrics) TotalCount() int64     { return m.totalCount.Load() }
func (m *Metrics) BatchCount() int64     { return m.batchCount.Load() }

// Config mirrors §6's worker.* environment variables.
type Config struct {
	QueueKey              string
	MaxConcurrentPayments int64
	BatchSize             int64
	ExecutionDelay        time.Duration
}

// Consumer periodically pulls a bounded batch from the main queue and
// fans each item out to a goroutine running the Dispatch Engine,
// backpressured by an in-flight counter. Adapted from the teacher's
// distributor.distributePayment loop, which ran one blocking RPopLPush
// per fixed worker goroutine; this instead ticks on a timer and pops
// as many items as the current backpressure budget allows, matching
// §4.6 exactly.
type Consumer struct {
	store      Store
	dispatcher Dispatcher
	cfg        Config
	metrics    Metrics
}

func NewConsumer(store Store, dispatcher Dispatcher, cfg Config) *Consumer {
	return &Consumer{store: store, dispatcher: dispatcher, cfg: cfg}
}

func (c *Consumer) Metrics() *Metrics { return &c.metrics }

// SetDispatcher wires the Dispatch Engine after construction, since
// the Engine in turn depends on the Consumer as its Publisher — see
// dispatch.Publisher.
func (c *Consumer) SetDispatcher(d Dispatcher) { c.dispatcher = d }

// Publish implements dispatch.Publisher by re-pushing payload onto the
// head of the main queue — the indirection that breaks the
// dispatch↔queue import cycle (SPEC_FULL.md §6).
func (c *Consumer) Publish(ctx context.Context, payload []byte) error {
	return c.store.ListPushHead(ctx, c.cfg.QueueKey, payload)
}

// Run blocks, ticking every cfg.ExecutionDelay until ctx is cancelled.
func (c *Consumer) Run(ctx context.Context) {
	ticker := time.NewTicker(c.cfg.ExecutionDelay)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.tick(ctx)
		}
	}
}

func (c *Consumer) tick(ctx context.Context) {
	availableSlots := c.cfg.MaxConcurrentPayments - c.metrics.activeCount.Load()
	if availableSlots <= 0 {
		return
	}

	currentBatch := c.cfg.BatchSize
	if availableSlots < currentBatch {
		currentBatch = availableSlots
	}
	if currentBatch <= 0 {
		return
	}

	raw, ok, err := c.store.ListPopTailBlocking(ctx, c.cfg.QueueKey, firstPopBlockWindow)
	if err != nil {
		log.Printf("queue: first pop failed: %v", err)
		return
	}
	if !ok {
		return
	}

	c.metrics.batchCount.Add(1)
	c.submit(ctx, raw)

	for i := int64(1); i < currentBatch; i++ {
		raw, ok, err := c.store.ListPopTail(ctx, c.cfg.QueueKey)
		if err != nil {
			log.Printf("queue: pop failed: %v", err)
			return
		}
		if !ok {
			return
		}
		c.submit(ctx, raw)
	}
}

func (c *Consumer) submit(ctx context.Context, raw []byte) {
	payment, err := models.DecodePayment(raw)
	if err != nil {
		log.Printf("queue: dropping malformed payment payload: %v", err)
		return
	}

	c.metrics.activeCount.Add(1)
	c.metrics.totalCount.Add(1)

	go func() {
		defer c.metrics.activeCount.Add(-1)
		if c.dispatcher.Dispatch(ctx, payment) {
			c.metrics.completedCount.Add(1)
		}
	}()
}

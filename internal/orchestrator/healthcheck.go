package orchestrator

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/maal/rinha-payment-worker/internal/datastore"
	"github.com/maal/rinha-payment-worker/internal/models"
)

const (
	leaseName    = "global-health-check-leader-task"
	leaseTTL     = 12 * time.Second
	tickInterval = 4998 * time.Millisecond
	probeJoinTTL = 5 * time.Second
)

// Lease is the handle returned by a successful lease acquisition.
// *datastore.LeaseHandle satisfies this.
type Lease interface {
	Release(ctx context.Context) error
}

// LeaseStore is the leader-election slice of *datastore.Client the
// Orchestrator needs.
type LeaseStore interface {
	TryAcquireLease(ctx context.Context, name string, ttl time.Duration) (Lease, bool, error)
}

// datastoreLeaseStore adapts *datastore.Client's concrete
// *datastore.LeaseHandle return value to the Lease interface, so the
// Orchestrator itself never imports a concrete lease type.
type datastoreLeaseStore struct {
	client *datastore.Client
}

// NewLeaseStore wraps a data store client as a LeaseStore.
func NewLeaseStore(client *datastore.Client) LeaseStore {
	return datastoreLeaseStore{client: client}
}

func (s datastoreLeaseStore) TryAcquireLease(ctx context.Context, name string, ttl time.Duration) (Lease, bool, error) {
	handle, ok, err := s.client.TryAcquireLease(ctx, name, ttl)
	if handle == nil {
		return nil, ok, err
	}
	return handle, ok, err
}

// Prober is the Processor HTTP client's health-check method.
// *processor.Client satisfies this.
type Prober interface {
	Probe(processorType models.ProcessorType) (models.HealthView, bool)
}

// HealthPublisher is the Health cache's write side.
// *health.Cache satisfies this.
type HealthPublisher interface {
	Set(ctx context.Context, t models.ProcessorType, view models.HealthView) error
	Clear(ctx context.Context, t models.ProcessorType) error
}

// Orchestrator runs the leader-elected periodic probe of §4.7.
// Grounded on the teacher's health.HealthCheckService.StartHealthCheckLoop,
// which already does SetNX-based leader election on a ticker; this
// generalizes it from "track one currently-healthy processor" to
// "probe both processors in parallel every tick and publish a
// HealthView per processor", matching the original implementation's
// HealthCheckOrchestratorImpl (RedisLockRegistry + CompletableFuture.allOf).
type Orchestrator struct {
	store           LeaseStore
	processorClient Prober
	cache           HealthPublisher
}

func New(store LeaseStore, processorClient Prober, cache HealthPublisher) *Orchestrator {
	return &Orchestrator{store: store, processorClient: processorClient, cache: cache}
}

// Run blocks, ticking every tickInterval until ctx is cancelled. The
// 4998ms period keeps this instance, when leader, under the
// processors' health-check rate limit (§4.7's "4-second minimum
// between probes").
func (o *Orchestrator) Run(ctx context.Context) {
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			o.tick(ctx)
		}
	}
}

func (o *Orchestrator) tick(ctx context.Context) {
	lease, acquired, err := o.store.TryAcquireLease(ctx, leaseName, leaseTTL)
	if err != nil {
		log.Printf("orchestrator: lease acquisition failed: %v", err)
		return
	}
	if !acquired {
		return
	}
	defer func() {
		releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := lease.Release(releaseCtx); err != nil {
			log.Printf("orchestrator: lease release failed: %v", err)
		}
	}()

	probeCtx, cancel := context.WithTimeout(ctx, probeJoinTTL)
	defer cancel()
	o.probeAndPublish(probeCtx)
}

func (o *Orchestrator) probeAndPublish(ctx context.Context) {
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		o.probeOne(ctx, models.ProcessorDefault)
	}()
	go func() {
		defer wg.Done()
		o.probeOne(ctx, models.ProcessorFallback)
	}()

	wg.Wait()
}

func (o *Orchestrator) probeOne(ctx context.Context, processorType models.ProcessorType) {
	view, ok := o.processorClient.Probe(processorType)
	if !ok {
		if err := o.cache.Clear(ctx, processorType); err != nil {
			log.Printf("orchestrator: failed to clear stale health cache for %s: %v", processorType, err)
		}
		return
	}
	if err := o.cache.Set(ctx, processorType, view); err != nil {
		log.Printf("orchestrator: failed to publish health view for %s: %v", processorType, err)
	}
}

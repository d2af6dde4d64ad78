package orchestrator

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maal/rinha-payment-worker/internal/models"
)

type fakeLease struct {
	released bool
}

func (f *fakeLease) Release(_ context.Context) error {
	f.released = true
	return nil
}

type fakeLeaseStore struct {
	mu      sync.Mutex
	held    bool
	acquire int
}

func (f *fakeLeaseStore) TryAcquireLease(_ context.Context, _ string, _ time.Duration) (Lease, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.acquire++
	if f.held {
		return nil, false, nil
	}
	f.held = true
	return &fakeLease{}, true, nil
}

type fakeProber struct {
	mu    sync.Mutex
	views map[models.ProcessorType]models.HealthView
	calls []models.ProcessorType
}

func (f *fakeProber) Probe(t models.ProcessorType) (models.HealthView, bool) {
	f.mu.Lock()
	f.calls = append(f.calls, t)
	f.mu.Unlock()
	v, ok := f.views[t]
	return v, ok
}

type fakeHealthPublisher struct {
	mu      sync.Mutex
	set     map[models.ProcessorType]models.HealthView
	cleared map[models.ProcessorType]bool
}

func (f *fakeHealthPublisher) Set(_ context.Context, t models.ProcessorType, view models.HealthView) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.set == nil {
		f.set = map[models.ProcessorType]models.HealthView{}
	}
	f.set[t] = view
	return nil
}

func (f *fakeHealthPublisher) Clear(_ context.Context, t models.ProcessorType) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.cleared == nil {
		f.cleared = map[models.ProcessorType]bool{}
	}
	f.cleared[t] = true
	return nil
}

func TestTickProbesBothProcessorsWhenLeaseAcquired(t *testing.T) {
	store := &fakeLeaseStore{}
	prober := &fakeProber{views: map[models.ProcessorType]models.HealthView{
		models.ProcessorDefault:  {Failing: false, MinResponseTime: 10},
		models.ProcessorFallback: {Failing: true},
	}}
	publisher := &fakeHealthPublisher{}

	o := New(store, prober, publisher)
	o.tick(context.Background())

	assert.ElementsMatch(t, []models.ProcessorType{models.ProcessorDefault, models.ProcessorFallback}, prober.calls)
	require.Contains(t, publisher.set, models.ProcessorDefault)
	assert.False(t, publisher.set[models.ProcessorDefault].Failing)
	require.Contains(t, publisher.set, models.ProcessorFallback)
}

func TestTickClearsCacheWhenProbeFails(t *testing.T) {
	store := &fakeLeaseStore{}
	prober := &fakeProber{views: map[models.ProcessorType]models.HealthView{}}
	publisher := &fakeHealthPublisher{}

	o := New(store, prober, publisher)
	o.tick(context.Background())

	assert.True(t, publisher.cleared[models.ProcessorDefault])
	assert.True(t, publisher.cleared[models.ProcessorFallback])
	assert.Empty(t, publisher.set)
}

func TestTickSkipsProbingWhenLeaseNotAcquired(t *testing.T) {
	store := &fakeLeaseStore{held: true}
	prober := &fakeProber{}
	publisher := &fakeHealthPublisher{}

	o := New(store, prober, publisher)
	o.tick(context.Background())

	assert.Empty(t, prober.calls, "a non-leader instance must not probe the processors")
}

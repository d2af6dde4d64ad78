package health

import (
	"context"
	"time"

	"github.com/maal/rinha-payment-worker/internal/models"
)

// CacheTTL is kept slightly below the orchestrator's probe interval so
// a stalled leader's last-known view expires instead of lingering as
// stale "healthy" forever (§4.3).
const CacheTTL = 4900 * time.Millisecond

const keyPrefix = "payment_processor_health:"

// Store is the slice of *datastore.Client the Cache needs.
type Store interface {
	GetString(ctx context.Context, key string) ([]byte, bool, error)
	SetStringWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// Cache reads and writes the per-processor HealthView that the
// Dispatch Engine consults before calling a processor. Adapted from
// the teacher's internal/health.Store, generalized from a single
// "currently healthy" pointer into a per-processor snapshot.
type Cache struct {
	store Store
}

func NewCache(store Store) *Cache {
	return &Cache{store: store}
}

func cacheKey(t models.ProcessorType) string {
	switch t {
	case models.ProcessorFallback:
		return keyPrefix + "fallback"
	default:
		return keyPrefix + "default"
	}
}

// Get returns (view, true, nil) when a fresh entry exists, (HealthView{},
// false, nil) when it is missing or expired, and an error only on a
// data-store transport/timeout failure.
func (c *Cache) Get(ctx context.Context, t models.ProcessorType) (models.HealthView, bool, error) {
	raw, present, err := c.store.GetString(ctx, cacheKey(t))
	if err != nil {
		return models.HealthView{}, false, err
	}
	if !present {
		return models.HealthView{}, false, nil
	}
	view, err := models.DecodeHealthView(raw)
	if err != nil {
		// A corrupted cache entry is treated as absent rather than
		// propagated — the orchestrator will refresh it on the next tick.
		return models.HealthView{}, false, nil
	}
	return view, true, nil
}

// Set writes view with CacheTTL.
func (c *Cache) Set(ctx context.Context, t models.ProcessorType, view models.HealthView) error {
	raw, err := models.EncodeHealthView(view)
	if err != nil {
		return err
	}
	return c.store.SetStringWithTTL(ctx, cacheKey(t), raw, CacheTTL)
}

// Clear removes the cache entry for t, used by the orchestrator when a
// probe comes back empty (§4.7).
func (c *Cache) Clear(ctx context.Context, t models.ProcessorType) error {
	return c.store.Delete(ctx, cacheKey(t))
}

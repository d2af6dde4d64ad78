package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg := Load()

	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.Equal(t, "http://localhost:8001", cfg.DefaultProcessorURL)
	assert.Equal(t, "http://localhost:8002", cfg.FallbackProcessorURL)
	assert.Equal(t, "rinha-payments-main-queue", cfg.MainQueueKey)
	assert.Equal(t, int64(100), cfg.MaxConcurrentPayments)
	assert.Equal(t, int64(100), cfg.BatchSize)
	assert.Equal(t, 200*time.Millisecond, cfg.ExecutionDelay)
	assert.Equal(t, 2, cfg.MaxRetryAttemptsPerDispatch)
	assert.Equal(t, 3, cfg.MaxReenqueueCount)
	assert.False(t, cfg.AssumeHealthyWhenUnknown)
	assert.False(t, cfg.HistoryCountersEnabled)
}

func TestLoadRedisURLOverridesRedisAddr(t *testing.T) {
	clearEnv(t)
	t.Setenv("REDIS_URL", "redis://redis-host:6380")
	t.Setenv("REDIS_ADDR", "ignored:1111")

	cfg := Load()

	assert.Equal(t, "redis-host:6380", cfg.RedisAddr)
}

func TestLoadHonorsOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("WORKER_MAX_CONCURRENT_PAYMENTS", "250")
	t.Setenv("ASSUME_HEALTHY_WHEN_UNKNOWN", "true")
	t.Setenv("HISTORY_COUNTERS_ENABLED", "true")

	cfg := Load()

	assert.Equal(t, int64(250), cfg.MaxConcurrentPayments)
	assert.True(t, cfg.AssumeHealthyWhenUnknown)
	assert.True(t, cfg.HistoryCountersEnabled)
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"REDIS_URL", "REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB", "REDIS_TIMEOUT",
		"PAYMENT_PROCESSOR_DEFAULT_URL", "PAYMENT_PROCESSOR_FALLBACK_URL",
		"REDIS_QUEUE_PAYMENTS_MAIN",
		"WORKER_MAX_CONCURRENT_PAYMENTS", "WORKER_BATCH_SIZE", "WORKER_EXECUTION_DELAY",
		"WORKER_MAX_RETRY_ATTEMPTS_PER_DISPATCH", "WORKER_MAX_REENQUEUE_COUNT",
		"ASSUME_HEALTHY_WHEN_UNKNOWN", "HISTORY_COUNTERS_ENABLED",
	} {
		t.Setenv(key, "")
	}
}

package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/maal/rinha-payment-worker/internal/config"
	"github.com/maal/rinha-payment-worker/internal/datastore"
	"github.com/maal/rinha-payment-worker/internal/dispatch"
	"github.com/maal/rinha-payment-worker/internal/health"
	"github.com/maal/rinha-payment-worker/internal/history"
	"github.com/maal/rinha-payment-worker/internal/orchestrator"
	"github.com/maal/rinha-payment-worker/internal/processor"
	"github.com/maal/rinha-payment-worker/internal/queue"
)

// main wires the three subsystems of SPEC_FULL.md (Queue Consumer,
// Dispatch & Retry Engine, Health-Check Orchestrator) and runs them
// until SIGINT/SIGTERM. There is no HTTP server: this process is
// headless per §6's "Process surface".
func main() {
	cfg := config.Load()

	store := datastore.New(datastore.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
		Timeout:  cfg.RedisTimeout,
	})
	defer store.Close()

	bootstrapCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := store.Ping(bootstrapCtx); err != nil {
		log.Fatalf("bootstrap: could not reach data store: %v", err)
	}

	processorClient := processor.New(processor.Config{
		DefaultBaseURL:  cfg.DefaultProcessorURL,
		FallbackBaseURL: cfg.FallbackProcessorURL,
	})

	healthCache := health.NewCache(store)
	recorder := history.NewRecorder(store)
	counters := history.NewCounterRecorder(store)

	consumer := queue.NewConsumer(store, nil, queue.Config{
		QueueKey:              cfg.MainQueueKey,
		MaxConcurrentPayments: cfg.MaxConcurrentPayments,
		BatchSize:             cfg.BatchSize,
		ExecutionDelay:        cfg.ExecutionDelay,
	})

	engine := dispatch.New(processorClient, healthCache, recorder, counters, consumer, dispatch.Config{
		MaxRetryAttemptsPerDispatch: cfg.MaxRetryAttemptsPerDispatch,
		MaxReenqueueCount:           cfg.MaxReenqueueCount,
		AssumeHealthyWhenUnknown:    cfg.AssumeHealthyWhenUnknown,
		EnableCounters:              cfg.HistoryCountersEnabled,
	})
	consumer.SetDispatcher(engine)

	healthOrchestrator := orchestrator.New(orchestrator.NewLeaseStore(store), processorClient, healthCache)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go consumer.Run(ctx)
	go healthOrchestrator.Run(ctx)

	<-ctx.Done()
	log.Println("shutting down: in-flight dispatches are not awaited")
}

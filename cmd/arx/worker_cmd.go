package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/arxrun/arx/executor"
	"github.com/arxrun/arx/kv"
	"github.com/arxrun/arx/metrics"
	"github.com/arxrun/arx/persona"
	"github.com/arxrun/arx/queue"
)

// newWorkerCmd launches a Distributed Step Executor worker: it consumes
// StepTasks from one or more persona queues, gating each on write
// permission, idempotency, and rate limits before running the body.
func newWorkerCmd(root *rootFlags, log zerolog.Logger) *cobra.Command {
	var (
		queues      []string
		brokerURL   string
		kvURL       string
		metricsAddr string
		workerID    string
	)

	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Launch a queue-consuming worker for the Distributed Step Executor",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			broker, store, err := dialBackends(ctx, brokerURL, kvURL)
			if err != nil {
				return err
			}

			exporter, collector := metrics.NewExporter(metricsAddr, log)
			if os.Getenv("AR_ENABLE_METRICS") == "0" {
				collector.Disable()
			}

			if len(queues) == 0 {
				for _, q := range persona.DefaultTable() {
					queues = append(queues, q)
				}
				queues = append(queues, persona.DefaultQueue)
			}

			if workerID == "" {
				workerID = "worker-" + uuid.NewString()
			}

			w := executor.NewWorker(workerID, broker, queues, store)
			w.Collector = collector
			w.Log = log.With().Str("worker", workerID).Logger()

			go func() {
				if err := exporter.ListenAndServe(ctx); err != nil {
					log.Error().Err(err).Msg("metrics exporter stopped")
				}
			}()

			go func() {
				ticker := time.NewTicker(time.Minute)
				defer ticker.Stop()
				for {
					select {
					case <-ctx.Done():
						return
					case <-ticker.C:
						if _, err := broker.ReapExpired(ctx); err != nil {
							log.Error().Err(err).Msg("reaping expired leases failed")
						}
					}
				}
			}()

			log.Info().Strs("queues", queues).Str("metrics_addr", metricsAddr).Msg("worker starting")
			w.Run(ctx)
			log.Info().Msg("worker stopped")
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&queues, "queue", nil, "queue name to consume, repeatable (default: every persona queue)")
	cmd.Flags().StringVar(&brokerURL, "broker-url", "", "broker connection URL (redis://...); empty uses an in-memory broker")
	cmd.Flags().StringVar(&kvURL, "kv-url", "", "KV store connection URL (redis://...); empty uses an in-memory store")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", metrics.DefaultAddr("", 0), "address the /metrics HTTP server listens on")
	cmd.Flags().StringVar(&workerID, "worker-id", "", "stable identifier for this worker (default: generated)")

	return cmd
}

func dialBackends(ctx context.Context, brokerURL, kvURL string) (queue.Broker, kv.Store, error) {
	var broker queue.Broker
	if brokerURL == "" {
		broker = queue.NewMemoryBroker()
	} else {
		opt, err := redis.ParseURL(brokerURL)
		if err != nil {
			return nil, nil, fmt.Errorf("parsing --broker-url: %w", err)
		}
		client := redis.NewClient(opt)
		dctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := client.Ping(dctx).Err(); err != nil {
			return nil, nil, fmt.Errorf("connecting broker: %w", err)
		}
		broker = queue.NewRedisBroker(client)
	}

	var store kv.Store
	if kvURL == "" {
		store = kv.NewMemoryStore()
	} else {
		s, err := kv.NewRedisStore(ctx, kv.RedisOptions{URL: kvURL, DB: -1, Namespace: "arx"})
		if err != nil {
			return nil, nil, fmt.Errorf("connecting kv store: %w", err)
		}
		store = s
	}

	return broker, store, nil
}

// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	chi "github.com/go-chi/chi/v5"
	"github.com/spf13/cobra"

	"github.com/canonical/provider-sync-service/internal/logging"
	"github.com/canonical/provider-sync-service/internal/monitoring/prometheus"
	"github.com/canonical/provider-sync-service/internal/queue"
	"github.com/canonical/provider-sync-service/internal/tracing"
	"github.com/canonical/provider-sync-service/pkg/metrics"
	"github.com/canonical/provider-sync-service/pkg/processor"
	"github.com/canonical/provider-sync-service/pkg/status"
	"github.com/canonical/provider-sync-service/pkg/syncjobs"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "worker runs sync jobs published to the message broker",
	Long:  `Consume sync jobs from AMQP_URL and run them against the providers, metrics are served on --metrics-port`,
	Run: func(cmd *cobra.Command, args []string) {
		port, _ := cmd.Flags().GetInt("metrics-port")

		if err := work(port); err != nil {
			fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	workerCmd.Flags().Int("metrics-port", 8081, "port serving the status and metrics endpoints")

	rootCmd.AddCommand(workerCmd)
}

func work(metricsPort int) error {
	specs, err := loadSpecs()
	if err != nil {
		panic(err)
	}
	if specs.AMQPURL == "" {
		return fmt.Errorf("AMQP_URL is required to run a worker")
	}

	logger := logging.NewLogger(specs.LogLevel)
	defer logger.Sync()

	monitor := prometheus.NewMonitor("provider-sync-worker", logger)
	tracer := tracing.NewTracer(tracing.NewConfig(specs.TracingEnabled, specs.OtelGRPCEndpoint, specs.OtelHTTPEndpoint, logger))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c, err := newComponents(ctx, specs, tracer, monitor, logger)
	if err != nil {
		return err
	}
	defer c.Close()

	// retries of failed jobs go back through the broker
	publisher, err := queue.NewPublisher(specs.AMQPURL, tracer, monitor, logger)
	if err != nil {
		return fmt.Errorf("failed to connect to the message broker: %v", err)
	}
	defer publisher.Close()

	manager := syncjobs.NewManager(c.storage, publisher, specs.SyncMaxRetries, tracer, monitor, logger)
	p := processor.NewProcessor(
		manager,
		c.installations,
		c.registry,
		c.storage,
		processor.RetryPolicy{Base: specs.SyncBackoffBase, Max: specs.SyncBackoffMax},
		specs.SyncPageTimeout,
		tracer,
		monitor,
		logger,
	)

	go processor.NewReaper(c.storage, specs.SyncStaleAfter, tracer, monitor, logger).Run(ctx, specs.SyncStaleAfter/3)

	router := chi.NewMux()
	metrics.NewAPI(logger).RegisterEndpoints(router)
	status.NewAPI(c.checks, tracer, monitor, logger).RegisterEndpoints(router)

	srv := &http.Server{
		Addr:        fmt.Sprintf("0.0.0.0:%v", metricsPort),
		ReadTimeout: time.Second * 15,
		Handler:     router,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Errorf("metrics server error: %v", err)
		}
	}()

	logger.Security().SystemStartup()
	logger.Infof("Consuming sync jobs with %d workers", specs.SyncWorkers)

	err = queue.NewConsumer(specs.AMQPURL, int(specs.SyncWorkers), p, tracer, monitor, logger).Run(ctx)

	logger.Security().SystemShutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)

	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

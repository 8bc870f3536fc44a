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

	"github.com/spf13/cobra"

	"github.com/canonical/provider-sync-service/internal/authorization"
	"github.com/canonical/provider-sync-service/internal/kratos"
	"github.com/canonical/provider-sync-service/internal/logging"
	"github.com/canonical/provider-sync-service/internal/monitoring/prometheus"
	"github.com/canonical/provider-sync-service/internal/queue"
	"github.com/canonical/provider-sync-service/internal/tracing"
	"github.com/canonical/provider-sync-service/pkg/authentication"
	"github.com/canonical/provider-sync-service/pkg/processor"
	"github.com/canonical/provider-sync-service/pkg/syncjobs"
	"github.com/canonical/provider-sync-service/pkg/tenant"
	"github.com/canonical/provider-sync-service/pkg/web"
	"github.com/canonical/provider-sync-service/pkg/webhooks"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "serve starts the web server",
	Long:  `Launch the web application, list of environment variables is available in the readme`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := serve(); err != nil {
			fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func serve() error {
	specs, err := loadSpecs()
	if err != nil {
		panic(err)
	}

	logger := logging.NewLogger(specs.LogLevel)
	logger.Debugf("env vars: %v", specs)
	defer logger.Sync()

	monitor := prometheus.NewMonitor("provider-sync-service", logger)
	tracer := tracing.NewTracer(tracing.NewConfig(specs.TracingEnabled, specs.OtelGRPCEndpoint, specs.OtelHTTPEndpoint, logger))

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	c, err := newComponents(ctx, specs, tracer, monitor, logger)
	if err != nil {
		return err
	}
	defer c.Close()

	// without a broker the jobs run inside this process
	var dispatcher syncjobs.DispatcherInterface
	var local *processor.LocalDispatcher
	if specs.AMQPURL != "" {
		publisher, err := queue.NewPublisher(specs.AMQPURL, tracer, monitor, logger)
		if err != nil {
			return fmt.Errorf("failed to connect to the message broker: %v", err)
		}
		defer publisher.Close()

		dispatcher = publisher
		logger.Info("Sync jobs are published to the message broker")
	} else {
		local = processor.NewLocalDispatcher(int(specs.SyncWorkers), tracer, logger)
		dispatcher = local
		logger.Info("AMQP_URL is not set, sync jobs run in process")
	}

	manager := syncjobs.NewManager(c.storage, dispatcher, specs.SyncMaxRetries, tracer, monitor, logger)

	if local != nil {
		local.Start(ctx, processor.NewProcessor(
			manager,
			c.installations,
			c.registry,
			c.storage,
			processor.RetryPolicy{Base: specs.SyncBackoffBase, Max: specs.SyncBackoffMax},
			specs.SyncPageTimeout,
			tracer,
			monitor,
			logger,
		))
		go processor.NewReaper(c.storage, specs.SyncStaleAfter, tracer, monitor, logger).Run(ctx, specs.SyncStaleAfter/3)
	}

	var kratosClient tenant.KratosClientInterface
	if specs.KratosAdminURL != "" {
		kratosClient = kratos.NewClient(specs.KratosAdminURL, tracer, monitor, logger)
	} else {
		logger.Info("KRATOS_ADMIN_URL is not set, member invitations are disabled")
	}

	tenantService := tenant.NewService(
		c.storage,
		authorization.NewAuthorizer(c.storage, tracer, monitor, logger),
		kratosClient,
		specs.AppAdminSubjects,
		specs.InvitationLifetime,
		tracer,
		monitor,
		logger,
	)

	var verifier authentication.TokenVerifierInterface
	if specs.AuthenticationEnabled {
		verifier, err = authentication.NewJWTVerifier(
			ctx,
			authentication.VerifierConfig{
				Issuer:          specs.AuthenticationIssuer,
				JWKSURL:         specs.AuthenticationJWKSURL,
				TenantClaim:     specs.AuthenticationTenantClaim,
				RequiredScope:   specs.AuthenticationRequiredScope,
				AllowedSubjects: specs.AuthenticationAllowedSubjects,
			},
			tracer,
			monitor,
			logger,
		)
		if err != nil {
			return fmt.Errorf("failed to set up authentication: %v", err)
		}
	} else {
		logger.Warn("Authentication is disabled, bearer tokens are trusted as <subject>[:<tenant id>]")
		verifier = authentication.NewNoopVerifier()
	}

	router := web.NewRouter(
		c.installations,
		c.registry,
		manager,
		tenantService,
		tenantService,
		webhooks.NewService(tenantService, tracer, monitor, logger),
		verifier,
		c.checks,
		c.transactions(),
		specs.DiagnosticErrors,
		tracer,
		monitor,
		logger,
	)
	logger.Infof("Starting HTTP server on port %v", specs.Port)

	srv := &http.Server{
		Addr:         fmt.Sprintf("0.0.0.0:%v", specs.Port),
		WriteTimeout: time.Second * 60,
		ReadTimeout:  time.Second * 15,
		IdleTimeout:  time.Second * 60,
		Handler:      router,
	}

	var serverError error
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Security().SystemStartup()
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverError = fmt.Errorf("server error: %w", err)
			sig <- os.Interrupt
		}
	}()

	<-sig

	// Create a deadline to wait for.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	logger.Security().SystemShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		serverError = fmt.Errorf("server shutdown error: %w", err)
	}

	// running jobs observe the cancellation and stop between pages
	stop()
	if local != nil {
		local.Wait()
	}

	return serverError
}

// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package cmd

import (
	"context"
	"fmt"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/canonical/provider-sync-service/internal/cipher"
	"github.com/canonical/provider-sync-service/internal/config"
	"github.com/canonical/provider-sync-service/internal/db"
	"github.com/canonical/provider-sync-service/internal/logging"
	"github.com/canonical/provider-sync-service/internal/monitoring"
	"github.com/canonical/provider-sync-service/internal/oauthstate"
	"github.com/canonical/provider-sync-service/internal/storage"
	"github.com/canonical/provider-sync-service/internal/storage/memory"
	"github.com/canonical/provider-sync-service/internal/tracing"
	"github.com/canonical/provider-sync-service/pkg/connectors"
	"github.com/canonical/provider-sync-service/pkg/connectors/paypal"
	"github.com/canonical/provider-sync-service/pkg/connectors/stripe"
	"github.com/canonical/provider-sync-service/pkg/installation"
	"github.com/canonical/provider-sync-service/pkg/status"
)

const memoryDSN = "memory://"

// loadSpecs reads the environment, a .env file in the working directory
// is loaded first when present.
func loadSpecs() (*config.EnvSpec, error) {
	_ = godotenv.Load()

	specs := new(config.EnvSpec)
	if err := envconfig.Process("", specs); err != nil {
		return nil, fmt.Errorf("issues with environment sourcing: %s", err)
	}

	return specs, nil
}

// components are the pieces shared by the serve and worker commands.
type components struct {
	storage       storage.StorageInterface
	dbClient      *db.DBClient
	registry      *connectors.Registry
	installations *installation.Service
	checks        map[string]status.CheckerInterface

	closers []func()
}

func (c *components) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
}

func newComponents(
	ctx context.Context,
	specs *config.EnvSpec,
	tracer tracing.TracingInterface,
	monitor monitoring.MonitorInterface,
	logger logging.LoggerInterface,
) (*components, error) {
	c := new(components)
	c.checks = make(map[string]status.CheckerInterface)

	if specs.DSN == memoryDSN {
		logger.Warn("Using the in-memory store, records are lost on restart")
		c.storage = memory.NewStore(tracer, monitor, logger)
	} else {
		dbClient, err := db.NewDBClient(
			db.Config{
				DSN:             specs.DSN,
				MaxConns:        specs.DBMaxConns,
				MinConns:        specs.DBMinConns,
				MaxConnLifetime: specs.DBMaxConnLifetime,
				MaxConnIdleTime: specs.DBMaxConnIdleTime,
				TracingEnabled:  specs.TracingEnabled,
			},
			tracer,
			monitor,
			logger,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create database client: %v", err)
		}

		c.closers = append(c.closers, dbClient.Close)
		c.checks["database"] = status.CheckFunc(dbClient.Ping)
		c.dbClient = dbClient
		c.storage = storage.NewStorage(dbClient, tracer, monitor, logger)
	}

	credentials, err := cipher.NewCipher(specs.CredentialsSecret)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to create credential cipher: %v", err)
	}

	registry, err := connectors.NewRegistry(
		stripe.NewConnector(
			stripe.Config{
				ClientID:     specs.StripeClientID,
				ClientSecret: specs.StripeClientSecret,
				APIURL:       specs.StripeAPIURL,
				ConnectURL:   specs.StripeConnectURL,
				Timeout:      specs.SyncPageTimeout,
			},
			tracer,
			logger,
		),
		paypal.NewConnector(
			paypal.Config{
				ClientID:     specs.PaypalClientID,
				ClientSecret: specs.PaypalClientSecret,
				APIURL:       specs.PaypalAPIURL,
				AuthURL:      specs.PaypalAuthURL,
				Timeout:      specs.SyncPageTimeout,
			},
			tracer,
			logger,
		),
	)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to register connectors: %v", err)
	}
	c.registry = registry

	var states oauthstate.StoreInterface
	if specs.RedisAddr != "" {
		client, err := oauthstate.NewRedisClient(ctx, specs.RedisAddr, specs.RedisPassword, specs.RedisDB)
		if err != nil {
			c.Close()
			return nil, err
		}

		c.closers = append(c.closers, func() { _ = client.Close() })
		c.checks["redis"] = status.CheckFunc(func(ctx context.Context) error { return client.Ping(ctx).Err() })
		states = oauthstate.NewRedisStore(client, specs.OAuthStateTTL, tracer, monitor, logger)
	} else {
		logger.Info("REDIS_ADDR is not set, OAuth state is kept in process")
		states = oauthstate.NewMemoryStore(specs.OAuthStateTTL, tracer, logger)
	}

	c.installations = installation.NewService(
		registry,
		credentials,
		c.storage,
		states,
		specs.PublicBaseURL,
		tracer,
		monitor,
		logger,
	)

	return c, nil
}

// transactions returns the database client for per request transactions,
// nil when the memory store is in use.
func (c *components) transactions() db.DBClientInterface {
	if c.dbClient == nil {
		return nil
	}
	return c.dbClient
}

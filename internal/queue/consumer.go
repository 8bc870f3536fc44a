// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	amqp "github.com/rabbitmq/amqp091-go"
	"golang.org/x/sync/errgroup"

	"github.com/canonical/provider-sync-service/internal/logging"
	"github.com/canonical/provider-sync-service/internal/monitoring"
	"github.com/canonical/provider-sync-service/internal/tracing"
)

const (
	minReconnectBackoff = time.Second
	maxReconnectBackoff = 30 * time.Second
)

var errDeliveriesClosed = errors.New("deliveries channel closed")

// Consumer feeds jobs from the work queue to the handler with a fixed number
// of concurrent workers. It reconnects until its context is cancelled.
type Consumer struct {
	url     string
	workers int

	handler JobHandlerInterface

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

func (c *Consumer) Run(ctx context.Context) error {
	retry := reconnectBackoff()

	for {
		conn, err := amqp.Dial(c.url)
		if err != nil {
			wait := retry.NextBackOff()
			_ = c.monitor.SetDependencyAvailability(map[string]string{"component": "amqp"}, 0)
			c.logger.Errorf("failed to dial broker: %v; retrying in %s", err, wait)

			if !sleep(ctx, wait) {
				return ctx.Err()
			}
			continue
		}

		retry.Reset()
		_ = c.monitor.SetDependencyAvailability(map[string]string{"component": "amqp"}, 1)

		err = c.consume(ctx, conn)
		_ = conn.Close()

		if ctx.Err() != nil {
			return ctx.Err()
		}

		c.logger.Warnf("consume loop ended: %v; reconnecting", err)
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func (c *Consumer) consume(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(c.workers, 0, false); err != nil {
		return fmt.Errorf("set qos: %w", err)
	}

	if err := declare(ch); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}

	msgs, err := ch.ConsumeWithContext(ctx, JobsQueue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < c.workers; i++ {
		g.Go(func() error {
			for {
				select {
				case <-gctx.Done():
					return gctx.Err()
				case d, ok := <-msgs:
					if !ok {
						return errDeliveriesClosed
					}
					c.handle(gctx, d)
				}
			}
		})
	}

	return g.Wait()
}

// handle acks processed jobs and drops the ones that cannot be processed,
// retries are scheduled by the processor as new jobs.
func (c *Consumer) handle(ctx context.Context, d amqp.Delivery) {
	ctx, span := c.tracer.Start(ctx, "queue.Consumer.handle")
	defer span.End()

	msg := new(Message)
	if err := json.Unmarshal(d.Body, msg); err != nil || msg.JobID == "" {
		c.logger.Errorf("dropping malformed job message %q: %v", d.MessageId, err)
		_ = d.Nack(false, false)
		return
	}

	if err := c.handler.ProcessJob(ctx, msg.JobID); err != nil {
		c.logger.Errorf("job %s failed: %v", msg.JobID, err)
		_ = d.Nack(false, false)
		return
	}

	_ = d.Ack(false)
}

// reconnectBackoff spaces out dial attempts with jitter so replicas do not
// reconnect in lockstep after a broker restart.
func reconnectBackoff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = minReconnectBackoff
	b.MaxInterval = maxReconnectBackoff
	b.Reset()

	return b
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func NewConsumer(url string, workers int, handler JobHandlerInterface, tracer tracing.TracingInterface, monitor monitoring.MonitorInterface, logger logging.LoggerInterface) *Consumer {
	c := new(Consumer)

	c.url = url
	c.workers = max(workers, 1)
	c.handler = handler

	c.tracer = tracer
	c.monitor = monitor
	c.logger = logger

	return c
}

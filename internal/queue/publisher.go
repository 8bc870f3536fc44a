// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/canonical/provider-sync-service/internal/logging"
	"github.com/canonical/provider-sync-service/internal/monitoring"
	"github.com/canonical/provider-sync-service/internal/tracing"
	"github.com/canonical/provider-sync-service/internal/types"
)

// Publisher hands jobs to the worker pool. Delayed jobs wait in the delay
// queue until their per message TTL expires.
type Publisher struct {
	url string

	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

func (p *Publisher) Dispatch(ctx context.Context, job *types.SyncJob, delay time.Duration) error {
	ctx, span := p.tracer.Start(ctx, "queue.Publisher.Dispatch")
	defer span.End()

	body, err := json.Marshal(&Message{
		JobID:    job.ID,
		TenantID: job.TenantID,
		Provider: job.Provider,
		SentAt:   time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to encode job message: %w", err)
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		MessageId:    job.ID,
		Body:         body,
	}

	queue := JobsQueue
	if delay > 0 {
		queue = DelayQueue
		msg.Expiration = expiration(delay)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.publish(ctx, queue, msg); err != nil {
		p.logger.Warnf("publish of job %s failed, reconnecting: %v", job.ID, err)

		if err := p.connect(); err != nil {
			return err
		}
		if err := p.publish(ctx, queue, msg); err != nil {
			return fmt.Errorf("failed to publish job %s: %w", job.ID, err)
		}
	}

	p.logger.Debugf("dispatched job %s to %s (delay %s)", job.ID, queue, delay)
	return nil
}

func (p *Publisher) publish(ctx context.Context, queue string, msg amqp.Publishing) error {
	if p.ch == nil || p.ch.IsClosed() {
		return amqp.ErrClosed
	}
	return p.ch.PublishWithContext(ctx, "", queue, false, false, msg)
}

// connect (re)opens the connection, callers hold the lock.
func (p *Publisher) connect() error {
	p.closeLocked()

	conn, err := amqp.Dial(p.url)
	if err != nil {
		_ = p.monitor.SetDependencyAvailability(map[string]string{"component": "amqp"}, 0)
		return fmt.Errorf("failed to dial broker: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("failed to open channel: %w", err)
	}

	if err := declare(ch); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return fmt.Errorf("failed to declare queues: %w", err)
	}

	p.conn = conn
	p.ch = ch
	_ = p.monitor.SetDependencyAvailability(map[string]string{"component": "amqp"}, 1)

	return nil
}

func (p *Publisher) closeLocked() {
	if p.ch != nil {
		_ = p.ch.Close()
		p.ch = nil
	}
	if p.conn != nil {
		_ = p.conn.Close()
		p.conn = nil
	}
}

func (p *Publisher) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.closeLocked()
}

func NewPublisher(url string, tracer tracing.TracingInterface, monitor monitoring.MonitorInterface, logger logging.LoggerInterface) (*Publisher, error) {
	p := new(Publisher)

	p.url = url

	p.tracer = tracer
	p.monitor = monitor
	p.logger = logger

	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.connect(); err != nil {
		return nil, err
	}

	return p, nil
}

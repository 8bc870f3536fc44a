// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

// Package queue moves sync jobs between the API and the workers over AMQP.
package queue

import (
	"strconv"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	JobsQueue  = "sync.jobs"
	DelayQueue = "sync.jobs.delay"
)

// Message only references the job, workers reload it from storage.
type Message struct {
	JobID    string    `json:"job_id"`
	TenantID string    `json:"tenant_id"`
	Provider string    `json:"provider"`
	SentAt   time.Time `json:"sent_at"`
}

// declare sets up the work queue and the delay queue whose expired messages
// are dead lettered back into the work queue.
func declare(ch *amqp.Channel) error {
	if _, err := ch.QueueDeclare(JobsQueue, true, false, false, false, nil); err != nil {
		return err
	}

	_, err := ch.QueueDeclare(
		DelayQueue,
		true,
		false,
		false,
		false,
		amqp.Table{
			"x-dead-letter-exchange":    "",
			"x-dead-letter-routing-key": JobsQueue,
		},
	)
	return err
}

func expiration(delay time.Duration) string {
	ms := delay.Milliseconds()
	if ms < 1 {
		ms = 1
	}
	return strconv.FormatInt(ms, 10)
}

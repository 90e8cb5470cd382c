package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"linkforge/internal/entities"
	"linkforge/internal/repository"
)

// storageTimeout bounds each increment so a stalled database cannot pin a
// delivery forever; the nack puts it back on the queue instead.
const storageTimeout = 5 * time.Second

// acknowledger is the subset of amqp.Delivery the consumer needs,
// extracted so delivery handling is testable without a live broker.
type acknowledger interface {
	Ack(multiple bool) error
	Nack(multiple bool, requeue bool) error
}

// ClickConsumer drains the click queue and applies counter increments.
// Messages are acked only after the increment commits; any failure nacks
// with requeue so another delivery attempt happens later. A poison message
// is retried indefinitely (no dead-letter queue; a production hardening
// would add a retry-count header and a dead-letter destination).
type ClickConsumer struct {
	broker  *Broker
	repo    repository.LinkRepository
	workers int
	logger  *slog.Logger
	wg      sync.WaitGroup
}

// NewClickConsumer creates a consumer pool of the given size.
func NewClickConsumer(broker *Broker, repo repository.LinkRepository, workers int, logger *slog.Logger) *ClickConsumer {
	if workers < 1 {
		workers = 1
	}
	return &ClickConsumer{
		broker:  broker,
		repo:    repo,
		workers: workers,
		logger:  logger,
	}
}

// Start launches the worker pool. Each worker consumes on its own channel
// with prefetch 1 for fair distribution. Workers stop accepting deliveries
// when ctx is cancelled, finish the in-flight message, and release their
// channels; Wait blocks until all have exited.
func (c *ClickConsumer) Start(ctx context.Context) error {
	for i := 0; i < c.workers; i++ {
		ch, err := c.broker.Channel()
		if err != nil {
			return fmt.Errorf("failed to open consumer channel: %w", err)
		}

		if err := ch.Qos(1, 0, false); err != nil {
			ch.Close()
			return fmt.Errorf("failed to set prefetch: %w", err)
		}

		tag := "click-consumer-" + uuid.NewString()
		deliveries, err := ch.Consume(
			c.broker.QueueName(),
			tag,
			false, // autoAck off, we ack after the increment commits
			false, // exclusive
			false, // noLocal
			false, // noWait
			nil,
		)
		if err != nil {
			ch.Close()
			return fmt.Errorf("failed to start consuming: %w", err)
		}

		c.wg.Add(1)
		go func(worker int) {
			defer c.wg.Done()
			defer ch.Close()

			log := c.logger.With("worker", worker)
			log.Info("click worker started")

			for {
				select {
				case <-ctx.Done():
					// Cancel stops new deliveries; the deferred channel
					// close requeues anything still unacked.
					if err := ch.Cancel(tag, false); err != nil {
						log.Warn("failed to cancel consumer", "error", err)
					}
					log.Info("click worker stopped")
					return
				case d, ok := <-deliveries:
					if !ok {
						log.Warn("delivery channel closed")
						return
					}
					c.handleDelivery(d.Body, &d, log)
				}
			}
		}(i)
	}

	return nil
}

// Wait blocks until every worker has exited.
func (c *ClickConsumer) Wait() {
	c.wg.Wait()
}

func (c *ClickConsumer) handleDelivery(body []byte, ack acknowledger, log *slog.Logger) {
	var event entities.ClickEvent
	if err := json.Unmarshal(body, &event); err != nil {
		log.Error("failed to decode click event", "error", err)
		c.nack(ack, log)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), storageTimeout)
	defer cancel()

	if err := c.repo.IncrementClickCount(ctx, event.ShortCode); err != nil {
		log.Error("failed to increment click count", "short_code", event.ShortCode, "error", err)
		c.nack(ack, log)
		return
	}

	if err := ack.Ack(false); err != nil {
		log.Error("failed to ack click event", "short_code", event.ShortCode, "error", err)
		return
	}

	log.Debug("processed click", "short_code", event.ShortCode)
}

func (c *ClickConsumer) nack(ack acknowledger, log *slog.Logger) {
	if err := ack.Nack(false, true); err != nil {
		log.Error("failed to nack click event", "error", err)
	}
}

package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/cuongbtq/jobboard/internal/events"
)

// ErrDeliveriesClosed is returned by Start when the broker closes the
// delivery channel while the worker is still running.
var ErrDeliveriesClosed = errors.New("delivery channel closed by broker")

// eventMessage is a decoded event paired with the delivery to settle.
type eventMessage struct {
	event    events.Event
	delivery amqp.Delivery
}

// setupConsumer starts consuming with manual acknowledgement. Prefetch is
// configured on the channel by the RabbitMQ client.
func (w *Worker) setupConsumer() (<-chan amqp.Delivery, error) {
	deliveries, err := w.source.Consume(w.workerID)
	if err != nil {
		return nil, fmt.Errorf("failed to start consuming: %w", err)
	}

	w.logger.Info("RabbitMQ consumer started",
		slog.String("consumer_tag", w.workerID),
	)

	return deliveries, nil
}

// startMessageDispatcher decodes deliveries and hands them to the pool.
// Messages that cannot be decoded are rejected without requeue. It returns
// ErrDeliveriesClosed when deliveries end before a stop was requested.
func (w *Worker) startMessageDispatcher(ctx context.Context, deliveries <-chan amqp.Delivery) error {
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Message dispatcher stopped - context canceled")
			return nil

		case <-w.stopChan:
			w.logger.Info("Message dispatcher stopped - worker stopping")
			return nil

		case delivery, ok := <-deliveries:
			if !ok {
				// Stop cancels the consumer, which also closes deliveries.
				if w.stopping.Load() || ctx.Err() != nil {
					w.logger.Info("Message dispatcher stopped - consumer canceled")
					return nil
				}
				w.logger.Error("RabbitMQ delivery channel closed unexpectedly")
				return ErrDeliveriesClosed
			}

			event, err := events.Decode(delivery.Body)
			if err != nil {
				w.logger.Error("Rejecting malformed event",
					slog.String("message_id", delivery.MessageId),
					slog.Any("error", err),
				)
				if nackErr := delivery.Nack(false, false); nackErr != nil {
					w.logger.Error("Failed to NACK malformed message",
						slog.Any("error", nackErr),
					)
				}
				continue
			}

			select {
			case w.eventsChan <- &eventMessage{event: event, delivery: delivery}:
				w.logger.Debug("Event dispatched to worker pool",
					slog.String("event_id", event.ID.String()),
					slog.Uint64("delivery_tag", delivery.DeliveryTag),
				)
			case <-ctx.Done():
				w.requeueOnShutdown(delivery)
				return nil
			case <-w.stopChan:
				w.requeueOnShutdown(delivery)
				return nil
			}
		}
	}
}

func (w *Worker) requeueOnShutdown(delivery amqp.Delivery) {
	w.logger.Info("Message dispatcher stopped while dispatching event")
	if nackErr := delivery.Nack(false, true); nackErr != nil {
		w.logger.Error("Failed to NACK message on shutdown",
			slog.Any("error", nackErr),
		)
	}
}

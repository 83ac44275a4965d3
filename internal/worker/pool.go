package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cuongbtq/jobboard/internal/domain"
)

// spawnWorkerPool spawns N goroutines based on the concurrency setting
func (w *Worker) spawnWorkerPool(ctx context.Context) {
	for i := 0; i < w.concurrency; i++ {
		w.wg.Add(1)
		go w.workerLoop(ctx, i)
	}

	w.logger.Info("Worker pool spawned",
		slog.Int("worker_count", w.concurrency),
	)
}

// workerLoop records events until the worker stops
func (w *Worker) workerLoop(ctx context.Context, workerNum int) {
	defer w.wg.Done()

	workerName := fmt.Sprintf("%s-%d", w.workerID, workerNum)

	for {
		select {
		case <-w.stopChan:
			return

		case <-ctx.Done():
			return

		case msg := <-w.eventsChan:
			w.settle(workerName, msg, w.processEvent(ctx, msg.event))
		}
	}
}

// settle acks on success and nacks on failure, requeueing only when the
// failure is transient.
func (w *Worker) settle(workerName string, msg *eventMessage, err error) {
	eventID := msg.event.ID.String()

	if err == nil {
		if ackErr := msg.delivery.Ack(false); ackErr != nil {
			w.logger.Error("Failed to ACK message",
				slog.String("worker_name", workerName),
				slog.String("event_id", eventID),
				slog.Any("error", ackErr),
			)
		}
		return
	}

	requeue := shouldRequeue(err)
	w.logger.Error("Event processing failed",
		slog.String("worker_name", workerName),
		slog.String("event_id", eventID),
		slog.Bool("requeue", requeue),
		slog.Any("error", err),
	)
	if nackErr := msg.delivery.Nack(false, requeue); nackErr != nil {
		w.logger.Error("Failed to NACK message",
			slog.String("worker_name", workerName),
			slog.String("event_id", eventID),
			slog.Any("error", nackErr),
		)
	}
}

// shouldRequeue requeues store outages and explicitly retryable errors.
// Anything else would fail the same way on redelivery.
func shouldRequeue(err error) bool {
	if errors.Is(err, domain.ErrStoreUnavailable) {
		return true
	}
	return domain.IsRetryable(err)
}

// Package worker consumes workflow events from RabbitMQ and records them
// in the activity log with a bounded pool of goroutines.
package worker

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/cuongbtq/jobboard/internal/events"
)

// DeliverySource is the consuming side of the RabbitMQ client.
type DeliverySource interface {
	Consume(consumerTag string) (<-chan amqp.Delivery, error)
	Cancel(consumerTag string) error
}

// ActivityRecorder stores one event. recorded is false for an event that
// was already stored.
type ActivityRecorder interface {
	RecordEvent(ctx context.Context, e events.Event) (recorded bool, err error)
}

// Config holds worker configuration
type Config struct {
	Logger        *slog.Logger
	Source        DeliverySource
	Recorder      ActivityRecorder
	WorkerID      string
	Concurrency   int
	RecordTimeout time.Duration
}

// Worker represents the activity log consumer
type Worker struct {
	logger        *slog.Logger
	source        DeliverySource
	recorder      ActivityRecorder
	workerID      string
	concurrency   int
	recordTimeout time.Duration
	eventsChan    chan *eventMessage
	wg            sync.WaitGroup
	stopChan      chan struct{}
	stopOnce      sync.Once
	stopping      atomic.Bool
}

// NewWorker creates a new worker instance
func NewWorker(cfg *Config) *Worker {
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	workerID := cfg.WorkerID
	if workerID == "" {
		workerID = "activity-worker-" + uuid.NewString()[:8]
	}
	return &Worker{
		logger:        cfg.Logger,
		source:        cfg.Source,
		recorder:      cfg.Recorder,
		workerID:      workerID,
		concurrency:   concurrency,
		recordTimeout: cfg.RecordTimeout,
		eventsChan:    make(chan *eventMessage, concurrency),
		stopChan:      make(chan struct{}),
	}
}

// Start consumes until ctx is canceled or Stop is called. It returns
// ErrDeliveriesClosed when the broker ends the consumer first, so the
// process can exit and be restarted.
func (w *Worker) Start(ctx context.Context) error {
	w.logger.Info("Starting worker",
		slog.String("worker_id", w.workerID),
		slog.Int("concurrency", w.concurrency),
		slog.Duration("record_timeout", w.recordTimeout),
	)

	deliveries, err := w.setupConsumer()
	if err != nil {
		return err
	}

	w.spawnWorkerPool(ctx)
	err = w.startMessageDispatcher(ctx, deliveries)

	w.logger.Info("Worker dispatcher exited", slog.String("worker_id", w.workerID))
	return err
}

// Stop cancels the consumer and waits for in-flight events to finish.
func (w *Worker) Stop() {
	w.stopOnce.Do(func() {
		w.logger.Info("Stopping worker...")
		w.stopping.Store(true)
		if err := w.source.Cancel(w.workerID); err != nil {
			w.logger.Warn("Failed to cancel consumer", slog.Any("error", err))
		}
		close(w.stopChan)
		w.wg.Wait()
		w.logger.Info("Worker stopped")
	})
}

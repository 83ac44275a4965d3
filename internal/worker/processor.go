package worker

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cuongbtq/jobboard/internal/events"
)

// processEvent writes one event to the activity log within the record
// timeout.
func (w *Worker) processEvent(ctx context.Context, e events.Event) error {
	if w.recordTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.recordTimeout)
		defer cancel()
	}

	recorded, err := w.recorder.RecordEvent(ctx, e)
	if err != nil {
		return fmt.Errorf("failed to record event %s: %w", e.ID, err)
	}

	if recorded {
		w.logger.Info("Event recorded",
			slog.String("event_id", e.ID.String()),
			slog.String("event_type", string(e.Type)),
			slog.Int64("actor_id", e.ActorID),
		)
	}
	return nil
}

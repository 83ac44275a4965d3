package handler

import (
	"context"
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/cuongbtq/jobboard/internal/events"
)

// publish ships e after the change it describes committed. A failure is
// logged and never changes the response.
func (h *Handler) publish(c *gin.Context, e events.Event) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(c.Request.Context()), h.publishTimeout)
	defer cancel()

	if err := h.publisher.Publish(ctx, e); err != nil {
		h.requestLogger(c).Warn("Failed to publish event",
			slog.String("event_id", e.ID.String()),
			slog.String("event_type", string(e.Type)),
			slog.Any("error", err),
		)
	}
}

package handler

import (
	"log/slog"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/cuongbtq/jobboard/internal/domain"
)

const (
	actorKey     = "actor"
	requestIDKey = "request_id"
)

// SetActor stores the authenticated actor on the request.
func SetActor(c *gin.Context, actor domain.Actor) {
	c.Set(actorKey, actor)
}

// ActorFrom returns the actor of the request, or the zero Actor when the
// request is anonymous.
func ActorFrom(c *gin.Context) domain.Actor {
	if v, ok := c.Get(actorKey); ok {
		if actor, ok := v.(domain.Actor); ok {
			return actor
		}
	}
	return domain.Actor{}
}

// SetRequestID stores the request id on the request.
func SetRequestID(c *gin.Context, id string) {
	c.Set(requestIDKey, id)
}

// RequestID returns the request id set by the request id middleware.
func RequestID(c *gin.Context) string {
	return c.GetString(requestIDKey)
}

func (h *Handler) requestLogger(c *gin.Context) *slog.Logger {
	return h.logger.With(slog.String("request_id", RequestID(c)))
}

// pathID parses a positive int64 path parameter.
func pathID(c *gin.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.NewValidationError(name, "must be a positive integer")
	}
	return id, nil
}

package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cuongbtq/jobboard/internal/account"
	"github.com/cuongbtq/jobboard/internal/events"
	"github.com/cuongbtq/jobboard/internal/session"
	"github.com/cuongbtq/jobboard/internal/workflow"
)

// Dependencies holds all dependencies needed by handlers
type Dependencies struct {
	Logger         *slog.Logger
	ServiceName    string
	Engine         *workflow.Engine
	Accounts       *account.Service
	Sessions       *session.Issuer
	Publisher      events.Publisher
	PublishTimeout time.Duration
	Ping           func(ctx context.Context) error
}

// Handler serves the job board HTTP API
type Handler struct {
	logger         *slog.Logger
	serviceName    string
	engine         *workflow.Engine
	accounts       *account.Service
	sessions       *session.Issuer
	publisher      events.Publisher
	publishTimeout time.Duration
	ping           func(ctx context.Context) error
}

// NewHandler creates a new Handler instance
func NewHandler(deps *Dependencies) *Handler {
	publisher := deps.Publisher
	if publisher == nil {
		publisher = events.Discard{}
	}
	publishTimeout := deps.PublishTimeout
	if publishTimeout <= 0 {
		publishTimeout = 2 * time.Second
	}
	return &Handler{
		logger:         deps.Logger,
		serviceName:    deps.ServiceName,
		engine:         deps.Engine,
		accounts:       deps.Accounts,
		sessions:       deps.Sessions,
		publisher:      publisher,
		publishTimeout: publishTimeout,
		ping:           deps.Ping,
	}
}

// Health handles GET /health
func (h *Handler) Health(c *gin.Context) {
	if h.ping != nil {
		if err := h.ping(c.Request.Context()); err != nil {
			h.requestLogger(c).Error("Health check failed", slog.Any("error", err))
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":  "unhealthy",
				"service": h.serviceName,
			})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": h.serviceName,
	})
}

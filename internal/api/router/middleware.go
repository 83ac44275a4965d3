package router

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/cuongbtq/jobboard/internal/api/dto"
	"github.com/cuongbtq/jobboard/internal/api/handler"
	"github.com/cuongbtq/jobboard/internal/domain"
	"github.com/cuongbtq/jobboard/internal/session"
)

const requestIDHeader = "X-Request-ID"

// RequestIDMiddleware propagates X-Request-ID, generating one when absent
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		handler.SetRequestID(c, id)
		c.Writer.Header().Set(requestIDHeader, id)
		c.Next()
	}
}

// LoggerMiddleware logs HTTP requests with slog
func LoggerMiddleware(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		// Process request
		c.Next()

		latency := time.Since(start)

		attrs := []any{
			slog.String("request_id", handler.RequestID(c)),
			slog.Int("status", c.Writer.Status()),
			slog.String("method", c.Request.Method),
			slog.String("path", path),
			slog.String("query", query),
			slog.String("ip", c.ClientIP()),
			slog.String("user_agent", c.Request.UserAgent()),
			slog.Duration("latency", latency),
			slog.Int("body_size", c.Writer.Size()),
		}
		if actor := handler.ActorFrom(c); actor.Authenticated() {
			attrs = append(attrs, slog.Int64("user_id", actor.UserID))
		}
		logger.Info("HTTP Request", attrs...)

		for _, e := range c.Errors {
			logger.Error("Request error",
				slog.String("request_id", handler.RequestID(c)),
				slog.String("error", e.Error()),
				slog.Uint64("type", uint64(e.Type)),
			)
		}
	}
}

// CORSMiddleware handles Cross-Origin Resource Sharing
func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With, X-Request-ID")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, PATCH")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "X-Request-ID, Retry-After")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// AuthMiddleware resolves the bearer token into the request actor. With
// required set, requests without a token are rejected; otherwise they run
// as anonymous. A token that is present but invalid is always rejected.
func AuthMiddleware(sessions *session.Issuer, required bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			if required {
				unauthenticated(c, "missing bearer token")
				return
			}
			c.Next()
			return
		}

		scheme, token, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			unauthenticated(c, "malformed authorization header")
			return
		}

		actor, err := sessions.Parse(strings.TrimSpace(token))
		if err != nil {
			unauthenticated(c, "invalid or expired token")
			return
		}

		handler.SetActor(c, actor)
		c.Next()
	}
}

func unauthenticated(c *gin.Context, reason string) {
	c.Header("WWW-Authenticate", `Bearer realm="jobboard"`)
	c.AbortWithStatusJSON(http.StatusUnauthorized, dto.ErrorResponse{
		Error: reason,
		Code:  domain.CodeUnauthenticated,
	})
}

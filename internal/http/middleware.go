package http

import (
	"log/slog"
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"

	apperrors "github.com/allisson/piivault/internal/errors"
	"github.com/allisson/piivault/internal/httputil"
)

// actorHeader carries the caller identity the upstream service authenticated.
// The engine trusts it as-is; authentication itself happens before requests
// reach this API.
const actorHeader = "X-Actor-Id"

// CustomLoggerMiddleware logs HTTP requests through slog with the request id
// attached, so API logs correlate with audit entries.
func CustomLoggerMiddleware(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		logger.Info("http request",
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Int("status", c.Writer.Status()),
			slog.Duration("duration", time.Since(start)),
			slog.String("request_id", requestid.Get(c)),
			slog.String("remote_addr", c.ClientIP()),
		)
	}
}

// ActorMiddleware requires the X-Actor-Id header and stores the actor and the
// request id in the request context, where use cases pick them up for audit
// attribution. Requests without an actor are rejected before any handler runs.
func ActorMiddleware(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := c.GetHeader(actorHeader)
		if actor == "" {
			httputil.HandleErrorGin(c, apperrors.Wrap(apperrors.ErrUnauthorized, "X-Actor-Id header is required"), logger)
			c.Abort()
			return
		}

		ctx := httputil.WithActor(c.Request.Context(), actor)
		ctx = httputil.WithRequestID(ctx, requestid.Get(c))
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

package server

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	goerrors "github.com/go-errors/errors"
)

func loggingMiddleware(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		level := slog.LevelInfo
		if status >= http.StatusInternalServerError {
			level = slog.LevelWarn
		}
		logger.Log(c.Request.Context(), level, "http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"duration", time.Since(start),
			"client", c.ClientIP(),
		)
	}
}

// recoveryMiddleware answers any panic that escapes a handler with the JSON
// failure payload.
func (s *Server) recoveryMiddleware() gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(nil, func(c *gin.Context, recovered any) {
		stack := goerrors.Wrap(recovered, 2)
		message := fmt.Sprintf("unhandled panic: %v", recovered)

		s.logger.Error("handler panicked",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"error", message,
			"trace", string(stack.Stack()),
		)

		env := s.opts.Environment.Environment(c.Request.Context())
		resp := newFailureResponse(env, message, string(stack.Stack()), s.opts.ExposeTraces)
		if c.Writer.Written() {
			c.Abort()
			return
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, resp)
	})
}

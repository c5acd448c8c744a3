package handlers

import (
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/exp/slog"
)

// RequestLogger logs one line per handled request.
func RequestLogger(log *slog.Logger) gin.HandlerFunc {
	log = log.With(slog.String("component", "http_logger"))
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		attrs := []any{
			slog.String("method", c.Request.Method),
			slog.String("path", path),
			slog.Int("status", c.Writer.Status()),
			slog.Duration("duration", time.Since(start)),
			slog.String("remote_addr", c.ClientIP()),
		}
		if len(c.Errors) > 0 {
			attrs = append(attrs, slog.String("error", c.Errors.String()))
			log.Error("HTTP request", attrs...)
			return
		}
		log.Info("HTTP request", attrs...)
	}
}

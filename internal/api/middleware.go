// Package api is the HTTP surface wired as a thin gin layer over the
// crawler, query, and shared service components.
package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ErrorResponse is the structured JSON error body used across every handler
// in this package.
type ErrorResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// LoggerMiddleware logs one line per request at info level.
func LoggerMiddleware(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
		)
	}
}

// RecoveryMiddleware converts a panic into a 500 ErrorResponse instead of
// crashing the process.
func RecoveryMiddleware(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Error("panic recovered", zap.Any("error", r), zap.String("path", c.Request.URL.Path))
				c.JSON(http.StatusInternalServerError, ErrorResponse{Status: "error", Message: "internal server error"})
				c.Abort()
			}
		}()
		c.Next()
	}
}
